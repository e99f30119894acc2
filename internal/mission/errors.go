package mission

import (
	"errors"
	"fmt"
)

// ErrGoalOutstanding is returned by Channel.Submit while a previous flight
// goal has not reached a terminal state. Callers must cancel first.
var ErrGoalOutstanding = errors.New("a flight goal is already outstanding")

// ValidationError reports a malformed mission plan or waypoint. It is
// surfaced before any flight occurs and prevents takeoff entirely.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "mission validation failed: " + e.Reason
}

// PathPlanningError reports that the external planner rejected a segment or
// returned an empty result. It aborts mission start; the vehicle never flies
// a partial plan.
type PathPlanningError struct {
	Segment int
	Err     error
}

func (e *PathPlanningError) Error() string {
	return fmt.Sprintf("path planning failed on segment %d: %v", e.Segment, e.Err)
}

func (e *PathPlanningError) Unwrap() error { return e.Err }

// ActuationError reports a flight goal that terminated in a non-success
// state. Actuation failures are never retried; they end the mission.
type ActuationError struct {
	Motion Motion
	Status GoalStatus
}

func (e *ActuationError) Error() string {
	return fmt.Sprintf("%s goal terminated with status %s", e.Motion, e.Status)
}

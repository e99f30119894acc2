package mission

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

// Motion is the kind of flight goal the actuation channel can execute.
type Motion int

const (
	MotionTakeoff Motion = iota
	MotionGoto
	MotionLand
)

func (m Motion) String() string {
	switch m {
	case MotionTakeoff:
		return "takeoff"
	case MotionGoto:
		return "goto"
	case MotionLand:
		return "land"
	default:
		return fmt.Sprintf("motion(%d)", int(m))
	}
}

// GoalStatus is the lifecycle state of a flight goal. Every status except
// StatusPending is terminal.
type GoalStatus int32

const (
	StatusPending GoalStatus = iota
	StatusSucceeded
	StatusPreempted
	StatusAborted
	StatusRejected
)

func (s GoalStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusSucceeded:
		return "succeeded"
	case StatusPreempted:
		return "preempted"
	case StatusAborted:
		return "aborted"
	case StatusRejected:
		return "rejected"
	default:
		return fmt.Sprintf("status(%d)", int32(s))
	}
}

// Terminal reports whether the status is final.
func (s GoalStatus) Terminal() bool {
	return s != StatusPending
}

// FlightGoal is one request on the flight actuation channel.
type FlightGoal struct {
	Motion Motion   `json:"motion"`
	Target Waypoint `json:"target"`

	VerticalSpeed   float64 `json:"verticalSpeed"`
	HorizontalSpeed float64 `json:"horizontalSpeed"`
	YawRate         float64 `json:"yawRate"`

	WaitForConvergence bool    `json:"waitForConvergence"`
	PositionTolerance  float64 `json:"positionTolerance"`
	YawTolerance       float64 `json:"yawTolerance"`
}

// GoalHandle tracks one submitted goal until the flight controller reports a
// terminal status.
type GoalHandle struct {
	id     uint64
	goal   FlightGoal
	status atomic.Int32
}

// NewGoalHandle wraps a goal for tracking. Transports create one per
// submitted goal.
func NewGoalHandle(id uint64, goal FlightGoal) *GoalHandle {
	return &GoalHandle{id: id, goal: goal}
}

// ID returns the transport-assigned goal identifier.
func (h *GoalHandle) ID() uint64 { return h.id }

// Goal returns the submitted goal.
func (h *GoalHandle) Goal() FlightGoal { return h.goal }

// Status returns the goal's current lifecycle state.
func (h *GoalHandle) Status() GoalStatus {
	return GoalStatus(h.status.Load())
}

// Resolve moves the goal to a terminal status. The first terminal status
// wins; later calls are ignored. It reports whether this call resolved the
// goal.
func (h *GoalHandle) Resolve(status GoalStatus) bool {
	if !status.Terminal() {
		return false
	}
	return h.status.CompareAndSwap(int32(StatusPending), int32(status))
}

// GoalTransport delivers goals to the flight controller and cancellations of
// the outstanding goal. Implementations resolve the returned handle when the
// controller reports a terminal state.
type GoalTransport interface {
	Send(ctx context.Context, goal FlightGoal) (*GoalHandle, error)
	Cancel(ctx context.Context, handle *GoalHandle) error
}

// Channel is the single logical actuation channel. It makes the
// one-outstanding-goal rule a type-level invariant: Submit refuses a second
// request while one is pending instead of relying on callers to cancel first.
type Channel struct {
	mu        sync.Mutex
	transport GoalTransport
	current   *GoalHandle
}

// NewChannel wraps a transport in the single-outstanding-goal invariant.
func NewChannel(transport GoalTransport) *Channel {
	return &Channel{transport: transport}
}

// Submit issues a new flight goal. It returns ErrGoalOutstanding if the
// previous goal has not reached a terminal state.
func (c *Channel) Submit(ctx context.Context, goal FlightGoal) (*GoalHandle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current != nil && !c.current.Status().Terminal() {
		return nil, ErrGoalOutstanding
	}

	handle, err := c.transport.Send(ctx, goal)
	if err != nil {
		return nil, fmt.Errorf("failed to send %s goal: %w", goal.Motion, err)
	}

	c.current = handle
	return handle, nil
}

// Cancel requests cancellation of the outstanding goal, if any. It is safe to
// call with nothing outstanding.
func (c *Channel) Cancel(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current == nil || c.current.Status().Terminal() {
		return nil
	}

	return c.transport.Cancel(ctx, c.current)
}

// Outstanding returns the most recently submitted goal handle, which may
// already be terminal. Nil before the first Submit.
func (c *Channel) Outstanding() *GoalHandle {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

package mission

import (
	"encoding/json"
	"fmt"
)

// Waypoint is an immutable world-frame pose: position in meters, yaw in
// radians. It is used both for coarse plan waypoints and for the fine
// planner-produced path.
type Waypoint struct {
	X   float64 `json:"x"`
	Y   float64 `json:"y"`
	Z   float64 `json:"z"`
	Yaw float64 `json:"yaw"`
}

// AtAltitude returns a copy of the waypoint with Z replaced.
func (w Waypoint) AtAltitude(z float64) Waypoint {
	w.Z = z
	return w
}

// WithYaw returns a copy of the waypoint with Yaw replaced.
func (w Waypoint) WithYaw(yaw float64) Waypoint {
	w.Yaw = yaw
	return w
}

func (w Waypoint) String() string {
	return fmt.Sprintf("(%.2f, %.2f, %.2f | yaw %.2f)", w.X, w.Y, w.Z, w.Yaw)
}

// MissionPlan is an ordered, non-empty sequence of coarse waypoints. It is
// validated at construction and never mutated afterwards.
type MissionPlan struct {
	waypoints []Waypoint
}

// NewMissionPlan validates and wraps a coarse waypoint sequence.
func NewMissionPlan(waypoints []Waypoint) (MissionPlan, error) {
	if len(waypoints) == 0 {
		return MissionPlan{}, &ValidationError{Reason: "mission plan is empty"}
	}
	wps := make([]Waypoint, len(waypoints))
	copy(wps, waypoints)
	return MissionPlan{waypoints: wps}, nil
}

// ParsePlan decodes a coarse plan from its on-disk form: a JSON array of
// [x, y, z, yaw] entries. Every entry must carry exactly four values; a
// malformed entry fails the whole plan so no partial mission can start.
func ParsePlan(data []byte) (MissionPlan, error) {
	var raw [][]float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return MissionPlan{}, &ValidationError{Reason: fmt.Sprintf("plan is not a waypoint array: %v", err)}
	}

	waypoints := make([]Waypoint, 0, len(raw))
	for i, entry := range raw {
		if len(entry) != 4 {
			return MissionPlan{}, &ValidationError{
				Reason: fmt.Sprintf("waypoint %d has %d fields, want 4 (x, y, z, yaw)", i, len(entry)),
			}
		}
		waypoints = append(waypoints, Waypoint{X: entry[0], Y: entry[1], Z: entry[2], Yaw: entry[3]})
	}

	return NewMissionPlan(waypoints)
}

// Len returns the number of coarse waypoints.
func (p MissionPlan) Len() int { return len(p.waypoints) }

// Waypoints returns a copy of the coarse waypoint sequence.
func (p MissionPlan) Waypoints() []Waypoint {
	wps := make([]Waypoint, len(p.waypoints))
	copy(wps, p.waypoints)
	return wps
}

// Last returns the final coarse waypoint.
func (p MissionPlan) Last() Waypoint {
	return p.waypoints[len(p.waypoints)-1]
}

// FlightPath is the ordered fine waypoint sequence produced by expanding a
// MissionPlan through the path planner. It is immutable for the duration of
// the lap; a fresh two-point expansion is computed for the landing approach.
type FlightPath []Waypoint

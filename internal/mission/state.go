package mission

import (
	"fmt"
	"sync"
)

// TargetClass is the closed set of things the perception pipeline can report.
type TargetClass int

const (
	ClassUnknown TargetClass = iota
	ClassLandingMarker
	ClassPayloadA
	ClassPayloadB
)

func (c TargetClass) String() string {
	switch c {
	case ClassLandingMarker:
		return "landing-marker"
	case ClassPayloadA:
		return "payload-a"
	case ClassPayloadB:
		return "payload-b"
	default:
		return fmt.Sprintf("unknown(%d)", int(c))
	}
}

// ParseTargetClass maps a perception class id to a TargetClass. Unrecognized
// ids map to ClassUnknown; they are counted and dropped, never erred.
func ParseTargetClass(id int) TargetClass {
	switch TargetClass(id) {
	case ClassLandingMarker, ClassPayloadA, ClassPayloadB:
		return TargetClass(id)
	default:
		return ClassUnknown
	}
}

// Detection is one perception event in the pipeline's native frame units:
// pixel-centered for markers, normalized [0, 1] for payload targets.
type Detection struct {
	Class    TargetClass
	Identity string // marker detections only
	X        float64
	Y        float64
}

// VehicleState is the continuously updated vehicle telemetry. Each field has
// a single writer (the corresponding stream handler) and many readers.
type VehicleState struct {
	mu sync.RWMutex

	position Waypoint
	havePose bool

	battery     BatteryLevel
	haveBattery bool
}

// SetPosition records the latest pose sample.
func (v *VehicleState) SetPosition(p Waypoint) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.position = p
	v.havePose = true
}

// Position returns the latest pose and whether one has been received.
func (v *VehicleState) Position() (Waypoint, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.position, v.havePose
}

// SetBattery records the latest battery sample.
func (v *VehicleState) SetBattery(b BatteryLevel) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.battery = b
	v.haveBattery = true
}

// Battery returns the latest battery sample and whether one has been received.
func (v *VehicleState) Battery() (BatteryLevel, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.battery, v.haveBattery
}

// Progress is the mission's mutable cursor and flag set. It is owned
// exclusively by the Sequencer; external observers read it through
// (*Sequencer).Snapshot.
type Progress struct {
	// WaypointIndex is the cursor into the expanded flight path. Invariant:
	// WaypointIndex <= len(path).
	WaypointIndex int

	ReachedFirstWaypoint bool
	CompletedSearchLap   bool

	// PerformingDiversion is the sole concurrency gate between the lap tick
	// and an active ROI diversion: while set, the tick neither advances
	// WaypointIndex nor issues lap goals.
	PerformingDiversion bool

	// Objectives tracks completion of each configured mission requirement.
	Objectives map[TargetClass]bool
}

// objectivesComplete reports whether every configured objective is done.
func (p *Progress) objectivesComplete() bool {
	for _, done := range p.Objectives {
		if !done {
			return false
		}
	}
	return true
}

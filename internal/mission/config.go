package mission

import (
	"time"

	"github.com/skyhive-io/skyhive/pkg/log"
)

// Safe operating band for the lap altitude. Heights outside the band are
// clamped, not rejected: an operator typo must not ground the vehicle with a
// cryptic error, but it must never command a dangerous altitude either.
const (
	MinFlightHeight = 0.8
	MaxFlightHeight = 10.0
)

// Config carries every mission parameter the sequencer needs. It is built
// once at mission start and passed at construction; the sequencer never reads
// ambient global state.
type Config struct {
	FlightHeight   float64
	DeployAltitude float64

	LinearSpeed float64
	YawRate     float64

	PositionTolerance float64
	YawTolerance      float64

	Battery BatteryThresholds

	// Continuous restarts the lap from the beginning while objectives remain
	// unmet.
	Continuous bool

	TickInterval   time.Duration
	SettleDuration time.Duration

	// Downward camera model.
	CameraFOVX  float64 // radians
	CameraFOVY  float64 // radians
	MarkerFrame FrameRef
	TargetFrame FrameRef

	// Objectives is the set of mission requirements that must all be
	// satisfied for the mission to complete.
	Objectives []TargetClass

	// Now is the clock used for settle timing. Defaults to time.Now; tests
	// inject a fake.
	Now func() time.Time
}

// DefaultObjectives is the standard inspection-and-delivery objective set.
func DefaultObjectives() []TargetClass {
	return []TargetClass{ClassPayloadA, ClassPayloadB, ClassLandingMarker}
}

// Validate normalizes the config and rejects values no mission can fly with.
func (c *Config) Validate() error {
	if c.FlightHeight < MinFlightHeight {
		log.Warn("Flight height below safe band, clamping", "requested", c.FlightHeight, "min", MinFlightHeight)
		c.FlightHeight = MinFlightHeight
	}
	if c.FlightHeight > MaxFlightHeight {
		log.Warn("Flight height above safe band, clamping", "requested", c.FlightHeight, "max", MaxFlightHeight)
		c.FlightHeight = MaxFlightHeight
	}

	if c.DeployAltitude <= 0 || c.DeployAltitude >= c.FlightHeight {
		return &ValidationError{Reason: "deploy altitude must be positive and below flight height"}
	}
	if c.TickInterval <= 0 {
		return &ValidationError{Reason: "tick interval must be positive"}
	}
	if c.SettleDuration < 0 {
		return &ValidationError{Reason: "settle duration must not be negative"}
	}
	if c.CameraFOVX <= 0 || c.CameraFOVY <= 0 {
		return &ValidationError{Reason: "camera field of view must be positive"}
	}

	if len(c.Objectives) == 0 {
		c.Objectives = DefaultObjectives()
	}
	if c.Now == nil {
		c.Now = time.Now
	}

	return nil
}

// gotoGoal builds a standard goto goal from the config's speeds and
// tolerances.
func (c *Config) gotoGoal(target Waypoint) FlightGoal {
	return FlightGoal{
		Motion:             MotionGoto,
		Target:             target,
		VerticalSpeed:      c.LinearSpeed,
		HorizontalSpeed:    c.LinearSpeed,
		YawRate:            c.YawRate,
		WaitForConvergence: true,
		PositionTolerance:  c.PositionTolerance,
		YawTolerance:       c.YawTolerance,
	}
}

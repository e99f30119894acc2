package options

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
)

var _ IOptions = (*MissionOptions)(nil)

// MissionOptions carries the operator-facing mission parameters. They are read
// once at mission start; the flight-height band and tick interval are enforced
// again by the mission config validation before takeoff.
type MissionOptions struct {
	// DroneID identifies this vehicle in every MQTT topic.
	DroneID string `json:"drone-id" mapstructure:"drone-id"`

	// PlanFile is the path to the coarse waypoint plan (JSON array of
	// [x, y, z, yaw] entries).
	PlanFile string `json:"plan-file" mapstructure:"plan-file"`

	FlightHeight   float64 `json:"flight-height" mapstructure:"flight-height"`
	DeployAltitude float64 `json:"deploy-altitude" mapstructure:"deploy-altitude"`

	LinearSpeed float64 `json:"linear-speed" mapstructure:"linear-speed"`
	YawRate     float64 `json:"yaw-rate" mapstructure:"yaw-rate"`

	PositionTolerance float64 `json:"position-tolerance" mapstructure:"position-tolerance"`
	YawTolerance      float64 `json:"yaw-tolerance" mapstructure:"yaw-tolerance"`

	BatteryLowPercent float64 `json:"battery-low-percent" mapstructure:"battery-low-percent"`
	BatteryLowVoltage float64 `json:"battery-low-voltage" mapstructure:"battery-low-voltage"`

	// Continuous restarts the search lap from the beginning while objectives
	// remain unmet.
	Continuous bool `json:"continuous" mapstructure:"continuous"`

	TickInterval   time.Duration `json:"tick-interval" mapstructure:"tick-interval"`
	SettleDuration time.Duration `json:"settle-duration" mapstructure:"settle-duration"`

	// Downward camera model used to project detections onto the ground plane.
	CameraFOVXDeg     float64 `json:"camera-fov-x" mapstructure:"camera-fov-x"`
	CameraFOVYDeg     float64 `json:"camera-fov-y" mapstructure:"camera-fov-y"`
	MarkerFrameWidth  float64 `json:"marker-frame-width" mapstructure:"marker-frame-width"`
	MarkerFrameHeight float64 `json:"marker-frame-height" mapstructure:"marker-frame-height"`
}

// NewMissionOptions creates a new MissionOptions with default values.
func NewMissionOptions() *MissionOptions {
	return &MissionOptions{
		DroneID:           "uav-001",
		FlightHeight:      2.0,
		DeployAltitude:    0.8,
		LinearSpeed:       0.6,
		YawRate:           0.5,
		PositionTolerance: 0.25,
		YawTolerance:      0.2,
		BatteryLowPercent: 20.0,
		BatteryLowVoltage: 10.5,
		TickInterval:      50 * time.Millisecond,
		SettleDuration:    2 * time.Second,
		CameraFOVXDeg:     62.0,
		CameraFOVYDeg:     48.0,
		MarkerFrameWidth:  640,
		MarkerFrameHeight: 480,
	}
}

// Validate is used to parse and validate the parameters entered by the user at
// the command line when the program starts.
func (o *MissionOptions) Validate() []error {
	if o == nil {
		return nil
	}

	errs := []error{}
	if o.DroneID == "" {
		errs = append(errs, fmt.Errorf("mission.drone-id is required"))
	}
	if o.PlanFile == "" {
		errs = append(errs, fmt.Errorf("mission.plan-file is required"))
	}
	if o.TickInterval <= 0 {
		errs = append(errs, fmt.Errorf("mission.tick-interval must be positive"))
	}
	return errs
}

// AddFlags adds flags for MissionOptions to the specified FlagSet.
func (o *MissionOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.DroneID, "mission.drone-id", o.DroneID, "Vehicle identifier used in MQTT topics.")
	fs.StringVar(&o.PlanFile, "mission.plan-file", o.PlanFile, "Path to the coarse waypoint plan (JSON).")

	fs.Float64Var(&o.FlightHeight, "mission.flight-height", o.FlightHeight, "Lap altitude in meters (clamped to the safe band).")
	fs.Float64Var(&o.DeployAltitude, "mission.deploy-altitude", o.DeployAltitude, "Payload deployment altitude in meters.")
	fs.Float64Var(&o.LinearSpeed, "mission.linear-speed", o.LinearSpeed, "Horizontal/vertical speed for goto goals (m/s).")
	fs.Float64Var(&o.YawRate, "mission.yaw-rate", o.YawRate, "Yaw rate for goto goals (rad/s).")
	fs.Float64Var(&o.PositionTolerance, "mission.position-tolerance", o.PositionTolerance, "Goal convergence position tolerance (m).")
	fs.Float64Var(&o.YawTolerance, "mission.yaw-tolerance", o.YawTolerance, "Goal convergence yaw tolerance (rad).")

	fs.Float64Var(&o.BatteryLowPercent, "mission.battery-low-percent", o.BatteryLowPercent, "Battery percentage below which an emergency landing is forced.")
	fs.Float64Var(&o.BatteryLowVoltage, "mission.battery-low-voltage", o.BatteryLowVoltage, "Battery voltage below which an emergency landing is forced.")

	fs.BoolVar(&o.Continuous, "mission.continuous", o.Continuous, "Restart the search lap while objectives remain unmet.")
	fs.DurationVar(&o.TickInterval, "mission.tick-interval", o.TickInterval, "Period of the sequencer tick.")
	fs.DurationVar(&o.SettleDuration, "mission.settle-duration", o.SettleDuration, "Hold time before and after payload actuation.")

	fs.Float64Var(&o.CameraFOVXDeg, "mission.camera-fov-x", o.CameraFOVXDeg, "Horizontal camera field of view (degrees).")
	fs.Float64Var(&o.CameraFOVYDeg, "mission.camera-fov-y", o.CameraFOVYDeg, "Vertical camera field of view (degrees).")
	fs.Float64Var(&o.MarkerFrameWidth, "mission.marker-frame-width", o.MarkerFrameWidth, "Marker detection frame width (pixels).")
	fs.Float64Var(&o.MarkerFrameHeight, "mission.marker-frame-height", o.MarkerFrameHeight, "Marker detection frame height (pixels).")
}

package mission

import (
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		FlightHeight:      2.0,
		DeployAltitude:    0.9,
		LinearSpeed:       0.6,
		YawRate:           0.5,
		PositionTolerance: 0.25,
		YawTolerance:      0.2,
		Battery:           BatteryThresholds{LowPercent: 20, LowVoltage: 10.5},
		TickInterval:      50 * time.Millisecond,
		SettleDuration:    2 * time.Second,
		CameraFOVX:        1.08,
		CameraFOVY:        0.84,
		MarkerFrame:       FrameRef{Convention: FramePixels, Width: 640, Height: 480},
		TargetFrame:       FrameRef{Convention: FrameNormalized},
	}
}

func TestConfigValidateClampsFlightHeight(t *testing.T) {
	tests := []struct {
		name      string
		requested float64
		want      float64
	}{
		{"below band", 0.2, MinFlightHeight},
		{"above band", 25, MaxFlightHeight},
		{"inside band", 2.0, 2.0},
		{"at lower bound", MinFlightHeight, MinFlightHeight},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.FlightHeight = tt.requested
			if tt.requested < 1 {
				cfg.DeployAltitude = 0.5
			}
			if err := cfg.Validate(); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cfg.FlightHeight != tt.want {
				t.Errorf("FlightHeight = %v, want %v", cfg.FlightHeight, tt.want)
			}
		})
	}
}

func TestConfigValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero deploy altitude", func(c *Config) { c.DeployAltitude = 0 }},
		{"deploy above flight height", func(c *Config) { c.DeployAltitude = 3 }},
		{"zero tick interval", func(c *Config) { c.TickInterval = 0 }},
		{"negative settle", func(c *Config) { c.SettleDuration = -time.Second }},
		{"zero horizontal fov", func(c *Config) { c.CameraFOVX = 0 }},
		{"zero vertical fov", func(c *Config) { c.CameraFOVY = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestConfigValidateDefaults(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}

	if len(cfg.Objectives) != len(DefaultObjectives()) {
		t.Errorf("objectives not defaulted: %v", cfg.Objectives)
	}
	if cfg.Now == nil {
		t.Error("clock not defaulted")
	}

	// An explicit objective set survives validation.
	cfg = validConfig()
	cfg.Objectives = []TargetClass{ClassPayloadA}
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	if len(cfg.Objectives) != 1 || cfg.Objectives[0] != ClassPayloadA {
		t.Errorf("explicit objectives replaced: %v", cfg.Objectives)
	}
}

func TestGotoGoalUsesConfiguredEnvelope(t *testing.T) {
	cfg := validConfig()
	target := Waypoint{X: 1, Y: 2, Z: 2}

	goal := cfg.gotoGoal(target)
	if goal.Motion != MotionGoto {
		t.Errorf("motion = %v, want goto", goal.Motion)
	}
	if goal.Target != target {
		t.Errorf("target = %v, want %v", goal.Target, target)
	}
	if !goal.WaitForConvergence {
		t.Error("lap goals must wait for convergence")
	}
	if goal.HorizontalSpeed != cfg.LinearSpeed || goal.YawRate != cfg.YawRate {
		t.Error("speed envelope not taken from config")
	}
	if goal.PositionTolerance != cfg.PositionTolerance || goal.YawTolerance != cfg.YawTolerance {
		t.Error("tolerances not taken from config")
	}
}

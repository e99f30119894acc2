package mission

// BatteryLevel is one telemetry sample from the flight controller.
type BatteryLevel struct {
	Percent float64 `json:"percent"`
	Voltage float64 `json:"voltage"`
}

// BatteryThresholds holds the low-battery limits below which the mission is
// abandoned for an emergency landing.
type BatteryThresholds struct {
	LowPercent float64
	LowVoltage float64
}

// Critical reports whether a sample demands an emergency landing. Either
// condition alone is sufficient; the OR is deliberately conservative.
func (t BatteryThresholds) Critical(level BatteryLevel) bool {
	return level.Percent < t.LowPercent || level.Voltage < t.LowVoltage
}

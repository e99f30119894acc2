package mission

import "testing"

func TestBatteryThresholdsCritical(t *testing.T) {
	thresholds := BatteryThresholds{LowPercent: 20, LowVoltage: 10.5}

	tests := []struct {
		name  string
		level BatteryLevel
		want  bool
	}{
		{"healthy", BatteryLevel{Percent: 80, Voltage: 12.4}, false},
		{"exactly at thresholds", BatteryLevel{Percent: 20, Voltage: 10.5}, false},
		{"percent below", BatteryLevel{Percent: 19.9, Voltage: 12.4}, true},
		{"voltage below", BatteryLevel{Percent: 80, Voltage: 10.4}, true},
		{"both below", BatteryLevel{Percent: 5, Voltage: 9.8}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := thresholds.Critical(tt.level); got != tt.want {
				t.Errorf("Critical(%+v) = %v, want %v", tt.level, got, tt.want)
			}
		})
	}
}

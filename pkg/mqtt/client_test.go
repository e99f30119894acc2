package mqtt

import "testing"

func TestTopicsMatch(t *testing.T) {
	tests := []struct {
		filter string
		topic  string
		want   bool
	}{
		{"uav/v1/pose/uav-001", "uav/v1/pose/uav-001", true},
		{"uav/v1/pose/+", "uav/v1/pose/uav-001", true},
		{"uav/v1/pose/+", "uav/v1/pose/uav-001/extra", false},
		{"uav/v1/#", "uav/v1/detect/marker/uav-001", true},
		{"uav/v1/detect/+/uav-001", "uav/v1/detect/target/uav-001", true},
		{"uav/v1/detect/+/uav-001", "uav/v1/detect/target/uav-002", false},
		{"uav/v1/pose/uav-001", "uav/v1/battery/uav-001", false},
		{"+/+/pose/+", "uav/v1/pose/uav-001", true},
	}

	for _, tt := range tests {
		if got := topicsMatch(tt.filter, tt.topic); got != tt.want {
			t.Errorf("topicsMatch(%q, %q) = %v, want %v", tt.filter, tt.topic, got, tt.want)
		}
	}
}

func TestClientConfigValidate(t *testing.T) {
	if err := (&ClientConfig{}).Validate(); err == nil {
		t.Error("expected error for empty broker url")
	}
	if err := (&ClientConfig{BrokerURL: "tcp://localhost:1883"}).Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

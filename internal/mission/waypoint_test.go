package mission

import (
	"errors"
	"testing"
)

func TestParsePlan(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		want    int
		wantErr bool
	}{
		{
			name: "valid two waypoint plan",
			data: `[[-4, -2.5, 2, 0], [4, -2.5, 2, 0]]`,
			want: 2,
		},
		{
			name: "valid single waypoint",
			data: `[[1.5, 0, 2, 1.57]]`,
			want: 1,
		},
		{
			name:    "empty plan",
			data:    `[]`,
			wantErr: true,
		},
		{
			name:    "missing yaw field",
			data:    `[[1, 2, 3]]`,
			wantErr: true,
		},
		{
			name:    "extra field",
			data:    `[[1, 2, 3, 4, 5]]`,
			wantErr: true,
		},
		{
			name:    "not an array",
			data:    `{"x": 1}`,
			wantErr: true,
		},
		{
			name:    "one malformed entry fails the whole plan",
			data:    `[[1, 2, 3, 4], [5, 6]]`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := ParsePlan([]byte(tt.data))
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				var verr *ValidationError
				if !errors.As(err, &verr) {
					t.Errorf("expected ValidationError, got %T", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if plan.Len() != tt.want {
				t.Errorf("got %d waypoints, want %d", plan.Len(), tt.want)
			}
		})
	}
}

func TestParsePlanFieldOrder(t *testing.T) {
	plan, err := ParsePlan([]byte(`[[1, 2, 3, 0.5]]`))
	if err != nil {
		t.Fatal(err)
	}
	got := plan.Waypoints()[0]
	want := Waypoint{X: 1, Y: 2, Z: 3, Yaw: 0.5}
	if got != want {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestMissionPlanIsolation(t *testing.T) {
	src := []Waypoint{{X: 1}, {X: 2}}
	plan, err := NewMissionPlan(src)
	if err != nil {
		t.Fatal(err)
	}

	src[0].X = 99
	if got := plan.Waypoints()[0].X; got != 1 {
		t.Errorf("plan aliases caller slice: got X=%v", got)
	}

	plan.Waypoints()[1].X = 42
	if got := plan.Last().X; got != 2 {
		t.Errorf("returned waypoints alias internal slice: got X=%v", got)
	}
}

func TestWaypointDerivations(t *testing.T) {
	wp := Waypoint{X: 1, Y: 2, Z: 3, Yaw: 0.5}

	if got := wp.AtAltitude(7); got.Z != 7 || got.X != 1 || got.Yaw != 0.5 {
		t.Errorf("AtAltitude: got %v", got)
	}
	if got := wp.WithYaw(1.2); got.Yaw != 1.2 || got.Z != 3 {
		t.Errorf("WithYaw: got %v", got)
	}
	if wp.Z != 3 || wp.Yaw != 0.5 {
		t.Errorf("receiver mutated: %v", wp)
	}
}

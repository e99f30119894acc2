package mission

import (
	"context"
	"errors"
	"testing"
)

// plannerFunc adapts a function to the PathPlanner interface.
type plannerFunc func(ctx context.Context, start, end Waypoint) ([]Waypoint, error)

func (f plannerFunc) Plan(ctx context.Context, start, end Waypoint) ([]Waypoint, error) {
	return f(ctx, start, end)
}

// passthroughPlanner returns each segment's endpoints unchanged.
var passthroughPlanner = plannerFunc(func(_ context.Context, start, end Waypoint) ([]Waypoint, error) {
	return []Waypoint{start, end}, nil
})

func mustPlan(t *testing.T, waypoints []Waypoint) MissionPlan {
	t.Helper()
	plan, err := NewMissionPlan(waypoints)
	if err != nil {
		t.Fatal(err)
	}
	return plan
}

func TestExpandPlanPassthrough(t *testing.T) {
	coarse := []Waypoint{
		{X: -4, Y: -2.5, Z: 2},
		{X: 4, Y: -2.5, Z: 2},
	}
	plan := mustPlan(t, coarse)

	path, err := ExpandPlan(context.Background(), passthroughPlanner, plan)
	if err != nil {
		t.Fatal(err)
	}

	if len(path) != len(coarse) {
		t.Fatalf("got %d fine waypoints, want %d", len(path), len(coarse))
	}
	for i, wp := range path {
		if wp != coarse[i] {
			t.Errorf("path[%d] = %v, want %v", i, wp, coarse[i])
		}
	}
}

func TestExpandPlanStampsSegmentYaw(t *testing.T) {
	midpointPlanner := plannerFunc(func(_ context.Context, start, end Waypoint) ([]Waypoint, error) {
		mid := Waypoint{X: (start.X + end.X) / 2, Y: (start.Y + end.Y) / 2, Z: start.Z}
		return []Waypoint{start, mid, end}, nil
	})

	plan := mustPlan(t, []Waypoint{
		{X: 0, Y: 0, Z: 2, Yaw: 0},
		{X: 4, Y: 0, Z: 2, Yaw: 1.5},
	})

	path, err := ExpandPlan(context.Background(), midpointPlanner, plan)
	if err != nil {
		t.Fatal(err)
	}

	// start and mid carry the segment target's yaw, the final coarse
	// waypoint is appended verbatim.
	if len(path) != 3 {
		t.Fatalf("got %d waypoints, want 3", len(path))
	}
	for i := 0; i < 2; i++ {
		if path[i].Yaw != 1.5 {
			t.Errorf("path[%d].Yaw = %v, want segment yaw 1.5", i, path[i].Yaw)
		}
	}
	if path[2] != plan.Last() {
		t.Errorf("path must end with the last coarse waypoint, got %v", path[2])
	}
}

func TestExpandPlanEndsWithLastCoarseWaypoint(t *testing.T) {
	plan := mustPlan(t, []Waypoint{
		{X: 0, Z: 2}, {X: 2, Z: 2}, {X: 4, Z: 2, Yaw: 0.7},
	})

	path, err := ExpandPlan(context.Background(), passthroughPlanner, plan)
	if err != nil {
		t.Fatal(err)
	}
	if path[len(path)-1] != plan.Last() {
		t.Errorf("last fine waypoint = %v, want %v", path[len(path)-1], plan.Last())
	}
}

func TestExpandPlanSingleWaypoint(t *testing.T) {
	plan := mustPlan(t, []Waypoint{{X: 1, Y: 2, Z: 2}})

	path, err := ExpandPlan(context.Background(), passthroughPlanner, plan)
	if err != nil {
		t.Fatal(err)
	}
	if len(path) != 1 || path[0] != plan.Last() {
		t.Errorf("single-waypoint plan should expand to itself, got %v", path)
	}
}

func TestExpandPlanFailureAbortsWholeExpansion(t *testing.T) {
	boom := errors.New("no corridor")
	failSecond := plannerFunc(func(_ context.Context, start, end Waypoint) ([]Waypoint, error) {
		if start.X >= 2 {
			return nil, boom
		}
		return []Waypoint{start, end}, nil
	})

	plan := mustPlan(t, []Waypoint{{X: 0, Z: 2}, {X: 2, Z: 2}, {X: 4, Z: 2}})

	path, err := ExpandPlan(context.Background(), failSecond, plan)
	if path != nil {
		t.Errorf("partial path returned on failure: %v", path)
	}

	var perr *PathPlanningError
	if !errors.As(err, &perr) {
		t.Fatalf("expected PathPlanningError, got %T", err)
	}
	if perr.Segment != 1 {
		t.Errorf("failing segment = %d, want 1", perr.Segment)
	}
	if !errors.Is(err, boom) {
		t.Error("planner error should be wrapped")
	}
}

func TestExpandPlanEmptySegmentIsError(t *testing.T) {
	empty := plannerFunc(func(context.Context, Waypoint, Waypoint) ([]Waypoint, error) {
		return nil, nil
	})

	plan := mustPlan(t, []Waypoint{{X: 0}, {X: 1}})
	if _, err := ExpandPlan(context.Background(), empty, plan); err == nil {
		t.Fatal("empty planner result should be an error")
	}
}

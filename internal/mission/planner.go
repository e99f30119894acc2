package mission

import (
	"context"
	"errors"
)

// PathPlanner is the external path-planning collaborator: it expands a single
// coarse segment into a collision-aware fine path.
type PathPlanner interface {
	// Plan returns an ordered sequence of positions from start to end,
	// including both endpoints. Path geometry carries no yaw.
	Plan(ctx context.Context, start, end Waypoint) ([]Waypoint, error)
}

// ExpandPlan expands every consecutive pair of coarse waypoints through the
// planner into one fine FlightPath.
//
// For each segment the planner's terminal waypoint is dropped (the next
// segment starts with it), and every appended waypoint is stamped with the
// coarse segment's target yaw. The final coarse waypoint is appended
// verbatim. Any segment failure aborts the whole expansion: the mission must
// not start with a partial plan.
func ExpandPlan(ctx context.Context, planner PathPlanner, plan MissionPlan) (FlightPath, error) {
	coarse := plan.Waypoints()

	var path FlightPath
	for i := 0; i < len(coarse)-1; i++ {
		start, end := coarse[i], coarse[i+1]

		fine, err := planner.Plan(ctx, start, end)
		if err != nil {
			return nil, &PathPlanningError{Segment: i, Err: err}
		}
		if len(fine) == 0 {
			return nil, &PathPlanningError{Segment: i, Err: errors.New("planner returned an empty path")}
		}

		for _, wp := range fine[:len(fine)-1] {
			path = append(path, wp.WithYaw(end.Yaw))
		}
	}

	path = append(path, plan.Last())
	return path, nil
}

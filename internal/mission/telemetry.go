package mission

import "context"

// PayloadDeployer fires the payload mechanism for a target class. The
// underlying actuation is fire-and-forget; the sequencer holds the vehicle
// still for the configured settle duration around the call.
type PayloadDeployer interface {
	Deploy(ctx context.Context, class TargetClass) error
}

// Telemetry is the write-only visualization/announcement surface. No feedback
// is ever consumed from it; failures are logged by implementations and do not
// affect the mission.
type Telemetry interface {
	// Announce publishes a human-readable mission event.
	Announce(ctx context.Context, msg string)

	// PublishPath publishes the expanded flight path for preview.
	PublishPath(ctx context.Context, path FlightPath)

	// PublishMarker publishes a world-frame marker annotation.
	PublishMarker(ctx context.Context, class TargetClass, location Waypoint)
}

// NopTelemetry discards all telemetry. Used in tests and bench flights.
type NopTelemetry struct{}

func (NopTelemetry) Announce(context.Context, string)                     {}
func (NopTelemetry) PublishPath(context.Context, FlightPath)              {}
func (NopTelemetry) PublishMarker(context.Context, TargetClass, Waypoint) {}

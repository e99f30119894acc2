package bus

import (
	"context"
	"encoding/json"
	"time"

	"github.com/skyhive-io/skyhive/internal/mission"
	"github.com/skyhive-io/skyhive/pkg/log"
	"github.com/skyhive-io/skyhive/pkg/mqtt"
	"github.com/skyhive-io/skyhive/pkg/mqtt/topic"
)

type announceMessage struct {
	Text string    `json:"text"`
	Time time.Time `json:"time"`
}

type markerVizMessage struct {
	Class string  `json:"class"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

// statusMessage is the retained status document. Online false is only ever
// written by the broker via the agent's last will.
type statusMessage struct {
	Online   bool              `json:"online"`
	DroneID  string            `json:"droneId"`
	Snapshot *mission.Snapshot `json:"snapshot,omitempty"`
}

// OfflineStatusPayload is the last-will body registered at connect time.
func OfflineStatusPayload(droneID string) []byte {
	payload, _ := json.Marshal(statusMessage{Online: false, DroneID: droneID})
	return payload
}

// Publisher implements the sequencer's outbound telemetry plane. Publish
// failures are logged and swallowed: ground visibility must never affect
// flight behavior.
type Publisher struct {
	log     log.Logger
	client  mqtt.Client
	droneID string

	announceTopic string
	pathTopic     string
	markerTopic   string
	statusTopic   string
}

var _ mission.Telemetry = (*Publisher)(nil)

// NewPublisher creates the outbound plane for one vehicle.
func NewPublisher(client mqtt.Client, builder *topic.Builder, droneID string) *Publisher {
	return &Publisher{
		log:           log.WithName("publisher"),
		client:        client,
		droneID:       droneID,
		announceTopic: builder.Build(topic.SegmentAnnounce, droneID),
		pathTopic:     builder.Build(topic.SegmentPathPreview, droneID),
		markerTopic:   builder.Build(topic.SegmentMarkerViz, droneID),
		statusTopic:   builder.Build(topic.SegmentStatus, droneID),
	}
}

// Announce publishes a human-readable mission event.
func (p *Publisher) Announce(ctx context.Context, text string) {
	p.publish(ctx, p.announceTopic, 1, false, announceMessage{Text: text, Time: time.Now()})
}

// PublishPath publishes the expanded flight path for visualization.
func (p *Publisher) PublishPath(ctx context.Context, path mission.FlightPath) {
	p.publish(ctx, p.pathTopic, 0, true, path)
}

// PublishMarker publishes a world-frame marker annotation.
func (p *Publisher) PublishMarker(ctx context.Context, class mission.TargetClass, location mission.Waypoint) {
	p.publish(ctx, p.markerTopic, 0, true, markerVizMessage{
		Class: class.String(),
		X:     location.X,
		Y:     location.Y,
	})
}

// PublishStatus publishes the retained status snapshot.
func (p *Publisher) PublishStatus(ctx context.Context, snap mission.Snapshot) {
	p.publish(ctx, p.statusTopic, 1, true, statusMessage{
		Online:   true,
		DroneID:  p.droneID,
		Snapshot: &snap,
	})
}

func (p *Publisher) publish(ctx context.Context, t string, qos int, retain bool, msg any) {
	payload, err := json.Marshal(msg)
	if err != nil {
		p.log.Error(err, "Failed to encode outbound message", "topic", t)
		return
	}
	if err := p.client.Publish(ctx, t, qos, retain, payload); err != nil {
		p.log.Error(err, "Failed to publish", "topic", t)
	}
}

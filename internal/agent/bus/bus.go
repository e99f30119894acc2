// Package bus connects the broker's inbound telemetry and perception streams
// to the mission sequencer, and publishes the agent's outbound planes
// (announcements, visualization, retained status).
package bus

import (
	"context"
	"encoding/json"

	"github.com/skyhive-io/skyhive/internal/mission"
	"github.com/skyhive-io/skyhive/pkg/log"
	"github.com/skyhive-io/skyhive/pkg/mqtt"
	"github.com/skyhive-io/skyhive/pkg/mqtt/topic"
)

type poseMessage struct {
	X   float64 `json:"x"`
	Y   float64 `json:"y"`
	Z   float64 `json:"z"`
	Yaw float64 `json:"yaw"`
}

type batteryMessage struct {
	Percent float64 `json:"percent"`
	Voltage float64 `json:"voltage"`
}

// markerMessage is a landing-marker candidate in pixel coordinates.
type markerMessage struct {
	Identity string  `json:"identity"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
}

// targetMessage is a payload-target candidate in normalized coordinates.
type targetMessage struct {
	Class int     `json:"class"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

// Bus subscribes the sequencer's observers to the vehicle's inbound topics.
type Bus struct {
	log     log.Logger
	client  mqtt.Client
	builder *topic.Builder
	droneID string
	seq     *mission.Sequencer
}

// New creates a Bus for one vehicle.
func New(client mqtt.Client, builder *topic.Builder, droneID string, seq *mission.Sequencer) *Bus {
	return &Bus{
		log:     log.WithName("bus"),
		client:  client,
		builder: builder,
		droneID: droneID,
		seq:     seq,
	}
}

// Register subscribes every inbound stream. Pose and battery ride QoS 0
// (latest sample wins); detections ride QoS 1.
func (b *Bus) Register(ctx context.Context) error {
	subs := []struct {
		segment string
		qos     int
		handler mqtt.MessageHandler
	}{
		{topic.SegmentPose, 0, b.handlePose},
		{topic.SegmentBattery, 0, b.handleBattery},
		{topic.SegmentMarkerDetect, 1, b.handleMarker},
		{topic.SegmentTargetDetect, 1, b.handleTarget},
	}

	for _, sub := range subs {
		t := b.builder.Build(sub.segment, b.droneID)
		if err := b.client.Subscribe(ctx, t, sub.qos, sub.handler); err != nil {
			return err
		}
		b.log.Debug("Subscribed", "topic", t)
	}
	return nil
}

func (b *Bus) handlePose(_ context.Context, _ string, payload []byte) {
	var msg poseMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		b.log.Error(err, "Malformed pose message")
		return
	}
	b.seq.ObservePose(mission.Waypoint{X: msg.X, Y: msg.Y, Z: msg.Z, Yaw: msg.Yaw})
}

func (b *Bus) handleBattery(_ context.Context, _ string, payload []byte) {
	var msg batteryMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		b.log.Error(err, "Malformed battery message")
		return
	}
	b.seq.ObserveBattery(mission.BatteryLevel{Percent: msg.Percent, Voltage: msg.Voltage})
}

func (b *Bus) handleMarker(ctx context.Context, _ string, payload []byte) {
	var msg markerMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		b.log.Error(err, "Malformed marker detection")
		return
	}
	b.seq.ObserveMarker(ctx, msg.Identity, mission.FrameCoord{X: msg.X, Y: msg.Y})
}

func (b *Bus) handleTarget(ctx context.Context, _ string, payload []byte) {
	var msg targetMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		b.log.Error(err, "Malformed target detection")
		return
	}
	b.seq.ObserveTarget(ctx, mission.ParseTargetClass(msg.Class), mission.FrameCoord{X: msg.X, Y: msg.Y})
}

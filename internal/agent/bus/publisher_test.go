package bus

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/skyhive-io/skyhive/internal/mission"
	"github.com/skyhive-io/skyhive/pkg/mqtt/topic"
)

func TestOfflineStatusPayload(t *testing.T) {
	var msg statusMessage
	if err := json.Unmarshal(OfflineStatusPayload("uav-001"), &msg); err != nil {
		t.Fatal(err)
	}
	if msg.Online {
		t.Error("will payload must report offline")
	}
	if msg.DroneID != "uav-001" {
		t.Errorf("droneID = %q", msg.DroneID)
	}
	if msg.Snapshot != nil {
		t.Error("will payload must not carry a snapshot")
	}
}

func TestPublisherStatusRetained(t *testing.T) {
	ctx := context.Background()
	broker := newFakeBroker()
	p := NewPublisher(broker, topic.NewBuilder("uav/v1"), "uav-001")

	p.PublishStatus(ctx, mission.Snapshot{Phase: mission.PhaseFlying, WaypointIndex: 3})

	rec := broker.lastOn("uav/v1/status/uav-001")
	if rec == nil {
		t.Fatal("status not published")
	}
	if !rec.retain {
		t.Error("status must be retained")
	}

	var msg statusMessage
	if err := json.Unmarshal(rec.payload, &msg); err != nil {
		t.Fatal(err)
	}
	if !msg.Online || msg.Snapshot == nil || msg.Snapshot.Phase != mission.PhaseFlying {
		t.Errorf("status document = %+v", msg)
	}
}

func TestPublisherAnnounce(t *testing.T) {
	ctx := context.Background()
	broker := newFakeBroker()
	p := NewPublisher(broker, topic.NewBuilder("uav/v1"), "uav-001")

	p.Announce(ctx, "taking off")

	rec := broker.lastOn("uav/v1/announce/uav-001")
	if rec == nil {
		t.Fatal("announcement not published")
	}
	var msg announceMessage
	if err := json.Unmarshal(rec.payload, &msg); err != nil {
		t.Fatal(err)
	}
	if msg.Text != "taking off" || msg.Time.IsZero() {
		t.Errorf("announcement = %+v", msg)
	}
}

func TestPublisherMarkerViz(t *testing.T) {
	ctx := context.Background()
	broker := newFakeBroker()
	p := NewPublisher(broker, topic.NewBuilder("uav/v1"), "uav-001")

	p.PublishMarker(ctx, mission.ClassLandingMarker, mission.Waypoint{X: 2.5, Y: -1})

	rec := broker.lastOn("uav/v1/viz/marker/uav-001")
	if rec == nil {
		t.Fatal("marker viz not published")
	}
	var msg markerVizMessage
	if err := json.Unmarshal(rec.payload, &msg); err != nil {
		t.Fatal(err)
	}
	if msg.Class != "landing-marker" || msg.X != 2.5 {
		t.Errorf("marker viz = %+v", msg)
	}
}

// Package actuator bridges the mission sequencer to its external motion
// collaborators over MQTT: the flight controller (goal/ack/cancel) and the
// path planner (request/response).
package actuator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/skyhive-io/skyhive/internal/mission"
	"github.com/skyhive-io/skyhive/pkg/log"
	"github.com/skyhive-io/skyhive/pkg/mqtt"
	"github.com/skyhive-io/skyhive/pkg/mqtt/topic"
)

// goalMessage is the wire form of a flight goal.
type goalMessage struct {
	ID uint64 `json:"id"`
	mission.FlightGoal
}

// ackMessage is the flight controller's terminal report for a goal.
type ackMessage struct {
	ID     uint64 `json:"id"`
	Status string `json:"status"`
}

// cancelMessage requests preemption of a goal. The controller confirms by
// acking the goal as preempted.
type cancelMessage struct {
	ID uint64 `json:"id"`
}

var wireStatuses = map[string]mission.GoalStatus{
	"succeeded": mission.StatusSucceeded,
	"preempted": mission.StatusPreempted,
	"aborted":   mission.StatusAborted,
	"rejected":  mission.StatusRejected,
}

// MqttTransport implements mission.GoalTransport over the broker. Goals go
// out on the goal topic; handles resolve when the controller publishes a
// terminal ack.
type MqttTransport struct {
	log    log.Logger
	client mqtt.Client

	goalTopic   string
	ackTopic    string
	cancelTopic string

	nextID atomic.Uint64

	mu       sync.Mutex
	inflight map[uint64]*mission.GoalHandle
}

var _ mission.GoalTransport = (*MqttTransport)(nil)

// NewMqttTransport creates a transport for one vehicle's flight-control plane.
func NewMqttTransport(client mqtt.Client, builder *topic.Builder, droneID string) *MqttTransport {
	return &MqttTransport{
		log:         log.WithName("flight-transport"),
		client:      client,
		goalTopic:   builder.Build(topic.SegmentFlightGoal, droneID),
		ackTopic:    builder.Build(topic.SegmentFlightGoalAck, droneID),
		cancelTopic: builder.Build(topic.SegmentFlightCancel, droneID),
		inflight:    map[uint64]*mission.GoalHandle{},
	}
}

// Run subscribes to the controller's ack stream. It must be called before
// the first Send.
func (t *MqttTransport) Run(ctx context.Context) error {
	return t.client.Subscribe(ctx, t.ackTopic, 1, t.handleAck)
}

// Send publishes a goal and returns its pending handle.
func (t *MqttTransport) Send(ctx context.Context, goal mission.FlightGoal) (*mission.GoalHandle, error) {
	id := t.nextID.Add(1)
	handle := mission.NewGoalHandle(id, goal)

	payload, err := json.Marshal(goalMessage{ID: id, FlightGoal: goal})
	if err != nil {
		return nil, fmt.Errorf("failed to encode goal: %w", err)
	}

	t.mu.Lock()
	t.inflight[id] = handle
	t.mu.Unlock()

	if err := t.client.Publish(ctx, t.goalTopic, 1, false, payload); err != nil {
		t.mu.Lock()
		delete(t.inflight, id)
		t.mu.Unlock()
		return nil, fmt.Errorf("failed to publish %s goal: %w", goal.Motion, err)
	}

	t.log.Debug("Goal published", "id", id, "motion", goal.Motion.String(), "target", goal.Target)
	return handle, nil
}

// Cancel requests preemption of the given goal. Resolution arrives on the ack
// stream once the controller confirms.
func (t *MqttTransport) Cancel(ctx context.Context, handle *mission.GoalHandle) error {
	payload, err := json.Marshal(cancelMessage{ID: handle.ID()})
	if err != nil {
		return err
	}
	if err := t.client.Publish(ctx, t.cancelTopic, 1, false, payload); err != nil {
		return fmt.Errorf("failed to publish cancel for goal %d: %w", handle.ID(), err)
	}
	t.log.Debug("Cancel published", "id", handle.ID())
	return nil
}

func (t *MqttTransport) handleAck(_ context.Context, _ string, payload []byte) {
	var ack ackMessage
	if err := json.Unmarshal(payload, &ack); err != nil {
		t.log.Error(err, "Malformed goal ack", "payload", string(payload))
		return
	}

	status, ok := wireStatuses[strings.ToLower(ack.Status)]
	if !ok {
		t.log.Warn("Goal ack with unknown status", "id", ack.ID, "status", ack.Status)
		return
	}

	t.mu.Lock()
	handle, ok := t.inflight[ack.ID]
	if ok {
		delete(t.inflight, ack.ID)
	}
	t.mu.Unlock()

	if !ok {
		t.log.Debug("Ack for unknown goal", "id", ack.ID)
		return
	}

	handle.Resolve(status)
	t.log.Debug("Goal resolved", "id", ack.ID, "status", status.String())
}

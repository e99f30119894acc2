package actuator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/skyhive-io/skyhive/internal/mission"
	"github.com/skyhive-io/skyhive/pkg/log"
	"github.com/skyhive-io/skyhive/pkg/mqtt"
	"github.com/skyhive-io/skyhive/pkg/mqtt/topic"
)

// DefaultPlanTimeout bounds how long a single segment request may take. Plan
// expansion happens on the ground before takeoff, so generous is fine.
const DefaultPlanTimeout = 10 * time.Second

type planRequest struct {
	ID    string           `json:"id"`
	Start mission.Waypoint `json:"start"`
	End   mission.Waypoint `json:"end"`
}

type planResponse struct {
	ID        string             `json:"id"`
	Waypoints []mission.Waypoint `json:"waypoints"`
	Error     string             `json:"error,omitempty"`
}

// MqttPlanner implements mission.PathPlanner against an external planning
// service using correlated request/response messages.
type MqttPlanner struct {
	log    log.Logger
	client mqtt.Client

	reqTopic  string
	respTopic string
	timeout   time.Duration

	nextID atomic.Uint64

	mu      sync.Mutex
	pending map[string]chan planResponse
}

var _ mission.PathPlanner = (*MqttPlanner)(nil)

// NewMqttPlanner creates a planner client for one vehicle.
func NewMqttPlanner(client mqtt.Client, builder *topic.Builder, droneID string, timeout time.Duration) *MqttPlanner {
	if timeout <= 0 {
		timeout = DefaultPlanTimeout
	}
	return &MqttPlanner{
		log:       log.WithName("planner"),
		client:    client,
		reqTopic:  builder.Build(topic.SegmentPlanRequest, droneID),
		respTopic: builder.Build(topic.SegmentPlanResponse, droneID),
		timeout:   timeout,
		pending:   map[string]chan planResponse{},
	}
}

// Run subscribes to the planner's response stream. It must be called before
// the first Plan.
func (p *MqttPlanner) Run(ctx context.Context) error {
	return p.client.Subscribe(ctx, p.respTopic, 1, p.handleResponse)
}

// Plan requests a fine path for one coarse segment and waits for the answer.
func (p *MqttPlanner) Plan(ctx context.Context, start, end mission.Waypoint) ([]mission.Waypoint, error) {
	id := fmt.Sprintf("seg-%d", p.nextID.Add(1))

	ch := make(chan planResponse, 1)
	p.mu.Lock()
	p.pending[id] = ch
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		delete(p.pending, id)
		p.mu.Unlock()
	}()

	payload, err := json.Marshal(planRequest{ID: id, Start: start, End: end})
	if err != nil {
		return nil, err
	}
	if err := p.client.Publish(ctx, p.reqTopic, 1, false, payload); err != nil {
		return nil, fmt.Errorf("failed to publish plan request: %w", err)
	}

	timer := time.NewTimer(p.timeout)
	defer timer.Stop()

	select {
	case resp := <-ch:
		if resp.Error != "" {
			return nil, errors.New(resp.Error)
		}
		return resp.Waypoints, nil
	case <-timer.C:
		return nil, fmt.Errorf("plan request %s timed out after %s", id, p.timeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *MqttPlanner) handleResponse(_ context.Context, _ string, payload []byte) {
	var resp planResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		p.log.Error(err, "Malformed plan response", "payload", string(payload))
		return
	}

	p.mu.Lock()
	ch, ok := p.pending[resp.ID]
	p.mu.Unlock()
	if !ok {
		p.log.Debug("Plan response with no waiter", "id", resp.ID)
		return
	}

	select {
	case ch <- resp:
	default:
	}
}

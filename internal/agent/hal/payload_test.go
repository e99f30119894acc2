package hal

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/skyhive-io/skyhive/internal/mission"
	"github.com/skyhive-io/skyhive/pkg/mqtt"
	"github.com/skyhive-io/skyhive/pkg/mqtt/topic"
)

type fakeClient struct {
	mu        sync.Mutex
	published map[string][]byte
}

func (c *fakeClient) Start(context.Context) error           { return nil }
func (c *fakeClient) Disconnect(context.Context)            {}
func (c *fakeClient) AwaitConnection(context.Context) error { return nil }
func (c *fakeClient) IsConnected() bool                     { return true }
func (c *fakeClient) Unsubscribe(context.Context, string) error {
	return nil
}

func (c *fakeClient) Subscribe(context.Context, string, int, mqtt.MessageHandler) error {
	return nil
}

func (c *fakeClient) Publish(_ context.Context, t string, _ int, _ bool, payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.published == nil {
		c.published = map[string][]byte{}
	}
	c.published[t] = payload
	return nil
}

type recordingHAL struct {
	bays []int
	err  error
}

func (h *recordingHAL) Release(_ context.Context, bay int) error {
	h.bays = append(h.bays, bay)
	return h.err
}

func TestDeployerFiresBayAndPublishes(t *testing.T) {
	ctx := context.Background()
	client := &fakeClient{}
	hw := &recordingHAL{}
	d := NewDeployer(client, topic.NewBuilder("uav/v1"), "uav-001", hw)

	if err := d.Deploy(ctx, mission.ClassPayloadA); err != nil {
		t.Fatal(err)
	}
	if err := d.Deploy(ctx, mission.ClassPayloadB); err != nil {
		t.Fatal(err)
	}
	if len(hw.bays) != 2 || hw.bays[0] != 0 || hw.bays[1] != 1 {
		t.Errorf("released bays = %v, want [0 1]", hw.bays)
	}

	raw, ok := client.published["uav/v1/payload/deploy/uav-001"]
	if !ok {
		t.Fatal("deploy event not published")
	}
	var msg deployMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		t.Fatal(err)
	}
	if msg.Class != "payload-b" || msg.Bay != 1 {
		t.Errorf("deploy event = %+v", msg)
	}
}

func TestDeployerRejectsNonPayloadClass(t *testing.T) {
	d := NewDeployer(&fakeClient{}, topic.NewBuilder("uav/v1"), "uav-001", &recordingHAL{})

	if err := d.Deploy(context.Background(), mission.ClassLandingMarker); err == nil {
		t.Fatal("landing marker must not map to a bay")
	}
}

func TestDeployerSurfacesHardwareError(t *testing.T) {
	hw := &recordingHAL{err: errors.New("servo jam")}
	d := NewDeployer(&fakeClient{}, topic.NewBuilder("uav/v1"), "uav-001", hw)

	if err := d.Deploy(context.Background(), mission.ClassPayloadA); err == nil {
		t.Fatal("hardware error swallowed")
	}
}

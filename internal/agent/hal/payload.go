// Package hal abstracts the payload release hardware. The agent drives a
// local actuator driver and mirrors every release on the broker so ground
// tooling can observe it.
package hal

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/skyhive-io/skyhive/internal/mission"
	"github.com/skyhive-io/skyhive/pkg/log"
	"github.com/skyhive-io/skyhive/pkg/mqtt"
	"github.com/skyhive-io/skyhive/pkg/mqtt/topic"
)

// PayloadHAL is the hardware driver for the release mechanism.
type PayloadHAL interface {
	// Release fires the mechanism for the given bay.
	Release(ctx context.Context, bay int) error
}

// NoopHAL is used on benches without release hardware; it only logs.
type NoopHAL struct{}

func (NoopHAL) Release(_ context.Context, bay int) error {
	log.Info("Payload release (noop)", "bay", bay)
	return nil
}

type deployMessage struct {
	Class string `json:"class"`
	Bay   int    `json:"bay"`
}

// Deployer implements mission.PayloadDeployer: it fires the HAL and publishes
// the release event.
type Deployer struct {
	log         log.Logger
	client      mqtt.Client
	deployTopic string
	hal         PayloadHAL
}

var _ mission.PayloadDeployer = (*Deployer)(nil)

// NewDeployer wires the release mechanism for one vehicle.
func NewDeployer(client mqtt.Client, builder *topic.Builder, droneID string, hal PayloadHAL) *Deployer {
	if hal == nil {
		hal = NoopHAL{}
	}
	return &Deployer{
		log:         log.WithName("payload"),
		client:      client,
		deployTopic: builder.Build(topic.SegmentPayloadDeploy, droneID),
		hal:         hal,
	}
}

// Deploy releases the bay assigned to the target class.
func (d *Deployer) Deploy(ctx context.Context, class mission.TargetClass) error {
	bay, err := bayFor(class)
	if err != nil {
		return err
	}

	payload, _ := json.Marshal(deployMessage{Class: class.String(), Bay: bay})
	if err := d.client.Publish(ctx, d.deployTopic, 1, false, payload); err != nil {
		// The hardware release still proceeds; the broker mirror is advisory.
		d.log.Error(err, "Failed to publish deploy event", "class", class.String())
	}

	d.log.Info("Releasing payload", "class", class.String(), "bay", bay)
	return d.hal.Release(ctx, bay)
}

func bayFor(class mission.TargetClass) (int, error) {
	switch class {
	case mission.ClassPayloadA:
		return 0, nil
	case mission.ClassPayloadB:
		return 1, nil
	}
	return 0, fmt.Errorf("no payload bay for class %s", class)
}

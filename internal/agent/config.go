package agent

import (
	"fmt"
	"math"
	"os"

	"github.com/gosuri/uitable"

	"github.com/skyhive-io/skyhive/internal/agent/actuator"
	"github.com/skyhive-io/skyhive/internal/agent/bus"
	"github.com/skyhive-io/skyhive/internal/agent/hal"
	"github.com/skyhive-io/skyhive/internal/agent/report"
	"github.com/skyhive-io/skyhive/internal/agent/server"
	"github.com/skyhive-io/skyhive/internal/mission"
	"github.com/skyhive-io/skyhive/pkg/log"
	"github.com/skyhive-io/skyhive/pkg/mqtt"
	"github.com/skyhive-io/skyhive/pkg/mqtt/topic"
	"github.com/skyhive-io/skyhive/pkg/options"
)

// Config aggregates everything the mission agent needs to run.
type Config struct {
	Mqtt    *options.MqttOptions
	Http    *options.HttpOptions
	S3      *options.S3Options
	Mission *options.MissionOptions
}

// missionConfig converts operator options into the sequencer's config.
func (c *Config) missionConfig() mission.Config {
	o := c.Mission
	return mission.Config{
		FlightHeight:      o.FlightHeight,
		DeployAltitude:    o.DeployAltitude,
		LinearSpeed:       o.LinearSpeed,
		YawRate:           o.YawRate,
		PositionTolerance: o.PositionTolerance,
		YawTolerance:      o.YawTolerance,
		Battery: mission.BatteryThresholds{
			LowPercent: o.BatteryLowPercent,
			LowVoltage: o.BatteryLowVoltage,
		},
		Continuous:     o.Continuous,
		TickInterval:   o.TickInterval,
		SettleDuration: o.SettleDuration,
		CameraFOVX:     o.CameraFOVXDeg * math.Pi / 180,
		CameraFOVY:     o.CameraFOVYDeg * math.Pi / 180,
		MarkerFrame: mission.FrameRef{
			Convention: mission.FramePixels,
			Width:      o.MarkerFrameWidth,
			Height:     o.MarkerFrameHeight,
		},
		TargetFrame: mission.FrameRef{Convention: mission.FrameNormalized},
	}
}

// New assembles a runnable Agent from the configuration.
func (c *Config) New() (*Agent, error) {
	data, err := os.ReadFile(c.Mission.PlanFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan file: %w", err)
	}
	plan, err := mission.ParsePlan(data)
	if err != nil {
		return nil, err
	}
	log.Info("Mission plan loaded", "file", c.Mission.PlanFile, "waypoints", plan.Len())
	fmt.Println(planTable(plan))

	droneID := c.Mission.DroneID
	builder := topic.NewBuilder(c.Mqtt.TopicRoot)

	clientCfg := c.Mqtt.ToClientConfig()
	if clientCfg.ClientID == "" {
		clientCfg.ClientID = "skyhive-" + droneID
	}
	clientCfg.WillTopic = builder.Build(topic.SegmentStatus, droneID)
	clientCfg.WillPayload = bus.OfflineStatusPayload(droneID)
	clientCfg.WillQoS = 1
	clientCfg.WillRetain = true

	client, err := mqtt.NewClient(clientCfg)
	if err != nil {
		return nil, err
	}

	transport := actuator.NewMqttTransport(client, builder, droneID)
	planner := actuator.NewMqttPlanner(client, builder, droneID, actuator.DefaultPlanTimeout)
	deployer := hal.NewDeployer(client, builder, droneID, hal.NoopHAL{})
	publisher := bus.NewPublisher(client, builder, droneID)

	seq, err := mission.NewSequencer(c.missionConfig(), plan, planner, transport, deployer, publisher)
	if err != nil {
		return nil, err
	}

	agent := &Agent{
		log:          log.WithName("agent"),
		droneID:      droneID,
		tickInterval: c.Mission.TickInterval,
		client:       client,
		transport:    transport,
		planner:      planner,
		bus:          bus.New(client, builder, droneID, seq),
		publisher:    publisher,
		seq:          seq,
		server:       server.New(c.Http, seq, client.IsConnected),
	}

	if !c.S3.Disabled {
		uploader, err := report.NewUploader(c.S3)
		if err != nil {
			return nil, err
		}
		agent.uploader = uploader
	}

	return agent, nil
}

func planTable(plan mission.MissionPlan) string {
	table := uitable.New()
	table.AddRow("#", "X", "Y", "Z", "YAW")
	for i, wp := range plan.Waypoints() {
		table.AddRow(i, fmt.Sprintf("%.2f", wp.X), fmt.Sprintf("%.2f", wp.Y),
			fmt.Sprintf("%.2f", wp.Z), fmt.Sprintf("%.2f", wp.Yaw))
	}
	return table.String()
}

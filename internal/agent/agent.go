// Package agent runs one mission end to end: it owns the broker connection,
// the local HTTP surface, the sequencer tick loop and the post-flight report.
package agent

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/skyhive-io/skyhive/internal/agent/actuator"
	"github.com/skyhive-io/skyhive/internal/agent/bus"
	"github.com/skyhive-io/skyhive/internal/agent/report"
	"github.com/skyhive-io/skyhive/internal/agent/server"
	"github.com/skyhive-io/skyhive/internal/mission"
	"github.com/skyhive-io/skyhive/pkg/log"
	"github.com/skyhive-io/skyhive/pkg/mqtt"
)

const (
	connectTimeout = 30 * time.Second

	// firstPoseTimeout bounds how long takeoff waits for the flight
	// controller's pose stream. Without a pose the mission still starts; the
	// takeoff origin falls back to the world origin.
	firstPoseTimeout = 10 * time.Second

	statusInterval = time.Second
)

// Agent wires the sequencer to its transports and runs the mission.
type Agent struct {
	log          log.Logger
	droneID      string
	tickInterval time.Duration

	client    mqtt.Client
	transport *actuator.MqttTransport
	planner   *actuator.MqttPlanner
	bus       *bus.Bus
	publisher *bus.Publisher
	seq       *mission.Sequencer
	server    *server.Server
	uploader  *report.Uploader
}

// Run connects, flies the mission and reports. It returns when the mission
// reaches a terminal state or the context is cancelled.
func (a *Agent) Run(ctx context.Context) error {
	startedAt := time.Now()

	if err := a.client.Start(ctx); err != nil {
		return err
	}
	defer a.client.Disconnect(context.Background())

	connectCtx, cancelConnect := context.WithTimeout(ctx, connectTimeout)
	err := a.client.AwaitConnection(connectCtx)
	cancelConnect()
	if err != nil {
		return err
	}
	a.log.Info("Connected to broker", "droneID", a.droneID)

	if err := a.transport.Run(ctx); err != nil {
		return err
	}
	if err := a.planner.Run(ctx); err != nil {
		return err
	}
	if err := a.bus.Register(ctx); err != nil {
		return err
	}

	a.awaitFirstPose(ctx)

	if err := a.seq.Start(ctx); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		return a.server.Run(gctx)
	})
	g.Go(func() error {
		defer cancel()
		return a.missionLoop(gctx, startedAt)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// awaitFirstPose blocks until the pose stream delivers a sample or the
// timeout expires.
func (a *Agent) awaitFirstPose(ctx context.Context) {
	deadline := time.NewTimer(firstPoseTimeout)
	defer deadline.Stop()
	poll := time.NewTicker(50 * time.Millisecond)
	defer poll.Stop()

	for {
		select {
		case <-poll.C:
			if a.seq.Snapshot().Position != nil {
				return
			}
		case <-deadline.C:
			a.log.Warn("No pose received, taking off from the world origin")
			return
		case <-ctx.Done():
			return
		}
	}
}

func (a *Agent) missionLoop(ctx context.Context, startedAt time.Time) error {
	ticker := time.NewTicker(a.tickInterval)
	defer ticker.Stop()
	status := time.NewTicker(statusInterval)
	defer status.Stop()

	for {
		select {
		case <-ticker.C:
			a.seq.Tick(ctx)
		case <-status.C:
			a.publisher.PublishStatus(ctx, a.seq.Snapshot())
		case <-a.seq.Done():
			a.finish(ctx, startedAt)
			return nil
		case <-ctx.Done():
			a.seq.Shutdown(context.Background(), "agent shutdown")
			a.finish(context.Background(), startedAt)
			return ctx.Err()
		}
	}
}

// finish publishes the terminal status and uploads the flight record.
func (a *Agent) finish(ctx context.Context, startedAt time.Time) {
	snap := a.seq.Snapshot()
	result := a.seq.Result()

	a.publisher.PublishStatus(ctx, snap)
	a.log.Info("Mission finished",
		"outcome", string(result.Outcome),
		"reason", result.Reason,
		"duration", time.Since(startedAt).String())

	if a.uploader == nil {
		return
	}

	uploadCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	err := a.uploader.Upload(uploadCtx, report.Report{
		DroneID:   a.droneID,
		StartedAt: startedAt,
		EndedAt:   time.Now(),
		Result:    result,
		Snapshot:  snap,
	})
	if err != nil {
		a.log.Error(err, "Failed to upload mission report")
	}
}

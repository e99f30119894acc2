package mission

import (
	"context"
	"fmt"
	"time"

	"github.com/skyhive-io/skyhive/internal/pkg/metrics"
)

// divStage enumerates the steps of an ROI diversion. The sequence always
// runs approach, descend, deploy, ascend, return, resume; there is no
// branching and no retry.
type divStage int

const (
	divApproachOut divStage = iota
	divDescend
	divDeploy
	divAscendBack
	divReturnHome
	divResume
)

func (d divStage) String() string {
	switch d {
	case divApproachOut:
		return "approach"
	case divDescend:
		return "descend"
	case divDeploy:
		return "deploy"
	case divAscendBack:
		return "ascend"
	case divReturnHome:
		return "return"
	case divResume:
		return "resume"
	}
	return "unknown"
}

// diversion tracks one in-flight ROI detour. It advances only from the
// sequencer tick, reusing the same goal channel as the lap, so the
// single-outstanding-goal invariant holds across the handoff.
type diversion struct {
	class TargetClass

	approach Waypoint // above the target at flight height
	deploy   Waypoint // above the target at deploy altitude
	returnWp Waypoint // lap position captured at diversion start
	resumeWp Waypoint // last confirmed lap waypoint, re-issued on resume

	stage    divStage
	pending  *FlightGoal // goal awaiting submission once the channel frees up
	settleTo time.Time
	deployed bool
}

// startDiversion captures the return point, preempts the lap goal and hands
// control to the diversion tick. Callers must hold s.mu.
func (s *Sequencer) startDiversion(ctx context.Context, class TargetClass, target Waypoint, pos Waypoint) {
	approach := Waypoint{X: target.X, Y: target.Y, Z: s.cfg.FlightHeight}
	goal := s.cfg.gotoGoal(approach)

	// A continuous-mode wrap resets the lap cursor to zero before the next
	// goal goes out; in that window the last confirmed waypoint is the lap
	// end, not cursor minus one.
	resume := s.progress.WaypointIndex - 1
	if resume < 0 {
		resume = len(s.path) - 1
	}

	s.div = &diversion{
		class:    class,
		approach: approach,
		deploy:   approach.AtAltitude(s.cfg.DeployAltitude),
		returnWp: pos.AtAltitude(s.cfg.FlightHeight).WithYaw(0),
		resumeWp: s.path[resume],
		stage:    divApproachOut,
		pending:  &goal,
	}
	s.progress.PerformingDiversion = true

	if err := s.channel.Cancel(ctx); err != nil {
		s.log.Error(err, "Failed to preempt lap goal for diversion")
	}

	s.fire(ctx, EventDivert)
	s.log.Info("Diversion started", "class", class.String(),
		"target", approach, "resumeAt", s.div.resumeWp)
	s.telemetry.Announce(ctx, fmt.Sprintf("%s detected, diverting", class))
}

// tickDiverting advances the diversion one step per tick. Pending goals are
// submitted as soon as the channel's previous goal resolves; settle windows
// are deadline checks against the injected clock, never sleeps.
func (s *Sequencer) tickDiverting(ctx context.Context) {
	d := s.div
	if d == nil {
		return
	}

	if d.pending != nil {
		if handle := s.channel.Outstanding(); handle != nil && !handle.Status().Terminal() {
			return
		}
		if _, err := s.channel.Submit(ctx, *d.pending); err != nil {
			if errIsOutstanding(err) {
				return
			}
			s.abortDiversion(ctx, fmt.Sprintf("failed to issue %s goal: %v", d.stage, err))
			return
		}
		d.pending = nil
		s.log.Debug("Diversion goal issued", "stage", d.stage.String())
		if d.stage == divResume {
			s.finishDiversion(ctx)
		}
		return
	}

	if d.stage == divDeploy {
		s.tickDeploy(ctx, d)
		return
	}

	handle := s.channel.Outstanding()
	if handle == nil {
		return
	}
	status := handle.Status()
	if !status.Terminal() {
		return
	}
	s.countGoal(handle)
	if status != StatusSucceeded {
		s.abortDiversion(ctx, fmt.Sprintf("%s goal %s", d.stage, status))
		return
	}

	switch d.stage {
	case divApproachOut:
		d.stage = divDescend
		goal := s.cfg.gotoGoal(d.deploy)
		d.pending = &goal
	case divDescend:
		d.stage = divDeploy
		d.settleTo = s.cfg.Now().Add(s.cfg.SettleDuration)
	case divAscendBack:
		d.stage = divReturnHome
		goal := s.cfg.gotoGoal(d.returnWp)
		d.pending = &goal
	case divReturnHome:
		d.stage = divResume
		goal := s.cfg.gotoGoal(d.resumeWp)
		d.pending = &goal
	}
}

// tickDeploy handles the hover at deploy altitude: settle, actuate once,
// settle again, then ascend. A deploy error is logged and the sequence
// continues; the airframe still has to come home.
func (s *Sequencer) tickDeploy(ctx context.Context, d *diversion) {
	now := s.cfg.Now()
	if now.Before(d.settleTo) {
		return
	}

	if !d.deployed {
		if err := s.payload.Deploy(ctx, d.class); err != nil {
			s.log.Error(err, "Payload deploy failed", "class", d.class.String())
		}
		d.deployed = true
		s.markObjective(d.class)
		d.settleTo = now.Add(s.cfg.SettleDuration)
		s.telemetry.Announce(ctx, fmt.Sprintf("payload deployed for %s", d.class))
		return
	}

	d.stage = divAscendBack
	goal := s.cfg.gotoGoal(d.approach)
	d.pending = &goal
}

func (s *Sequencer) finishDiversion(ctx context.Context) {
	metrics.DiversionsTotal.WithLabelValues("completed").Inc()
	s.log.Info("Diversion complete, resuming lap", "class", s.div.class.String())
	s.div = nil
	s.progress.PerformingDiversion = false
	s.fire(ctx, EventResume)
	s.telemetry.Announce(ctx, "diversion complete, resuming search lap")
}

// abortDiversion ends the whole mission; a diversion that cannot finish
// leaves the vehicle somewhere off the lap with unknown surroundings.
func (s *Sequencer) abortDiversion(ctx context.Context, detail string) {
	metrics.DiversionsTotal.WithLabelValues("aborted").Inc()
	s.div = nil
	s.progress.PerformingDiversion = false
	s.terminate(ctx, OutcomeCancelled, "diversion failed: "+detail)
}

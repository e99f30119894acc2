package mission

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/looplab/fsm"

	"github.com/skyhive-io/skyhive/internal/pkg/metrics"
	fsmutil "github.com/skyhive-io/skyhive/internal/pkg/util/fsm"
	"github.com/skyhive-io/skyhive/pkg/log"
)

// Mission phases. Diverting is entered from and always returns to Flying.
const (
	PhaseInitializing    = "Initializing"
	PhaseTakingOff       = "TakingOff"
	PhaseFlying          = "Flying"
	PhaseDiverting       = "Diverting"
	PhaseLanding         = "Landing"
	PhaseComplete        = "Complete"
	PhaseCancelled       = "Cancelled"
	PhaseEmergencyLanded = "EmergencyLanded"
)

// Phase transition events.
const (
	EventTakeoff       = "event_takeoff"
	EventLapStart      = "event_lap_start"
	EventDivert        = "event_divert"
	EventResume        = "event_resume"
	EventLand          = "event_land"
	EventTouchdown     = "event_touchdown"
	EventEmergencyDown = "event_emergency_down"
	EventAbort         = "event_abort"
)

// Outcome classifies how a mission ended.
type Outcome string

const (
	OutcomeComplete  Outcome = "complete"
	OutcomeCancelled Outcome = "cancelled"
	OutcomeEmergency Outcome = "emergency-landed"
)

// Result is the mission's terminal record.
type Result struct {
	Outcome Outcome `json:"outcome"`
	Reason  string  `json:"reason"`
}

// Sequencer is the mission state machine. It owns mission progress,
// arbitrates between the scheduled lap and ad-hoc diversions, converts
// perception events into world-frame targets, and drives the flight
// actuation channel.
//
// It is driven by a fixed-rate Tick and by asynchronous Observe* calls; all
// of them serialize on one mutex, so the lap tick and an active diversion
// never run concurrently.
type Sequencer struct {
	mu sync.Mutex

	cfg     Config
	log     log.Logger
	machine *fsm.FSM

	planner   PathPlanner
	channel   *Channel
	payload   PayloadDeployer
	telemetry Telemetry

	vehicle *VehicleState
	landing *LandingLock

	plan     MissionPlan
	path     FlightPath
	progress Progress

	takeoffOrigin Waypoint

	div *diversion

	// Landing approach state.
	approachPath   FlightPath
	approachIdx    int
	landGoalIssued bool
	emergency      bool
	landReason     string

	lastCounted *GoalHandle

	terminated bool
	result     Result
	done       chan struct{}
}

// countGoal records a goal's terminal status once per handle.
func (s *Sequencer) countGoal(handle *GoalHandle) {
	if handle == nil || handle == s.lastCounted {
		return
	}
	s.lastCounted = handle
	metrics.GoalsTotal.WithLabelValues(handle.Goal().Motion.String(), handle.Status().String()).Inc()
}

// NewSequencer builds a Sequencer for one mission. The config is validated
// (and the flight height clamped) before anything flies.
func NewSequencer(cfg Config, plan MissionPlan, planner PathPlanner, transport GoalTransport, payload PayloadDeployer, telemetry Telemetry) (*Sequencer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if plan.Len() == 0 {
		return nil, &ValidationError{Reason: "mission plan is empty"}
	}
	if telemetry == nil {
		telemetry = NopTelemetry{}
	}

	objectives := make(map[TargetClass]bool, len(cfg.Objectives))
	for _, class := range cfg.Objectives {
		objectives[class] = false
	}

	s := &Sequencer{
		cfg:       cfg,
		log:       log.WithName("sequencer"),
		planner:   planner,
		channel:   NewChannel(transport),
		payload:   payload,
		telemetry: telemetry,
		vehicle:   &VehicleState{},
		plan:      plan,
		progress:  Progress{Objectives: objectives},
		done:      make(chan struct{}),
	}
	s.machine = newMissionMachine(s)
	return s, nil
}

func newMissionMachine(s *Sequencer) *fsm.FSM {
	events := fsm.Events{
		{Name: EventTakeoff, Src: []string{PhaseInitializing}, Dst: PhaseTakingOff},
		{Name: EventLapStart, Src: []string{PhaseTakingOff}, Dst: PhaseFlying},
		{Name: EventDivert, Src: []string{PhaseFlying}, Dst: PhaseDiverting},
		{Name: EventResume, Src: []string{PhaseDiverting}, Dst: PhaseFlying},
		{Name: EventLand, Src: []string{PhaseTakingOff, PhaseFlying, PhaseDiverting}, Dst: PhaseLanding},
		{Name: EventTouchdown, Src: []string{PhaseLanding}, Dst: PhaseComplete},
		{Name: EventEmergencyDown, Src: []string{PhaseLanding}, Dst: PhaseEmergencyLanded},
		{Name: EventAbort, Src: []string{
			PhaseInitializing, PhaseTakingOff, PhaseFlying, PhaseDiverting, PhaseLanding,
		}, Dst: PhaseCancelled},
	}

	callbacks := fsm.Callbacks{
		"enter_state": func(ctx context.Context, e *fsm.Event) {
			metrics.PhaseTransitionsTotal.WithLabelValues(e.Src, e.Dst).Inc()
			s.log.Info("Mission phase transition", "from", e.Src, "to", e.Dst)
		},
	}

	return fsm.NewFSM(PhaseInitializing, events, callbacks)
}

// Phase returns the current mission phase.
func (s *Sequencer) Phase() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.Current()
}

// Done is closed when the mission reaches a terminal phase.
func (s *Sequencer) Done() <-chan struct{} { return s.done }

// Result returns the terminal record. Valid only after Done is closed.
func (s *Sequencer) Result() Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// Path returns the expanded flight path. Valid after Start.
func (s *Sequencer) Path() FlightPath {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.path
}

// Start expands the mission plan and issues the takeoff goal. Validation and
// planning errors are surfaced here, before any flight occurs.
func (s *Sequencer) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.machine.Current() != PhaseInitializing {
		return fmt.Errorf("mission already started (phase %s)", s.machine.Current())
	}

	origin, _ := s.vehicle.Position()
	s.takeoffOrigin = origin.AtAltitude(0).WithYaw(0)
	s.landing = NewLandingLock(s.takeoffOrigin)

	path, err := ExpandPlan(ctx, s.planner, s.plan)
	if err != nil {
		return err
	}
	s.path = path
	s.telemetry.PublishPath(ctx, path)
	s.log.Info("Flight path expanded", "coarse", s.plan.Len(), "fine", len(path))

	goal := FlightGoal{
		Motion:             MotionTakeoff,
		Target:             s.takeoffOrigin.AtAltitude(s.cfg.FlightHeight),
		VerticalSpeed:      s.cfg.LinearSpeed,
		WaitForConvergence: true,
		PositionTolerance:  s.cfg.PositionTolerance,
	}
	if _, err := s.channel.Submit(ctx, goal); err != nil {
		return err
	}

	s.fire(ctx, EventTakeoff)
	s.telemetry.Announce(ctx, fmt.Sprintf("taking off to %.1f meters", s.cfg.FlightHeight))
	return nil
}

// Tick drives the sequencer. It is invoked at a fixed rate for the whole
// mission and inspects shared state mutated by the Observe methods.
func (s *Sequencer) Tick(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.terminated {
		return
	}

	phase := s.machine.Current()

	// The battery guard stays armed during a diversion: a critical sample
	// preempts it. Inheriting the source behavior of muting the check
	// mid-diversion would trade a recoverable detour for a dead battery.
	switch phase {
	case PhaseTakingOff, PhaseFlying, PhaseDiverting:
		if level, ok := s.vehicle.Battery(); ok && s.cfg.Battery.Critical(level) {
			s.beginEmergencyLanding(ctx, level)
			return
		}
	}

	switch phase {
	case PhaseTakingOff:
		s.tickTakingOff(ctx)
	case PhaseFlying:
		s.tickFlying(ctx)
	case PhaseDiverting:
		s.tickDiverting(ctx)
	case PhaseLanding:
		s.tickLanding(ctx)
	}
}

func (s *Sequencer) tickTakingOff(ctx context.Context) {
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
		s.terminate(ctx, OutcomeCancelled, fmt.Sprintf("takeoff %s", status))
		return
	}

	s.fire(ctx, EventLapStart)
	s.telemetry.Announce(ctx, "takeoff complete, starting search lap")
}

// tickFlying implements the lap contract: on goal success either finish the
// mission, issue the next fine waypoint, or wrap the lap in continuous mode.
// Non-success terminal states end the mission; there is no retry.
func (s *Sequencer) tickFlying(ctx context.Context) {
	if s.progress.PerformingDiversion {
		return
	}

	if handle := s.channel.Outstanding(); handle != nil {
		status := handle.Status()
		if !status.Terminal() {
			return
		}
		s.countGoal(handle)
		if status != StatusSucceeded {
			s.terminate(ctx, OutcomeCancelled, fmt.Sprintf("lap goal %s", status))
			return
		}
	}

	if s.progress.objectivesComplete() && (!s.cfg.Continuous || s.progress.CompletedSearchLap) {
		s.beginLanding(ctx, "all objectives complete")
		return
	}

	if s.progress.WaypointIndex < len(s.path) {
		wp := s.path[s.progress.WaypointIndex]
		if err := s.submitLapGoal(ctx, wp); err != nil {
			s.terminate(ctx, OutcomeCancelled, fmt.Sprintf("failed to issue lap goal: %v", err))
			return
		}
		s.progress.WaypointIndex++
		s.progress.ReachedFirstWaypoint = true
		metrics.WaypointIndex.Set(float64(s.progress.WaypointIndex))
		return
	}

	// Lap exhausted.
	if s.cfg.Continuous {
		s.progress.WaypointIndex = 0
		s.progress.CompletedSearchLap = true
		metrics.WaypointIndex.Set(0)
		s.log.Info("Search lap complete, restarting", "objectivesComplete", s.progress.objectivesComplete())
		s.telemetry.Announce(ctx, "lap complete, restarting search")
		return
	}

	s.beginLanding(ctx, "lap complete")
}

func (s *Sequencer) submitLapGoal(ctx context.Context, wp Waypoint) error {
	handle, err := s.channel.Submit(ctx, s.cfg.gotoGoal(wp))
	if err != nil {
		return err
	}
	s.log.Debug("Issued lap waypoint", "index", s.progress.WaypointIndex, "target", handle.Goal().Target)
	return nil
}

// ObservePose records the latest vehicle position.
func (s *Sequencer) ObservePose(p Waypoint) {
	s.vehicle.SetPosition(p)
}

// ObserveBattery records the latest battery sample. The critical check runs
// on the next tick, not here, so a burst of samples cannot re-enter the
// state machine.
func (s *Sequencer) ObserveBattery(level BatteryLevel) {
	s.vehicle.SetBattery(level)
	metrics.BatteryPercent.Set(level.Percent)
	metrics.BatteryVoltage.Set(level.Voltage)
}

// ObserveMarker handles a landing-marker detection: it is projected to the
// ground plane and offered to the landing lock. Detections before the first
// lap waypoint or during a diversion are dropped.
func (s *Sequencer) ObserveMarker(ctx context.Context, identity string, coord FrameCoord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.terminated || s.machine.Current() != PhaseFlying ||
		!s.progress.ReachedFirstWaypoint || s.progress.PerformingDiversion {
		metrics.DetectionsTotal.WithLabelValues(ClassLandingMarker.String(), "dropped").Inc()
		return
	}

	pos, ok := s.vehicle.Position()
	if !ok {
		metrics.DetectionsTotal.WithLabelValues(ClassLandingMarker.String(), "dropped").Inc()
		return
	}

	wx, wy := TranslateFrame(coord, s.cfg.MarkerFrame, pos, s.cfg.FlightHeight, s.cfg.CameraFOVX, s.cfg.CameraFOVY)
	location := Waypoint{X: wx, Y: wy}

	if s.landing.Observe(identity, location) {
		metrics.DetectionsTotal.WithLabelValues(ClassLandingMarker.String(), "accepted").Inc()
		if s.markObjective(ClassLandingMarker) {
			s.telemetry.Announce(ctx, fmt.Sprintf("landing marker %s acquired", identity))
		}
		s.telemetry.PublishMarker(ctx, ClassLandingMarker, location)
	} else {
		metrics.DetectionsTotal.WithLabelValues(ClassLandingMarker.String(), "dropped").Inc()
	}
}

// ObserveTarget handles a payload-target detection. A detection matching an
// unserviced objective starts an ROI diversion; everything else is dropped,
// never queued, so diversions cannot re-enter.
func (s *Sequencer) ObserveTarget(ctx context.Context, class TargetClass, coord FrameCoord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if class != ClassPayloadA && class != ClassPayloadB {
		metrics.DetectionsTotal.WithLabelValues(class.String(), "dropped").Inc()
		return
	}

	if s.terminated || s.machine.Current() != PhaseFlying ||
		!s.progress.ReachedFirstWaypoint || s.progress.PerformingDiversion {
		metrics.DetectionsTotal.WithLabelValues(class.String(), "dropped").Inc()
		return
	}

	done, configured := s.progress.Objectives[class]
	if !configured || done {
		metrics.DetectionsTotal.WithLabelValues(class.String(), "dropped").Inc()
		return
	}

	pos, ok := s.vehicle.Position()
	if !ok {
		metrics.DetectionsTotal.WithLabelValues(class.String(), "dropped").Inc()
		return
	}

	metrics.DetectionsTotal.WithLabelValues(class.String(), "accepted").Inc()

	wx, wy := TranslateFrame(coord, s.cfg.TargetFrame, pos, s.cfg.FlightHeight, s.cfg.CameraFOVX, s.cfg.CameraFOVY)
	s.startDiversion(ctx, class, Waypoint{X: wx, Y: wy}, pos)
}

func (s *Sequencer) markObjective(class TargetClass) bool {
	done, configured := s.progress.Objectives[class]
	if !configured || done {
		return false
	}
	s.progress.Objectives[class] = true
	s.log.Info("Objective complete", "objective", class.String())
	return true
}

// landingPlanTimeout caps the approach expansion in beginLanding. The tick
// holds the sequencer lock while it runs, so battery samples and detections
// queue behind it; a planner that stalls longer than this falls back to a
// direct approach.
const landingPlanTimeout = 2 * time.Second

// beginLanding computes the landing approach to the locked marker (or the
// takeoff origin if none was ever locked) and enters the Landing phase.
func (s *Sequencer) beginLanding(ctx context.Context, reason string) {
	target, locked := s.landing.Target()
	end := target.AtAltitude(s.cfg.FlightHeight).WithYaw(0)

	pos, _ := s.vehicle.Position()
	approachPlan, err := NewMissionPlan([]Waypoint{pos.AtAltitude(s.cfg.FlightHeight), end})
	if err == nil {
		// The expansion runs inside a tick, so the planner gets a short
		// deadline instead of its usual request timeout.
		planCtx, cancel := context.WithTimeout(ctx, landingPlanTimeout)
		s.approachPath, err = ExpandPlan(planCtx, s.planner, approachPlan)
		cancel()
	}
	if err != nil {
		// Favor safe termination: fly straight to the target rather than
		// refuse to land.
		s.log.Error(err, "Landing approach expansion failed, using direct approach")
		s.approachPath = FlightPath{end}
	}

	s.approachIdx = 0
	s.landGoalIssued = false
	s.emergency = false
	s.landReason = reason

	if err := s.channel.Cancel(ctx); err != nil {
		s.log.Error(err, "Failed to cancel outstanding goal before landing")
	}

	s.fire(ctx, EventLand)
	s.telemetry.Announce(ctx, fmt.Sprintf("landing: %s (marker locked: %v)", reason, locked))
}

// beginEmergencyLanding abandons whatever is in progress, including an active
// diversion, and lands in place.
func (s *Sequencer) beginEmergencyLanding(ctx context.Context, level BatteryLevel) {
	s.log.Warn("Battery critical, emergency landing",
		"percent", level.Percent, "voltage", level.Voltage)

	if s.div != nil {
		metrics.DiversionsTotal.WithLabelValues("preempted").Inc()
		s.div = nil
		s.progress.PerformingDiversion = false
	}

	if err := s.channel.Cancel(ctx); err != nil {
		s.log.Error(err, "Failed to cancel outstanding goal for emergency landing")
	}

	s.approachPath = nil
	s.approachIdx = 0
	s.landGoalIssued = false
	s.emergency = true
	s.landReason = "battery critical"

	s.fire(ctx, EventLand)
	s.telemetry.Announce(ctx, "battery critical, emergency landing")
}

// tickLanding walks the approach path waypoint-by-waypoint, then issues the
// land goal and waits for its terminal state. Landing failure is logged and
// surfaced, never retried.
func (s *Sequencer) tickLanding(ctx context.Context) {
	handle := s.channel.Outstanding()
	if handle != nil && !handle.Status().Terminal() {
		return
	}

	if s.landGoalIssued {
		status := handle.Status()
		s.countGoal(handle)
		if status == StatusSucceeded {
			s.log.Info("Touchdown confirmed", "reason", s.landReason)
			if s.emergency {
				s.terminate(ctx, OutcomeEmergency, s.landReason)
			} else {
				s.terminate(ctx, OutcomeComplete, s.landReason)
			}
			return
		}

		err := &ActuationError{Motion: MotionLand, Status: status}
		s.log.Error(err, "Landing failed")
		if s.emergency {
			s.terminate(ctx, OutcomeEmergency, fmt.Sprintf("%s; landing %s", s.landReason, status))
		} else {
			s.terminate(ctx, OutcomeCancelled, fmt.Sprintf("landing %s", status))
		}
		return
	}

	s.countGoal(handle)

	// A failed approach waypoint means landing failed; the cancelled
	// pre-landing goal (approachIdx == 0) resolving Preempted is expected.
	if s.approachIdx > 0 && handle != nil && handle.Status() != StatusSucceeded {
		s.terminate(ctx, OutcomeCancelled, fmt.Sprintf("landing approach %s", handle.Status()))
		return
	}

	if s.approachIdx < len(s.approachPath) {
		wp := s.approachPath[s.approachIdx]
		if _, err := s.channel.Submit(ctx, s.cfg.gotoGoal(wp)); err != nil {
			s.terminate(ctx, OutcomeCancelled, fmt.Sprintf("failed to issue landing approach: %v", err))
			return
		}
		s.approachIdx++
		return
	}

	var target Waypoint
	if s.emergency {
		pos, _ := s.vehicle.Position()
		target = pos.AtAltitude(0)
	} else if len(s.approachPath) > 0 {
		target = s.approachPath[len(s.approachPath)-1].AtAltitude(0)
	}

	goal := FlightGoal{
		Motion:             MotionLand,
		Target:             target,
		VerticalSpeed:      s.cfg.LinearSpeed,
		WaitForConvergence: true,
		PositionTolerance:  s.cfg.PositionTolerance,
	}
	if _, err := s.channel.Submit(ctx, goal); err != nil {
		s.terminate(ctx, OutcomeCancelled, fmt.Sprintf("failed to issue land goal: %v", err))
		return
	}
	s.landGoalIssued = true
}

// Shutdown cancels any outstanding goal and terminates the mission. It is
// safe to invoke in any state, including after termination.
func (s *Sequencer) Shutdown(ctx context.Context, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.terminated {
		return
	}

	if err := s.channel.Cancel(ctx); err != nil {
		s.log.Error(err, "Failed to cancel outstanding goal during shutdown")
	}
	s.terminate(ctx, OutcomeCancelled, reason)
}

// terminate records the mission result and moves to the terminal phase.
// Callers must hold s.mu.
func (s *Sequencer) terminate(ctx context.Context, outcome Outcome, reason string) {
	if s.terminated {
		return
	}
	s.terminated = true
	s.result = Result{Outcome: outcome, Reason: reason}

	switch outcome {
	case OutcomeComplete:
		s.fire(ctx, EventTouchdown)
	case OutcomeEmergency:
		s.fire(ctx, EventEmergencyDown)
	default:
		s.fire(ctx, EventAbort)
	}

	s.log.Info("Mission terminated", "outcome", string(outcome), "reason", reason)
	s.telemetry.Announce(ctx, fmt.Sprintf("mission %s: %s", outcome, reason))
	close(s.done)
}

// fire triggers a phase transition, swallowing the library's no-op sentinels.
func (s *Sequencer) fire(ctx context.Context, event string) {
	if err := s.machine.Event(ctx, event); fsmutil.IsRealError(err) {
		// A refused transition here is a programming error; log it loudly
		// rather than crash mid-flight.
		s.log.Error(err, "Illegal phase transition", "event", event, "phase", s.machine.Current())
	}
}

// Snapshot is a point-in-time copy of mission state for the status endpoint
// and the post-flight report.
type Snapshot struct {
	Phase                string          `json:"phase"`
	WaypointIndex        int             `json:"waypointIndex"`
	PathLength           int             `json:"pathLength"`
	ReachedFirstWaypoint bool            `json:"reachedFirstWaypoint"`
	CompletedSearchLap   bool            `json:"completedSearchLap"`
	PerformingDiversion  bool            `json:"performingDiversion"`
	Objectives           map[string]bool `json:"objectives"`
	Position             *Waypoint       `json:"position,omitempty"`
	Battery              *BatteryLevel   `json:"battery,omitempty"`
	LandingLocked        bool            `json:"landingLocked"`
	LandingIdentity      string          `json:"landingIdentity,omitempty"`
	Result               *Result         `json:"result,omitempty"`
}

// Snapshot returns a copy of the current mission state.
func (s *Sequencer) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Phase:                s.machine.Current(),
		WaypointIndex:        s.progress.WaypointIndex,
		PathLength:           len(s.path),
		ReachedFirstWaypoint: s.progress.ReachedFirstWaypoint,
		CompletedSearchLap:   s.progress.CompletedSearchLap,
		PerformingDiversion:  s.progress.PerformingDiversion,
		Objectives:           make(map[string]bool, len(s.progress.Objectives)),
	}
	for class, v := range s.progress.Objectives {
		snap.Objectives[class.String()] = v
	}
	if pos, ok := s.vehicle.Position(); ok {
		p := pos
		snap.Position = &p
	}
	if level, ok := s.vehicle.Battery(); ok {
		b := level
		snap.Battery = &b
	}
	if s.landing != nil {
		if _, locked := s.landing.Target(); locked {
			snap.LandingLocked = true
			snap.LandingIdentity = s.landing.Identity()
		}
	}
	if s.terminated {
		r := s.result
		snap.Result = &r
	}
	return snap
}

// errIsOutstanding reports whether err is the channel busy sentinel.
func errIsOutstanding(err error) bool {
	return errors.Is(err, ErrGoalOutstanding)
}

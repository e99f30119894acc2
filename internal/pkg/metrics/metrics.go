package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// Registry holds every collector exposed on the agent's /metrics endpoint.
	Registry = prometheus.NewRegistry()

	// BatteryPercent tracks the latest battery percentage sample.
	BatteryPercent = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "skyhive_battery_percent",
			Help: "Latest battery percentage reported by the flight controller.",
		},
	)

	// BatteryVoltage tracks the latest battery voltage sample.
	BatteryVoltage = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "skyhive_battery_voltage",
			Help: "Latest battery voltage reported by the flight controller.",
		},
	)

	// GoalsTotal counts flight goals by motion type and terminal status.
	GoalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skyhive_flight_goals_total",
			Help: "Total number of flight goals by motion and terminal status.",
		},
		[]string{"motion", "status"},
	)

	// DiversionsTotal counts ROI diversions by outcome.
	DiversionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skyhive_diversions_total",
			Help: "Total number of ROI diversions by outcome (completed/aborted/preempted).",
		},
		[]string{"outcome"},
	)

	// PhaseTransitionsTotal counts mission phase transitions.
	PhaseTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skyhive_phase_transitions_total",
			Help: "Total number of mission sequencer phase transitions.",
		},
		[]string{"from", "to"},
	)

	// WaypointIndex tracks the lap cursor position.
	WaypointIndex = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "skyhive_waypoint_index",
			Help: "Current index into the expanded flight path.",
		},
	)

	// DetectionsTotal counts perception events by class and disposition.
	DetectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "skyhive_detections_total",
			Help: "Total number of perception detections by class and disposition (accepted/dropped).",
		},
		[]string{"class", "disposition"},
	)
)

func init() {
	Registry.MustRegister(
		BatteryPercent,
		BatteryVoltage,
		GoalsTotal,
		DiversionsTotal,
		PhaseTransitionsTotal,
		WaypointIndex,
		DetectionsTotal,
	)
}

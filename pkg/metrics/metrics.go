// Package metrics exposes Prometheus instrumentation for the stub server.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Request metrics
var (
	// RequestsTotal counts handled requests by method and outcome
	// (matched, no_match, conflict, error).
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stubwire_requests_total",
			Help: "Total number of stub requests handled",
		},
		[]string{"method", "outcome"},
	)

	// RequestDuration tracks request latency by outcome.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stubwire_request_duration_seconds",
			Help:    "Duration of stub request handling in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"outcome"},
	)
)

// Scenario metrics
var (
	// TransitionsTotal counts committed scenario transitions by scenario.
	TransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stubwire_scenario_transitions_total",
			Help: "Total number of committed scenario state transitions",
		},
		[]string{"scenario"},
	)

	// TransitionConflicts counts compare-and-swap failures during the
	// match-and-transition cycle by scenario.
	TransitionConflicts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stubwire_scenario_transition_conflicts_total",
			Help: "Total number of scenario transition compare-and-swap conflicts",
		},
		[]string{"scenario"},
	)

	// ScenarioResets counts scenario resets (single and bulk).
	ScenarioResets = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stubwire_scenario_resets_total",
			Help: "Total number of scenario resets",
		},
	)
)

// Outcome label values for RequestsTotal and RequestDuration.
const (
	OutcomeMatched  = "matched"
	OutcomeNoMatch  = "no_match"
	OutcomeConflict = "conflict"
	OutcomeError    = "error"
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordRequest records one handled request.
func RecordRequest(method, outcome string, duration time.Duration) {
	RequestsTotal.WithLabelValues(method, outcome).Inc()
	RequestDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// RecordTransition increments the committed transition counter.
func RecordTransition(scenario string) {
	TransitionsTotal.WithLabelValues(scenario).Inc()
}

// RecordTransitionConflict increments the transition conflict counter.
func RecordTransitionConflict(scenario string) {
	TransitionConflicts.WithLabelValues(scenario).Inc()
}

// RecordScenarioReset increments the scenario reset counter.
func RecordScenarioReset() {
	ScenarioResets.Inc()
}

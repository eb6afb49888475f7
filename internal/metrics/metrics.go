// Package metrics defines the Prometheus collectors shared across the
// conversational core.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics bundles the application collectors. A single instance is wired
// through the engine, facade and dispatcher; tests use NewWith and a fresh
// registry.
type Metrics struct {
	GenerationAttempts *prometheus.CounterVec
	FallbackEngaged    prometheus.Counter
	FlowSteps          *prometheus.CounterVec
	ActiveSessions     prometheus.Gauge
}

// New registers the collectors on the default registry.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith registers the collectors on a specific registerer.
func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		GenerationAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "smmbot_generation_attempts_total",
			Help: "Generation backend attempts by model and outcome.",
		}, []string{"model", "outcome"}),
		FallbackEngaged: factory.NewCounter(prometheus.CounterOpts{
			Name: "smmbot_generation_fallback_total",
			Help: "Calls where the primary model failed and fallback engaged.",
		}),
		FlowSteps: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "smmbot_flow_steps_total",
			Help: "Flow engine steps by flow and outcome.",
		}, []string{"flow", "outcome"}),
		ActiveSessions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "smmbot_active_sessions",
			Help: "Sessions currently owned by a flow.",
		}),
	}
}

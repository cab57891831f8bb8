package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the verification engine.
type Metrics struct {
	// Field decisions by outcome: verified, rejected, conflict.
	FieldDecisions *prometheus.CounterVec

	// VerifyAll batch runs and the per-item failures inside them.
	VerifyAllRuns     prometheus.Counter
	VerifyAllFailures prometheus.Counter
}

// New creates and registers all verification metrics.
func New() *Metrics {
	return &Metrics{
		FieldDecisions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "placement_verification_field_decisions_total",
			Help: "Field verification decisions by outcome",
		}, []string{"outcome"}),

		VerifyAllRuns: promauto.NewCounter(prometheus.CounterOpts{
			Name: "placement_verification_verify_all_runs_total",
			Help: "Total verify-all batch operations",
		}),

		VerifyAllFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "placement_verification_verify_all_item_failures_total",
			Help: "Per-item failures inside verify-all batches",
		}),
	}
}

// IncrementFieldDecision records one field verify/reject outcome.
func (m *Metrics) IncrementFieldDecision(outcome string) {
	if m != nil {
		m.FieldDecisions.WithLabelValues(outcome).Inc()
	}
}

// IncrementVerifyAll records one verify-all run with its failure count.
func (m *Metrics) IncrementVerifyAll(failures int) {
	if m != nil {
		m.VerifyAllRuns.Inc()
		m.VerifyAllFailures.Add(float64(failures))
	}
}

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the eligibility matcher.
type Metrics struct {
	// Eligibility checks by outcome: eligible, ineligible, error.
	Checks *prometheus.CounterVec

	// Rule failures by rule id.
	RuleFailures *prometheus.CounterVec

	CheckDuration prometheus.Histogram
}

// New creates and registers all eligibility metrics.
func New() *Metrics {
	return &Metrics{
		Checks: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "placement_eligibility_checks_total",
			Help: "Eligibility checks by outcome",
		}, []string{"outcome"}),

		RuleFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "placement_eligibility_rule_failures_total",
			Help: "Failed eligibility rules by rule id",
		}, []string{"rule"}),

		CheckDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "placement_eligibility_check_duration_ms",
			Help:    "Latency of eligibility checks in milliseconds",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 25, 50, 100},
		}),
	}
}

// IncrementCheck records one eligibility check outcome.
func (m *Metrics) IncrementCheck(outcome string) {
	if m != nil {
		m.Checks.WithLabelValues(outcome).Inc()
	}
}

// IncrementRuleFailure records one failed rule.
func (m *Metrics) IncrementRuleFailure(rule string) {
	if m != nil {
		m.RuleFailures.WithLabelValues(rule).Inc()
	}
}

// ObserveCheckDuration records check latency in milliseconds.
func (m *Metrics) ObserveCheckDuration(ms float64) {
	if m != nil {
		m.CheckDuration.Observe(ms)
	}
}

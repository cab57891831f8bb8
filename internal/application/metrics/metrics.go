package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the application lifecycle.
type Metrics struct {
	Created prometheus.Counter

	// Transitions by target status.
	Transitions *prometheus.CounterVec

	// Application attempts refused before creation: not_eligible,
	// duplicate, deadline_passed.
	Refusals *prometheus.CounterVec

	BulkRuns     prometheus.Counter
	BulkFailures prometheus.Counter
}

// New creates and registers all application metrics.
func New() *Metrics {
	return &Metrics{
		Created: promauto.NewCounter(prometheus.CounterOpts{
			Name: "placement_applications_created_total",
			Help: "Applications successfully created",
		}),

		Transitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "placement_application_transitions_total",
			Help: "Application status transitions by target status",
		}, []string{"to"}),

		Refusals: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "placement_application_refusals_total",
			Help: "Application attempts refused by reason",
		}, []string{"reason"}),

		BulkRuns: promauto.NewCounter(prometheus.CounterOpts{
			Name: "placement_application_bulk_runs_total",
			Help: "Bulk status transition batches",
		}),

		BulkFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "placement_application_bulk_item_failures_total",
			Help: "Per-item failures inside bulk transition batches",
		}),
	}
}

// IncrementCreated records one successful application.
func (m *Metrics) IncrementCreated() {
	if m != nil {
		m.Created.Inc()
	}
}

// IncrementTransition records one status transition.
func (m *Metrics) IncrementTransition(to string) {
	if m != nil {
		m.Transitions.WithLabelValues(to).Inc()
	}
}

// IncrementRefusal records one refused application attempt.
func (m *Metrics) IncrementRefusal(reason string) {
	if m != nil {
		m.Refusals.WithLabelValues(reason).Inc()
	}
}

// IncrementBulk records one bulk batch with its failure count.
func (m *Metrics) IncrementBulk(failures int) {
	if m != nil {
		m.BulkRuns.Inc()
		m.BulkFailures.Add(float64(failures))
	}
}

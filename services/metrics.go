package services

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// WorkflowMetrics counts transition outcomes per action.
type WorkflowMetrics struct {
	transitions *prometheus.CounterVec
	conflicts   *prometheus.CounterVec
	duration    *prometheus.HistogramVec
}

// NewWorkflowMetrics registers the workflow collectors on reg.
func NewWorkflowMetrics(reg prometheus.Registerer) *WorkflowMetrics {
	factory := promauto.With(reg)
	return &WorkflowMetrics{
		transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ethics_proposal_transitions_total",
			Help: "Proposal actions by outcome (ok or error kind)",
		}, []string{"action", "outcome"}),
		conflicts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ethics_proposal_conflicts_total",
			Help: "Conditional updates that lost an optimistic concurrency race",
		}, []string{"action"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ethics_proposal_transition_duration_seconds",
			Help:    "Time spent applying a proposal action, store I/O included",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}, []string{"action"}),
	}
}

func (m *WorkflowMetrics) observe(action Action, started time.Time, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = string(KindOf(err))
		if outcome == "" {
			outcome = "error"
		}
	}
	m.transitions.WithLabelValues(string(action), outcome).Inc()
	m.duration.WithLabelValues(string(action)).Observe(time.Since(started).Seconds())
}

func (m *WorkflowMetrics) conflict(action Action) {
	if m == nil {
		return
	}
	m.conflicts.WithLabelValues(string(action)).Inc()
}

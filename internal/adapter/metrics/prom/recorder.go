package prom

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"sourplanet/internal/app/ports"
)

const namespace = "sourplanet"

// Recorder exports session action outcomes as prometheus counters.
type Recorder struct {
	actions   *prometheus.CounterVec
	rejected  *prometheus.CounterVec
	conflicts prometheus.Counter
	failures  prometheus.Counter
}

// NewRecorder registers the counters on reg. Pass prometheus.DefaultRegisterer in production.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		actions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "actions_total",
			Help:      "Settled session actions by action type.",
		}, []string{"action"}),
		rejected: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "actions_rejected_total",
			Help:      "Player actions refused by the engine, by error kind.",
		}, []string{"kind"}),
		conflicts: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "version_conflicts_total",
			Help:      "Optimistic version conflicts while saving a session.",
		}),
		failures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "action_failures_total",
			Help:      "Session actions that failed for reasons other than a rejection or conflict.",
		}),
	}
}

func (r *Recorder) RecordSuccess(action string) {
	r.actions.WithLabelValues(action).Inc()
}

func (r *Recorder) RecordRejected(kind string) {
	r.rejected.WithLabelValues(kind).Inc()
}

func (r *Recorder) RecordConflict() {
	r.conflicts.Inc()
}

func (r *Recorder) RecordFailure() {
	r.failures.Inc()
}

// Fanout forwards every record to each recorder in order.
type Fanout []ports.ActionMetrics

func (f Fanout) RecordSuccess(action string) {
	for _, r := range f {
		r.RecordSuccess(action)
	}
}

func (f Fanout) RecordRejected(kind string) {
	for _, r := range f {
		r.RecordRejected(kind)
	}
}

func (f Fanout) RecordConflict() {
	for _, r := range f {
		r.RecordConflict()
	}
}

func (f Fanout) RecordFailure() {
	for _, r := range f {
		r.RecordFailure()
	}
}

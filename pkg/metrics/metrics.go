// Package metrics exposes the engine's Prometheus collectors. Collectors are
// registered on the default registry; each daemon serves them from its
// metrics listener.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RunsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "strand_runs_started_total",
		Help: "Workflow executions started.",
	})

	RunsCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "strand_runs_completed_total",
		Help: "Workflow executions reaching a terminal state, by status.",
	}, []string{"status"})

	NodeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "strand_node_duration_seconds",
		Help:    "Wall time per node execution, by node type.",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
	}, []string{"node_type"})

	NodesFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "strand_nodes_failed_total",
		Help: "Node executions ending in error, by node type.",
	}, []string{"node_type"})

	TriggersFired = promauto.NewCounter(prometheus.CounterOpts{
		Name: "strand_triggers_fired_total",
		Help: "Schedule triggers matched and enqueued.",
	})

	EvalDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "strand_eval_decisions_total",
		Help: "Eval engine outcomes, by decision.",
	}, []string{"outcome"})
)

// Handler serves the default registry, for each daemon's metrics listener.
func Handler() http.Handler {
	return promhttp.Handler()
}

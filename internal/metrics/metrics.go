// Package metrics provides Prometheus instrumentation for the watch status
// engine.
//
// Metrics registered here:
//
//	watchstate_operations_total             counter: engine calls by operation and outcome
//	watchstate_operation_duration_seconds   histogram: engine call latency by operation
//	watchstate_aggregation_anomalies_total  counter: seasons/shows aggregated with no children
//	watchstate_rows_seeded_total            counter: status rows created by tier
//	watchstate_invalidation_failures_total  counter: invalidations that could not be published
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the engine's collectors.
type Metrics struct {
	Operations           *prometheus.CounterVec
	OperationDuration    *prometheus.HistogramVec
	AggregationAnomalies *prometheus.CounterVec
	RowsSeeded           *prometheus.CounterVec
	InvalidationFailures *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// New registers the engine's collectors with reg. Pass a fresh
// prometheus.NewRegistry() in tests.
func New(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Operations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "watchstate_operations_total",
			Help: "Engine calls by operation and outcome.",
		}, []string{"operation", "outcome"}),

		OperationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "watchstate_operation_duration_seconds",
			Help:    "Engine call latency in seconds.",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}, []string{"operation"}),

		AggregationAnomalies: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "watchstate_aggregation_anomalies_total",
			Help: "Seasons or shows aggregated without any known children.",
		}, []string{"tier"}),

		RowsSeeded: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "watchstate_rows_seeded_total",
			Help: "Status rows created by favorite seeding or recompute.",
		}, []string{"tier"}),

		InvalidationFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "watchstate_invalidation_failures_total",
			Help: "Invalidations that could not be published after commit.",
		}, []string{"operation"}),

		gatherer: reg,
	}
}

// NewNop returns metrics bound to a private registry nothing scrapes.
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}

// ObserveOperation records one finished engine call.
func (m *Metrics) ObserveOperation(operation, outcome string, started time.Time) {
	m.Operations.WithLabelValues(operation, outcome).Inc()
	m.OperationDuration.WithLabelValues(operation).Observe(time.Since(started).Seconds())
}

// Handler exposes the registry for scraping. Mount it at GET /metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

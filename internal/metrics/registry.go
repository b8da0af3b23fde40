// Package metrics wires the core's cross-cutting counters/histograms/gauges
// into a Prometheus registry, grounded on objectfs's internal/metrics
// collector (the same Namespace/Subsystem-qualified Counter/Histogram/Gauge
// shape, and the same enabled-flag short-circuit on every recording method
// so a disabled Registry costs one bool check per call). Unlike objectfs's
// single flat Collector, spacedrive's Registry tracks four domains spec §5
// names as worth observing: job throughput, indexer throughput, action
// dispatch latency, and library/device population — one set of metrics
// per domain file (jobs.go, indexer.go, actions.go, libraries.go).
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry owns every metric the core records and the HTTP handler that
// serves them. A nil *Registry is valid everywhere a Registry is accepted —
// every recording method is a nil-receiver no-op — so wiring metrics into a
// Library or Manager is opt-in.
type Registry struct {
	enabled  bool
	registry *prometheus.Registry

	jobsStarted   *prometheus.CounterVec
	taskDuration  *prometheus.HistogramVec
	filesIndexed  prometheus.Counter
	indexDuration prometheus.Histogram
	actionTotal   *prometheus.CounterVec
	actionLatency *prometheus.HistogramVec
	syncApplied   *prometheus.CounterVec
	syncConflicts prometheus.Counter
	librariesOpen prometheus.Gauge
}

const namespace = "spacedrive"

// New creates an enabled Registry. A disabled Registry (enabled=false) is
// still safe to call every recording method on; it simply drops every
// observation, for a daemon run with metrics turned off in config.
func New(enabled bool) *Registry {
	r := &Registry{enabled: enabled}
	if !enabled {
		return r
	}

	r.registry = prometheus.NewRegistry()
	r.registry.MustRegister(prometheus.NewGoCollector(), prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	r.jobsStarted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Subsystem: "jobs", Name: "started_total",
		Help: "Jobs submitted to the dispatcher, by terminal state once known.",
	}, []string{"state"})
	r.taskDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace, Subsystem: "jobs", Name: "task_duration_seconds",
		Help:    "Per-task execution duration as observed by the Dispatcher.",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 16), // 1ms .. ~32s
	}, []string{"priority", "outcome"})
	r.filesIndexed = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Subsystem: "indexer", Name: "files_indexed_total",
		Help: "Entries written by a completed index pass, across every Location.",
	})
	r.indexDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace, Subsystem: "indexer", Name: "location_index_duration_seconds",
		Help:    "Wall-clock duration of one Location's Walk+Reconcile+Identify pass.",
		Buckets: prometheus.DefBuckets,
	})
	r.actionTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Subsystem: "action", Name: "dispatch_total",
		Help: "Action/Query registry dispatches, by handler name and outcome.",
	}, []string{"name", "kind", "outcome"})
	r.actionLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace, Subsystem: "action", Name: "dispatch_duration_seconds",
		Help:    "Handler execution latency as observed by the registry's hook pair.",
		Buckets: prometheus.DefBuckets,
	}, []string{"name"})
	r.syncApplied = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Subsystem: "sync", Name: "entries_applied_total",
		Help: "Sync log entries committed by the Applier, by model.",
	}, []string{"model"})
	r.syncConflicts = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Subsystem: "sync", Name: "quarantined_entries_total",
		Help: "Entries the Applier could not apply and quarantined instead.",
	})
	r.librariesOpen = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace, Subsystem: "library", Name: "open",
		Help: "Number of libraries currently open in this process.",
	})

	r.registry.MustRegister(r.jobsStarted, r.taskDuration, r.filesIndexed, r.indexDuration,
		r.actionTotal, r.actionLatency, r.syncApplied, r.syncConflicts, r.librariesOpen)

	return r
}

// Handler returns the promhttp handler serving this Registry's metrics, or
// nil if metrics are disabled — callers should skip mounting the route
// entirely in that case rather than mount a handler that 404s.
func (r *Registry) Handler() http.Handler {
	if r == nil || !r.enabled {
		return nil
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

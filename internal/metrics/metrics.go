// Package metrics collects Prometheus instrumentation for the broker:
// storage latencies, dispatch activity, and transport send outcomes.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns the process registry and the broker's collectors. It also
// implements pebblestore.MetricsHook so storage observations flow into the
// same registry.
type Metrics struct {
	registry *prometheus.Registry

	SendsTotal      *prometheus.CounterVec
	FanoutSize      prometheus.Histogram
	DispatchBatches prometheus.Counter
	ChangesTotal    *prometheus.CounterVec

	storageWrite  prometheus.Histogram
	storageRead   prometheus.Histogram
	storageCommit prometheus.Histogram
}

// New builds and registers all collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		SendsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "relay_transport_sends_total",
			Help: "Outbound transport sends by result.",
		}, []string{"result"}),
		FanoutSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "relay_fanout_recipients",
			Help:    "Recipients per fan-out.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}),
		DispatchBatches: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "relay_dispatch_batches_total",
			Help: "CDC batches processed by the dispatcher.",
		}),
		ChangesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "relay_dispatch_changes_total",
			Help: "Classified CDC change records by kind.",
		}, []string{"kind"}),
		storageWrite: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "relay_storage_write_seconds",
			Help:    "Point write latency.",
			Buckets: prometheus.DefBuckets,
		}),
		storageRead: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "relay_storage_read_seconds",
			Help:    "Point read latency.",
			Buckets: prometheus.DefBuckets,
		}),
		storageCommit: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "relay_storage_commit_seconds",
			Help:    "Batch commit latency.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	m.registry.MustRegister(
		m.SendsTotal, m.FanoutSize, m.DispatchBatches, m.ChangesTotal,
		m.storageWrite, m.storageRead, m.storageCommit,
	)
	return m
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveWrite implements pebblestore.MetricsHook.
func (m *Metrics) ObserveWrite(elapsed time.Duration, bytes int) {
	m.storageWrite.Observe(elapsed.Seconds())
}

// ObserveRead implements pebblestore.MetricsHook.
func (m *Metrics) ObserveRead(elapsed time.Duration, bytes int) {
	m.storageRead.Observe(elapsed.Seconds())
}

// ObserveBatchCommit implements pebblestore.MetricsHook.
func (m *Metrics) ObserveBatchCommit(elapsed time.Duration, bytes int) {
	m.storageCommit.Observe(elapsed.Seconds())
}

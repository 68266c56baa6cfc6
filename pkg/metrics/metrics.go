// Package metrics defines the prometheus collectors for the import service.
// All methods are safe on a nil *Metrics, which records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "household_budget"

// Metrics holds every collector the service exports.
type Metrics struct {
	previewRows        *prometheus.CounterVec
	categorizerBatches *prometheus.CounterVec
	cacheHits          prometheus.Counter
	llmLatency         *prometheus.HistogramVec
	committedRows      prometheus.Counter
	httpRequests       *prometheus.CounterVec
	httpDuration       *prometheus.HistogramVec
	poolTotalConns     prometheus.Gauge
	poolIdleConns      prometheus.Gauge
	poolAcquiredConns  prometheus.Gauge

	gatherer prometheus.Gatherer
}

// New creates the collectors and registers them, along with the Go runtime
// and process collectors, on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return NewWithRegistry(reg, reg)
}

// NewWithRegistry registers the collectors on reg and serves them from gatherer.
func NewWithRegistry(reg prometheus.Registerer, gatherer prometheus.Gatherer) *Metrics {
	m := &Metrics{
		previewRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "import",
			Name:      "preview_rows_total",
			Help:      "Preview rows produced, by final status.",
		}, []string{"status"}),
		categorizerBatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "categorizer",
			Name:      "batches_total",
			Help:      "Categorization batches sent to the model, by outcome.",
		}, []string{"outcome"}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "categorizer",
			Name:      "cache_hits_total",
			Help:      "Rows categorized from past household mappings without a model call.",
		}),
		llmLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "llm",
			Name:      "call_duration_seconds",
			Help:      "Latency of language model calls.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 40, 80},
		}, []string{"outcome"}),
		committedRows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "import",
			Name:      "committed_transactions_total",
			Help:      "Transactions written by confirmed imports.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"method", "route", "code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		poolTotalConns: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "db_pool",
			Name:      "total_conns",
			Help:      "Connections currently in the pool.",
		}),
		poolIdleConns: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "db_pool",
			Name:      "idle_conns",
			Help:      "Idle connections in the pool.",
		}),
		poolAcquiredConns: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "db_pool",
			Name:      "acquired_conns",
			Help:      "Connections currently checked out.",
		}),
		gatherer: gatherer,
	}

	reg.MustRegister(
		m.previewRows,
		m.categorizerBatches,
		m.cacheHits,
		m.llmLatency,
		m.committedRows,
		m.httpRequests,
		m.httpDuration,
		m.poolTotalConns,
		m.poolIdleConns,
		m.poolAcquiredConns,
	)
	return m
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.gatherer == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func (m *Metrics) ObservePreviewRows(status string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.previewRows.WithLabelValues(status).Add(float64(n))
}

func (m *Metrics) ObserveBatch(outcome string) {
	if m == nil {
		return
	}
	m.categorizerBatches.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveCacheHits(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.cacheHits.Add(float64(n))
}

// ObserveLLMCall satisfies llm.LatencyObserver.
func (m *Metrics) ObserveLLMCall(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.llmLatency.WithLabelValues(outcome).Observe(d.Seconds())
}

func (m *Metrics) ObserveCommit(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.committedRows.Add(float64(n))
}

func (m *Metrics) ObserveHTTP(method, route string, code int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// SetPoolStats publishes a connection pool snapshot.
func (m *Metrics) SetPoolStats(total, idle, acquired int32) {
	if m == nil {
		return
	}
	m.poolTotalConns.Set(float64(total))
	m.poolIdleConns.Set(float64(idle))
	m.poolAcquiredConns.Set(float64(acquired))
}

// Package observability wires the gateway's Prometheus metrics: a
// registry of request, store-adapter, and analytics counters/
// histograms, plus the /metrics HTTP handler.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is the gateway's metrics surface, built on its own registry
// (not the global default) so tests can construct isolated instances.
type Metrics struct {
	registry *prometheus.Registry

	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	StoreDuration   *prometheus.HistogramVec
	StoreErrors     *prometheus.CounterVec
	AnalyticsFailed prometheus.Counter
	LockContention  *prometheus.CounterVec
}

// NewMetrics builds and registers the gateway's metric families.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "eventgateway_requests_total",
			Help: "Total HTTP requests handled, by route and status.",
		}, []string{"route", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "eventgateway_request_duration_seconds",
			Help:    "HTTP request duration in seconds, by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		StoreDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "eventgateway_store_call_duration_seconds",
			Help:    "Store adapter call duration in seconds, by operation.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		StoreErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "eventgateway_store_errors_total",
			Help: "Store adapter errors, by error kind.",
		}, []string{"kind"}),
		AnalyticsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "eventgateway_analytics_append_failures_total",
			Help: "Best-effort analytics appends that failed.",
		}),
		LockContention: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "eventgateway_lock_busy_total",
			Help: "Writer lock acquisitions that timed out, by lock kind.",
		}, []string{"kind"}),
	}

	reg.MustRegister(
		m.RequestsTotal, m.RequestDuration, m.StoreDuration,
		m.StoreErrors, m.AnalyticsFailed, m.LockContention,
	)
	return m
}

// Handler serves /metrics in Prometheus text exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

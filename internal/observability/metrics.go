package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects application metrics.
type Metrics interface {
	// RecordDecision counts a compliance decision by level and primary category
	RecordDecision(level, category string)
	// RecordGateway counts a gateway call by operation and outcome (ok, blocked, error)
	RecordGateway(operation, outcome string)
	// RecordProviderLatency observes one LLM round trip
	RecordProviderLatency(model, status string, d time.Duration)
	// RecordCatalogReload counts policy catalog reloads by result
	RecordCatalogReload(result string)
}

// PrometheusMetrics implements Metrics on a private registry
type PrometheusMetrics struct {
	registry        *prometheus.Registry
	decisions       *prometheus.CounterVec
	gateway         *prometheus.CounterVec
	providerLatency *prometheus.HistogramVec
	catalogReloads  *prometheus.CounterVec
}

// NewPrometheusMetrics registers the application collectors plus Go and process collectors
func NewPrometheusMetrics() *PrometheusMetrics {
	reg := prometheus.NewRegistry()
	m := &PrometheusMetrics{
		registry: reg,
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "repcopilot",
			Subsystem: "compliance",
			Name:      "decisions_total",
			Help:      "Compliance decisions by level and primary category.",
		}, []string{"level", "category"}),
		gateway: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "repcopilot",
			Subsystem: "gateway",
			Name:      "requests_total",
			Help:      "Gateway requests by operation and outcome.",
		}, []string{"operation", "outcome"}),
		providerLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "repcopilot",
			Subsystem: "provider",
			Name:      "request_duration_seconds",
			Help:      "LLM provider round-trip latency.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 60},
		}, []string{"model", "status"}),
		catalogReloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "repcopilot",
			Subsystem: "compliance",
			Name:      "catalog_reloads_total",
			Help:      "Policy catalog reload attempts by result.",
		}, []string{"result"}),
	}

	reg.MustRegister(
		m.decisions,
		m.gateway,
		m.providerLatency,
		m.catalogReloads,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *PrometheusMetrics) RecordDecision(level, category string) {
	if category == "" {
		category = "none"
	}
	m.decisions.WithLabelValues(level, category).Inc()
}

func (m *PrometheusMetrics) RecordGateway(operation, outcome string) {
	m.gateway.WithLabelValues(operation, outcome).Inc()
}

func (m *PrometheusMetrics) RecordProviderLatency(model, status string, d time.Duration) {
	m.providerLatency.WithLabelValues(model, status).Observe(d.Seconds())
}

func (m *PrometheusMetrics) RecordCatalogReload(result string) {
	m.catalogReloads.WithLabelValues(result).Inc()
}

// Registry exposes the underlying registry for tests and extra collectors
func (m *PrometheusMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *PrometheusMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// NopMetrics discards everything. Used when METRICS_ENABLED=false and in tests.
type NopMetrics struct{}

func (NopMetrics) RecordDecision(string, string) {}
func (NopMetrics) RecordGateway(string, string) {}
func (NopMetrics) RecordProviderLatency(string, string, time.Duration) {}
func (NopMetrics) RecordCatalogReload(string) {}

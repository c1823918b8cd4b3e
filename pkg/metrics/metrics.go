// Package metrics exposes auditdoc service metrics for Prometheus scraping.
//
// All recording methods are safe on a nil *Metrics, so components take an
// optional collector and callers that do not export metrics pass nil.
package metrics

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/auditdoc/auditdoc/pkg/varpath"
)

const namespace = "auditdoc"

// Metrics holds the service collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	// Counters
	requestsTotal    *prometheus.CounterVec
	validationsTotal *prometheus.CounterVec
	previewsTotal    *prometheus.CounterVec
	toolCallsTotal   *prometheus.CounterVec

	// Gauges
	inFlight prometheus.Gauge

	// Histograms
	requestDuration *prometheus.HistogramVec
	previewWarnings prometheus.Histogram
}

// New creates and registers all collectors, including the Go runtime and
// process collectors.
func New() (*Metrics, error) {
	// Create custom registry (don't pollute default)
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests served, by route, method and status code",
		},
		[]string{"route", "method", "code"},
	)
	m.validationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "variable_validations_total",
			Help:      "Variable path validations, by outcome",
		},
		[]string{"result"},
	)
	m.previewsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "previews_total",
			Help:      "Template previews rendered, by cache use and outcome",
		},
		[]string{"cache", "outcome"},
	)
	m.toolCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mcp_tool_calls_total",
			Help:      "MCP tool invocations, by tool and outcome",
		},
		[]string{"tool", "outcome"},
	)
	m.inFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "http_requests_in_flight",
		Help:      "HTTP requests currently being served",
	})
	m.requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution in seconds",
			Buckets:   []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		},
		[]string{"route", "method"},
	)
	m.previewWarnings = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "preview_warnings",
		Help:      "Warnings reported per rendered preview",
		Buckets:   []float64{0, 1, 2, 5, 10, 25},
	})

	all := []prometheus.Collector{
		m.requestsTotal,
		m.validationsTotal,
		m.previewsTotal,
		m.toolCallsTotal,
		m.inFlight,
		m.requestDuration,
		m.previewWarnings,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	}
	for _, c := range all {
		if err := m.registry.Register(c); err != nil {
			return nil, fmt.Errorf("metrics: registering collector: %w", err)
		}
	}
	return m, nil
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// RequestStarted increments the in-flight gauge and returns the matching
// decrement.
func (m *Metrics) RequestStarted() func() {
	if m == nil {
		return func() {}
	}
	m.inFlight.Inc()
	return m.inFlight.Dec
}

// ObserveRequest records one served HTTP request.
func (m *Metrics) ObserveRequest(route, method string, code int, d time.Duration) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
	m.requestDuration.WithLabelValues(route, method).Observe(d.Seconds())
}

// RecordValidation records the outcome of one variable path validation.
func (m *Metrics) RecordValidation(kind varpath.Kind) {
	if m == nil {
		return
	}
	m.validationsTotal.WithLabelValues(kind.String()).Inc()
}

// RecordPreview records one preview render. err is the parse error, if any.
func (m *Metrics) RecordPreview(cached bool, warnings int, err error) {
	if m == nil {
		return
	}
	cache := "miss"
	if cached {
		cache = "hit"
	}
	if err != nil {
		m.previewsTotal.WithLabelValues(cache, "error").Inc()
		return
	}
	m.previewsTotal.WithLabelValues(cache, "ok").Inc()
	m.previewWarnings.Observe(float64(warnings))
}

// RecordToolCall records one MCP tool invocation.
func (m *Metrics) RecordToolCall(tool string, failed bool) {
	if m == nil {
		return
	}
	outcome := "ok"
	if failed {
		outcome = "error"
	}
	m.toolCallsTotal.WithLabelValues(tool, outcome).Inc()
}

// Package metrics holds the Prometheus collectors for Foundry.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds Prometheus metrics for the assistant, planner and HTTP server.
//
// Metrics:
//   - foundry_generation_duration_seconds{outcome} - backend call latency
//   - foundry_backend_errors_total{kind} - classified backend failures
//   - foundry_tokens_total{direction} - tokens consumed
//   - foundry_tool_calls_total{tool,outcome} - orchestrator tool executions
//   - foundry_http_requests_total{method,route,status} - HTTP requests served
//   - foundry_http_request_duration_seconds{method,route} - HTTP latency
//
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	GenerationDuration *prometheus.HistogramVec
	BackendErrorsTotal *prometheus.CounterVec
	TokensTotal        *prometheus.CounterVec
	ToolCallsTotal     *prometheus.CounterVec
	HTTPRequestsTotal  *prometheus.CounterVec
	HTTPDuration       *prometheus.HistogramVec
}

// New creates a registry with Foundry's collectors plus the Go runtime and
// process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		GenerationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "foundry_generation_duration_seconds",
				Help:    "Duration of text generation backend calls in seconds",
				Buckets: prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms to ~25s
			},
			[]string{"outcome"}, // "ok" or "error"
		),
		BackendErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "foundry_backend_errors_total",
				Help: "Total number of classified generation backend failures",
			},
			[]string{"kind"}, // "rate_limited", "payment_required", "generic"
		),
		TokensTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "foundry_tokens_total",
				Help: "Total number of tokens consumed by generation calls",
			},
			[]string{"direction"}, // "input" or "output"
		),
		ToolCallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "foundry_tool_calls_total",
				Help: "Total number of assistant tool executions",
			},
			[]string{"tool", "outcome"},
		),
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "foundry_http_requests_total",
				Help: "Total number of HTTP requests served",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "foundry_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordGeneration records one backend call. errKind is empty on success.
func (m *Metrics) RecordGeneration(d time.Duration, errKind string) {
	if m == nil {
		return
	}
	outcome := "ok"
	if errKind != "" {
		outcome = "error"
		m.BackendErrorsTotal.WithLabelValues(errKind).Inc()
	}
	m.GenerationDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

// RecordTokens adds token usage from one call.
func (m *Metrics) RecordTokens(input, output int64) {
	if m == nil {
		return
	}
	m.TokensTotal.WithLabelValues("input").Add(float64(input))
	m.TokensTotal.WithLabelValues("output").Add(float64(output))
}

// RecordToolCall records one tool execution.
func (m *Metrics) RecordToolCall(tool string, isError bool) {
	if m == nil {
		return
	}
	outcome := "ok"
	if isError {
		outcome = "error"
	}
	m.ToolCallsTotal.WithLabelValues(tool, outcome).Inc()
}

// RecordHTTP records one served request.
func (m *Metrics) RecordHTTP(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// Package metrics exposes prometheus instruments for the HTTP surface and
// the proposal pipeline.
package metrics

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exposes application-level instruments.
type Metrics struct {
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	generations        *prometheus.CounterVec
	exports            *prometheus.CounterVec
	rateLimitDenied    *prometheus.CounterVec
	idempotencyReplays *prometheus.CounterVec
}

// New registers the application instruments on the default registry.
func New() *Metrics {
	return &Metrics{
		httpRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "copilot_http_requests_total",
			Help: "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		httpDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "copilot_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		generations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "copilot_proposal_generations_total",
			Help: "Proposal generations by outcome.",
		}, []string{"outcome"}),
		exports: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "copilot_proposal_exports_total",
			Help: "Proposal exports by format.",
		}, []string{"format"}),
		rateLimitDenied: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "copilot_rate_limit_denied_total",
			Help: "Requests denied by the per-action rate limit.",
		}, []string{"action"}),
		idempotencyReplays: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "copilot_idempotency_replays_total",
			Help: "Requests answered from the idempotency store.",
		}, []string{"endpoint"}),
	}
}

func (m *Metrics) RecordGeneration(outcome string) {
	if m == nil {
		return
	}
	m.generations.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func (m *Metrics) RecordExport(format string) {
	if m == nil {
		return
	}
	m.exports.WithLabelValues(normalizeLabel(format)).Inc()
}

func (m *Metrics) RecordRateLimitDenied(action string) {
	if m == nil {
		return
	}
	m.rateLimitDenied.WithLabelValues(normalizeLabel(action)).Inc()
}

func (m *Metrics) RecordIdempotencyReplay(endpoint string) {
	if m == nil {
		return
	}
	m.idempotencyReplays.WithLabelValues(normalizeLabel(endpoint)).Inc()
}

// GinMiddleware records request counts and latency per route.
func GinMiddleware(m *Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if strings.TrimSpace(route) == "" {
			route = "unknown"
		}
		m.httpRequests.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

func normalizeLabel(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return "unknown"
	}
	return value
}

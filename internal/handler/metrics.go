package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	swapRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "skillswap_requests_total",
		Help: "Total HTTP requests by method, path, and response status.",
	}, []string{"method", "path", "status"})

	swapRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "skillswap_request_duration_seconds",
		Help:    "Request duration in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	swapMessagesSentTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "skillswap_messages_sent_total",
		Help: "Total chat messages sent by content kind.",
	}, []string{"kind"})

	swapMatchRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "skillswap_match_runs_total",
		Help: "Total match computations by engine.",
	}, []string{"engine"})

	swapVerificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "skillswap_certificate_verifications_total",
		Help: "Total certificate verification outcomes.",
	}, []string{"status"})
)

// PrometheusMiddleware returns a Gin middleware that records per-request metrics.
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())
		method := c.Request.Method
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		swapRequestsTotal.WithLabelValues(method, path, status).Inc()
		swapRequestDuration.WithLabelValues(method, path).Observe(duration)
	}
}

// MetricsHandler returns a Gin handler that serves Prometheus metrics.
func MetricsHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// RecordMessageSent records a sent chat message by content kind.
func RecordMessageSent(kind string) {
	swapMessagesSentTotal.WithLabelValues(kind).Inc()
}

// RecordMatchRun records a match computation ("deterministic" or "ai").
func RecordMatchRun(engine string) {
	swapMatchRunsTotal.WithLabelValues(engine).Inc()
}

// RecordVerification records a certificate verification outcome.
func RecordVerification(status string) {
	swapVerificationsTotal.WithLabelValues(status).Inc()
}

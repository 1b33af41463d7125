// Package metrics collects and exposes Prometheus metrics for the HTTP
// layer and the auth flows.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the application's Prometheus metrics.
type Collector struct {
	requests        *prometheus.CounterVec
	requestLatency  *prometheus.HistogramVec
	authOutcomes    *prometheus.CounterVec
	sessionRefresh  *prometheus.CounterVec
	backendFailures prometheus.Counter
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "galley_http_requests_total",
			Help: "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		requestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "galley_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		authOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "galley_auth_attempts_total",
			Help: "Auth form submissions by operation and outcome.",
		}, []string{"operation", "outcome"}),
		sessionRefresh: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "galley_session_refresh_total",
			Help: "Token refresh attempts during session resolution by outcome.",
		}, []string{"outcome"}),
		backendFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "galley_backend_failures_total",
			Help: "Failed calls to the hosted backend.",
		}),
	}

	reg.MustRegister(
		c.requests,
		c.requestLatency,
		c.authOutcomes,
		c.sessionRefresh,
		c.backendFailures,
	)

	return c
}

// RecordAuthAttempt records the outcome of a login, signup, reset or
// logout submission.
func (c *Collector) RecordAuthAttempt(operation, outcome string) {
	c.authOutcomes.WithLabelValues(operation, outcome).Inc()
}

// RecordSessionRefresh records a token refresh outcome.
func (c *Collector) RecordSessionRefresh(outcome string) {
	c.sessionRefresh.WithLabelValues(outcome).Inc()
}

// RecordBackendFailure records a failed backend call.
func (c *Collector) RecordBackendFailure() {
	c.backendFailures.Inc()
}

// Middleware returns a gin middleware recording request counts and
// latency per route. Unmatched paths are collapsed into one label to keep
// cardinality bounded.
func (c *Collector) Middleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()

		route := ctx.FullPath()
		if route == "" {
			route = "unmatched"
		}

		c.requests.WithLabelValues(
			ctx.Request.Method,
			route,
			strconv.Itoa(ctx.Writer.Status()),
		).Inc()
		c.requestLatency.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

// Handler returns the HTTP handler serving the metrics in Prometheus
// exposition format.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

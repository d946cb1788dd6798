// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// AuthDecisionsTotal counts authentication decisions by scheme and reason.
	// reason is "none" for allowed requests.
	AuthDecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_auth_decisions_total",
			Help: "Authentication decisions",
		},
		[]string{"scheme", "reason"},
	)

	RateLimitRejectedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "catalog_ratelimit_rejected_total",
			Help: "Rate limit rejections",
		},
	)

	// RequestsTotal counts HTTP requests by method, route and status class.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_http_requests_total",
			Help: "Total requests",
		},
		[]string{"method", "route", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "catalog_http_request_duration_seconds",
			Help:    "Request duration",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

func init() {
	prometheus.MustRegister(
		AuthDecisionsTotal,
		RateLimitRejectedTotal,
		RequestsTotal,
		RequestDuration,
	)
}

// Recorder adapts the package collectors to the auth pipeline's observer.
type Recorder struct{}

func (Recorder) ObserveAuthDecision(scheme, reason string) {
	AuthDecisionsTotal.WithLabelValues(scheme, reason).Inc()
}

func ObserveRequest(method, route string, status int, seconds float64) {
	if route == "" {
		route = "unmatched"
	}
	RequestsTotal.WithLabelValues(method, route, StatusClass(status)).Inc()
	RequestDuration.WithLabelValues(method, route).Observe(seconds)
}

// StatusClass maps 404 to "4xx" and so on.
func StatusClass(status int) string {
	if status < 100 || status > 599 {
		return "unknown"
	}
	return strconv.Itoa(status/100) + "xx"
}

func Handler() http.Handler {
	return promhttp.Handler()
}

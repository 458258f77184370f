// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinesocial_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cinesocial_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// Domain
	MutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinesocial_mutations_total",
			Help: "Service mutations by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	RatingRecomputes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cinesocial_rating_recomputes_total",
			Help: "Number of movie rating aggregate recomputations",
		},
	)

	ViewCountIncrements = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cinesocial_view_count_increments_total",
			Help: "Number of watchlist transitions into completed",
		},
	)

	ActivityPublishFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cinesocial_activity_publish_failures_total",
			Help: "Activity notifications that could not be published",
		},
	)

	// Cache and rate limiting
	CacheResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cinesocial_response_cache_total",
			Help: "Response cache lookups by result",
		},
		[]string{"result"}, // hit, miss, bypass
	)

	RateLimitRejections = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cinesocial_rate_limit_rejections_total",
			Help: "Requests rejected by the rate limiter",
		},
	)
)

// RecordAPIRequest records one served HTTP request.
func RecordAPIRequest(method, route, status string, d time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, status).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// RecordMutation records the outcome label ("ok" or an error kind) of a
// service operation.
func RecordMutation(operation, outcome string) {
	MutationsTotal.WithLabelValues(operation, outcome).Inc()
}

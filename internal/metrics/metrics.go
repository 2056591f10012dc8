package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// HTTP
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "http_request_duration_seconds",
			Help: "Duration of HTTP requests in seconds",
		},
		[]string{"method", "path"},
	)
	HTTPRequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Current number of HTTP requests in flight",
		},
	)
	RateLimitedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "http_rate_limited_total",
			Help: "Requests rejected by the rate limiter",
		},
	)

	// Subscriptions
	SubscriptionOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "subscription_operations_total",
			Help: "Subscription operations by product, operation and result status",
		},
		[]string{"product", "operation", "status"},
	)
	Subscriptions = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "subscriptions",
			Help: "Stored subscriptions by product and derived state",
		},
		[]string{"product", "state"},
	)

	// Security
	AuthFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_failures_total",
			Help: "Rejected authentication attempts by kind",
		},
		[]string{"product", "reason"},
	)

	// Store
	StoreBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "store_circuit_breaker_state",
			Help: "Store circuit breaker state (0 closed, 1 half-open, 2 open)",
		},
		[]string{"name"},
	)
)

var initOnce sync.Once

// InitMetrics registers the collectors with the default registry, which
// already carries the Go runtime and process collectors.
func InitMetrics() {
	initOnce.Do(func() {
		prometheus.MustRegister(HTTPRequestsTotal)
		prometheus.MustRegister(HTTPRequestDuration)
		prometheus.MustRegister(HTTPRequestsInFlight)
		prometheus.MustRegister(RateLimitedTotal)

		prometheus.MustRegister(SubscriptionOperationsTotal)
		prometheus.MustRegister(Subscriptions)
		prometheus.MustRegister(AuthFailuresTotal)
		prometheus.MustRegister(StoreBreakerState)
	})
}

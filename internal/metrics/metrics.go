// metrics — счётчики и гистограммы Prometheus, публикуемые на /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Исходы операций аутентификации.
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

var (
	// AuthEvents — операции входа, ротации и проверки токенов по исходу.
	AuthEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "accounts",
		Name:      "auth_events_total",
		Help:      "Authentication events by operation and outcome.",
	}, []string{"operation", "outcome"})

	// HTTPRequests — количество обработанных HTTP-запросов.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "accounts",
		Name:      "http_requests_total",
		Help:      "HTTP requests by method, route and status.",
	}, []string{"method", "route", "status"})

	// HTTPDuration — длительность обработки HTTP-запросов.
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "accounts",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})
)

// Auth увеличивает счётчик события аутентификации.
func Auth(operation, outcome string) {
	AuthEvents.WithLabelValues(operation, outcome).Inc()
}

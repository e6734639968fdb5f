package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adgate_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "adgate_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	CallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adgate_ssv_callbacks_total",
			Help: "Completion callbacks by outcome",
		},
		[]string{"status"},
	)

	RewardsCreditedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adgate_rewards_credited_total",
			Help: "Accepted reward events by item",
		},
		[]string{"item"},
	)

	CreditDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "adgate_credit_duration_seconds",
			Help:    "Duration of the ledger insert and wallet credit transaction",
			Buckets: prometheus.DefBuckets,
		},
	)

	RateLimitedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "adgate_rate_limited_total",
			Help: "Requests dropped by the IP rate limiter",
		},
	)
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

func RecordCallback(status string) {
	CallbacksTotal.WithLabelValues(status).Inc()
}

func RecordRewardCredited(item string) {
	RewardsCreditedTotal.WithLabelValues(item).Inc()
}

func ObserveCreditDuration(seconds float64) {
	CreditDuration.Observe(seconds)
}

func RecordRateLimited() {
	RateLimitedTotal.Inc()
}

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	providerLatencyMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "forms_provider_latency_ms",
			Help:    "Forms provider call latency distribution in milliseconds.",
			Buckets: []float64{10, 25, 50, 100, 200, 400, 800, 1600, 3000, 5000},
		},
		[]string{"endpoint", "outcome"},
	)

	tokenRefreshes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oauth_token_refreshes_total",
			Help: "OAuth client-credentials exchanges by outcome.",
		},
		[]string{"outcome"},
	)

	directoryLatencyMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "user_directory_latency_ms",
			Help:    "User directory call latency distribution in milliseconds.",
			Buckets: []float64{10, 25, 50, 100, 200, 400, 800, 1600, 3000, 5000},
		},
		[]string{"endpoint", "outcome"},
	)
)

func ObserveProviderCall(endpoint, outcome string, elapsed time.Duration) {
	providerLatencyMs.WithLabelValues(endpoint, outcome).Observe(float64(elapsed.Milliseconds()))
}

func IncTokenRefresh(outcome string) {
	tokenRefreshes.WithLabelValues(outcome).Inc()
}

func ObserveDirectoryCall(endpoint, outcome string, elapsed time.Duration) {
	directoryLatencyMs.WithLabelValues(endpoint, outcome).Observe(float64(elapsed.Milliseconds()))
}

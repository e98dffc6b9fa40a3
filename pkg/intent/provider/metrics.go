package provider

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for reasoning-engine calls.
var (
	engineRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_engine_requests_total",
		Help: "Reasoning engine HTTP requests by provider and status",
	}, []string{"provider", "status"})

	engineRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "storefront_engine_request_duration_seconds",
		Help:    "Reasoning engine request duration in seconds by provider",
		Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 30},
	}, []string{"provider"})

	engineRetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_engine_retries_total",
		Help: "Reasoning engine retry attempts by provider and error class",
	}, []string{"provider", "error_class"})

	engineRetryExhaustedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_engine_retry_exhausted_total",
		Help: "Times reasoning engine retries were exhausted by provider and error class",
	}, []string{"provider", "error_class"})
)

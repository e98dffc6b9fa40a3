package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks cache hits by tier
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"tier"}, // "local", "redis"
	)

	// CacheMisses tracks cache misses by tier
	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"tier"},
	)

	// CacheErrors tracks tier operation errors
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_cache_errors_total",
			Help: "Total number of cache tier operation errors",
		},
		[]string{"tier", "operation"}, // "get", "set", "delete", "touch", "update"
	)

	// LocalEntries tracks the number of entries in the local tier
	LocalEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "storefront_cache_local_entries",
			Help: "Current number of entries held by the local cache tier",
		},
	)

	// CacheConflicts tracks optimistic update retries on the shared tier
	CacheConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "storefront_cache_conflicts_total",
			Help: "Total number of optimistic update conflicts on the shared tier",
		},
	)

	// BreakerState tracks the circuit breaker state by tier
	BreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "storefront_cache_breaker_state",
			Help: "Circuit breaker state (0 closed, 1 half-open, 2 open)",
		},
		[]string{"tier"},
	)
)

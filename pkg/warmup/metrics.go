package warmup

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	itemsWarmedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_warmup_items_total",
		Help: "Catalog items prefetched into the cache tiers",
	})

	warmupDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "storefront_warmup_duration_seconds",
		Help:    "Duration of catalog warmup runs",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
	})
)

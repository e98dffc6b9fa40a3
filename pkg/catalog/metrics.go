package catalog

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for catalog reads.
var (
	catalogReadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_catalog_reads_total",
		Help: "Total catalog reads by operation and serving tier",
	}, []string{"operation", "served_by"}) // served_by: "local", "redis", "source", "none"

	catalogSourceErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_catalog_source_errors_total",
		Help: "Total source store errors by operation",
	}, []string{"operation"})

	catalogInvalidationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_catalog_invalidations_total",
		Help: "Total cache invalidations by scope",
	}, []string{"scope"}) // "all", "item"
)

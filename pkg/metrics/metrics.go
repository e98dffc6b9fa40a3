// Package metrics documents the Prometheus metrics of the storefront.
// All metrics are defined in their respective packages (cache, catalog, cart,
// intent, api) to maintain modularity and avoid circular dependencies.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the storefront.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Cache Metrics (pkg/cache):
//   - storefront_cache_hits_total{tier} (Counter): Cache hits by tier ("local", "redis")
//   - storefront_cache_misses_total{tier} (Counter): Cache misses by tier
//   - storefront_cache_errors_total{tier, operation} (Counter): Tier operation errors
//   - storefront_cache_local_entries (Gauge): Entries held by the local tier
//   - storefront_cache_conflicts_total (Counter): Atomic updates that lost every attempt
//   - storefront_cache_breaker_state{tier} (Gauge): 0 closed, 1 half-open, 2 open
//
// Catalog Metrics (pkg/catalog):
//   - storefront_catalog_reads_total{operation, served_by} (Counter): Reads by serving layer
//   - storefront_catalog_source_errors_total{operation} (Counter): Source store failures
//   - storefront_catalog_invalidations_total{scope} (Counter): Invalidations ("all", "item")
//
// Cart Metrics (pkg/cart):
//   - storefront_cart_operations_total{operation, result} (Counter): Cart operations by result
//
// Warmup Metrics (pkg/warmup):
//   - storefront_warmup_items_total (Counter): Items prefetched into the tiers
//   - storefront_warmup_duration_seconds (Histogram): Warmup run duration
//
// Intent Metrics (pkg/intent):
//   - storefront_intent_routed_total{intent, outcome} (Counter): Rule router decisions
//   - storefront_intent_engine_rounds_total (Counter): Engine completion rounds
//   - storefront_intent_engine_tool_calls_total{tool, result} (Counter): Tools run by the engine
//   - storefront_intent_engine_fallbacks_total (Counter): Messages answered by the router after an engine failure
//
// Engine Metrics (pkg/intent/provider, pkg/ratelimit):
//   - storefront_engine_requests_total{provider, status} (Counter): Provider requests by status
//   - storefront_engine_request_duration_seconds{provider} (Histogram): Provider request duration
//   - storefront_engine_retries_total{provider, error_class} (Counter): Retry attempts
//   - storefront_engine_retry_exhausted_total{provider, error_class} (Counter): Requests that exhausted retries
//   - storefront_engine_requests_remaining{provider} (Gauge): Requests left in the provider window
//   - storefront_engine_rate_limit_blocks_total{provider} (Counter): Requests refused while the budget is exhausted
//   - storefront_engine_rate_limit_throttles_total{provider} (Counter): Requests delayed while the budget is low
//
// HTTP Metrics (pkg/api):
//   - storefront_http_requests_total{method, route, status} (Counter): Requests by route and status
//   - storefront_http_request_duration_seconds{method, route} (Histogram): Request duration
//
// Example Prometheus Queries:
//
//   # Local tier hit rate
//   sum(rate(storefront_cache_hits_total{tier="local"}[5m])) /
//   (sum(rate(storefront_cache_hits_total{tier="local"}[5m])) + sum(rate(storefront_cache_misses_total{tier="local"}[5m])))
//
//   # Share of catalog reads reaching the source store
//   sum(rate(storefront_catalog_reads_total{served_by="source"}[5m])) / sum(rate(storefront_catalog_reads_total[5m]))
//
//   # Shared tier breaker open
//   storefront_cache_breaker_state == 2
//
//   # P95 API latency
//   histogram_quantile(0.95, sum by (le, route) (rate(storefront_http_request_duration_seconds_bucket[5m])))

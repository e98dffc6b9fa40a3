// Package cache provides the storage tiers behind the storefront catalog and cart.
//
// Two tiers are implemented:
//
// - LocalTier: an in-process, bounded LRU with a per-key expiry (L1)
// - RedisTier: a Redis-backed tier shared by every instance (L2)
//
// Both satisfy Tier. RedisTier additionally satisfies SharedTier, which adds
// sliding expiration (Touch) and an optimistic read-modify-write (Update) used
// by the cart store.
//
// # Basic Usage
//
//	redisClient := redis.NewClient(&redis.Options{
//		Addr: "localhost:6379",
//	})
//
//	l2 := cache.NewRedisTier(redisClient)
//	l1, err := cache.NewLocalTier(1024)
//	if err != nil {
//		return err
//	}
//
//	data, err := l1.Get(ctx, cache.ListingKey(true))
//	if errors.Is(err, cache.ErrCacheMiss) {
//		// fall through to L2
//	}
//
// # Guarding L2
//
// BreakerTier wraps any Tier with a circuit breaker. While the breaker is open
// every call fails fast with ErrTierUnavailable, which callers treat as a miss.
//
//	guarded := cache.NewBreakerTier(l2, cache.DefaultBreakerConfig("redis"), logger)
//
// SharedBreakerTier does the same for a SharedTier, so carts and the catalog
// can share one breaker on the same Redis.
//
// # Keys
//
// Keys are built from a namespace and parts, joined with ":".
//
//	catalog:all            listing snapshot (L2)
//	catalog:all:local      listing snapshot (L1)
//	catalog:item:42        item snapshot (L2)
//	catalog:item:42:local  item snapshot (L1)
//	cart:user:17           cart of an authenticated user
//	cart:guest:<session>   cart of a guest session
//
// # Metrics
//
//   - storefront_cache_hits_total{tier} - Cache hits
//   - storefront_cache_misses_total{tier} - Cache misses
//   - storefront_cache_errors_total{tier,operation} - Tier operation errors
//   - storefront_cache_local_entries - Entries held by the local tier
//   - storefront_cache_conflicts_total - Optimistic update conflicts on the shared tier
//   - storefront_cache_breaker_state{tier} - Breaker state (0 closed, 1 half-open, 2 open)
package cache

// Package warmup prefetches the catalog into the cache tiers.
//
// A Warmer reads the listing once (populating the listing snapshots) and then
// reads every listed item by ID through a bounded worker pool, so the first
// real requests after a deploy or an InvalidateAll hit the local tier.
//
// Example usage:
//
//	w := warmup.New(orchestrator, warmup.DefaultConfig())
//	result, err := w.Run(ctx)
//
// The warmer:
//   - Reads the listing to learn the item IDs
//   - Spawns a worker pool (default 8 workers)
//   - Reads each item with a per-item timeout
//   - Counts items the cache could not resolve instead of failing
package warmup

package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Sternrassler/storefront/pkg/cache"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config holds the orchestrator configuration.
type Config struct {
	// Tiers, fastest first
	Local  cache.Tier
	Shared cache.Tier

	// Source store (required) and optional writer for admin mutations
	Source Source
	Writer SourceWriter

	// Listing snapshot TTLs. Shared must outlive local.
	ListingLocalTTL  time.Duration
	ListingSharedTTL time.Duration

	// Item snapshot TTLs. Items change less often than the listing.
	ItemLocalTTL  time.Duration
	ItemSharedTTL time.Duration

	// TierTimeout bounds every single tier call
	TierTimeout time.Duration

	Logger *zerolog.Logger
}

// DefaultConfig returns the default TTLs: listing 5m/10m, item 15m/30m.
func DefaultConfig(local, shared cache.Tier, source Source) Config {
	return Config{
		Local:            local,
		Shared:           shared,
		Source:           source,
		ListingLocalTTL:  5 * time.Minute,
		ListingSharedTTL: 10 * time.Minute,
		ItemLocalTTL:     15 * time.Minute,
		ItemSharedTTL:    30 * time.Minute,
		TierTimeout:      250 * time.Millisecond,
	}
}

// Orchestrator implements read-through caching of catalog reads across the
// local tier, the shared tier and the source store.
//
// Tier failures are treated as misses. Source failures yield empty results.
// Only caller contract violations are returned as errors from read paths.
type Orchestrator struct {
	cfg    Config
	logger zerolog.Logger
}

// New creates an orchestrator.
func New(cfg Config) (*Orchestrator, error) {
	if cfg.Local == nil || cfg.Shared == nil {
		return nil, fmt.Errorf("local and shared tiers are required")
	}
	if cfg.Source == nil {
		return nil, fmt.Errorf("source store is required")
	}
	if cfg.ListingLocalTTL <= 0 || cfg.ItemLocalTTL <= 0 {
		return nil, fmt.Errorf("local TTLs must be positive")
	}
	if cfg.ListingSharedTTL <= cfg.ListingLocalTTL {
		return nil, fmt.Errorf("listing shared TTL (%s) must exceed local TTL (%s)", cfg.ListingSharedTTL, cfg.ListingLocalTTL)
	}
	if cfg.ItemSharedTTL <= cfg.ItemLocalTTL {
		return nil, fmt.Errorf("item shared TTL (%s) must exceed local TTL (%s)", cfg.ItemSharedTTL, cfg.ItemLocalTTL)
	}
	if cfg.TierTimeout <= 0 {
		return nil, fmt.Errorf("tier timeout must be positive")
	}

	logger := log.With().Str("component", "catalog").Logger()
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	return &Orchestrator{cfg: cfg, logger: logger}, nil
}

// GetAll returns every catalog item. It never fails: when the source store
// is unreachable the result is an empty list.
func (o *Orchestrator) GetAll(ctx context.Context) []Item {
	items, found := readThrough(ctx, o, "get_all",
		cache.ListingKey(true), cache.ListingKey(false),
		o.cfg.ListingLocalTTL, o.cfg.ListingSharedTTL,
		func(ctx context.Context) ([]Item, bool, error) {
			items, err := o.cfg.Source.ReadAll(ctx)
			return items, err == nil, err
		})
	if !found || items == nil {
		return []Item{}
	}
	return items
}

// GetFiltered reads matching items straight from the source store. Filtered
// results are never cached: the space of filter combinations is unbounded.
func (o *Orchestrator) GetFiltered(ctx context.Context, f Filter) []Item {
	f.Query = strings.TrimSpace(f.Query)

	items, err := o.cfg.Source.ReadFiltered(ctx, f)
	if err != nil {
		catalogSourceErrorsTotal.WithLabelValues("get_filtered").Inc()
		o.logger.Error().Err(err).
			Str("query", f.Query).
			Str("sort", string(f.Sort)).
			Msg("Source store filtered read failed")
		return []Item{}
	}

	catalogReadsTotal.WithLabelValues("get_filtered", "source").Inc()
	if items == nil {
		return []Item{}
	}
	return items
}

// GetByID returns one item. found is false when the item does not exist or
// the source store is unreachable. A non-positive id returns ErrInvalidID
// without touching any tier.
func (o *Orchestrator) GetByID(ctx context.Context, id int64) (Item, bool, error) {
	if id <= 0 {
		return Item{}, false, fmt.Errorf("%w: %d", ErrInvalidID, id)
	}

	item, found := readThrough(ctx, o, "get_by_id",
		cache.ItemKey(id, true), cache.ItemKey(id, false),
		o.cfg.ItemLocalTTL, o.cfg.ItemSharedTTL,
		func(ctx context.Context) (Item, bool, error) {
			return o.cfg.Source.ReadByID(ctx, id)
		})
	return item, found, nil
}

// InvalidateAll removes the listing snapshot from both tiers. Every writer
// that adds, updates or deletes an item must call it.
func (o *Orchestrator) InvalidateAll(ctx context.Context) error {
	catalogInvalidationsTotal.WithLabelValues("all").Inc()
	return o.invalidate(ctx, cache.ListingKey(true), cache.ListingKey(false))
}

// InvalidateByID removes the item snapshot from both tiers and then the
// listing, since the listing shows the same name and price.
func (o *Orchestrator) InvalidateByID(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidID, id)
	}

	catalogInvalidationsTotal.WithLabelValues("item").Inc()
	itemErr := o.invalidate(ctx, cache.ItemKey(id, true), cache.ItemKey(id, false))
	allErr := o.InvalidateAll(ctx)
	return errors.Join(itemErr, allErr)
}

// invalidate deletes localKey from the local tier and sharedKey from the
// shared tier. The local delete always runs.
func (o *Orchestrator) invalidate(ctx context.Context, localKey, sharedKey string) error {
	tctx, cancel := o.tierContext(ctx)
	_ = o.cfg.Local.Delete(tctx, localKey)
	cancel()

	tctx, cancel = o.tierContext(ctx)
	defer cancel()
	if err := o.cfg.Shared.Delete(tctx, sharedKey); err != nil {
		o.logger.Error().Err(err).Str("key", sharedKey).Msg("Shared tier invalidation failed")
		return fmt.Errorf("invalidate %s: %w", sharedKey, err)
	}

	o.logger.Debug().Str("key", sharedKey).Msg("Cache invalidated")
	return nil
}

// tierContext derives the per-call deadline for a tier access.
func (o *Orchestrator) tierContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, o.cfg.TierTimeout)
}

// readThrough looks a snapshot up in the local tier, then the shared tier,
// then the source. A shared hit repopulates the local tier with the same
// bytes; a source hit populates the shared tier and then the local tier.
// Absent source values are not cached.
func readThrough[T any](
	ctx context.Context,
	o *Orchestrator,
	operation, localKey, sharedKey string,
	localTTL, sharedTTL time.Duration,
	load func(ctx context.Context) (T, bool, error),
) (T, bool) {
	var zero T

	// Step 1: local tier
	if data, ok := o.tierGet(ctx, o.cfg.Local, localKey); ok {
		snap, err := cache.DecodeSnapshot[T](data)
		if err == nil {
			catalogReadsTotal.WithLabelValues(operation, o.cfg.Local.Name()).Inc()
			o.logger.Debug().Str("key", localKey).Dur("age", snap.Age()).Msg("Local tier hit")
			return snap.Value, true
		}
		o.logger.Warn().Err(err).Str("key", localKey).Msg("Dropping undecodable local entry")
		o.tierDelete(ctx, o.cfg.Local, localKey)
	}

	// Step 2: shared tier
	if data, ok := o.tierGet(ctx, o.cfg.Shared, sharedKey); ok {
		snap, err := cache.DecodeSnapshot[T](data)
		if err == nil {
			o.tierSet(ctx, o.cfg.Local, localKey, data, localTTL)
			catalogReadsTotal.WithLabelValues(operation, o.cfg.Shared.Name()).Inc()
			o.logger.Debug().Str("key", sharedKey).Dur("age", snap.Age()).Msg("Shared tier hit")
			return snap.Value, true
		}
		o.logger.Warn().Err(err).Str("key", sharedKey).Msg("Ignoring undecodable shared entry")
	}

	// Step 3: source store
	value, found, err := load(ctx)
	if err != nil {
		catalogSourceErrorsTotal.WithLabelValues(operation).Inc()
		catalogReadsTotal.WithLabelValues(operation, "none").Inc()
		o.logger.Error().Err(err).Str("operation", operation).Msg("Source store read failed")
		return zero, false
	}
	if !found {
		catalogReadsTotal.WithLabelValues(operation, "none").Inc()
		return zero, false
	}
	catalogReadsTotal.WithLabelValues(operation, "source").Inc()

	data, err := cache.NewSnapshot(value).Encode()
	if err != nil {
		o.logger.Warn().Err(err).Str("key", sharedKey).Msg("Snapshot encoding failed, serving uncached")
		return value, true
	}

	o.tierSet(ctx, o.cfg.Shared, sharedKey, data, sharedTTL)
	o.tierSet(ctx, o.cfg.Local, localKey, data, localTTL)

	o.logger.Debug().
		Str("key", sharedKey).
		Dur("local_ttl", localTTL).
		Dur("shared_ttl", sharedTTL).
		Msg("Populated cache from source")

	return value, true
}

// tierGet reads key from tier. Errors other than a miss are logged and
// reported as a miss.
func (o *Orchestrator) tierGet(ctx context.Context, tier cache.Tier, key string) ([]byte, bool) {
	tctx, cancel := o.tierContext(ctx)
	defer cancel()

	data, err := tier.Get(tctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			o.logger.Warn().Err(err).Str("tier", tier.Name()).Str("key", key).Msg("Cache tier get failed, treating as miss")
		}
		return nil, false
	}
	return data, true
}

func (o *Orchestrator) tierSet(ctx context.Context, tier cache.Tier, key string, data []byte, ttl time.Duration) {
	tctx, cancel := o.tierContext(ctx)
	defer cancel()

	if err := tier.Set(tctx, key, data, ttl); err != nil {
		o.logger.Warn().Err(err).Str("tier", tier.Name()).Str("key", key).Msg("Cache tier set failed")
	}
}

func (o *Orchestrator) tierDelete(ctx context.Context, tier cache.Tier, key string) {
	tctx, cancel := o.tierContext(ctx)
	defer cancel()

	if err := tier.Delete(tctx, key); err != nil {
		o.logger.Warn().Err(err).Str("tier", tier.Name()).Str("key", key).Msg("Cache tier delete failed")
	}
}

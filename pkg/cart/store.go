package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Sternrassler/storefront/pkg/cache"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// DefaultTTL is the sliding inactivity window after which a cart expires.
const DefaultTTL = 6 * time.Hour

// DefaultTierTimeout bounds each call to the shared tier.
const DefaultTierTimeout = 250 * time.Millisecond

// Config holds the cart store configuration.
type Config struct {
	// Tier is the shared tier carts live in. Carts are never held locally.
	Tier cache.SharedTier

	// TTL is the sliding expiration applied on every write
	TTL time.Duration

	// TierTimeout bounds every tier call. Zero means DefaultTierTimeout.
	TierTimeout time.Duration

	Logger *zerolog.Logger
}

// DefaultConfig returns a configuration with the default sliding TTL.
func DefaultConfig(tier cache.SharedTier) Config {
	return Config{Tier: tier, TTL: DefaultTTL, TierTimeout: DefaultTierTimeout}
}

// NewLine describes a product being added to a cart.
type NewLine struct {
	ProductID int64
	Name      string
	Price     decimal.Decimal
	ImageURL  string
}

// Store manages carts in the shared tier. Every mutation is an atomic
// read-modify-write on the cart key, so concurrent mutations of one cart
// never lose updates.
type Store struct {
	tier    cache.SharedTier
	ttl     time.Duration
	timeout time.Duration
	logger  zerolog.Logger
}

// NewStore creates a cart store.
func NewStore(cfg Config) (*Store, error) {
	if cfg.Tier == nil {
		return nil, fmt.Errorf("shared tier is required")
	}
	if cfg.TTL <= 0 {
		return nil, fmt.Errorf("cart TTL must be positive (got %s)", cfg.TTL)
	}

	logger := log.With().Str("component", "cart").Logger()
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	timeout := cfg.TierTimeout
	if timeout <= 0 {
		timeout = DefaultTierTimeout
	}

	return &Store{tier: cfg.Tier, ttl: cfg.TTL, timeout: timeout, logger: logger}, nil
}

// tierContext derives the deadline for a single tier call.
func (s *Store) tierContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

func (s *Store) tierGet(ctx context.Context, key string) ([]byte, error) {
	ctx, cancel := s.tierContext(ctx)
	defer cancel()
	return s.tier.Get(ctx, key)
}

func (s *Store) tierTouch(ctx context.Context, key string) error {
	ctx, cancel := s.tierContext(ctx)
	defer cancel()
	return s.tier.Touch(ctx, key, s.ttl)
}

func (s *Store) tierDelete(ctx context.Context, key string) error {
	ctx, cancel := s.tierContext(ctx)
	defer cancel()
	return s.tier.Delete(ctx, key)
}

func (s *Store) tierUpdate(ctx context.Context, key string, fn cache.UpdateFunc) error {
	ctx, cancel := s.tierContext(ctx)
	defer cancel()
	return s.tier.Update(ctx, key, s.ttl, fn)
}

// Get returns the cart of id. A missing cart is created and persisted. When
// the stored cart cannot be read or decoded an empty cart is returned and
// nothing is written.
func (s *Store) Get(ctx context.Context, id Identity) (*Cart, error) {
	if !id.Valid() {
		return nil, ErrNoIdentity
	}
	key := cache.CartKey(id.String())

	data, err := s.tierGet(ctx, key)
	switch {
	case err == nil:
		c, err := decodeCart(data, id)
		if err != nil {
			cartOperationsTotal.WithLabelValues("get", "decode_error").Inc()
			s.logger.Warn().Err(err).Str("identity", id.String()).Msg("Stored cart unreadable, returning empty cart")
			return NewCart(id), nil
		}
		if err := s.tierTouch(ctx, key); err != nil {
			s.logger.Warn().Err(err).Str("identity", id.String()).Msg("Failed to slide cart expiration")
		}
		cartOperationsTotal.WithLabelValues("get", "hit").Inc()
		return c, nil

	case errors.Is(err, cache.ErrCacheMiss):
		c := NewCart(id)
		if err := s.create(ctx, key, c); err != nil {
			s.logger.Warn().Err(err).Str("identity", id.String()).Msg("Failed to persist new cart")
		}
		cartOperationsTotal.WithLabelValues("get", "created").Inc()
		return c, nil

	default:
		cartOperationsTotal.WithLabelValues("get", "tier_error").Inc()
		s.logger.Warn().Err(err).Str("identity", id.String()).Msg("Cart tier unavailable, returning empty cart")
		return NewCart(id), nil
	}
}

// create stores c under key unless another request created it first.
func (s *Store) create(ctx context.Context, key string, c *Cart) error {
	return s.tierUpdate(ctx, key, func(current []byte) ([]byte, error) {
		if current != nil {
			return nil, nil
		}
		return json.Marshal(c)
	})
}

// Add puts one unit of a product into the cart: an existing line is
// incremented, otherwise a new line with quantity 1 is appended. Unlike reads,
// storage failures are returned so the caller learns the add did not happen.
func (s *Store) Add(ctx context.Context, id Identity, l NewLine) error {
	if l.Price.IsNegative() {
		return fmt.Errorf("%w: %s", ErrNegativePrice, l.Price)
	}
	if l.ProductID <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidProductID, l.ProductID)
	}

	line := Line{ProductID: l.ProductID, Name: l.Name, Price: l.Price, ImageURL: l.ImageURL}
	return s.mutate(ctx, id, "add", func(c *Cart) bool {
		c.add(line, 1)
		return true
	})
}

// Increase adds one to the quantity of productID. A missing line is a no-op.
func (s *Store) Increase(ctx context.Context, id Identity, productID int64) error {
	return s.adjust(ctx, id, "increase", productID, 1)
}

// Decrease removes one from the quantity of productID and drops the line at
// zero. A missing line is a no-op.
func (s *Store) Decrease(ctx context.Context, id Identity, productID int64) error {
	return s.adjust(ctx, id, "decrease", productID, -1)
}

func (s *Store) adjust(ctx context.Context, id Identity, op string, productID int64, delta int) error {
	if productID <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidProductID, productID)
	}

	return s.mutate(ctx, id, op, func(c *Cart) bool {
		if c.adjust(productID, delta) {
			return true
		}
		s.logger.Warn().
			Str("identity", id.String()).
			Int64("product_id", productID).
			Str("operation", op).
			Msg("No cart line for product, nothing changed")
		return false
	})
}

// Clear deletes the cart. The next Get starts a new one.
func (s *Store) Clear(ctx context.Context, id Identity) error {
	if !id.Valid() {
		return ErrNoIdentity
	}

	if err := s.tierDelete(ctx, cache.CartKey(id.String())); err != nil {
		cartOperationsTotal.WithLabelValues("clear", "error").Inc()
		return fmt.Errorf("clear cart: %w", err)
	}
	cartOperationsTotal.WithLabelValues("clear", "ok").Inc()
	return nil
}

// Count returns the number of units in the cart, or 0 on any error.
func (s *Store) Count(ctx context.Context, id Identity) int {
	if !id.Valid() {
		return 0
	}

	data, err := s.tierGet(ctx, cache.CartKey(id.String()))
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn().Err(err).Str("identity", id.String()).Msg("Cart count unavailable")
		}
		return 0
	}

	c, err := decodeCart(data, id)
	if err != nil {
		return 0
	}
	return c.Count()
}

// MergeGuestInto folds the cart of guest session guestSessionID into the cart
// of user, summing quantities of shared products, then deletes the guest
// cart. It is called once after a successful login and never fails: every
// problem is logged and swallowed.
func (s *Store) MergeGuestInto(ctx context.Context, guestSessionID string, user Identity) {
	guest := Guest(guestSessionID)
	if !guest.Valid() || !user.Valid() || guest == user {
		return
	}
	guestKey := cache.CartKey(guest.String())
	logger := s.logger.With().Str("guest", guest.String()).Str("user", user.String()).Logger()

	data, err := s.tierGet(ctx, guestKey)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			cartOperationsTotal.WithLabelValues("merge", "error").Inc()
			logger.Error().Err(err).Msg("Cart merge skipped: guest cart unreadable")
		}
		return
	}

	guestCart, err := decodeCart(data, guest)
	if err != nil {
		cartOperationsTotal.WithLabelValues("merge", "error").Inc()
		logger.Error().Err(err).Msg("Cart merge skipped: guest cart undecodable")
		return
	}

	if !guestCart.IsEmpty() {
		mark := mergeMark(guestCart)
		err = s.mutate(ctx, user, "merge", func(c *Cart) bool {
			if c.hasMerged(mark) {
				logger.Warn().Msg("Guest cart already merged, only retrying its deletion")
				return false
			}
			for _, l := range guestCart.Lines {
				c.add(l, l.Quantity)
			}
			c.markMerged(mark)
			return true
		})
		if err != nil {
			logger.Error().Err(err).Msg("Cart merge failed, guest cart kept")
			return
		}
	}

	if err := s.tierDelete(ctx, guestKey); err != nil {
		logger.Error().Err(err).Msg("Merged guest cart could not be deleted, a later merge will skip it")
		return
	}

	logger.Info().Int("lines", len(guestCart.Lines)).Msg("Guest cart merged")
}

// mutate applies fn to the current cart of id inside an atomic update and
// persists the result with a fresh TTL. fn returns false to skip the write.
func (s *Store) mutate(ctx context.Context, id Identity, op string, fn func(c *Cart) bool) error {
	if !id.Valid() {
		return ErrNoIdentity
	}
	key := cache.CartKey(id.String())

	err := s.tierUpdate(ctx, key, func(current []byte) ([]byte, error) {
		c := NewCart(id)
		if current != nil {
			decoded, err := decodeCart(current, id)
			if err != nil {
				s.logger.Warn().Err(err).Str("identity", id.String()).Msg("Replacing unreadable cart")
			} else {
				c = decoded
			}
		}

		if !fn(c) {
			return nil, nil
		}
		c.UpdatedAt = time.Now()
		return json.Marshal(c)
	})
	if err != nil {
		cartOperationsTotal.WithLabelValues(op, "error").Inc()
		s.logger.Error().Err(err).Str("identity", id.String()).Str("operation", op).Msg("Cart update failed")
		return fmt.Errorf("cart %s: %w", op, err)
	}

	cartOperationsTotal.WithLabelValues(op, "ok").Inc()
	return nil
}

// decodeCart parses a stored cart and checks its invariants. The owner is
// always taken from the key, never from the payload.
func decodeCart(data []byte, id Identity) (*Cart, error) {
	var c Cart
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("%w: %v", cache.ErrInvalidEntry, err)
	}
	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", cache.ErrInvalidEntry, err)
	}
	if c.Lines == nil {
		c.Lines = []Line{}
	}
	c.Owner = id
	return &c, nil
}

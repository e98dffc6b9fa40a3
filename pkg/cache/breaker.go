package cache

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
)

// BreakerConfig holds the circuit breaker settings for a guarded tier.
type BreakerConfig struct {
	Name        string
	MaxRequests uint32        // Requests allowed through while half-open
	Interval    time.Duration // Window after which closed-state counts reset
	Timeout     time.Duration // Time spent open before probing again

	// The breaker trips once MinRequests have been seen in the window and
	// the failure ratio reaches FailureThreshold.
	FailureThreshold float64
	MinRequests      uint32
}

// DefaultBreakerConfig returns the breaker settings used for the shared tier.
func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:             name,
		MaxRequests:      3,
		Interval:         30 * time.Second,
		Timeout:          10 * time.Second,
		FailureThreshold: 0.6,
		MinRequests:      5,
	}
}

// BreakerTier wraps a Tier with a circuit breaker. Misses and update
// conflicts count as successes; only transport failures move the breaker
// towards open. While open, every
// call returns ErrTierUnavailable without touching the inner tier.
type BreakerTier struct {
	inner  Tier
	cb     *gobreaker.CircuitBreaker
	logger zerolog.Logger
}

// NewBreakerTier guards inner with a circuit breaker.
func NewBreakerTier(inner Tier, cfg BreakerConfig, logger zerolog.Logger) *BreakerTier {
	t := &BreakerTier{inner: inner, logger: logger}

	t.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			BreakerState.WithLabelValues(name).Set(float64(to))
			t.logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Cache tier breaker state changed")
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrCacheMiss) || errors.Is(err, ErrConflict)
		},
	})

	return t
}

// Name implements Tier.
func (t *BreakerTier) Name() string { return t.inner.Name() }

// State returns the current breaker state.
func (t *BreakerTier) State() gobreaker.State { return t.cb.State() }

// Get implements Tier.
func (t *BreakerTier) Get(ctx context.Context, key string) ([]byte, error) {
	result, err := t.cb.Execute(func() (interface{}, error) {
		return t.inner.Get(ctx, key)
	})
	if err != nil {
		return nil, t.translate(err)
	}
	return result.([]byte), nil
}

// Set implements Tier.
func (t *BreakerTier) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	_, err := t.cb.Execute(func() (interface{}, error) {
		return nil, t.inner.Set(ctx, key, value, ttl)
	})
	return t.translate(err)
}

// Delete implements Tier.
func (t *BreakerTier) Delete(ctx context.Context, key string) error {
	_, err := t.cb.Execute(func() (interface{}, error) {
		return nil, t.inner.Delete(ctx, key)
	})
	return t.translate(err)
}

// translate maps breaker rejections onto ErrTierUnavailable.
func (t *BreakerTier) translate(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return ErrTierUnavailable
	}
	return err
}

// SharedBreakerTier is a BreakerTier over a SharedTier. Touch and Update go
// through the same breaker as the plain Tier calls, so catalog and cart
// traffic trip and recover together.
type SharedBreakerTier struct {
	*BreakerTier
	shared SharedTier
}

// NewSharedBreakerTier guards inner with a circuit breaker.
func NewSharedBreakerTier(inner SharedTier, cfg BreakerConfig, logger zerolog.Logger) *SharedBreakerTier {
	return &SharedBreakerTier{BreakerTier: NewBreakerTier(inner, cfg, logger), shared: inner}
}

// Touch implements SharedTier.
func (t *SharedBreakerTier) Touch(ctx context.Context, key string, ttl time.Duration) error {
	_, err := t.cb.Execute(func() (interface{}, error) {
		return nil, t.shared.Touch(ctx, key, ttl)
	})
	return t.translate(err)
}

// Update implements SharedTier.
func (t *SharedBreakerTier) Update(ctx context.Context, key string, ttl time.Duration, fn UpdateFunc) error {
	_, err := t.cb.Execute(func() (interface{}, error) {
		return nil, t.shared.Update(ctx, key, ttl, fn)
	})
	return t.translate(err)
}

var (
	_ Tier       = (*BreakerTier)(nil)
	_ SharedTier = (*SharedBreakerTier)(nil)
)

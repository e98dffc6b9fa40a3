package cache

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrCacheMiss indicates the requested key was not found or has expired
	ErrCacheMiss = errors.New("cache miss")

	// ErrInvalidEntry indicates the cache entry could not be decoded
	ErrInvalidEntry = errors.New("invalid cache entry")

	// ErrConflict indicates an optimistic update lost every attempt to a concurrent writer
	ErrConflict = errors.New("cache update conflict")

	// ErrTierUnavailable indicates the tier refused the call (e.g. open circuit breaker)
	ErrTierUnavailable = errors.New("cache tier unavailable")
)

// Tier is a key/value store with per-key TTL.
type Tier interface {
	// Get returns the stored bytes or ErrCacheMiss.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key for ttl. A non-positive ttl is a no-op.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Name identifies the tier in logs and metrics ("local", "redis").
	Name() string
}

// UpdateFunc receives the current value (nil when absent) and returns the
// value to store. Returning a nil slice and a nil error leaves the key untouched.
type UpdateFunc func(current []byte) ([]byte, error)

// SharedTier is a Tier visible to every service instance.
type SharedTier interface {
	Tier

	// Touch resets the TTL of an existing key. Missing keys are ignored.
	Touch(ctx context.Context, key string, ttl time.Duration) error

	// Update performs an atomic read-modify-write of key and stores the
	// result with ttl. It returns ErrConflict when concurrent writers win
	// every attempt.
	Update(ctx context.Context, key string, ttl time.Duration, fn UpdateFunc) error
}

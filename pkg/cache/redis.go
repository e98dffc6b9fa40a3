package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// maxUpdateAttempts bounds the WATCH/MULTI retry loop of Update.
const maxUpdateAttempts = 3

// RedisTier is the shared (L2) tier backed by Redis.
type RedisTier struct {
	redis *redis.Client
}

// NewRedisTier creates a Redis-backed tier.
func NewRedisTier(redisClient *redis.Client) *RedisTier {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	return &RedisTier{
		redis: redisClient,
	}
}

// Name implements Tier.
func (t *RedisTier) Name() string { return "redis" }

// Get retrieves the raw bytes stored under key.
// Returns ErrCacheMiss if the key doesn't exist.
func (t *RedisTier) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := t.redis.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			CacheMisses.WithLabelValues(t.Name()).Inc()
			return nil, ErrCacheMiss
		}
		CacheErrors.WithLabelValues(t.Name(), "get").Inc()
		return nil, fmt.Errorf("redis get: %w", err)
	}

	CacheHits.WithLabelValues(t.Name()).Inc()
	return data, nil
}

// Set stores value with the given TTL.
// The entry is removed by Redis itself once the TTL elapses.
func (t *RedisTier) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	if err := t.redis.Set(ctx, key, value, ttl).Err(); err != nil {
		CacheErrors.WithLabelValues(t.Name(), "set").Inc()
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Delete removes a key.
func (t *RedisTier) Delete(ctx context.Context, key string) error {
	if err := t.redis.Del(ctx, key).Err(); err != nil {
		CacheErrors.WithLabelValues(t.Name(), "delete").Inc()
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Touch resets the TTL of an existing key (sliding expiration).
func (t *RedisTier) Touch(ctx context.Context, key string, ttl time.Duration) error {
	if err := t.redis.Expire(ctx, key, ttl).Err(); err != nil {
		CacheErrors.WithLabelValues(t.Name(), "touch").Inc()
		return fmt.Errorf("redis expire: %w", err)
	}
	return nil
}

// Update runs fn inside a WATCH/MULTI transaction on key.
// If another client modifies key between the read and the write the
// transaction is retried, up to maxUpdateAttempts times.
func (t *RedisTier) Update(ctx context.Context, key string, ttl time.Duration, fn UpdateFunc) error {
	txf := func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, key).Bytes()
		if err != nil && err != redis.Nil {
			return fmt.Errorf("redis get: %w", err)
		}
		if err == redis.Nil {
			current = nil
		}

		next, err := fn(current)
		if err != nil {
			return err
		}
		if next == nil {
			return nil
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, next, ttl)
			return nil
		})
		return err
	}

	for attempt := 1; attempt <= maxUpdateAttempts; attempt++ {
		err := t.redis.Watch(ctx, txf, key)
		if err == nil {
			return nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			CacheConflicts.Inc()
			continue
		}
		CacheErrors.WithLabelValues(t.Name(), "update").Inc()
		return err
	}

	return fmt.Errorf("%w after %d attempts: %s", ErrConflict, maxUpdateAttempts, key)
}

// Ping checks the Redis connection.
func (t *RedisTier) Ping(ctx context.Context) error {
	return t.redis.Ping(ctx).Err()
}

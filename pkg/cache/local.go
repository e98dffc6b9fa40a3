package cache

import (
	"context"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru"
)

// localEntry is a value held by LocalTier together with its expiry.
type localEntry struct {
	value   []byte
	expires time.Time
}

// isExpired reports whether the entry is past its expiry at now.
func (e localEntry) isExpired(now time.Time) bool {
	return !now.Before(e.expires)
}

// LocalTier is the per-instance (L1) tier: a bounded LRU map where every
// entry carries its own expiry. It is safe for concurrent use.
type LocalTier struct {
	entries *lru.Cache
	now     func() time.Time
}

// NewLocalTier creates a local tier holding at most size entries.
func NewLocalTier(size int) (*LocalTier, error) {
	entries, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("create lru: %w", err)
	}
	return &LocalTier{
		entries: entries,
		now:     time.Now,
	}, nil
}

// Name implements Tier.
func (t *LocalTier) Name() string { return "local" }

// Get returns a copy of the stored bytes, or ErrCacheMiss when the key is
// absent or expired. Expired entries are dropped on read.
func (t *LocalTier) Get(_ context.Context, key string) ([]byte, error) {
	raw, ok := t.entries.Get(key)
	if !ok {
		CacheMisses.WithLabelValues(t.Name()).Inc()
		return nil, ErrCacheMiss
	}

	entry := raw.(localEntry)
	if entry.isExpired(t.now()) {
		t.entries.Remove(key)
		LocalEntries.Set(float64(t.entries.Len()))
		CacheMisses.WithLabelValues(t.Name()).Inc()
		return nil, ErrCacheMiss
	}

	CacheHits.WithLabelValues(t.Name()).Inc()
	value := make([]byte, len(entry.value))
	copy(value, entry.value)
	return value, nil
}

// Set stores a copy of value for ttl.
func (t *LocalTier) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	stored := make([]byte, len(value))
	copy(stored, value)
	t.entries.Add(key, localEntry{value: stored, expires: t.now().Add(ttl)})
	LocalEntries.Set(float64(t.entries.Len()))
	return nil
}

// Delete removes key.
func (t *LocalTier) Delete(_ context.Context, key string) error {
	t.entries.Remove(key)
	LocalEntries.Set(float64(t.entries.Len()))
	return nil
}

// Len returns the number of entries, expired ones included.
func (t *LocalTier) Len() int {
	return t.entries.Len()
}

// Purge drops every entry.
func (t *LocalTier) Purge() {
	t.entries.Purge()
	LocalEntries.Set(0)
}

// SetClock replaces the time source (for testing).
func (t *LocalTier) SetClock(now func() time.Time) {
	t.now = now
}

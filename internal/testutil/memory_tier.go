// Package testutil provides testing utilities for the storefront packages.
package testutil

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Sternrassler/storefront/pkg/cache"
)

// ErrTierDown is returned by MemoryTier while Fail is set.
var ErrTierDown = errors.New("memory tier: unavailable")

type memoryEntry struct {
	value   []byte
	expires time.Time
}

// MemoryTier is an in-memory cache.SharedTier with a controllable clock and
// failure injection.
type MemoryTier struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
	fail    bool

	// Tracking
	Gets    int
	Sets    int
	Deletes int
}

// NewMemoryTier creates an empty tier using the wall clock.
func NewMemoryTier() *MemoryTier {
	return &MemoryTier{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// Name implements cache.Tier.
func (m *MemoryTier) Name() string { return "memory" }

// SetClock replaces the time source.
func (m *MemoryTier) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// SetFailing makes every subsequent call fail with ErrTierDown.
func (m *MemoryTier) SetFailing(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail = fail
}

// Get implements cache.Tier.
func (m *MemoryTier) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Gets++

	if m.fail {
		return nil, ErrTierDown
	}
	return m.lookup(key)
}

// Set implements cache.Tier.
func (m *MemoryTier) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sets++

	if m.fail {
		return ErrTierDown
	}
	m.store(key, value, ttl)
	return nil
}

// Delete implements cache.Tier.
func (m *MemoryTier) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Deletes++

	if m.fail {
		return ErrTierDown
	}
	delete(m.entries, key)
	return nil
}

// Touch implements cache.SharedTier.
func (m *MemoryTier) Touch(_ context.Context, key string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.fail {
		return ErrTierDown
	}
	if entry, err := m.lookup(key); err == nil {
		m.store(key, entry, ttl)
	}
	return nil
}

// Update implements cache.SharedTier. The whole read-modify-write runs under
// the tier lock, so it is trivially atomic.
func (m *MemoryTier) Update(_ context.Context, key string, ttl time.Duration, fn cache.UpdateFunc) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.fail {
		return ErrTierDown
	}

	current, err := m.lookup(key)
	if err != nil {
		current = nil
	}

	next, err := fn(current)
	if err != nil {
		return err
	}
	if next != nil {
		m.Sets++
		m.store(key, next, ttl)
	}
	return nil
}

// Has reports whether key is present and unexpired.
func (m *MemoryTier) Has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, err := m.lookup(key)
	return err == nil
}

// ExpiresAt returns the expiry of key, or the zero time when absent.
func (m *MemoryTier) ExpiresAt(key string) time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entries[key].expires
}

// Raw returns the stored bytes of key without expiry checks.
func (m *MemoryTier) Raw(key string) []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entries[key].value
}

// Put stores value directly, bypassing failure injection and counters.
func (m *MemoryTier) Put(key string, value []byte, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store(key, value, ttl)
}

// ResetCounters clears all tracking counters.
func (m *MemoryTier) ResetCounters() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Gets, m.Sets, m.Deletes = 0, 0, 0
}

// lookup must be called with the lock held.
func (m *MemoryTier) lookup(key string) ([]byte, error) {
	entry, ok := m.entries[key]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	if !m.now().Before(entry.expires) {
		delete(m.entries, key)
		return nil, cache.ErrCacheMiss
	}
	out := make([]byte, len(entry.value))
	copy(out, entry.value)
	return out, nil
}

// store must be called with the lock held.
func (m *MemoryTier) store(key string, value []byte, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	stored := make([]byte, len(value))
	copy(stored, value)
	m.entries[key] = memoryEntry{value: stored, expires: m.now().Add(ttl)}
}

package cache

import (
	"encoding/json"
	"fmt"
	"time"
)

// Snapshot wraps a cached value with the moment it was read from its source.
// The same encoded bytes are written to every tier, so an L1 copy is always
// value-equal to the L2 entry it was refreshed from.
type Snapshot[T any] struct {
	// Value is the cached content
	Value T `json:"value"`

	// CachedAt is when the value was read from the source of truth
	CachedAt time.Time `json:"cached_at"`
}

// NewSnapshot wraps value, stamped with the current time.
func NewSnapshot[T any](value T) Snapshot[T] {
	return Snapshot[T]{Value: value, CachedAt: time.Now()}
}

// Age returns how long ago the value was read from its source.
func (s Snapshot[T]) Age() time.Duration {
	return time.Since(s.CachedAt)
}

// Encode serializes the snapshot.
func (s Snapshot[T]) Encode() ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	return data, nil
}

// DecodeSnapshot deserializes a snapshot. Decoding errors wrap ErrInvalidEntry.
func DecodeSnapshot[T any](data []byte) (Snapshot[T], error) {
	var s Snapshot[T]
	if err := json.Unmarshal(data, &s); err != nil {
		return Snapshot[T]{}, fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}
	return s, nil
}

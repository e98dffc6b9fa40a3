// Package ratelimit tracks the request quota of a reasoning-engine provider
// and gates outgoing completion requests.
//
// Providers report the remaining request budget and its reset time in
// response headers. The tracker stores that state in Redis so every
// storefront instance sees the same budget, and the state expires by itself
// when the provider window resets.
package ratelimit

import (
	"time"
)

// RedisKeyPrefix prefixes the per-provider state hash.
const RedisKeyPrefix = "engine:rate_limit:"

// Thresholds for gating decisions, in remaining requests.
const (
	// RemainingCritical blocks requests while fewer requests remain.
	RemainingCritical = 1

	// RemainingWarning throttles requests while fewer requests remain.
	RemainingWarning = 5

	// RemainingHealthy marks the budget as healthy at or above this value.
	RemainingHealthy = 20
)

// State is the last known request budget of one provider.
type State struct {
	// RequestsRemaining in the current provider window
	RequestsRemaining int `json:"requests_remaining"`

	// ResetAt is when the provider window resets.
	ResetAt time.Time `json:"reset_at"`

	// LastUpdate is when the state was last taken from response headers.
	LastUpdate time.Time `json:"last_update"`

	IsHealthy bool `json:"is_healthy"`
}

// IsStale returns true if the state is older than maxAge.
func (s *State) IsStale(maxAge time.Duration) bool {
	return time.Since(s.LastUpdate) > maxAge
}

// NeedsCriticalBlock returns true if requests must not be sent until reset.
func (s *State) NeedsCriticalBlock() bool {
	return s.RequestsRemaining < RemainingCritical && s.TimeUntilReset() > 0
}

// NeedsThrottling returns true if requests should be slowed down.
func (s *State) NeedsThrottling() bool {
	return s.RequestsRemaining < RemainingWarning && !s.NeedsCriticalBlock() && s.TimeUntilReset() > 0
}

// TimeUntilReset returns the duration until the window resets, or 0 if it
// already has.
func (s *State) TimeUntilReset() time.Duration {
	duration := time.Until(s.ResetAt)
	if duration < 0 {
		return 0
	}
	return duration
}

// UpdateHealth updates IsHealthy from RequestsRemaining.
func (s *State) UpdateHealth() {
	s.IsHealthy = s.RequestsRemaining >= RemainingHealthy
}

// healthyState is assumed when nothing is known about a provider.
func healthyState() *State {
	now := time.Now()
	return &State{
		RequestsRemaining: RemainingHealthy,
		ResetAt:           now,
		LastUpdate:        now,
		IsHealthy:         true,
	}
}

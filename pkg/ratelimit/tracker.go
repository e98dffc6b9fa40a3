package ratelimit

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Prometheus metrics for engine quota tracking.
var (
	engineRequestsRemaining = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "storefront_engine_requests_remaining",
		Help: "Requests remaining in the current provider rate limit window",
	}, []string{"provider"})

	engineRateLimitBlocksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_engine_rate_limit_blocks_total",
		Help: "Completion requests blocked because the provider budget is exhausted",
	}, []string{"provider"})

	engineRateLimitThrottlesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_engine_rate_limit_throttles_total",
		Help: "Completion requests delayed because the provider budget is low",
	}, []string{"provider"})
)

// DefaultThrottleDelay is the pause applied to requests in the warning range.
const DefaultThrottleDelay = 500 * time.Millisecond

const (
	fieldRemaining  = "remaining"
	fieldResetAt    = "reset_at"
	fieldLastUpdate = "last_update"
)

// Tracker monitors one provider's request budget and gates requests.
type Tracker struct {
	redis    *redis.Client
	provider string
	headers  HeaderSpec
	throttle time.Duration
	logger   zerolog.Logger
}

// NewTracker creates a tracker for provider. State is shared through redis.
func NewTracker(redisClient *redis.Client, provider string, headers HeaderSpec, logger zerolog.Logger) *Tracker {
	return &Tracker{
		redis:    redisClient,
		provider: provider,
		headers:  headers,
		throttle: DefaultThrottleDelay,
		logger:   logger,
	}
}

// SetThrottleDelay sets the pause applied in the warning range (for testing).
func (t *Tracker) SetThrottleDelay(d time.Duration) {
	t.throttle = d
}

func (t *Tracker) key() string {
	return RedisKeyPrefix + t.provider
}

// GetState retrieves the current budget from Redis. Without stored state,
// including after the provider window reset, a healthy state is returned.
func (t *Tracker) GetState(ctx context.Context) (*State, error) {
	fields, err := t.redis.HGetAll(ctx, t.key()).Result()
	if err != nil {
		return nil, fmt.Errorf("get rate limit state: %w", err)
	}
	if len(fields) == 0 {
		return healthyState(), nil
	}

	remaining, err := strconv.Atoi(fields[fieldRemaining])
	if err != nil {
		return nil, fmt.Errorf("parse remaining: %w", err)
	}
	resetMillis, err := strconv.ParseInt(fields[fieldResetAt], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse reset: %w", err)
	}
	updateMillis, err := strconv.ParseInt(fields[fieldLastUpdate], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse last update: %w", err)
	}

	state := &State{
		RequestsRemaining: remaining,
		ResetAt:           time.UnixMilli(resetMillis),
		LastUpdate:        time.UnixMilli(updateMillis),
	}
	state.UpdateHealth()
	return state, nil
}

// UpdateFromHeaders parses the provider's budget headers and stores the
// state in Redis until the window resets. Responses without the headers are
// ignored.
func (t *Tracker) UpdateFromHeaders(ctx context.Context, headers http.Header) error {
	remainStr := headers.Get(t.headers.Remaining)
	if remainStr == "" {
		return nil
	}

	remain, err := strconv.Atoi(remainStr)
	if err != nil {
		return fmt.Errorf("parse %s header: %w", t.headers.Remaining, err)
	}

	resetStr := headers.Get(t.headers.Reset)
	if resetStr == "" {
		return fmt.Errorf("%s header missing", t.headers.Reset)
	}

	now := time.Now()
	resetAt, err := t.headers.ParseReset(resetStr, now)
	if err != nil {
		return fmt.Errorf("parse %s header: %w", t.headers.Reset, err)
	}

	state := &State{
		RequestsRemaining: remain,
		ResetAt:           resetAt,
		LastUpdate:        now,
	}
	state.UpdateHealth()
	engineRequestsRemaining.WithLabelValues(t.provider).Set(float64(remain))

	if !resetAt.After(now) {
		// Window already over; nothing worth sharing.
		return nil
	}

	pipe := t.redis.TxPipeline()
	pipe.HSet(ctx, t.key(),
		fieldRemaining, remain,
		fieldResetAt, resetAt.UnixMilli(),
		fieldLastUpdate, now.UnixMilli(),
	)
	pipe.PExpireAt(ctx, t.key(), resetAt)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store rate limit state in redis: %w", err)
	}

	switch {
	case state.NeedsCriticalBlock():
		t.logger.Error().Int("requests_remaining", remain).Time("reset_at", resetAt).
			Msg("Engine request budget exhausted - requests will be blocked")
	case state.NeedsThrottling():
		t.logger.Warn().Int("requests_remaining", remain).Time("reset_at", resetAt).
			Msg("Engine request budget low - requests will be throttled")
	default:
		t.logger.Debug().Int("requests_remaining", remain).Time("reset_at", resetAt).
			Msg("Engine rate limit state updated")
	}

	return nil
}

// ShouldAllowRequest reports whether a request may be sent now. It returns
// false while the budget is exhausted and delays the caller while it is low.
func (t *Tracker) ShouldAllowRequest(ctx context.Context) (bool, error) {
	state, err := t.GetState(ctx)
	if err != nil {
		return false, err
	}

	if state.NeedsCriticalBlock() {
		t.logger.Warn().
			Int("requests_remaining", state.RequestsRemaining).
			Dur("wait_duration", state.TimeUntilReset()).
			Msg("Engine request budget exhausted - blocking request")
		engineRateLimitBlocksTotal.WithLabelValues(t.provider).Inc()
		return false, nil
	}

	if state.NeedsThrottling() {
		t.logger.Debug().
			Int("requests_remaining", state.RequestsRemaining).
			Msg("Engine request budget low - throttling request")
		engineRateLimitThrottlesTotal.WithLabelValues(t.provider).Inc()

		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(t.throttle):
		}
	}

	return true, nil
}

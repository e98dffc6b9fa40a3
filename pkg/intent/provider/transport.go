package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/storefront/pkg/ratelimit"
	"github.com/rs/zerolog"
)

// maxErrorBody bounds how much of an error response is kept.
const maxErrorBody = 4 << 10

// transport sends JSON requests to one provider with budget gating,
// classification and retries.
type transport struct {
	provider    string
	httpClient  *http.Client
	rateLimiter *ratelimit.Tracker
	retry       func(ErrorClass) RetryConfig
	userAgent   string
	logger      zerolog.Logger
}

func newTransport(provider string, cfg Config, headers ratelimit.HeaderSpec, logger zerolog.Logger) *transport {
	t := &transport{
		provider:   provider,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		retry:      RetryConfigForErrorClass,
		userAgent:  cfg.UserAgent,
		logger:     logger,
	}
	if cfg.Retry != nil {
		fixed := *cfg.Retry
		t.retry = func(ErrorClass) RetryConfig { return fixed }
	}
	if cfg.Redis != nil {
		t.rateLimiter = ratelimit.NewTracker(cfg.Redis, provider, headers, logger)
	}
	return t
}

// postJSON sends body to url and decodes a 2xx response into out.
func (t *transport) postJSON(ctx context.Context, url string, header http.Header, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	if t.rateLimiter != nil {
		allowed, err := t.rateLimiter.ShouldAllowRequest(ctx)
		if err != nil {
			// Budget state is advisory; an unreadable state does not block.
			t.logger.Warn().Err(err).Msg("Rate limit check failed")
		} else if !allowed {
			engineRequestsTotal.WithLabelValues(t.provider, "rate_limited").Inc()
			return ErrRateLimited
		}
	}

	start := time.Now()
	defer func() {
		engineRequestDuration.WithLabelValues(t.provider).Observe(time.Since(start).Seconds())
	}()

	var respBody []byte
	err = t.retryWithBackoff(ctx, t.retry, func() (ErrorClass, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			return ErrorClassClient, fmt.Errorf("create request: %w", err)
		}
		for k, v := range header {
			req.Header[k] = v
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		if t.userAgent != "" {
			req.Header.Set("User-Agent", t.userAgent)
		}

		resp, err := t.httpClient.Do(req)
		if err != nil {
			engineRequestsTotal.WithLabelValues(t.provider, "network_error").Inc()
			t.logger.Warn().Err(err).Msg("Engine request failed")
			if ctx.Err() != nil {
				return "", err
			}
			return ErrorClassNetwork, err
		}
		defer resp.Body.Close()

		if t.rateLimiter != nil {
			if err := t.rateLimiter.UpdateFromHeaders(ctx, resp.Header); err != nil {
				t.logger.Warn().Err(err).Msg("Failed to update rate limit from headers")
			}
		}
		engineRequestsTotal.WithLabelValues(t.provider, strconv.Itoa(resp.StatusCode)).Inc()

		if class := classifyStatus(resp.StatusCode); class != "" {
			msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
			t.logger.Warn().
				Int("status", resp.StatusCode).
				Str("error_class", string(class)).
				Msg("Engine request error")
			return class, &APIError{
				Provider:   t.provider,
				StatusCode: resp.StatusCode,
				ErrorClass: class,
				Message:    strings.TrimSpace(string(msg)),
			}
		}

		respBody, err = io.ReadAll(resp.Body)
		if err != nil {
			return ErrorClassNetwork, fmt.Errorf("read response: %w", err)
		}
		return "", nil
	})
	if err != nil {
		return err
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode %s response: %w", t.provider, err)
	}
	return nil
}


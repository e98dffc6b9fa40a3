package ratelimit

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ResetParser turns a reset header value into an absolute time.
type ResetParser func(value string, now time.Time) (time.Time, error)

// HeaderSpec names the response headers a provider reports its budget in.
type HeaderSpec struct {
	Remaining  string
	Reset      string
	ParseReset ResetParser
}

// OpenAIHeaders reads "x-ratelimit-remaining-requests" and a reset given as
// a Go-style duration such as "6m0s" or "120ms".
var OpenAIHeaders = HeaderSpec{
	Remaining:  "X-Ratelimit-Remaining-Requests",
	Reset:      "X-Ratelimit-Reset-Requests",
	ParseReset: ResetAfterDuration,
}

// AnthropicHeaders reads "anthropic-ratelimit-requests-remaining" and a
// reset given as an RFC 3339 timestamp.
var AnthropicHeaders = HeaderSpec{
	Remaining:  "Anthropic-Ratelimit-Requests-Remaining",
	Reset:      "Anthropic-Ratelimit-Requests-Reset",
	ParseReset: ResetAtRFC3339,
}

// ResetAfterDuration parses a relative duration ("1s", "6m0s").
func ResetAfterDuration(value string, now time.Time) (time.Time, error) {
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, fmt.Errorf("parse reset duration: %w", err)
	}
	return now.Add(d), nil
}

// ResetAfterSeconds parses a relative number of seconds ("30").
func ResetAfterSeconds(value string, now time.Time) (time.Time, error) {
	secs, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, fmt.Errorf("parse reset seconds: %w", err)
	}
	return now.Add(time.Duration(secs) * time.Second), nil
}

// ResetAtRFC3339 parses an absolute RFC 3339 timestamp.
func ResetAtRFC3339(value string, _ time.Time) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, fmt.Errorf("parse reset timestamp: %w", err)
	}
	return t, nil
}

// Package logging configures the process-wide zerolog logger and hands out
// per-component loggers.
//
// Setup is called once from main. Packages never read the global logger
// directly in hot paths; they receive a zerolog.Logger built by NewLogger,
// which tags every entry with the emitting component.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogLevel is a configured level name.
type LogLevel string

const (
	LevelDebug LogLevel = "debug"
	LevelInfo  LogLevel = "info"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"
)

// Component names used as the "component" field.
const (
	ComponentAPI     = "api"
	ComponentCatalog = "catalog"
	ComponentCart    = "cart"
	ComponentBreaker = "breaker"
	ComponentIntent  = "intent"
	ComponentAgent   = "agent"
	ComponentEngine  = "engine"
	ComponentWarmup  = "warmup"
)

// Config holds logger configuration.
type Config struct {
	Level LogLevel

	// Pretty switches from JSON lines to console output.
	Pretty bool

	// Output defaults to os.Stderr.
	Output io.Writer

	// Service, when set, is added to every entry as "service".
	Service string
}

// DefaultConfig returns JSON logging at info level to stderr.
func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Output: os.Stderr,
	}
}

// Setup installs the configured logger as the zerolog global and returns it.
// Unknown levels fall back to info.
func Setup(cfg Config) zerolog.Logger {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.DurationFieldUnit = time.Millisecond

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	if cfg.Pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.TimeOnly}
	}

	lctx := zerolog.New(out).With().Timestamp()
	if cfg.Service != "" {
		lctx = lctx.Str("service", cfg.Service)
	}
	logger := lctx.Logger()
	log.Logger = logger

	if err != nil {
		logger.Warn().Str("level", string(cfg.Level)).Msg("Unknown log level, using info")
	}
	return logger
}

// ParseLevel maps a level name to a zerolog level. "warning" is accepted as
// an alias of "warn"; an empty name is info.
func ParseLevel(level LogLevel) (zerolog.Level, error) {
	name := strings.ToLower(strings.TrimSpace(string(level)))
	switch name {
	case "":
		return zerolog.InfoLevel, nil
	case "warning":
		name = string(LevelWarn)
	}

	switch LogLevel(name) {
	case LevelDebug, LevelInfo, LevelWarn, LevelError:
		return zerolog.ParseLevel(name)
	default:
		return zerolog.NoLevel, fmt.Errorf("unknown log level %q", level)
	}
}

// NewLogger returns a child of the global logger tagged with component.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// Level guidelines:
//
// Debug: cache hits and misses per tier, intent matches, engine rounds,
// completed HTTP requests.
//
// Info: startup and shutdown, guest cart merges, warmup results.
//
// Warn: tier errors served as misses, breaker state changes, mutations of
// missing cart lines, engine retries and fallback to the rule router.
//
// Error: source store failures, failed invalidations, panics, unexpected
// request failures.
//
// Common fields: component, key, tier, identity, product_id, provider,
// error_class, request_id, duration (milliseconds).

// Package provider adapts hosted reasoning engines to intent.Engine.
//
// Each provider is an isolated adapter that translates intent.Request and
// intent.Completion to and from its own wire format; nothing
// provider-specific leaves this package. Adapters are looked up by name:
//
//	engine, err := provider.New("anthropic", provider.Config{
//	    APIKey: os.Getenv("STOREFRONT_ENGINE_API_KEY"),
//	    Redis:  redisClient, // optional: share the request budget
//	})
//
// Calls are retried on server errors, rate limits and network failures with
// jittered exponential backoff. Client errors are returned at once. When a
// Redis client is configured the provider's rate limit headers are tracked
// across instances and requests are refused with ErrRateLimited while the
// budget is exhausted.
package provider

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Sternrassler/storefront/pkg/intent"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config holds the settings shared by all providers.
type Config struct {
	APIKey string

	// Model defaults to the provider's DefaultModel.
	Model string

	// BaseURL defaults to the provider's public API endpoint.
	BaseURL string

	MaxTokens int
	Timeout   time.Duration
	UserAgent string

	// Retry overrides the per-class retry policy when set.
	Retry *RetryConfig

	// Redis enables shared rate limit tracking.
	Redis *redis.Client

	Logger *zerolog.Logger
}

// Factory builds an engine from a configuration.
type Factory func(cfg Config) (intent.Engine, error)

var factories = map[string]Factory{
	OpenAIName:    func(cfg Config) (intent.Engine, error) { return NewOpenAI(cfg) },
	AnthropicName: func(cfg Config) (intent.Engine, error) { return NewAnthropic(cfg) },
}

// New returns the engine registered under name.
func New(name string, cfg Config) (intent.Engine, error) {
	factory, ok := factories[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %s)", ErrUnknownProvider, name, strings.Join(Names(), ", "))
	}
	return factory(cfg)
}

// Names returns the registered provider names in sorted order.
func Names() []string {
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// withDefaults validates cfg and fills provider defaults.
func (cfg Config) withDefaults(baseURL, model string) (Config, error) {
	if cfg.APIKey == "" {
		return cfg, fmt.Errorf("api key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = baseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Model == "" {
		cfg.Model = model
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1024
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return cfg, nil
}

func (cfg Config) logger(provider string) zerolog.Logger {
	if cfg.Logger != nil {
		return cfg.Logger.With().Str("provider", provider).Logger()
	}
	return log.With().Str("component", "engine").Str("provider", provider).Logger()
}

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// LookupFunc looks up an environment variable.
type LookupFunc func(key string) (string, bool)

// Load reads path (if not empty) over the defaults, applies the process
// environment and validates the result.
func Load(path string) (*Config, error) {
	return LoadWithEnv(path, os.LookupEnv)
}

// LoadWithEnv is Load with an explicit environment.
func LoadWithEnv(path string, lookup LookupFunc) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	if err := applyEnv(cfg, lookup); err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// applyEnv overrides cfg from the environment. Unset variables leave the
// current value alone; malformed ones are an error.
func applyEnv(cfg *Config, lookup LookupFunc) error {
	var errs []error

	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	integer := func(key string, dst *int) {
		if v, ok := lookup(key); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	boolean := func(key string, dst *bool) {
		if v, ok := lookup(key); ok && v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = b
		}
	}
	duration := func(key string, dst *time.Duration) {
		if v, ok := lookup(key); ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = d
		}
	}

	integer("PORT", &cfg.Server.Port)
	str("REDIS_URL", &cfg.Redis.URL)
	boolean("STOREFRONT_REDIS_BREAKER", &cfg.Redis.Breaker)
	str("DATABASE_URL", &cfg.Database.URL)

	duration("STOREFRONT_CATALOG_TIER_TIMEOUT", &cfg.Catalog.TierTimeout)
	boolean("STOREFRONT_CATALOG_WARM_ON_START", &cfg.Catalog.WarmOnStart)
	duration("STOREFRONT_CART_TTL", &cfg.Cart.TTL)
	duration("STOREFRONT_CART_TIER_TIMEOUT", &cfg.Cart.TierTimeout)

	str("STOREFRONT_SESSION_SECRET", &cfg.Session.Secret)
	boolean("STOREFRONT_SESSION_SECURE_COOKIE", &cfg.Session.SecureCookie)

	str("STOREFRONT_ENGINE_PROVIDER", &cfg.Engine.Provider)
	str("STOREFRONT_ENGINE_API_KEY", &cfg.Engine.APIKey)
	str("STOREFRONT_ENGINE_MODEL", &cfg.Engine.Model)
	str("STOREFRONT_ENGINE_BASE_URL", &cfg.Engine.BaseURL)

	str("STOREFRONT_LOG_LEVEL", &cfg.Log.Level)
	boolean("STOREFRONT_LOG_PRETTY", &cfg.Log.Pretty)

	cfg.Engine.Provider = strings.ToLower(strings.TrimSpace(cfg.Engine.Provider))
	cfg.Log.Level = strings.ToLower(cfg.Log.Level)

	if len(errs) > 0 {
		return fmt.Errorf("invalid environment: %w", errors.Join(errs...))
	}
	return nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks cfg against its constraints.
func Validate(cfg *Config) error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate config: %w", err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %q", strings.TrimPrefix(fe.Namespace(), "Config."), fe.Tag()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

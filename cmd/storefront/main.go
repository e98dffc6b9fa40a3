package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/Sternrassler/storefront/pkg/api"
	"github.com/Sternrassler/storefront/pkg/cache"
	"github.com/Sternrassler/storefront/pkg/cart"
	"github.com/Sternrassler/storefront/pkg/catalog"
	"github.com/Sternrassler/storefront/pkg/config"
	"github.com/Sternrassler/storefront/pkg/intent"
	"github.com/Sternrassler/storefront/pkg/intent/provider"
	"github.com/Sternrassler/storefront/pkg/logging"
	"github.com/Sternrassler/storefront/pkg/session"
	"github.com/Sternrassler/storefront/pkg/store"
	"github.com/Sternrassler/storefront/pkg/warmup"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

const userAgent = "storefront/0.1.0"

func main() {
	configPath := flag.String("config", os.Getenv("STOREFRONT_CONFIG"), "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.Setup(logging.Config{
		Level:   logging.LogLevel(cfg.Log.Level),
		Pretty:  cfg.Log.Pretty,
		Output:  os.Stderr,
		Service: "storefront",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("Storefront stopped")
	}
}

// run wires the service and serves until ctx ends.
func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	redisClient, err := newRedisClient(cfg.Redis.URL)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	logger.Info().Str("redis", redisClient.Options().Addr).Msg("Connected to Redis")

	db, err := store.Open(store.Config{
		DSN:          cfg.Database.URL,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
	})
	if err != nil {
		return err
	}
	if err := store.Migrate(db); err != nil {
		return err
	}
	logger.Info().Msg("Connected to PostgreSQL")

	handler, orchestrator, err := buildHandler(cfg, redisClient, db, logger)
	if err != nil {
		return err
	}

	if cfg.Catalog.WarmOnStart {
		wl := logging.NewLogger(logging.ComponentWarmup)
		warmer := warmup.New(orchestrator, warmup.Config{
			MaxConcurrency: cfg.Catalog.WarmConcurrency,
			Logger:         &wl,
		})
		go func() {
			if _, err := warmer.Run(ctx); err != nil {
				wl.Warn().Err(err).Msg("Catalog warmup incomplete")
			}
		}()
	}

	srv := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("Starting storefront server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
	return nil
}

// buildHandler assembles the cache tiers, the stores, the assistant and the
// HTTP API.
func buildHandler(cfg *config.Config, redisClient *redis.Client, db *gorm.DB, logger zerolog.Logger) (http.Handler, *catalog.Orchestrator, error) {
	local, err := cache.NewLocalTier(cfg.Catalog.LocalSize)
	if err != nil {
		return nil, nil, err
	}

	redisTier := cache.NewRedisTier(redisClient)
	var shared cache.SharedTier = redisTier
	if cfg.Redis.Breaker {
		shared = cache.NewSharedBreakerTier(redisTier, cache.DefaultBreakerConfig("redis"), logging.NewLogger(logging.ComponentBreaker))
	}

	products := store.NewProductStore(db)
	catalogLogger := logging.NewLogger(logging.ComponentCatalog)
	orchestrator, err := catalog.New(catalog.Config{
		Local:            local,
		Shared:           shared,
		Source:           products,
		Writer:           products,
		ListingLocalTTL:  cfg.Catalog.ListingLocalTTL,
		ListingSharedTTL: cfg.Catalog.ListingSharedTTL,
		ItemLocalTTL:     cfg.Catalog.ItemLocalTTL,
		ItemSharedTTL:    cfg.Catalog.ItemSharedTTL,
		TierTimeout:      cfg.Catalog.TierTimeout,
		Logger:           &catalogLogger,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("catalog: %w", err)
	}

	cartLogger := logging.NewLogger(logging.ComponentCart)
	carts, err := cart.NewStore(cart.Config{
		Tier:        shared,
		TTL:         cfg.Cart.TTL,
		TierTimeout: cfg.Cart.TierTimeout,
		Logger:      &cartLogger,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("cart store: %w", err)
	}

	sessions, err := session.NewResolver(session.Config{
		Secret:       cfg.Session.Secret,
		Issuer:       cfg.Session.Issuer,
		CookieName:   cfg.Session.CookieName,
		SecureCookie: cfg.Session.SecureCookie,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("session: %w", err)
	}

	agent, err := newAgent(cfg.Engine, orchestrator, carts, redisClient)
	if err != nil {
		return nil, nil, err
	}

	apiLogger := logging.NewLogger(logging.ComponentAPI)
	server, err := api.New(api.Config{
		Catalog:        orchestrator,
		Carts:          carts,
		Sessions:       sessions,
		Assistant:      agent,
		Ready:          readyCheck(redisTier, db),
		RequestTimeout: cfg.Server.WriteTimeout,
		Logger:         &apiLogger,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("api: %w", err)
	}

	logger.Info().
		Bool("engine", agent.HasEngine()).
		Str("provider", cfg.Engine.Provider).
		Bool("breaker", cfg.Redis.Breaker).
		Msg("Storefront wired")

	return server.Routes(), orchestrator, nil
}

// newAgent builds the chat assistant. Without a configured provider it
// answers with the rule router only.
func newAgent(cfg config.EngineConfig, c intent.Catalog, carts intent.Carts, redisClient *redis.Client) (*intent.Agent, error) {
	tools := intent.NewTools(c, carts)
	router := intent.NewRouter(tools, logging.NewLogger(logging.ComponentIntent))

	var engine intent.Engine
	if cfg.Enabled() {
		engineLogger := logging.NewLogger(logging.ComponentEngine)
		var err error
		engine, err = provider.New(cfg.Provider, provider.Config{
			APIKey:    cfg.APIKey,
			Model:     cfg.Model,
			BaseURL:   cfg.BaseURL,
			MaxTokens: cfg.MaxTokens,
			Timeout:   cfg.Timeout,
			UserAgent: userAgent,
			Redis:     redisClient,
			Logger:    &engineLogger,
		})
		if err != nil {
			return nil, fmt.Errorf("engine: %w", err)
		}
	}

	return intent.NewAgent(intent.AgentConfig{Engine: engine, MaxRounds: cfg.MaxRounds}, tools, router, logging.NewLogger(logging.ComponentAgent))
}

// newRedisClient accepts either a redis:// URL or a bare host:port.
func newRedisClient(url string) (*redis.Client, error) {
	if strings.Contains(url, "://") {
		opts, err := redis.ParseURL(url)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		return redis.NewClient(opts), nil
	}
	return redis.NewClient(&redis.Options{Addr: url}), nil
}

// pinger is satisfied by cache.RedisTier.
type pinger interface {
	Ping(ctx context.Context) error
}

// readyCheck reports ready when Redis answers and, if db is set, the
// database accepts a ping.
func readyCheck(redisTier pinger, db *gorm.DB) api.ReadyFunc {
	return func(ctx context.Context) error {
		if err := redisTier.Ping(ctx); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		if db == nil {
			return nil
		}
		sqlDB, err := db.DB()
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		if err := sqlDB.PingContext(ctx); err != nil {
			return fmt.Errorf("database: %w", err)
		}
		return nil
	}
}


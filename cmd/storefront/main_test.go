package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Sternrassler/storefront/internal/testutil"
	"github.com/Sternrassler/storefront/pkg/cache"
	"github.com/Sternrassler/storefront/pkg/cart"
	"github.com/Sternrassler/storefront/pkg/catalog"
	"github.com/Sternrassler/storefront/pkg/config"
	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupTestRedis(t *testing.T) (*redis.Client, func()) {
	if testing.Short() {
		t.Skip("Skipping container test in short mode")
	}
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	redisC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}

	host, err := redisC.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := redisC.MappedPort(ctx, "6379")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	redisClient, err := newRedisClient("redis://" + host + ":" + port.Port() + "/0")
	if err != nil {
		t.Fatalf("Failed to create Redis client: %v", err)
	}

	cleanup := func() {
		redisClient.Close()
		redisC.Terminate(ctx)
	}

	return redisClient, cleanup
}

func TestNewRedisClient(t *testing.T) {
	tests := []struct {
		url     string
		addr    string
		db      int
		wantErr bool
	}{
		{url: "localhost:6379", addr: "localhost:6379"},
		{url: "redis://cache:6380/2", addr: "cache:6380", db: 2},
		{url: "redis://:secret@cache:6379/0", addr: "cache:6379"},
		{url: "http://cache:6379", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			client, err := newRedisClient(tt.url)
			if tt.wantErr {
				if err == nil {
					t.Error("Expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("newRedisClient failed: %v", err)
			}
			defer client.Close()

			if client.Options().Addr != tt.addr {
				t.Errorf("Expected addr %s, got %s", tt.addr, client.Options().Addr)
			}
			if client.Options().DB != tt.db {
				t.Errorf("Expected db %d, got %d", tt.db, client.Options().DB)
			}
		})
	}
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

func TestReadyCheck_Stub(t *testing.T) {
	if err := readyCheck(stubPinger{}, nil)(context.Background()); err != nil {
		t.Errorf("Expected ready, got %v", err)
	}

	down := errors.New("connection refused")
	err := readyCheck(stubPinger{err: down}, nil)(context.Background())
	if !errors.Is(err, down) {
		t.Errorf("Expected wrapped redis error, got %v", err)
	}
}

func TestReadyCheck_Redis(t *testing.T) {
	redisClient, cleanup := setupTestRedis(t)
	defer cleanup()

	check := readyCheck(cache.NewRedisTier(redisClient), nil)

	t.Run("ready", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := check(ctx); err != nil {
			t.Errorf("Expected ready, got %v", err)
		}
	})

	t.Run("not_ready_redis_down", func(t *testing.T) {
		// Close Redis to simulate failure
		redisClient.Close()

		if err := check(context.Background()); err == nil {
			t.Error("Expected readiness failure after Redis closed")
		}
	})
}

// emptyCatalog is an intent.Catalog with no products.
type emptyCatalog struct{}

func (emptyCatalog) GetFiltered(context.Context, catalog.Filter) []catalog.Item { return nil }

func (emptyCatalog) GetByID(context.Context, int64) (catalog.Item, bool, error) {
	return catalog.Item{}, false, nil
}

func TestNewAgent(t *testing.T) {
	carts, err := cart.NewStore(cart.DefaultConfig(testutil.NewMemoryTier()))
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	agent, err := newAgent(config.EngineConfig{}, emptyCatalog{}, carts, nil)
	if err != nil {
		t.Fatalf("newAgent without engine failed: %v", err)
	}
	if agent.HasEngine() {
		t.Error("Expected rule-only agent without provider")
	}

	reply, err := agent.Handle(context.Background(), cart.Guest("s-1"), "show my cart")
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if reply.Text == "" {
		t.Error("Expected a reply from the rule router")
	}

	agent, err = newAgent(config.EngineConfig{Provider: "openai", APIKey: "sk-test"}, emptyCatalog{}, carts, nil)
	if err != nil {
		t.Fatalf("newAgent with openai failed: %v", err)
	}
	if !agent.HasEngine() {
		t.Error("Expected engine-backed agent")
	}

	if _, err := newAgent(config.EngineConfig{Provider: "oracle", APIKey: "k"}, emptyCatalog{}, carts, nil); err == nil {
		t.Error("Expected error for unknown provider")
	}
}

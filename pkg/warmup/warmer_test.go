package warmup

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Sternrassler/storefront/internal/testutil"
	"github.com/Sternrassler/storefront/pkg/cache"
	"github.com/Sternrassler/storefront/pkg/catalog"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// stubCatalog records GetByID calls and tracks peak concurrency.
type stubCatalog struct {
	items   []catalog.Item
	missing map[int64]bool
	failing map[int64]bool
	delay   time.Duration

	mu       sync.Mutex
	calls    map[int64]int
	inFlight int32
	peak     int32
}

func newStubCatalog(n int) *stubCatalog {
	s := &stubCatalog{
		missing: map[int64]bool{},
		failing: map[int64]bool{},
		calls:   map[int64]int{},
	}
	for i := 1; i <= n; i++ {
		s.items = append(s.items, catalog.Item{ID: int64(i), Name: "item", Price: decimal.NewFromInt(1)})
	}
	return s
}

func (s *stubCatalog) GetAll(_ context.Context) []catalog.Item {
	return s.items
}

func (s *stubCatalog) GetByID(ctx context.Context, id int64) (catalog.Item, bool, error) {
	cur := atomic.AddInt32(&s.inFlight, 1)
	defer atomic.AddInt32(&s.inFlight, -1)
	for {
		peak := atomic.LoadInt32(&s.peak)
		if cur <= peak || atomic.CompareAndSwapInt32(&s.peak, peak, cur) {
			break
		}
	}

	s.mu.Lock()
	s.calls[id]++
	s.mu.Unlock()

	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return catalog.Item{}, false, nil
		}
	}
	if s.failing[id] {
		return catalog.Item{}, false, errors.New("invalid id")
	}
	if s.missing[id] {
		return catalog.Item{}, false, nil
	}
	return catalog.Item{ID: id}, true, nil
}

func quietConfig(workers int) Config {
	nop := zerolog.Nop()
	return Config{MaxConcurrency: workers, Timeout: time.Second, Logger: &nop}
}

func TestRun_WarmsEveryItemOnce(t *testing.T) {
	stub := newStubCatalog(25)
	stub.delay = 2 * time.Millisecond

	result, err := New(stub, quietConfig(4)).Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.Listed != 25 || result.Warmed != 25 || result.Missing != 0 {
		t.Errorf("Unexpected result %+v", result)
	}
	for id := int64(1); id <= 25; id++ {
		if stub.calls[id] != 1 {
			t.Errorf("Expected item %d read once, got %d", id, stub.calls[id])
		}
	}
	if peak := atomic.LoadInt32(&stub.peak); peak > 4 {
		t.Errorf("Expected at most 4 concurrent reads, got %d", peak)
	}
}

func TestRun_CountsMissingAndFailed(t *testing.T) {
	stub := newStubCatalog(5)
	stub.missing[2] = true
	stub.failing[4] = true

	result, err := New(stub, quietConfig(2)).Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.Warmed != 3 || result.Missing != 2 {
		t.Errorf("Expected 3 warmed and 2 missing, got %+v", result)
	}
}

func TestRun_EmptyListing(t *testing.T) {
	result, err := New(newStubCatalog(0), quietConfig(2)).Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.Listed != 0 || result.Warmed != 0 {
		t.Errorf("Expected empty result, got %+v", result)
	}
}

func TestRun_CancelledContext(t *testing.T) {
	stub := newStubCatalog(10)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := New(stub, quietConfig(3)).Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
	if result.Warmed != 0 {
		t.Errorf("Expected nothing warmed after cancel, got %d", result.Warmed)
	}
}

func TestNew_Defaults(t *testing.T) {
	w := New(newStubCatalog(1), Config{})
	if w.config.MaxConcurrency != 8 || w.config.Timeout != 5*time.Second {
		t.Errorf("Expected defaults, got %+v", w.config)
	}

	defer func() {
		if recover() == nil {
			t.Error("Expected panic for nil catalog")
		}
	}()
	New(nil, Config{})
}

// memorySource is a read-only catalog.Source over a fixed slice.
type memorySource struct{ items []catalog.Item }

func (s memorySource) ReadAll(context.Context) ([]catalog.Item, error) { return s.items, nil }

func (s memorySource) ReadFiltered(context.Context, catalog.Filter) ([]catalog.Item, error) {
	return s.items, nil
}

func (s memorySource) ReadByID(_ context.Context, id int64) (catalog.Item, bool, error) {
	for _, it := range s.items {
		if it.ID == id {
			return it, true, nil
		}
	}
	return catalog.Item{}, false, nil
}

func TestRun_PopulatesTiers(t *testing.T) {
	local, err := cache.NewLocalTier(64)
	if err != nil {
		t.Fatalf("NewLocalTier failed: %v", err)
	}
	shared := testutil.NewMemoryTier()
	source := memorySource{items: []catalog.Item{
		{ID: 1, Name: "Wireless Headphones", Price: decimal.RequireFromString("59.90"), Stock: 12},
		{ID: 2, Name: "Red Running Shoes", Price: decimal.RequireFromString("89.00"), Stock: 3},
	}}

	nop := zerolog.Nop()
	cfg := catalog.DefaultConfig(local, shared, source)
	cfg.Logger = &nop
	orch, err := catalog.New(cfg)
	if err != nil {
		t.Fatalf("catalog.New failed: %v", err)
	}

	if _, err := New(orch, quietConfig(2)).Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	for _, key := range []string{cache.ListingKey(false), cache.ItemKey(1, false), cache.ItemKey(2, false)} {
		if !shared.Has(key) {
			t.Errorf("Expected shared tier to hold %s", key)
		}
	}
	for _, key := range []string{cache.ListingKey(true), cache.ItemKey(1, true), cache.ItemKey(2, true)} {
		if _, err := local.Get(context.Background(), key); err != nil {
			t.Errorf("Expected local tier to hold %s, got %v", key, err)
		}
	}
}

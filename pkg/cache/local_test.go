package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newTestLocalTier(t *testing.T, size int) (*LocalTier, *time.Time) {
	t.Helper()

	tier, err := NewLocalTier(size)
	if err != nil {
		t.Fatalf("NewLocalTier failed: %v", err)
	}
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	tier.SetClock(func() time.Time { return now })
	return tier, &now
}

func TestNewLocalTier_InvalidSize(t *testing.T) {
	if _, err := NewLocalTier(0); err == nil {
		t.Error("NewLocalTier(0) should return error")
	}
}

func TestLocalTier_SetAndGet(t *testing.T) {
	tier, _ := newTestLocalTier(t, 8)
	ctx := context.Background()

	if err := tier.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, err := tier.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(got) != "v" {
		t.Errorf("Get = %q, want %q", got, "v")
	}
}

func TestLocalTier_Get_Miss(t *testing.T) {
	tier, _ := newTestLocalTier(t, 8)

	_, err := tier.Get(context.Background(), "absent")
	if !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Expected ErrCacheMiss, got %v", err)
	}
}

func TestLocalTier_Expiry(t *testing.T) {
	tier, now := newTestLocalTier(t, 8)
	ctx := context.Background()

	if err := tier.Set(ctx, "k", []byte("v"), 5*time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	*now = now.Add(5*time.Minute - time.Second)
	if _, err := tier.Get(ctx, "k"); err != nil {
		t.Fatalf("Get just before expiry failed: %v", err)
	}

	*now = now.Add(time.Second)
	if _, err := tier.Get(ctx, "k"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Expected ErrCacheMiss at expiry, got %v", err)
	}
	if tier.Len() != 0 {
		t.Errorf("Expired entry should be dropped, Len() = %d", tier.Len())
	}
}

func TestLocalTier_NonPositiveTTLIsNoop(t *testing.T) {
	tier, _ := newTestLocalTier(t, 8)
	ctx := context.Background()

	if err := tier.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if _, err := tier.Get(ctx, "k"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Expected ErrCacheMiss, got %v", err)
	}
}

func TestLocalTier_Delete(t *testing.T) {
	tier, _ := newTestLocalTier(t, 8)
	ctx := context.Background()

	_ = tier.Set(ctx, "k", []byte("v"), time.Minute)
	if err := tier.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := tier.Get(ctx, "k"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Expected ErrCacheMiss after Delete, got %v", err)
	}

	// Deleting an absent key is not an error
	if err := tier.Delete(ctx, "k"); err != nil {
		t.Errorf("Delete of absent key failed: %v", err)
	}
}

func TestLocalTier_EvictsLeastRecentlyUsed(t *testing.T) {
	tier, _ := newTestLocalTier(t, 2)
	ctx := context.Background()

	_ = tier.Set(ctx, "a", []byte("1"), time.Minute)
	_ = tier.Set(ctx, "b", []byte("2"), time.Minute)
	_, _ = tier.Get(ctx, "a") // a becomes most recently used
	_ = tier.Set(ctx, "c", []byte("3"), time.Minute)

	if _, err := tier.Get(ctx, "b"); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Expected b to be evicted, got %v", err)
	}
	if _, err := tier.Get(ctx, "a"); err != nil {
		t.Errorf("Expected a to survive, got %v", err)
	}
}

func TestLocalTier_ReturnsCopies(t *testing.T) {
	tier, _ := newTestLocalTier(t, 8)
	ctx := context.Background()

	value := []byte("abc")
	_ = tier.Set(ctx, "k", value, time.Minute)
	value[0] = 'x'

	got, _ := tier.Get(ctx, "k")
	got[1] = 'y'

	again, _ := tier.Get(ctx, "k")
	if string(again) != "abc" {
		t.Errorf("Stored value was mutated: %q", again)
	}
}

func TestLocalTier_Purge(t *testing.T) {
	tier, _ := newTestLocalTier(t, 8)
	ctx := context.Background()

	_ = tier.Set(ctx, "a", []byte("1"), time.Minute)
	_ = tier.Set(ctx, "b", []byte("2"), time.Minute)
	tier.Purge()

	if tier.Len() != 0 {
		t.Errorf("Len() after Purge = %d, want 0", tier.Len())
	}
}

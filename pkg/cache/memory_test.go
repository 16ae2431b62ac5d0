package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryCacheFillsTypedDestination(t *testing.T) {
	mc := NewMemoryCache(WithMemoryMaxSize(4))
	ctx := context.Background()

	type entry struct {
		Symbol string  `json:"symbol"`
		Price  float64 `json:"price"`
	}
	if err := mc.Set(ctx, "last", entry{Symbol: "BTCUSDT", Price: 42000.5}, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}

	var got entry
	if err := mc.Get(ctx, "last", &got); err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Symbol != "BTCUSDT" || got.Price != 42000.5 {
		t.Fatalf("unexpected value: %+v", got)
	}
}

func TestMemoryCacheStringFastPath(t *testing.T) {
	mc := NewMemoryCache(WithMemoryMaxSize(4))
	ctx := context.Background()

	if err := mc.Set(ctx, "k", "plain", time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	var s string
	if err := mc.Get(ctx, "k", &s); err != nil {
		t.Fatalf("get: %v", err)
	}
	if s != "plain" {
		t.Fatalf("expected plain, got %q", s)
	}
}

func TestMemoryCacheMissAndExpiry(t *testing.T) {
	mc := NewMemoryCache(WithMemoryMaxSize(4))
	ctx := context.Background()

	var s string
	if err := mc.Get(ctx, "absent", &s); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected miss, got %v", err)
	}

	if err := mc.Set(ctx, "short", "v", time.Millisecond); err != nil {
		t.Fatalf("set: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if err := mc.Get(ctx, "short", &s); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected expired miss, got %v", err)
	}
}

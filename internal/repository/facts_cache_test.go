package repository

import (
	"context"
	"testing"
	"time"

	"TradeAgent/internal/domain/models"
	"TradeAgent/pkg/cache"
)

func TestCachedFactsRoundTripOverMemoryBackend(t *testing.T) {
	f := NewCachedFacts(cache.NewMemoryCache(cache.WithMemoryMaxSize(8)))
	ctx := context.Background()

	if _, ok, err := f.Get(ctx, "BTCUSDT"); err != nil || ok {
		t.Fatalf("empty cache: ok=%v err=%v", ok, err)
	}

	asOf := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	p := &models.FactsPayload{
		Symbol:  "BTCUSDT",
		Version: models.DefaultFactsVersion,
		AsOf:    asOf,
	}
	if err := f.Set(ctx, p, time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, ok, err := f.Get(ctx, "BTCUSDT")
	if err != nil || !ok {
		t.Fatalf("get after set: ok=%v err=%v", ok, err)
	}
	if got.Symbol != "BTCUSDT" || got.Version != models.DefaultFactsVersion || !got.AsOf.Equal(asOf) {
		t.Fatalf("payload mangled by cache: %+v", got)
	}

	if err := f.Invalidate(ctx, "BTCUSDT"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if _, ok, _ := f.Get(ctx, "BTCUSDT"); ok {
		t.Fatalf("payload survived invalidation")
	}
}

func TestCachedFactsKeysBySymbol(t *testing.T) {
	f := NewCachedFacts(cache.NewMemoryCache(cache.WithMemoryMaxSize(8)))
	ctx := context.Background()

	for _, sym := range []string{"BTCUSDT", "ETHUSDT"} {
		if err := f.Set(ctx, &models.FactsPayload{Symbol: sym}, time.Minute); err != nil {
			t.Fatalf("set %s: %v", sym, err)
		}
	}
	got, ok, err := f.Get(ctx, "ETHUSDT")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if got.Symbol != "ETHUSDT" {
		t.Fatalf("wrong payload for key: %s", got.Symbol)
	}
}

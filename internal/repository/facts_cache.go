package repository

import (
	"context"
	"errors"
	"time"

	"TradeAgent/internal/domain/models"
	"TradeAgent/pkg/cache"
)

const factsKeyPrefix = "facts:"

// CachedFacts fronts the facts store with a cache.Service backend: a
// memory-fronted Redis layer when Redis is enabled, plain in-process
// memory otherwise. A miss is not an error.
type CachedFacts struct {
	c cache.Service
}

func NewCachedFacts(c cache.Service) *CachedFacts {
	return &CachedFacts{c: c}
}

func (f *CachedFacts) Get(ctx context.Context, symbol string) (*models.FactsPayload, bool, error) {
	var p models.FactsPayload
	err := f.c.Get(ctx, factsKeyPrefix+symbol, &p)
	if errors.Is(err, cache.ErrCacheMiss) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &p, true, nil
}

func (f *CachedFacts) Set(ctx context.Context, p *models.FactsPayload, ttl time.Duration) error {
	return f.c.Set(ctx, factsKeyPrefix+p.Symbol, p, ttl)
}

func (f *CachedFacts) Invalidate(ctx context.Context, symbol string) error {
	return f.c.Delete(ctx, factsKeyPrefix+symbol)
}

package usecase

import (
	"context"
	"fmt"
	"time"

	"TradeAgent/internal/domain/models"
	domrepo "TradeAgent/internal/domain/repository"
)

// CandlesUseCase provides business logic for retrieving candles.
type CandlesUseCase struct {
	source domrepo.CandleSource
}

func NewCandlesUseCase(source domrepo.CandleSource) *CandlesUseCase {
	return &CandlesUseCase{source: source}
}

type GetCandlesParams struct {
	Symbol    string
	From      time.Time
	To        time.Time
	Timeframe domrepo.Timeframe
	Limit     int
}

type GetCandlesResult struct {
	Symbol    string
	Timeframe string
	From      time.Time
	To        time.Time
	Count     int
	Candles   []models.Candle
}

func (uc *CandlesUseCase) GetCandles(ctx context.Context, p GetCandlesParams) (*GetCandlesResult, error) {
	if p.Symbol == "" {
		return nil, fmt.Errorf("symbol required")
	}
	if !domrepo.IsValidTimeframe(p.Timeframe) {
		return nil, fmt.Errorf("unknown timeframe %q", p.Timeframe)
	}
	if p.Limit <= 0 {
		p.Limit = 10000
	}
	if p.Limit > 50000 {
		p.Limit = 50000
	}

	var (
		candles []models.Candle
		err     error
	)
	if p.From.IsZero() && p.To.IsZero() {
		candles, err = uc.source.GetLatestNCandles(ctx, p.Symbol, p.Limit, p.Timeframe)
	} else {
		if p.From.After(p.To) {
			return nil, fmt.Errorf("from must be <= to")
		}
		candles, err = uc.source.GetCandles(ctx, p.Symbol, p.From, p.To, p.Timeframe)
	}
	if err != nil {
		return nil, fmt.Errorf("get candles: %w", err)
	}
	if len(candles) > p.Limit {
		candles = candles[:p.Limit]
	}

	return &GetCandlesResult{
		Symbol:    p.Symbol,
		Timeframe: string(p.Timeframe),
		From:      p.From,
		To:        p.To,
		Count:     len(candles),
		Candles:   candles,
	}, nil
}

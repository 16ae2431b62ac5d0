package repository

import (
	"context"
	"time"

	"TradeAgent/internal/domain/models"
)

// CandleSource provides read-only access to candles for analysis.
// Write paths go through CandleStorage; analysis code only reads.
type CandleSource interface {
	GetCandles(ctx context.Context, symbol string, from, to time.Time, tf Timeframe) ([]models.Candle, error)
	GetLatestNCandles(ctx context.Context, symbol string, n int, tf Timeframe) ([]models.Candle, error)
}

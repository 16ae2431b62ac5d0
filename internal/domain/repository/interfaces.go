package repository

import (
	"context"
	"time"

	"TradeAgent/internal/domain/models"
)

// CandleStream delivers live candle updates from an exchange feed.
type CandleStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.CandleEvent, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// Publisher pushes analysis artifacts to downstream consumers.
type Publisher interface {
	PublishFacts(ctx context.Context, p *models.FactsPayload) error
	PublishPlan(ctx context.Context, p *models.Plan) error
	PublishCandle(ctx context.Context, ev *models.CandleEvent) error
	Close() error
}

// CandleStorage persists and serves OHLCV series.
type CandleStorage interface {
	Init(ctx context.Context) error // ensure tables, health checks
	Store(ctx context.Context, symbol string, tf Timeframe, c *models.Candle) error
	StoreBatch(ctx context.Context, symbol string, tf Timeframe, candles []models.Candle) error
	Query(ctx context.Context, symbol string, tf Timeframe, from, to time.Time, limit int) ([]models.Candle, error)
	LatestN(ctx context.Context, symbol string, tf Timeframe, n int) ([]models.Candle, error)
	Health(ctx context.Context) error // ping
	Close() error
}

// FactsStore persists analysis outputs and backtest runs. LatestFacts
// serves the newest payload for a symbol and version at or before asOf;
// a zero asOf means "now".
type FactsStore interface {
	Init(ctx context.Context) error
	StoreFacts(ctx context.Context, p *models.FactsPayload) error
	LatestFacts(ctx context.Context, symbol, version string, asOf time.Time) (*models.FactsPayload, error)
	StoreBacktestRun(ctx context.Context, run *models.BacktestRun) error
	Close() error
}

// FactsCache fronts FactsStore reads for hot symbols.
type FactsCache interface {
	Get(ctx context.Context, symbol string) (*models.FactsPayload, bool, error)
	Set(ctx context.Context, p *models.FactsPayload, ttl time.Duration) error
	Invalidate(ctx context.Context, symbol string) error
}

// Metrics is the instrumentation surface for pipeline components.
type Metrics interface {
	RecordAnalysis(symbol, tf string, seconds float64)
	RecordCandlesIngested(symbol, tf string, n int)
	RecordPublished(topic, symbol string)
	RecordError(kind string)
	RecordLastPrice(symbol string, price float64)
}

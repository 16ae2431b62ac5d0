package usecase

import (
	"context"
	"fmt"

	"TradeAgent/internal/domain/models"
	drepo "TradeAgent/internal/domain/repository"
)

// CandleProcessor routes closed candles to the configured backend:
// straight into ClickHouse, or through Kafka for the ingest consumer.
type CandleProcessor struct {
	pub     drepo.Publisher
	store   drepo.CandleStorage
	metrics drepo.Metrics
	backend string
}

// NewCandleProcessor creates a new CandleProcessor instance.
func NewCandleProcessor(pub drepo.Publisher, store drepo.CandleStorage, metrics drepo.Metrics, backend string) *CandleProcessor {
	return &CandleProcessor{pub: pub, store: store, metrics: metrics, backend: backend}
}

// Process routes a single closed candle event.
func (p *CandleProcessor) Process(ctx context.Context, ev *models.CandleEvent) error {
	if ev == nil {
		return fmt.Errorf("candle event is nil")
	}
	if err := ev.Candle.Validate(); err != nil {
		p.metrics.RecordError("candle_invalid")
		return fmt.Errorf("candle %s %s: %w", ev.Symbol, ev.TF, err)
	}

	var err error
	switch p.backend {
	case "kafka":
		err = p.pub.PublishCandle(ctx, ev)
	case "clickhouse":
		err = p.store.Store(ctx, ev.Symbol, drepo.Timeframe(ev.TF), &ev.Candle)
	default:
		err = fmt.Errorf("unknown backend: %s", p.backend)
	}
	if err != nil {
		p.metrics.RecordError("process")
		return fmt.Errorf("process candle: %w", err)
	}

	if p.backend == "kafka" {
		p.metrics.RecordPublished("candles", ev.Symbol)
	} else {
		p.metrics.RecordCandlesIngested(ev.Symbol, ev.TF, 1)
	}
	return nil
}

// Close closes underlying resources if available.
func (p *CandleProcessor) Close() {
	if p.pub != nil {
		_ = p.pub.Close()
	}
	if p.store != nil {
		_ = p.store.Close()
	}
}

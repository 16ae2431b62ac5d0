package usecase

import (
	"context"
	"fmt"

	"TradeAgent/internal/domain/repository"
	"TradeAgent/internal/service/binance"
	"TradeAgent/internal/service/quality"
	applogger "TradeAgent/pkg/logger"
)

const qualityMinScore = 0.95

// SyncUseCase backfills candle history from the exchange REST API into
// storage, validating completeness before the write.
type SyncUseCase struct {
	rest         *binance.REST
	storage      repository.CandleStorage
	metrics      repository.Metrics
	l            *applogger.Logger
	gapThreshold int
}

func NewSyncUseCase(rest *binance.REST, storage repository.CandleStorage, metrics repository.Metrics, l *applogger.Logger, gapThreshold int) *SyncUseCase {
	if gapThreshold <= 0 {
		gapThreshold = 5
	}
	return &SyncUseCase{
		rest:         rest,
		storage:      storage,
		metrics:      metrics,
		l:            l,
		gapThreshold: gapThreshold,
	}
}

// Sync fetches the latest n bars for one symbol and timeframe, runs the
// quality report and persists the batch. A low score is logged but does
// not block the write; row-level violations do.
func (uc *SyncUseCase) Sync(ctx context.Context, symbol string, tf repository.Timeframe, n int) (*quality.Report, error) {
	candles, err := uc.rest.FetchLatestN(ctx, symbol, string(tf), n)
	if err != nil {
		uc.metrics.RecordError("sync_fetch")
		return nil, fmt.Errorf("sync %s %s: %w", symbol, tf, err)
	}

	report := quality.Validate(candles, symbol, tf, uc.gapThreshold)
	if len(report.RowErrors) > 0 {
		uc.metrics.RecordError("sync_rows")
		return report, fmt.Errorf("sync %s %s: %d invalid rows, first: %s",
			symbol, tf, len(report.RowErrors), report.RowErrors[0])
	}
	if !report.IsOK(qualityMinScore) {
		uc.l.Warn("candle history has holes",
			applogger.String("symbol", symbol),
			applogger.String("tf", string(tf)),
			applogger.Float64("score", report.Score),
			applogger.Int("gaps", len(report.Gaps)),
		)
	}

	if err := uc.storage.StoreBatch(ctx, symbol, tf, candles); err != nil {
		uc.metrics.RecordError("sync_store")
		return report, fmt.Errorf("store batch %s %s: %w", symbol, tf, err)
	}
	uc.metrics.RecordCandlesIngested(symbol, string(tf), len(candles))

	uc.l.Info("history synced",
		applogger.String("symbol", symbol),
		applogger.String("tf", string(tf)),
		applogger.Int("bars", len(candles)),
		applogger.Float64("score", report.Score),
	)
	return report, nil
}

// SyncAll backfills every symbol and timeframe combination. The first
// error aborts; completed pairs stay persisted.
func (uc *SyncUseCase) SyncAll(ctx context.Context, symbols []string, tfs []repository.Timeframe, n int) error {
	for _, sym := range symbols {
		for _, tf := range tfs {
			if _, err := uc.Sync(ctx, sym, tf, n); err != nil {
				return err
			}
		}
	}
	return nil
}

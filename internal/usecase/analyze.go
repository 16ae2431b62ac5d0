package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"TradeAgent/internal/analysis/indicators"
	"TradeAgent/internal/analysis/payload"
	"TradeAgent/internal/analysis/sr"
	"TradeAgent/internal/analysis/trend"
	"TradeAgent/internal/domain/models"
	domrepo "TradeAgent/internal/domain/repository"
	applogger "TradeAgent/pkg/logger"
)

// AnalyzeUseCase computes the full facts payload for a symbol: per-TF
// trend and S/R facts, bias chain, merged key levels. Results go to the
// facts store, the cache and the facts topic.
type AnalyzeUseCase struct {
	source  domrepo.CandleSource
	facts   domrepo.FactsStore
	cache   domrepo.FactsCache // optional
	pub     domrepo.Publisher  // optional
	metrics domrepo.Metrics
	l       *applogger.Logger

	lookback    int
	cacheTTL    time.Duration
	trendParams trend.Params
	srParams    sr.Params
}

func NewAnalyzeUseCase(
	source domrepo.CandleSource,
	facts domrepo.FactsStore,
	cache domrepo.FactsCache,
	pub domrepo.Publisher,
	metrics domrepo.Metrics,
	l *applogger.Logger,
	lookback int,
	cacheTTL time.Duration,
	trendParams trend.Params,
	srParams sr.Params,
) *AnalyzeUseCase {
	if lookback <= 0 {
		lookback = 1000
	}
	return &AnalyzeUseCase{
		source:      source,
		facts:       facts,
		cache:       cache,
		pub:         pub,
		metrics:     metrics,
		l:           l,
		lookback:    lookback,
		cacheTTL:    cacheTTL,
		trendParams: trendParams.Merge(),
		srParams:    srParams.Merge(),
	}
}

// AnalyzeParams narrows an analysis run. Zero fields use the configured
// defaults: all timeframes, configured lookback, default version.
type AnalyzeParams struct {
	Symbol    string
	Intervals []domrepo.Timeframe
	Lookback  int
	Version   string
}

func (p *AnalyzeParams) normalize() error {
	if p.Symbol == "" {
		return fmt.Errorf("symbol required")
	}
	for _, tf := range p.Intervals {
		if !domrepo.IsValidTimeframe(tf) {
			return fmt.Errorf("unknown timeframe %q", tf)
		}
	}
	if p.Version == "" {
		p.Version = models.DefaultFactsVersion
	}
	return nil
}

// defaulted reports whether the run has the default shape, meaning its
// payload is safe to serve from the cache path. Call after normalize.
func (p *AnalyzeParams) defaulted() bool {
	return len(p.Intervals) == 0 && p.Lookback == 0 && p.Version == models.DefaultFactsVersion
}

// ComputeFacts runs the full analysis for one symbol across all
// configured timeframes. Timeframes without enough history are skipped;
// at least one must survive.
func (uc *AnalyzeUseCase) ComputeFacts(ctx context.Context, symbol string) (*models.FactsPayload, error) {
	return uc.ComputeFactsWith(ctx, AnalyzeParams{Symbol: symbol})
}

// ComputeFactsWith runs the analysis narrowed by params. Non-default
// runs are stored and published but never cached, so pinned readers of
// the default shape do not see them.
func (uc *AnalyzeUseCase) ComputeFactsWith(ctx context.Context, params AnalyzeParams) (*models.FactsPayload, error) {
	if err := params.normalize(); err != nil {
		return nil, err
	}
	symbol := params.Symbol
	intervals := params.Intervals
	if len(intervals) == 0 {
		intervals = domrepo.AllTimeframes
	}
	lookback := params.Lookback
	if lookback <= 0 {
		lookback = uc.lookback
	}

	perTF := make(map[string]models.TFFacts, len(intervals))
	for _, tf := range intervals {
		start := time.Now()
		candles, err := uc.source.GetLatestNCandles(ctx, symbol, lookback, tf)
		if err != nil {
			uc.metrics.RecordError("candles_read")
			return nil, fmt.Errorf("read candles %s %s: %w", symbol, tf, err)
		}

		t, err := trend.Compute(candles, uc.trendParams)
		if errors.Is(err, indicators.ErrInsufficientData) {
			uc.l.Debug("timeframe skipped, not enough history",
				applogger.String("symbol", symbol),
				applogger.String("tf", string(tf)),
				applogger.Int("bars", len(candles)),
			)
			continue
		}
		if err != nil {
			uc.metrics.RecordError("trend_compute")
			return nil, fmt.Errorf("trend %s %s: %w", symbol, tf, err)
		}

		s, err := sr.Compute(candles, uc.srParams)
		if err != nil {
			uc.metrics.RecordError("sr_compute")
			return nil, fmt.Errorf("sr %s %s: %w", symbol, tf, err)
		}

		perTF[string(tf)] = models.TFFacts{Trend: t, SR: s}
		uc.metrics.RecordAnalysis(symbol, string(tf), time.Since(start).Seconds())
	}
	if len(perTF) == 0 {
		return nil, fmt.Errorf("analyze %s: no timeframe has enough history", symbol)
	}

	p := payload.Build(symbol, time.Now().UTC(), perTF)
	p.Version = params.Version

	if err := uc.facts.StoreFacts(ctx, p); err != nil {
		uc.metrics.RecordError("facts_store")
		return nil, fmt.Errorf("store facts: %w", err)
	}
	if uc.cache != nil && params.defaulted() {
		if err := uc.cache.Set(ctx, p, uc.cacheTTL); err != nil {
			uc.metrics.RecordError("facts_cache")
			uc.l.Warn("facts cache write failed", applogger.String("symbol", symbol), applogger.Error(err))
		}
	}
	if uc.pub != nil {
		if err := uc.pub.PublishFacts(ctx, p); err != nil {
			uc.metrics.RecordError("facts_publish")
			uc.l.Warn("facts publish failed", applogger.String("symbol", symbol), applogger.Error(err))
		} else {
			uc.metrics.RecordPublished("facts", symbol)
		}
	}

	uc.l.Info("facts computed",
		applogger.String("symbol", symbol),
		applogger.String("regime", string(p.Regime)),
		applogger.Int("timeframes", len(perTF)),
		applogger.Int("key_levels", len(p.KeyLevels)),
	)
	return p, nil
}

// GetFacts serves the latest facts, preferring cache, then store, and
// computing fresh only when nothing is persisted yet.
func (uc *AnalyzeUseCase) GetFacts(ctx context.Context, symbol string) (*models.FactsPayload, error) {
	return uc.GetFactsAt(ctx, symbol, "", time.Time{})
}

// GetFactsAt serves the newest facts for a version at or before asOf.
// Only the default lookup (default version, zero asOf) touches the
// cache; historical lookups go straight to the store and are never
// recomputed.
func (uc *AnalyzeUseCase) GetFactsAt(ctx context.Context, symbol, version string, asOf time.Time) (*models.FactsPayload, error) {
	if symbol == "" {
		return nil, fmt.Errorf("symbol required")
	}
	if version == "" {
		version = models.DefaultFactsVersion
	}
	liveLookup := version == models.DefaultFactsVersion && asOf.IsZero()

	if uc.cache != nil && liveLookup {
		p, ok, err := uc.cache.Get(ctx, symbol)
		if err != nil {
			uc.metrics.RecordError("facts_cache")
			uc.l.Warn("facts cache read failed", applogger.String("symbol", symbol), applogger.Error(err))
		} else if ok {
			return p, nil
		}
	}

	p, err := uc.facts.LatestFacts(ctx, symbol, version, asOf)
	if err == nil {
		if uc.cache != nil && liveLookup {
			_ = uc.cache.Set(ctx, p, uc.cacheTTL)
		}
		return p, nil
	}
	if !asOf.IsZero() {
		return nil, fmt.Errorf("facts for %s at %s: %w", symbol, asOf.Format(time.RFC3339), err)
	}
	return uc.ComputeFactsWith(ctx, AnalyzeParams{Symbol: symbol, Version: version})
}

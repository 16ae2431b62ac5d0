package usecase

import (
	"context"
	"fmt"
	"time"

	"TradeAgent/internal/backtest"
	"TradeAgent/internal/domain/models"
	domrepo "TradeAgent/internal/domain/repository"
	applogger "TradeAgent/pkg/logger"
)

// BacktestUseCase replays signals or a plan against stored history.
type BacktestUseCase struct {
	source  domrepo.CandleSource
	facts   domrepo.FactsStore
	analyze *AnalyzeUseCase
	planUC  *PlanUseCase
	metrics domrepo.Metrics
	l       *applogger.Logger
	signals backtest.SignalParams
}

func NewBacktestUseCase(
	source domrepo.CandleSource,
	facts domrepo.FactsStore,
	analyze *AnalyzeUseCase,
	planUC *PlanUseCase,
	metrics domrepo.Metrics,
	l *applogger.Logger,
	signals backtest.SignalParams,
) *BacktestUseCase {
	return &BacktestUseCase{
		source:  source,
		facts:   facts,
		analyze: analyze,
		planUC:  planUC,
		metrics: metrics,
		l:       l,
		signals: signals.Merge(),
	}
}

type BacktestParams struct {
	Symbol  string
	TF      domrepo.Timeframe
	N       int
	Mode    backtest.Mode
	FeeBps  float64
	Version string // facts version the signals are generated from
}

func (p *BacktestParams) normalize() error {
	if p.Symbol == "" {
		return fmt.Errorf("symbol required")
	}
	if !domrepo.IsValidTimeframe(p.TF) {
		return fmt.Errorf("unknown timeframe %q", p.TF)
	}
	if p.N <= 0 {
		p.N = 1000
	}
	if p.Mode == "" {
		p.Mode = backtest.ModeSRTrend
	}
	if p.FeeBps < 0 {
		return fmt.Errorf("fee_bps must be >= 0")
	}
	if p.Version == "" {
		p.Version = models.DefaultFactsVersion
	}
	return nil
}

// RunVector generates signals from the latest facts and replays them.
func (uc *BacktestUseCase) RunVector(ctx context.Context, p BacktestParams) (*models.VectorResult, error) {
	if err := p.normalize(); err != nil {
		return nil, err
	}
	started := time.Now().UTC()

	candles, err := uc.source.GetLatestNCandles(ctx, p.Symbol, p.N, p.TF)
	if err != nil {
		return nil, fmt.Errorf("backtest candles: %w", err)
	}
	facts, err := uc.analyze.GetFactsAt(ctx, p.Symbol, p.Version, time.Time{})
	if err != nil {
		return nil, fmt.Errorf("backtest facts: %w", err)
	}

	sig, err := backtest.GenerateSignals(candles, facts, string(p.TF), uc.signals, p.Mode)
	if err != nil {
		uc.metrics.RecordError("backtest_signals")
		return nil, fmt.Errorf("generate signals: %w", err)
	}
	res := backtest.RunVectorized(candles, sig, p.FeeBps, p.TF)

	uc.persistRun(ctx, p, started, res.Metrics.TotalReturnPct, res.Metrics.MaxDrawdownPct,
		res.Metrics.Sharpe, res.Metrics.Trades, winRate(res.Trades), len(candles))
	return res, nil
}

// RunPlan simulates the current plan's entry, stop and target rules
// bar by bar over stored history.
func (uc *BacktestUseCase) RunPlan(ctx context.Context, p BacktestParams) (*models.PlanResult, error) {
	if err := p.normalize(); err != nil {
		return nil, err
	}
	started := time.Now().UTC()

	candles, err := uc.source.GetLatestNCandles(ctx, p.Symbol, p.N, p.TF)
	if err != nil {
		return nil, fmt.Errorf("backtest candles: %w", err)
	}
	pl, err := uc.planUC.BuildPlan(ctx, p.Symbol, p.Version)
	if err != nil {
		return nil, fmt.Errorf("backtest plan: %w", err)
	}

	res := backtest.RunPlan(candles, pl, uc.planUC.Risk(), p.FeeBps)

	uc.persistRun(ctx, p, started, res.Metrics.TotalReturnPct, res.Metrics.MaxDrawdownPct,
		0, res.Metrics.Trades, res.Metrics.WinRatePct, len(candles))
	return res, nil
}

func (uc *BacktestUseCase) persistRun(ctx context.Context, p BacktestParams, started time.Time,
	totalReturn, maxDD, sharpe float64, trades int, winRatePct float64, bars int) {

	run := &models.BacktestRun{
		ID:             fmt.Sprintf("%s-%s-%s-%d", p.Symbol, p.TF, p.Mode, started.UnixNano()),
		Symbol:         p.Symbol,
		TF:             string(p.TF),
		Mode:           string(p.Mode),
		Bars:           bars,
		FeeBps:         p.FeeBps,
		TotalReturnPct: totalReturn,
		MaxDrawdownPct: maxDD,
		Sharpe:         sharpe,
		Trades:         trades,
		WinRatePct:     winRatePct,
		StartedAt:      started,
		FinishedAt:     time.Now().UTC(),
	}
	if err := uc.facts.StoreBacktestRun(ctx, run); err != nil {
		uc.metrics.RecordError("backtest_store")
		uc.l.Warn("backtest run persist failed", applogger.String("id", run.ID), applogger.Error(err))
	}
}

func backtestModeOrDefault(s string) backtest.Mode {
	switch m := backtest.Mode(s); m {
	case backtest.ModeSRTrend, backtest.ModeRSIInertia, backtest.ModeCombined:
		return m
	default:
		return backtest.ModeCombined
	}
}

func winRate(trades []models.TradeRecord) float64 {
	if len(trades) == 0 {
		return 0
	}
	wins := 0
	for _, t := range trades {
		if t.PnLPct > 0 {
			wins++
		}
	}
	return 100 * float64(wins) / float64(len(trades))
}

package usecase

import (
	"context"
	"fmt"

	domrepo "TradeAgent/internal/domain/repository"
	applogger "TradeAgent/pkg/logger"
	"TradeAgent/pkg/queue"
)

// BacktestJobType is the queue message type for async backtest runs.
const BacktestJobType = "backtest.run"

// BacktestJobPayload is the queued request. Kind selects the simulator.
type BacktestJobPayload struct {
	Symbol  string  `json:"symbol"`
	TF      string  `json:"tf"`
	N       int     `json:"n"`
	Mode    string  `json:"mode"`
	FeeBps  float64 `json:"fee_bps"`
	Version string  `json:"version,omitempty"`
	Kind    string  `json:"kind"` // vector or plan
}

// BacktestJob runs queued backtests; results land in the runs table.
type BacktestJob struct {
	uc *BacktestUseCase
	l  *applogger.Logger
}

func NewBacktestJob(uc *BacktestUseCase, l *applogger.Logger) *BacktestJob {
	return &BacktestJob{uc: uc, l: l}
}

func (j *BacktestJob) Name() string { return "backtest-runner" }
func (j *BacktestJob) Type() string { return BacktestJobType }

func (j *BacktestJob) Handle(ctx context.Context, payload interface{}) error {
	p, err := queue.ParsePayload[BacktestJobPayload](payload)
	if err != nil {
		return fmt.Errorf("backtest job payload: %w", err)
	}

	params := BacktestParams{
		Symbol:  p.Symbol,
		TF:      domrepo.NormalizeTimeframe(p.TF),
		N:       p.N,
		Mode:    backtestModeOrDefault(p.Mode),
		FeeBps:  p.FeeBps,
		Version: p.Version,
	}

	switch p.Kind {
	case "plan":
		_, err = j.uc.RunPlan(ctx, params)
	default:
		_, err = j.uc.RunVector(ctx, params)
	}
	if err != nil {
		j.l.Error("queued backtest failed",
			applogger.String("symbol", p.Symbol),
			applogger.String("kind", p.Kind),
			applogger.Error(err),
		)
		return err
	}
	j.l.Info("queued backtest finished",
		applogger.String("symbol", p.Symbol),
		applogger.String("tf", p.TF),
		applogger.String("kind", p.Kind),
	)
	return nil
}

var _ queue.Job = (*BacktestJob)(nil)

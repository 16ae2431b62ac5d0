package usecase

import (
	"context"
	"fmt"
	"time"

	"TradeAgent/internal/analysis/plan"
	"TradeAgent/internal/domain/models"
	domrepo "TradeAgent/internal/domain/repository"
	applogger "TradeAgent/pkg/logger"
)

// PlanUseCase derives an actionable plan from the latest facts.
type PlanUseCase struct {
	analyze *AnalyzeUseCase
	pub     domrepo.Publisher // optional
	metrics domrepo.Metrics
	l       *applogger.Logger
	risk    plan.RiskParams
}

func NewPlanUseCase(analyze *AnalyzeUseCase, pub domrepo.Publisher, metrics domrepo.Metrics, l *applogger.Logger, risk plan.RiskParams) *PlanUseCase {
	return &PlanUseCase{
		analyze: analyze,
		pub:     pub,
		metrics: metrics,
		l:       l,
		risk:    risk.Merge(),
	}
}

// Risk exposes the merged risk parameters used for plan building.
func (uc *PlanUseCase) Risk() plan.RiskParams { return uc.risk }

// BuildPlan builds a trade plan from the newest facts for the version;
// an empty version means the default.
func (uc *PlanUseCase) BuildPlan(ctx context.Context, symbol, version string) (*models.Plan, error) {
	facts, err := uc.analyze.GetFactsAt(ctx, symbol, version, time.Time{})
	if err != nil {
		return nil, fmt.Errorf("facts for plan: %w", err)
	}

	p, err := plan.Build(facts, uc.risk)
	if err != nil {
		uc.metrics.RecordError("plan_build")
		return nil, fmt.Errorf("build plan %s: %w", symbol, err)
	}

	if uc.pub != nil {
		if err := uc.pub.PublishPlan(ctx, p); err != nil {
			uc.metrics.RecordError("plan_publish")
			uc.l.Warn("plan publish failed", applogger.String("symbol", symbol), applogger.Error(err))
		} else {
			uc.metrics.RecordPublished("plans", symbol)
		}
	}

	uc.l.Info("plan built",
		applogger.String("symbol", symbol),
		applogger.String("bias", string(p.PrimaryBias)),
		applogger.Int("score", p.Score),
		applogger.Bool("no_trade", p.NoTradeFlag),
	)
	return p, nil
}

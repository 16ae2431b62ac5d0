package usecase

import (
	"context"
	"testing"

	"TradeAgent/internal/analysis/plan"
)

func TestBuildPlanFromComputedFacts(t *testing.T) {
	src := &fakeSource{candles: risingCandles(300, 100, 0.1)}
	store := &fakeFactsStore{}
	pub := &fakePublisher{}
	analyze := newAnalyzeForTest(t, src, store, nil, nil)
	uc := NewPlanUseCase(analyze, pub, newFakeMetrics(), testLogger(t), plan.RiskParams{})

	p, err := uc.BuildPlan(context.Background(), "BTCUSDT", "")
	if err != nil {
		t.Fatalf("build plan: %v", err)
	}
	if p.Symbol != "BTCUSDT" {
		t.Fatalf("symbol = %q", p.Symbol)
	}
	if p.Score < 0 || p.Score > 100 {
		t.Fatalf("score out of range: %d", p.Score)
	}
	if p.CurrentPrice <= 0 {
		t.Fatalf("current price = %v", p.CurrentPrice)
	}
	if pub.plans != 1 {
		t.Fatalf("expected 1 plan publish, got %d", pub.plans)
	}
}

func TestBuildPlanPublishFailureIsNotFatal(t *testing.T) {
	src := &fakeSource{candles: risingCandles(300, 100, 0.1)}
	analyze := newAnalyzeForTest(t, src, &fakeFactsStore{}, nil, nil)
	pub := &fakePublisher{err: context.DeadlineExceeded}
	uc := NewPlanUseCase(analyze, pub, newFakeMetrics(), testLogger(t), plan.RiskParams{})

	if _, err := uc.BuildPlan(context.Background(), "BTCUSDT", ""); err != nil {
		t.Fatalf("publish failure should not fail the plan: %v", err)
	}
}

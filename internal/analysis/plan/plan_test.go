package plan

import (
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"TradeAgent/internal/domain/models"
)

func factsFixture(bias models.Bias, regime models.Regime, atrPct float64) *models.FactsPayload {
	conf := models.ConfidenceHigh
	if bias == models.BiasNeutral {
		conf = models.ConfidenceLow
	}
	return &models.FactsPayload{
		Symbol: "BTCUSDT",
		AsOf:   time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		Regime: regime,
		BiasChain: map[string]models.BiasEntry{
			"15m": {Bias: bias, FromTF: "1h", Confidence: conf},
			"1h":  {Bias: bias, FromTF: "4h", Confidence: conf},
			"4h":  {Bias: bias, FromTF: "1d", Confidence: conf},
		},
		KeyLevels: []models.KeyLevel{
			{Price: 95, Kind: models.KindSupport, Score: 3, SourceTF: "1d"},
			{Price: 90, Kind: models.KindSupport, Score: 2, SourceTF: "4h"},
			{Price: 110, Kind: models.KindResistance, Score: 2.5, SourceTF: "1d"},
			{Price: 120, Kind: models.KindResistance, Score: 2, SourceTF: "1w"},
		},
		Invalidation: models.Invalidation{BullAbove: 110, BearBelow: 95},
		Timeframes: map[string]models.TFFacts{
			"15m": {Trend: &models.TrendFacts{EMAFast: 100, ATRPct: atrPct}},
			"4h":  {Trend: &models.TrendFacts{EMAFast: 100, ATRPct: atrPct}},
		},
	}
}

func TestLongPlanAnchorsToSupport(t *testing.T) {
	p, err := Build(factsFixture(models.BiasLong, models.RegimeUptrend, 2.0), RiskParams{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.PrimaryBias != models.BiasLong {
		t.Fatalf("expected long bias, got %s", p.PrimaryBias)
	}
	if len(p.EntryRules) != 1 || p.EntryRules[0].Type != models.EntryLong {
		t.Fatalf("expected a long entry rule: %+v", p.EntryRules)
	}
	if p.EntryRules[0].Zone == nil || p.EntryRules[0].Zone.Price != 95 {
		t.Fatalf("entry should anchor to nearest support 95: %+v", p.EntryRules[0].Zone)
	}
	if p.Stop.Price >= 95 {
		t.Fatalf("long stop must sit below the support zone, got %v", p.Stop.Price)
	}
	if len(p.Targets) == 0 || p.Targets[0].Price != 110 {
		t.Fatalf("first target should be nearest resistance 110: %+v", p.Targets)
	}
	for i := 1; i < len(p.Targets); i++ {
		if p.Targets[i].Price <= p.Targets[i-1].Price {
			t.Fatalf("long targets should rise: %+v", p.Targets)
		}
	}
}

func TestShortPlanAnchorsToResistance(t *testing.T) {
	p, err := Build(factsFixture(models.BiasShort, models.RegimeDowntrend, 2.0), RiskParams{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.EntryRules[0].Type != models.EntryShort {
		t.Fatalf("expected short entry, got %s", p.EntryRules[0].Type)
	}
	if p.EntryRules[0].Zone == nil || p.EntryRules[0].Zone.Price != 110 {
		t.Fatalf("entry should anchor to nearest resistance 110: %+v", p.EntryRules[0].Zone)
	}
	if p.Stop.Price <= 110 {
		t.Fatalf("short stop must sit above the resistance zone, got %v", p.Stop.Price)
	}
}

func TestNeutralBiasEmitsWait(t *testing.T) {
	p, err := Build(factsFixture(models.BiasNeutral, models.RegimeRanging, 2.0), RiskParams{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.EntryRules[0].Type != models.EntryWait {
		t.Fatalf("expected wait rule, got %s", p.EntryRules[0].Type)
	}
	if len(p.Targets) != 0 {
		t.Fatalf("neutral plan should have no targets: %+v", p.Targets)
	}
}

func TestScoreBounds(t *testing.T) {
	cases := []struct {
		bias   models.Bias
		regime models.Regime
		atrPct float64
	}{
		{models.BiasLong, models.RegimeUptrend, 2.0},
		{models.BiasShort, models.RegimeDowntrend, 0.1},
		{models.BiasNeutral, models.RegimeRanging, 9.5},
		{models.BiasLong, models.RegimeRanging, 0.2},
	}
	for _, tc := range cases {
		p, err := Build(factsFixture(tc.bias, tc.regime, tc.atrPct), RiskParams{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if p.Score < 0 || p.Score > 100 {
			t.Fatalf("score out of bounds: %d", p.Score)
		}
		if p.NoTradeFlag != (p.Score < 30) {
			t.Fatalf("no-trade flag inconsistent with score %d", p.Score)
		}
	}
}

func TestAllNeutralRangingScoresBelow30(t *testing.T) {
	p, err := Build(factsFixture(models.BiasNeutral, models.RegimeRanging, 2.0), RiskParams{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(p.NoTrade) == 0 {
		t.Fatalf("expected no-trade reasons")
	}
	if p.Score >= 30 {
		t.Fatalf("all-neutral ranging payload must score below 30, got %d", p.Score)
	}
	if !p.NoTradeFlag {
		t.Fatalf("no-trade flag must be set")
	}
}

func TestMissingPriceFails(t *testing.T) {
	facts := factsFixture(models.BiasLong, models.RegimeUptrend, 2.0)
	facts.Timeframes = map[string]models.TFFacts{}
	_, err := Build(facts, RiskParams{})
	if !errors.Is(err, ErrNoPrice) {
		t.Fatalf("expected ErrNoPrice, got %v", err)
	}
}

func TestDeterminism(t *testing.T) {
	facts := factsFixture(models.BiasLong, models.RegimeUptrend, 2.0)
	a, err := Build(facts, RiskParams{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := Build(facts, RiskParams{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("repeated builds differ")
	}
}

func TestExplainMentionsCoreEvidence(t *testing.T) {
	p, err := Build(factsFixture(models.BiasLong, models.RegimeUptrend, 2.0), RiskParams{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(p.Evidence) < 5 {
		t.Fatalf("expected evidence lines, got %d", len(p.Evidence))
	}
	joined := ""
	for _, l := range p.Evidence {
		joined += l + "\n"
	}
	for _, want := range []string{"REGIME", "DIRECTION", "ENTRY", "STOP"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("evidence missing %q:\n%s", want, joined)
		}
	}
}

package payload

import (
	"math"
	"testing"
	"time"

	"TradeAgent/internal/domain/models"
)

func trendTF(dir models.Direction, sideway bool, emaFast float64) models.TFFacts {
	return models.TFFacts{Trend: &models.TrendFacts{
		Direction: dir,
		Strength:  0.7,
		EMAFast:   emaFast,
		IsSideway: sideway,
	}}
}

func withSR(f models.TFFacts, levels ...models.Level) models.TFFacts {
	f.SR = &models.SRFacts{Levels: levels}
	return f
}

func lvl(price float64, kind models.LevelKind, score float64) models.Level {
	return models.Level{Price: price, Kind: kind, Score: score, Touches: 1}
}

func TestRegimeFromDaily(t *testing.T) {
	perTF := map[string]models.TFFacts{
		"1d": trendTF(models.DirUp, false, 100),
		"4h": trendTF(models.DirDown, false, 100),
	}
	p := Build("BTCUSDT", time.Now(), perTF)
	if p.Regime != models.RegimeUptrend {
		t.Fatalf("daily trend should name the regime, got %s", p.Regime)
	}
}

func TestRegimeFallsBackTo4h(t *testing.T) {
	perTF := map[string]models.TFFacts{
		"1d": trendTF(models.DirSideway, true, 100),
		"4h": trendTF(models.DirDown, false, 100),
	}
	p := Build("BTCUSDT", time.Now(), perTF)
	if p.Regime != models.RegimeDowntrend {
		t.Fatalf("expected downtrend from 4h, got %s", p.Regime)
	}
}

func TestRegimeRangingWhenAllSideway(t *testing.T) {
	perTF := map[string]models.TFFacts{
		"1d": trendTF(models.DirSideway, true, 100),
	}
	p := Build("BTCUSDT", time.Now(), perTF)
	if p.Regime != models.RegimeRanging {
		t.Fatalf("expected ranging, got %s", p.Regime)
	}
}

func TestMacroWeightedLevelMerge(t *testing.T) {
	perTF := map[string]models.TFFacts{
		"1w": withSR(trendTF(models.DirUp, false, 100), lvl(90, models.KindSupport, 1.0)),
		"1h": withSR(trendTF(models.DirUp, false, 100), lvl(110, models.KindResistance, 2.0)),
	}
	p := Build("BTCUSDT", time.Now(), perTF)
	if len(p.KeyLevels) != 2 {
		t.Fatalf("expected 2 key levels, got %d", len(p.KeyLevels))
	}
	// weekly 1.0 * 2.5 beats hourly 2.0 * 1.0
	if p.KeyLevels[0].SourceTF != "1w" {
		t.Fatalf("macro-weighted weekly level should rank first, got %s", p.KeyLevels[0].SourceTF)
	}
	if math.Abs(p.KeyLevels[0].Score-2.5) > 1e-9 {
		t.Fatalf("expected weighted score 2.5, got %v", p.KeyLevels[0].Score)
	}
}

func TestDedupWithinOnePercent(t *testing.T) {
	perTF := map[string]models.TFFacts{
		"1d": withSR(trendTF(models.DirUp, false, 100), lvl(100.0, models.KindSupport, 3.0)),
		"1h": withSR(trendTF(models.DirUp, false, 100), lvl(100.5, models.KindSupport, 1.0)),
	}
	p := Build("BTCUSDT", time.Now(), perTF)
	if len(p.KeyLevels) != 1 {
		t.Fatalf("levels within 1%% should dedup, got %d", len(p.KeyLevels))
	}
	if p.KeyLevels[0].SourceTF != "1d" {
		t.Fatalf("higher scored level should survive dedup, got %s", p.KeyLevels[0].SourceTF)
	}
}

func TestInvalidationNearestLevels(t *testing.T) {
	perTF := map[string]models.TFFacts{
		"15m": trendTF(models.DirUp, false, 100),
		"1h": withSR(trendTF(models.DirUp, false, 100),
			lvl(90, models.KindSupport, 1.0),
			lvl(95, models.KindSupport, 1.5),
			lvl(110, models.KindResistance, 1.2),
			lvl(105, models.KindResistance, 1.1),
		),
	}
	p := Build("BTCUSDT", time.Now(), perTF)
	if p.Invalidation.BullAbove != 105 {
		t.Fatalf("expected nearest resistance 105, got %v", p.Invalidation.BullAbove)
	}
	if p.Invalidation.BearBelow != 95 {
		t.Fatalf("expected nearest support 95, got %v", p.Invalidation.BearBelow)
	}
}

func TestTopNKeyLevels(t *testing.T) {
	levels := make([]models.Level, 0, 10)
	for i := 0; i < 10; i++ {
		levels = append(levels, lvl(100+float64(i)*5, models.KindResistance, float64(10-i)))
	}
	perTF := map[string]models.TFFacts{
		"1h": withSR(trendTF(models.DirUp, false, 80), levels...),
	}
	p := Build("BTCUSDT", time.Now(), perTF)
	if len(p.KeyLevels) != 5 {
		t.Fatalf("expected top 5 levels, got %d", len(p.KeyLevels))
	}
}

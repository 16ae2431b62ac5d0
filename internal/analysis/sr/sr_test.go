package sr

import (
	"math"
	"reflect"
	"testing"
	"time"

	"TradeAgent/internal/analysis/indicators"
	"TradeAgent/internal/domain/models"
)

func candlesFromCloses(closes []float64) []models.Candle {
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]models.Candle, len(closes))
	for i, c := range closes {
		open := c
		if i > 0 {
			open = closes[i-1]
		}
		hi := math.Max(open, c) + 0.2
		lo := math.Min(open, c) - 0.2
		out[i] = models.Candle{
			OpenTime: ts.Add(time.Duration(i) * time.Hour),
			Open:     open, High: hi, Low: lo, Close: c, Volume: 1,
		}
	}
	return out
}

// waveCandles oscillates between a 100 support and a 105 resistance with
// wick extremes at the exact levels, then rallies the closes to 106.
func waveCandles() []models.Candle {
	var closes []float64
	for w := 0; w < 6; w++ {
		for i := 0; i <= 9; i++ { // climb 100.5 -> 104.5
			closes = append(closes, 100.5+float64(i)*4.0/9.0)
		}
		for i := 8; i >= 1; i-- { // descend back toward the trough
			closes = append(closes, 100.5+float64(i)*4.0/9.0)
		}
	}
	for i := 0; i < 10; i++ { // breakout rally through 105 to 106
		closes = append(closes, 104.5+float64(i+1)*0.15)
	}
	candles := candlesFromCloses(closes)
	for i := range candles {
		// pin wick extremes: troughs touch 100, crests touch 105
		if candles[i].Close <= 100.6 {
			candles[i].Low = 100
		}
		if candles[i].Close >= 104.4 && candles[i].Close < 105 {
			candles[i].High = 105
		}
	}
	return candles
}

func TestBreakOfStructureFlipsResistance(t *testing.T) {
	facts, err := Compute(waveCandles(), Params{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(facts.Levels) == 0 {
		t.Fatalf("expected levels")
	}

	var flipped, support *models.Level
	for i := range facts.Levels {
		lv := &facts.Levels[i]
		if math.Abs(lv.Price-105) < 0.6 {
			flipped = lv
		}
		if math.Abs(lv.Price-100) < 0.6 {
			support = lv
		}
	}
	if flipped == nil {
		t.Fatalf("no level near 105: %+v", facts.Levels)
	}
	if flipped.Kind != models.KindSupport || !flipped.Flipped {
		t.Fatalf("105 cluster should flip to support after close at 106, got kind=%s flipped=%v",
			flipped.Kind, flipped.Flipped)
	}
	if support == nil {
		t.Fatalf("no level near 100: %+v", facts.Levels)
	}
	if support.Kind != models.KindSupport || support.Flipped {
		t.Fatalf("100 cluster should stay support, got kind=%s flipped=%v",
			support.Kind, support.Flipped)
	}
}

func TestLevelsSortedAndDeduped(t *testing.T) {
	// deterministic pseudo-random walk
	seed := uint64(42)
	next := func() float64 {
		seed = seed*6364136223846793005 + 1442695040888963407
		return float64(seed>>40) / float64(1<<24)
	}
	closes := make([]float64, 300)
	price := 100.0
	for i := range closes {
		price += (next() - 0.5) * 2
		closes[i] = price
	}
	candles := candlesFromCloses(closes)

	facts, err := Compute(candles, Params{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 1; i < len(facts.Levels); i++ {
		if facts.Levels[i].Score > facts.Levels[i-1].Score {
			t.Fatalf("levels not sorted by score desc at %d", i)
		}
	}

	atrSeries, err := indicators.ATR(models.Highs(candles), models.Lows(candles), models.Closes(candles), 14)
	if err != nil {
		t.Fatalf("atr: %v", err)
	}
	width := 0.25 * atrSeries[len(atrSeries)-1]
	for i := range facts.Levels {
		for j := i + 1; j < len(facts.Levels); j++ {
			d := math.Abs(facts.Levels[i].Price - facts.Levels[j].Price)
			if d <= width {
				t.Fatalf("levels %d and %d within cluster width: %v <= %v", i, j, d, width)
			}
		}
	}
}

func TestStructuralConfirmation(t *testing.T) {
	// climb to a crest, then break sharply below the preceding trough
	var closes []float64
	for w := 0; w < 3; w++ {
		for i := 0; i <= 9; i++ {
			closes = append(closes, 100.5+float64(i)*4.0/9.0)
		}
		for i := 8; i >= 1; i-- {
			closes = append(closes, 100.5+float64(i)*4.0/9.0)
		}
	}
	// final crest then collapse below every prior low within a few bars
	for i := 0; i <= 9; i++ {
		closes = append(closes, 100.5+float64(i)*4.0/9.0)
	}
	for i := 0; i < 8; i++ {
		closes = append(closes, 104.5-float64(i+1)*1.2)
	}
	candles := candlesFromCloses(closes)

	facts, err := Compute(candles, Params{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var structural bool
	for _, lv := range facts.Levels {
		if math.Abs(lv.Price-104.7) < 1.0 && lv.Structural {
			structural = true
		}
	}
	if !structural {
		t.Fatalf("expected a structural level near the broken crest: %+v", facts.Levels)
	}
}

func TestShortSeriesReturnsEmpty(t *testing.T) {
	candles := candlesFromCloses([]float64{100, 101, 102, 101, 100})
	facts, err := Compute(candles, Params{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(facts.Levels) != 0 || len(facts.Zones) != 0 {
		t.Fatalf("expected empty result for short series")
	}
}

func TestDeterminism(t *testing.T) {
	candles := waveCandles()
	a, err := Compute(candles, Params{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := Compute(candles, Params{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("repeated runs differ")
	}
}

func TestZonesMatchLevels(t *testing.T) {
	facts, err := Compute(waveCandles(), Params{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(facts.Zones) != len(facts.Levels) {
		t.Fatalf("zones and levels out of sync: %d vs %d", len(facts.Zones), len(facts.Levels))
	}
	for i, z := range facts.Zones {
		if z.Low >= z.High {
			t.Fatalf("zone %d: low >= high", i)
		}
		if z.Kind != facts.Levels[i].Kind {
			t.Fatalf("zone %d kind mismatch", i)
		}
		if !z.Contains(facts.Levels[i].Price) {
			t.Fatalf("zone %d does not contain its level price", i)
		}
	}
}

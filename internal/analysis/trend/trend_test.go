package trend

import (
	"errors"
	"testing"
	"time"

	"TradeAgent/internal/analysis/indicators"
	"TradeAgent/internal/domain/models"
)

func risingCandles(n int, start float64, stepPct float64) []models.Candle {
	out := make([]models.Candle, n)
	price := start
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		open := price
		price = price * (1 + stepPct/100)
		out[i] = models.Candle{
			OpenTime: ts.Add(time.Duration(i) * time.Hour),
			Open:     open,
			High:     price * 1.001,
			Low:      open * 0.999,
			Close:    price,
			Volume:   1,
		}
	}
	return out
}

func TestRisingSeriesTrendsUp(t *testing.T) {
	candles := risingCandles(200, 100, 0.1)
	facts, err := Compute(candles, Params{EMAFast: 20, EMASlow: 50})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if facts.Direction != models.DirUp {
		t.Fatalf("expected up, got %s", facts.Direction)
	}
	if facts.Strength <= 0 {
		t.Fatalf("expected positive strength, got %v", facts.Strength)
	}
	if facts.IsSideway {
		t.Fatalf("rising series should not be sideway")
	}
	if facts.SlowSlope <= 0 {
		t.Fatalf("expected positive slow slope, got %v", facts.SlowSlope)
	}
}

func TestFallingSeriesTrendsDown(t *testing.T) {
	candles := risingCandles(200, 100, -0.1)
	facts, err := Compute(candles, Params{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if facts.Direction != models.DirDown {
		t.Fatalf("expected down, got %s", facts.Direction)
	}
}

func TestFlatSeriesIsSideway(t *testing.T) {
	n := 120
	candles := make([]models.Candle, n)
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		candles[i] = models.Candle{
			OpenTime: ts.Add(time.Duration(i) * time.Hour),
			Open:     100, High: 101, Low: 99, Close: 100, Volume: 1,
		}
	}
	facts, err := Compute(candles, Params{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if facts.Direction != models.DirSideway || !facts.IsSideway {
		t.Fatalf("expected sideway, got %s", facts.Direction)
	}
	if facts.Strength != 0 {
		t.Fatalf("sideway strength should be 0, got %v", facts.Strength)
	}
}

func TestShortSeriesFails(t *testing.T) {
	candles := risingCandles(20, 100, 0.1)
	_, err := Compute(candles, Params{})
	if !errors.Is(err, indicators.ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
}

func TestDeterminism(t *testing.T) {
	candles := risingCandles(200, 100, 0.1)
	a, err := Compute(candles, Params{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := Compute(candles, Params{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *a != *b {
		t.Fatalf("repeated runs differ: %+v vs %+v", a, b)
	}
}

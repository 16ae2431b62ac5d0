package backtest

import (
	"testing"
	"time"

	"TradeAgent/internal/domain/models"
)

func flatCandles(n int, price float64) []models.Candle {
	out := make([]models.Candle, n)
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range out {
		out[i] = models.Candle{
			OpenTime: ts.Add(time.Duration(i) * time.Hour),
			Open:     price, High: price * 1.001, Low: price * 0.999, Close: price,
			Volume: 1,
		}
	}
	return out
}

func longBiasFacts(supportPrice float64) *models.FactsPayload {
	return &models.FactsPayload{
		Symbol:    "BTCUSDT",
		BiasChain: map[string]models.BiasEntry{"1h": {Bias: models.BiasLong}},
		KeyLevels: []models.KeyLevel{
			{Price: supportPrice, Kind: models.KindSupport, Score: 5},
		},
	}
}

func TestShiftDelaysOneBar(t *testing.T) {
	got := Shift([]int{1, 1, 0, -1})
	want := []int{0, 1, 1, 0}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("shift[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestSRTrendSignalsLongNearSupport(t *testing.T) {
	candles := flatCandles(20, 30000)
	facts := longBiasFacts(30000)

	sig, err := GenerateSignals(candles, facts, "1h", SignalParams{}, ModeSRTrend)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(sig) != 20 {
		t.Fatalf("signal length = %d", len(sig))
	}
	// First bar is zero from the lookahead shift, the rest sit in the zone.
	if sig[0] != 0 {
		t.Fatalf("shifted first bar must be flat, got %d", sig[0])
	}
	for i := 1; i < len(sig); i++ {
		if sig[i] != 1 {
			t.Fatalf("bar %d: expected long signal, got %d", i, sig[i])
		}
	}
}

func TestSRTrendSignalsFlatAwayFromZone(t *testing.T) {
	candles := flatCandles(20, 40000)
	facts := longBiasFacts(30000) // support far below price

	sig, err := GenerateSignals(candles, facts, "1h", SignalParams{}, ModeSRTrend)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	for i, s := range sig {
		if s != 0 {
			t.Fatalf("bar %d: expected flat away from zone, got %d", i, s)
		}
	}
}

func TestNeutralBiasProducesNoSignals(t *testing.T) {
	candles := flatCandles(20, 30000)
	facts := &models.FactsPayload{Symbol: "BTCUSDT"}

	sig, err := GenerateSignals(candles, facts, "1h", SignalParams{}, ModeSRTrend)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	for i, s := range sig {
		if s != 0 {
			t.Fatalf("bar %d: neutral bias must stay flat, got %d", i, s)
		}
	}
}

func TestGenerateSignalsUnknownMode(t *testing.T) {
	if _, err := GenerateSignals(flatCandles(5, 100), nil, "1h", SignalParams{}, Mode("mystery")); err == nil {
		t.Fatalf("expected error for unknown mode")
	}
}

func TestEmptyModeDefaultsToCombined(t *testing.T) {
	sig, err := GenerateSignals(flatCandles(120, 30000), longBiasFacts(30000), "1h", SignalParams{}, "")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(sig) != 120 {
		t.Fatalf("signal length = %d", len(sig))
	}
}

package indicators

import (
	"errors"
	"math"
	"testing"
)

func constSeries(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestSMAConstant(t *testing.T) {
	out, err := SMA(constSeries(10, 30), 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 30 {
		t.Fatalf("unexpected length %d", len(out))
	}
	for i, v := range out {
		if math.Abs(v-10) > 1e-9 {
			t.Fatalf("bar %d: expected 10, got %v", i, v)
		}
	}
}

func TestEMATracksRisingSeries(t *testing.T) {
	vals := make([]float64, 100)
	for i := range vals {
		vals[i] = 100 + float64(i)
	}
	out, err := EMA(vals, 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	last := out[len(out)-1]
	prev := out[len(out)-2]
	if last <= prev {
		t.Fatalf("ema should rise on rising input: %v <= %v", last, prev)
	}
	if last >= vals[len(vals)-1] {
		t.Fatalf("ema should lag price: %v >= %v", last, vals[len(vals)-1])
	}
}

func TestRSIWarmupNeutral(t *testing.T) {
	vals := make([]float64, 60)
	for i := range vals {
		vals[i] = 100 + float64(i%7)
	}
	out, err := RSI(vals, 14)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 14; i++ {
		if out[i] != NeutralRSI {
			t.Fatalf("warmup bar %d: expected %v, got %v", i, NeutralRSI, out[i])
		}
	}
	for i, v := range out {
		if v < 0 || v > 100 {
			t.Fatalf("bar %d: rsi out of range: %v", i, v)
		}
	}
}

func TestRSIFlatSeriesStaysNeutral(t *testing.T) {
	out, err := RSI(constSeries(100, 80), 14)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, v := range out {
		if v != NeutralRSI {
			t.Fatalf("flat bar %d: expected %v, got %v", i, NeutralRSI, v)
		}
	}
}

func TestRSILossFreeHistoryStaysNeutral(t *testing.T) {
	vals := make([]float64, 60)
	for i := range vals {
		vals[i] = 100 + float64(i)
	}
	out, err := RSI(vals, 14)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// zero average loss leaves the ratio undefined; neutral, not 100
	if last := out[len(out)-1]; last != NeutralRSI {
		t.Fatalf("loss-free history should stay neutral, got %v", last)
	}
}

func TestRSISaturatesAfterSingleLoss(t *testing.T) {
	vals := make([]float64, 60)
	for i := range vals {
		vals[i] = 100 + float64(i)
	}
	vals[1] = 98
	out, err := RSI(vals, 14)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if last := out[len(out)-1]; last < 99 || last >= 100 {
		t.Fatalf("near-monotonic gains should saturate rsi, got %v", last)
	}
}

func TestATRConstantRange(t *testing.T) {
	n := 50
	high := make([]float64, n)
	low := make([]float64, n)
	close := make([]float64, n)
	for i := 0; i < n; i++ {
		high[i] = 105
		low[i] = 95
		close[i] = 100
	}
	out, err := ATR(high, low, close, 14)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(out[len(out)-1]-10) > 1e-6 {
		t.Fatalf("expected atr 10, got %v", out[len(out)-1])
	}
}

func TestInsufficientData(t *testing.T) {
	if _, err := EMA(constSeries(1, 5), 20); !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
	if _, err := RSI(constSeries(1, 10), 14); !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
	if _, err := ATR(constSeries(1, 5), constSeries(1, 5), constSeries(1, 5), 14); !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
}

func TestWMAPartialWarmup(t *testing.T) {
	vals := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	out, err := WMA(vals, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out[0] != 1 {
		t.Fatalf("first warmup value should equal input, got %v", out[0])
	}
	// full window at index 4: (1*1+2*2+3*3+4*4+5*5)/15
	want := 55.0 / 15.0
	if math.Abs(out[4]-want) > 1e-9 {
		t.Fatalf("expected %v, got %v", want, out[4])
	}
}

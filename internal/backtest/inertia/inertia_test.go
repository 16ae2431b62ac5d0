package inertia

import (
	"testing"
)

func TestLongMachineEntryAtCrossing(t *testing.T) {
	// scripted oscillator path: breach 80, fall below both averages,
	// then cross back above the fast average while above the slow one
	rsi := []float64{50, 85, 82, 70, 65, 73, 72, 39}
	fast := []float64{50, 60, 65, 72, 70, 71, 71, 65}
	slow := []float64{50, 55, 56, 71, 70, 70, 70, 68}
	div := make([]int, len(rsi))

	got := LongSignals(rsi, fast, slow, div, Params{})
	want := []int{0, 0, 0, 0, 0, 1, 1, 0}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("bar %d: expected %d, got %d (full %v)", i, want[i], got[i], got)
		}
	}
}

func TestLongStateTransitions(t *testing.T) {
	p := DefaultParams()

	s, sig := StepLong(StateIdle, BarFeatures{RSI: 81}, p)
	if s != StateMomentum || sig != 0 {
		t.Fatalf("idle should arm momentum at 81, got %v sig=%d", s, sig)
	}

	s, sig = StepLong(StateMomentum, BarFeatures{RSI: 70, FastMA: 72, SlowMA: 71}, p)
	if s != StateCorrection || sig != 0 {
		t.Fatalf("momentum should enter correction below both averages, got %v", s)
	}

	s, sig = StepLong(StateCorrection, BarFeatures{RSI: 73, FastMA: 71, SlowMA: 70, PrevRSI: 65, PrevFastMA: 70}, p)
	if s != StateHold || sig != 1 {
		t.Fatalf("crossing entry should emit hold/1, got %v sig=%d", s, sig)
	}

	s, sig = StepLong(StateHold, BarFeatures{RSI: 55, FastMA: 56, SlowMA: 54}, p)
	if s != StateHold || sig != 1 {
		t.Fatalf("hold should persist above the floor, got %v sig=%d", s, sig)
	}

	s, sig = StepLong(StateHold, BarFeatures{RSI: 39, FastMA: 56, SlowMA: 54}, p)
	if s != StateIdle || sig != 0 {
		t.Fatalf("hold should exit below the floor, got %v sig=%d", s, sig)
	}

	s, sig = StepLong(StateHold, BarFeatures{RSI: 55, FastMA: 56, SlowMA: 54, Divergence: -1}, p)
	if s != StateMomentum || sig != 0 {
		t.Fatalf("bearish divergence under the fast average should flatten, got %v sig=%d", s, sig)
	}

	s, sig = StepLong(StateHold, BarFeatures{RSI: 81, FastMA: 70, SlowMA: 60}, p)
	if s != StateMomentum || sig != 1 {
		t.Fatalf("renewed momentum keeps the position, got %v sig=%d", s, sig)
	}
}

func TestShortMachineMirrors(t *testing.T) {
	rsi := []float64{50, 15, 18, 30, 35, 27, 28, 61}
	fast := []float64{50, 40, 35, 28, 30, 29, 29, 35}
	slow := []float64{50, 45, 44, 29, 30, 30, 30, 32}
	div := make([]int, len(rsi))

	got := ShortSignals(rsi, fast, slow, div, Params{})
	want := []int{0, 0, 0, 0, 0, -1, -1, 0}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("bar %d: expected %d, got %d (full %v)", i, want[i], got[i], got)
		}
	}
}

func TestDetectDivergence(t *testing.T) {
	// price makes a new high at the last bar while rsi stays below its peak
	price := []float64{100, 102, 104, 103, 105}
	rsi := []float64{60, 70, 75, 68, 72}
	div := DetectDivergence(price, rsi, 4)
	if div[4] != -1 {
		t.Fatalf("expected bearish divergence at last bar, got %d", div[4])
	}

	// price makes a new low while rsi holds above its trough
	price = []float64{100, 98, 96, 97, 95}
	rsi = []float64{40, 30, 25, 33, 31}
	div = DetectDivergence(price, rsi, 4)
	if div[4] != 1 {
		t.Fatalf("expected bullish divergence at last bar, got %d", div[4])
	}
}

func TestFullPipelineBounds(t *testing.T) {
	closes := make([]float64, 200)
	price := 100.0
	seed := uint64(7)
	for i := range closes {
		seed = seed*6364136223846793005 + 1442695040888963407
		price += (float64(seed>>40)/float64(1<<24) - 0.5) * 2
		closes[i] = price
	}
	long, err := Long(closes, Params{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	short, err := Short(closes, Params{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := range long {
		if long[i] != 0 && long[i] != 1 {
			t.Fatalf("long signal out of range at %d: %d", i, long[i])
		}
		if short[i] != 0 && short[i] != -1 {
			t.Fatalf("short signal out of range at %d: %d", i, short[i])
		}
	}
}

func TestFlatSeriesKeepsBothMachinesIdle(t *testing.T) {
	closes := make([]float64, 80)
	for i := range closes {
		closes[i] = 40000
	}
	long, err := Long(closes, Params{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	short, err := Short(closes, Params{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// a neutral oscillator must never breach the momentum thresholds
	for i := range long {
		if long[i] != 0 || short[i] != 0 {
			t.Fatalf("bar %d: flat history emitted long=%d short=%d", i, long[i], short[i])
		}
	}
}

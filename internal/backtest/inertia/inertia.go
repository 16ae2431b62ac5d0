// Package inertia implements the oscillator-driven entry/exit state
// machine. Long and short machines run independently; each folds a pure
// transition function over per-bar oscillator features and emits a
// position signal in {-1, 0, 1}.
package inertia

import (
	"fmt"

	"TradeAgent/internal/analysis/indicators"
)

// State is the per-direction machine state.
type State int8

const (
	StateIdle State = iota
	StateMomentum
	StateCorrection
	StateHold
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateMomentum:
		return "momentum"
	case StateCorrection:
		return "correction"
	case StateHold:
		return "hold"
	default:
		return "unknown"
	}
}

// Params tunes the oscillator machine. Zero fields fall back to defaults.
type Params struct {
	RSIPeriod     int     `yaml:"rsi_period" default:"14"`
	EMAPeriod     int     `yaml:"ema_period" default:"9"`
	WMAPeriod     int     `yaml:"wma_period" default:"45"`
	MomentumLong  float64 `yaml:"rsi_momentum_long" default:"80"`
	MomentumShort float64 `yaml:"rsi_momentum_short" default:"20"`
	SidewayLow    float64 `yaml:"rsi_sideway_low" default:"40"`
	SidewayHigh   float64 `yaml:"rsi_sideway_high" default:"60"`
	DivLookback   int     `yaml:"div_lookback" default:"10"`
}

// DefaultParams returns the documented defaults.
func DefaultParams() Params {
	return Params{
		RSIPeriod:     14,
		EMAPeriod:     9,
		WMAPeriod:     45,
		MomentumLong:  80,
		MomentumShort: 20,
		SidewayLow:    40,
		SidewayHigh:   60,
		DivLookback:   10,
	}
}

// Merge overlays non-zero fields of p onto the defaults.
func (p Params) Merge() Params {
	d := DefaultParams()
	if p.RSIPeriod > 0 {
		d.RSIPeriod = p.RSIPeriod
	}
	if p.EMAPeriod > 0 {
		d.EMAPeriod = p.EMAPeriod
	}
	if p.WMAPeriod > 0 {
		d.WMAPeriod = p.WMAPeriod
	}
	if p.MomentumLong > 0 {
		d.MomentumLong = p.MomentumLong
	}
	if p.MomentumShort > 0 {
		d.MomentumShort = p.MomentumShort
	}
	if p.SidewayLow > 0 {
		d.SidewayLow = p.SidewayLow
	}
	if p.SidewayHigh > 0 {
		d.SidewayHigh = p.SidewayHigh
	}
	if p.DivLookback > 0 {
		d.DivLookback = p.DivLookback
	}
	return d
}

// BarFeatures is the oscillator view of one bar fed to the transition
// functions.
type BarFeatures struct {
	RSI        float64
	FastMA     float64 // EMA of RSI
	SlowMA     float64 // WMA of RSI
	PrevRSI    float64
	PrevFastMA float64
	Divergence int // +1 bullish, -1 bearish, 0 none
}

// StepLong advances the long machine one bar. The returned signal is 1
// while a long position should be held.
//
// idle -> momentum on a momentum-threshold breach; momentum -> correction
// when the oscillator drops below both smoothed lines; correction -> hold
// (the entry) when it crosses back above the fast line while above the
// slow one; hold exits on the sideways floor or a bearish divergence, and
// re-arms momentum on a fresh threshold breach.
func StepLong(s State, f BarFeatures, p Params) (State, int) {
	switch s {
	case StateIdle:
		if f.RSI >= p.MomentumLong {
			return StateMomentum, 0
		}
		return StateIdle, 0

	case StateMomentum:
		switch {
		case f.RSI >= p.MomentumLong:
			return StateMomentum, 0
		case f.RSI < f.FastMA && f.RSI < f.SlowMA:
			return StateCorrection, 0
		case f.RSI < p.SidewayLow:
			return StateIdle, 0
		}
		return StateMomentum, 0

	case StateCorrection:
		crossesFast := f.RSI > f.FastMA && f.PrevRSI <= f.PrevFastMA
		if crossesFast && f.RSI > f.SlowMA {
			return StateHold, 1
		}
		if f.RSI < p.SidewayLow {
			return StateIdle, 0
		}
		return StateCorrection, 0

	case StateHold:
		switch {
		case f.RSI < p.SidewayLow:
			return StateIdle, 0
		case f.Divergence == -1 && f.RSI < f.FastMA:
			return StateMomentum, 0
		case f.RSI >= p.MomentumLong:
			return StateMomentum, 1
		}
		return StateHold, 1
	}
	return StateIdle, 0
}

// StepShort mirrors StepLong with inverted thresholds; the signal is -1
// while a short position should be held.
func StepShort(s State, f BarFeatures, p Params) (State, int) {
	switch s {
	case StateIdle:
		if f.RSI <= p.MomentumShort {
			return StateMomentum, 0
		}
		return StateIdle, 0

	case StateMomentum:
		switch {
		case f.RSI <= p.MomentumShort:
			return StateMomentum, 0
		case f.RSI > f.FastMA && f.RSI > f.SlowMA:
			return StateCorrection, 0
		case f.RSI > p.SidewayHigh:
			return StateIdle, 0
		}
		return StateMomentum, 0

	case StateCorrection:
		crossesFast := f.RSI < f.FastMA && f.PrevRSI >= f.PrevFastMA
		if crossesFast && f.RSI < f.SlowMA {
			return StateHold, -1
		}
		if f.RSI > p.SidewayHigh {
			return StateIdle, 0
		}
		return StateCorrection, 0

	case StateHold:
		switch {
		case f.RSI > p.SidewayHigh:
			return StateIdle, 0
		case f.Divergence == 1 && f.RSI > f.FastMA:
			return StateMomentum, 0
		case f.RSI <= p.MomentumShort:
			return StateMomentum, -1
		}
		return StateHold, -1
	}
	return StateIdle, 0
}

type stepFunc func(State, BarFeatures, Params) (State, int)

func run(step stepFunc, rsi, fast, slow []float64, div []int, p Params) []int {
	signals := make([]int, len(rsi))
	state := StateIdle
	for i := 1; i < len(rsi); i++ {
		f := BarFeatures{
			RSI:        rsi[i],
			FastMA:     fast[i],
			SlowMA:     slow[i],
			PrevRSI:    rsi[i-1],
			PrevFastMA: fast[i-1],
			Divergence: div[i],
		}
		state, signals[i] = step(state, f, p)
	}
	return signals
}

// LongSignals folds the long machine over precomputed oscillator series.
func LongSignals(rsi, fast, slow []float64, div []int, p Params) []int {
	return run(StepLong, rsi, fast, slow, div, p.Merge())
}

// ShortSignals folds the short machine over precomputed oscillator series.
func ShortSignals(rsi, fast, slow []float64, div []int, p Params) []int {
	return run(StepShort, rsi, fast, slow, div, p.Merge())
}

// Series bundles the derived oscillator series for a close series.
type Series struct {
	RSI        []float64
	FastMA     []float64
	SlowMA     []float64
	Divergence []int
}

// ComputeSeries derives the oscillator series the machines consume.
func ComputeSeries(closes []float64, params Params) (*Series, error) {
	p := params.Merge()
	rsi, err := indicators.RSI(closes, p.RSIPeriod)
	if err != nil {
		return nil, fmt.Errorf("inertia: rsi: %w", err)
	}
	fast, err := indicators.EMA(rsi, p.EMAPeriod)
	if err != nil {
		return nil, fmt.Errorf("inertia: fast ma: %w", err)
	}
	slow, err := indicators.WMA(rsi, p.WMAPeriod)
	if err != nil {
		return nil, fmt.Errorf("inertia: slow ma: %w", err)
	}
	return &Series{
		RSI:        rsi,
		FastMA:     fast,
		SlowMA:     slow,
		Divergence: DetectDivergence(closes, rsi, p.DivLookback),
	}, nil
}

// Long computes long-machine signals straight from closes.
func Long(closes []float64, params Params) ([]int, error) {
	s, err := ComputeSeries(closes, params)
	if err != nil {
		return nil, err
	}
	return LongSignals(s.RSI, s.FastMA, s.SlowMA, s.Divergence, params), nil
}

// Short computes short-machine signals straight from closes.
func Short(closes []float64, params Params) ([]int, error) {
	s, err := ComputeSeries(closes, params)
	if err != nil {
		return nil, err
	}
	return ShortSignals(s.RSI, s.FastMA, s.SlowMA, s.Divergence, params), nil
}

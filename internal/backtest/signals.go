// Package backtest evaluates historical performance of generated signals
// through two simulators: a vectorized signal replay and a bar-by-bar
// plan-rule walk.
package backtest

import (
	"fmt"

	"TradeAgent/internal/backtest/inertia"
	"TradeAgent/internal/domain/models"
)

// Mode selects the signal generator.
type Mode string

const (
	ModeSRTrend    Mode = "sr_trend"
	ModeRSIInertia Mode = "rsi_inertia"
	ModeCombined   Mode = "combined"
)

// SignalParams tunes signal generation.
type SignalParams struct {
	ZoneMult float64 `yaml:"zone_mult" default:"1.5"`
	Inertia  inertia.Params
}

// Merge overlays non-zero fields onto the defaults.
func (p SignalParams) Merge() SignalParams {
	if p.ZoneMult <= 0 {
		p.ZoneMult = 1.5
	}
	p.Inertia = p.Inertia.Merge()
	return p
}

// GenerateSignals produces the per-bar position series for a mode,
// already shifted one bar so no decision uses its own bar's close.
func GenerateSignals(candles []models.Candle, facts *models.FactsPayload, interval string, params SignalParams, mode Mode) ([]int, error) {
	p := params.Merge()

	var signals []int
	var err error
	switch mode {
	case ModeSRTrend:
		signals = srTrendSignals(candles, facts, interval, p)
	case ModeRSIInertia:
		signals, err = rsiInertiaSignals(candles, facts, interval, p)
	case ModeCombined, "":
		signals, err = combinedSignals(candles, facts, interval, p)
	default:
		return nil, fmt.Errorf("backtest: unknown mode %q", mode)
	}
	if err != nil {
		return nil, err
	}
	return Shift(signals), nil
}

// Shift delays signals one bar to avoid lookahead.
func Shift(signals []int) []int {
	out := make([]int, len(signals))
	copy(out[1:], signals[:len(signals)-1])
	return out
}

func biasFor(facts *models.FactsPayload, interval string) models.Bias {
	if facts == nil {
		return models.BiasNeutral
	}
	if e, ok := facts.BiasChain[interval]; ok {
		return e.Bias
	}
	return models.BiasNeutral
}

func zonesFor(facts *models.FactsPayload, kind models.LevelKind) []models.KeyLevel {
	if facts == nil {
		return nil
	}
	var out []models.KeyLevel
	for _, lv := range facts.KeyLevels {
		if lv.Kind == kind {
			out = append(out, lv)
		}
	}
	return out
}

// zoneWidth is the entry band half-width around a level: 0.5% of its
// price with an absolute floor for low-priced instruments.
func zoneWidth(levelPrice float64) float64 {
	w := levelPrice * 0.005
	if w < 50 {
		w = 50
	}
	return w
}

func priceNearZone(price float64, zones []models.KeyLevel, mult float64) bool {
	for _, z := range zones {
		w := zoneWidth(z.Price) * mult
		if price >= z.Price-w && price <= z.Price+w {
			return true
		}
	}
	return false
}

// srTrendSignals holds a position while price sits in a zone confirming
// the bias and away from the opposing side.
func srTrendSignals(candles []models.Candle, facts *models.FactsPayload, interval string, p SignalParams) []int {
	signals := make([]int, len(candles))
	bias := biasFor(facts, interval)
	if bias == models.BiasNeutral {
		return signals
	}

	supports := zonesFor(facts, models.KindSupport)
	resistances := zonesFor(facts, models.KindResistance)

	for i, c := range candles {
		nearSup := priceNearZone(c.Close, supports, p.ZoneMult)
		nearRes := priceNearZone(c.Close, resistances, p.ZoneMult)
		switch bias {
		case models.BiasLong:
			if nearSup && !nearRes {
				signals[i] = 1
			}
		case models.BiasShort:
			if nearRes && !nearSup {
				signals[i] = -1
			}
		}
	}
	return signals
}

func rsiInertiaSignals(candles []models.Candle, facts *models.FactsPayload, interval string, p SignalParams) ([]int, error) {
	bias := biasFor(facts, interval)
	closes := models.Closes(candles)
	switch bias {
	case models.BiasLong:
		return inertia.Long(closes, p.Inertia)
	case models.BiasShort:
		return inertia.Short(closes, p.Inertia)
	default:
		return make([]int, len(candles)), nil
	}
}

// combinedSignals keeps the oscillator machine's timing but only admits
// entries near a zone confirming the bias. Blocked entries zero out the
// whole hold run that follows. Without zones it degrades to pure
// oscillator timing.
func combinedSignals(candles []models.Candle, facts *models.FactsPayload, interval string, p SignalParams) ([]int, error) {
	signals, err := rsiInertiaSignals(candles, facts, interval, p)
	if err != nil {
		return nil, err
	}

	supports := zonesFor(facts, models.KindSupport)
	resistances := zonesFor(facts, models.KindResistance)
	if len(supports) == 0 && len(resistances) == 0 {
		return signals, nil
	}

	bias := biasFor(facts, interval)
	switch {
	case bias == models.BiasLong && len(supports) > 0:
		blockEntriesAwayFromZone(signals, candles, supports, 1, p.ZoneMult)
	case bias == models.BiasShort && len(resistances) > 0:
		blockEntriesAwayFromZone(signals, candles, resistances, -1, p.ZoneMult)
	}
	return signals, nil
}

func blockEntriesAwayFromZone(signals []int, candles []models.Candle, zones []models.KeyLevel, dir int, mult float64) {
	for i := 0; i < len(signals); i++ {
		prev := 0
		if i > 0 {
			prev = signals[i-1]
		}
		isEntry := signals[i] == dir && prev != dir
		if !isEntry || priceNearZone(candles[i].Close, zones, mult) {
			continue
		}
		for j := i; j < len(signals); j++ {
			if signals[j] == dir {
				signals[j] = 0
			} else if j > i {
				break
			}
		}
	}
}

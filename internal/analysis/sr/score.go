package sr

import (
	"math"

	"TradeAgent/internal/domain/models"
)

// recencyWeight decays exponentially with pivot age, halving every
// halfLife bars.
func recencyWeight(bar, totalBars, halfLife int) float64 {
	age := totalBars - 1 - bar
	if halfLife < 1 {
		halfLife = 1
	}
	return math.Exp(-float64(age) * math.Ln2 / float64(halfLife))
}

// wickRejectionScore awards the bonus when the rejecting wick covers at
// least threshold of the bar's full range. Supports look at the lower
// wick, resistances at the upper.
func wickRejectionScore(c models.Candle, kind models.LevelKind, threshold, bonus float64) float64 {
	barRange := c.High - c.Low
	if barRange <= 0 {
		return 0
	}
	var wick float64
	if kind == models.KindSupport {
		bodyLow := math.Min(c.Open, c.Close)
		wick = bodyLow - c.Low
	} else {
		bodyHigh := math.Max(c.Open, c.Close)
		wick = c.High - bodyHigh
	}
	if wick/barRange >= threshold {
		return bonus
	}
	return 0
}

// oscRegime is the dual moving average state of the oscillator.
type oscRegime int8

const (
	regimeSideways oscRegime = iota
	regimeUp
	regimeDown
)

// oscState holds the precomputed oscillator series used for pivot scoring.
type oscState struct {
	rsi  []float64
	fast []float64 // EMA of rsi
	slow []float64 // WMA of rsi
	// margins for the support/resistance range agreement
	supportMax    float64
	resistanceMin float64
	margin        float64
}

func (o *oscState) regimeAt(bar int) oscRegime {
	if o == nil || bar >= len(o.fast) {
		return regimeSideways
	}
	switch {
	case o.fast[bar] > o.slow[bar]+o.margin:
		return regimeUp
	case o.fast[bar] < o.slow[bar]-o.margin:
		return regimeDown
	default:
		return regimeSideways
	}
}

// bonusAt awards weight when both the regime and the oscillator range
// agree with the pivot's implied direction: supports want a turning-up
// regime with a depressed oscillator, resistances the mirror.
func (o *oscState) bonusAt(bar int, kind models.LevelKind, weight float64) float64 {
	if o == nil || bar >= len(o.rsi) {
		return 0
	}
	r := o.regimeAt(bar)
	v := o.rsi[bar]
	if kind == models.KindSupport && r == regimeUp && v <= o.supportMax {
		return weight
	}
	if kind == models.KindResistance && r == regimeDown && v >= o.resistanceMin {
		return weight
	}
	return 0
}

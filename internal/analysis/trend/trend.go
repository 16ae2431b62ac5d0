// Package trend classifies per-timeframe direction and strength from
// fast/slow EMA separation measured in ATR units.
package trend

import (
	"fmt"

	"TradeAgent/internal/analysis/indicators"
	"TradeAgent/internal/domain/models"
	"TradeAgent/pkg/util"
)

// Params tunes the trend classifier. Zero fields fall back to defaults.
type Params struct {
	EMAFast        int     `yaml:"ema_fast" default:"20"`
	EMASlow        int     `yaml:"ema_slow" default:"50"`
	ATRPeriod      int     `yaml:"atr_period" default:"14"`
	SidewayATRMult float64 `yaml:"sideway_atr_mult" default:"0.5"`
	SlopeBars      int     `yaml:"slope_bars" default:"5"`
}

// DefaultParams returns the documented defaults.
func DefaultParams() Params {
	return Params{EMAFast: 20, EMASlow: 50, ATRPeriod: 14, SidewayATRMult: 0.5, SlopeBars: 5}
}

// Merge overlays non-zero fields of p onto the defaults.
func (p Params) Merge() Params {
	d := DefaultParams()
	if p.EMAFast > 0 {
		d.EMAFast = p.EMAFast
	}
	if p.EMASlow > 0 {
		d.EMASlow = p.EMASlow
	}
	if p.ATRPeriod > 0 {
		d.ATRPeriod = p.ATRPeriod
	}
	if p.SidewayATRMult > 0 {
		d.SidewayATRMult = p.SidewayATRMult
	}
	if p.SlopeBars > 0 {
		d.SlopeBars = p.SlopeBars
	}
	return d
}

// warmup is the minimum series length for a meaningful classification.
func (p Params) warmup() int {
	n := p.EMASlow
	if p.ATRPeriod+1 > n {
		n = p.ATRPeriod + 1
	}
	return n
}

// Compute classifies the trend of a candle series. Series shorter than the
// warm-up requirement fail with a descriptive error.
func Compute(candles []models.Candle, params Params) (*models.TrendFacts, error) {
	p := params.Merge()
	if len(candles) < p.warmup() {
		return nil, fmt.Errorf("trend: %w: have %d bars, need %d",
			indicators.ErrInsufficientData, len(candles), p.warmup())
	}

	closes := models.Closes(candles)
	fast, err := indicators.EMA(closes, p.EMAFast)
	if err != nil {
		return nil, fmt.Errorf("trend: fast ema: %w", err)
	}
	slow, err := indicators.EMA(closes, p.EMASlow)
	if err != nil {
		return nil, fmt.Errorf("trend: slow ema: %w", err)
	}
	atr, err := indicators.ATR(models.Highs(candles), models.Lows(candles), closes, p.ATRPeriod)
	if err != nil {
		return nil, fmt.Errorf("trend: atr: %w", err)
	}

	c := indicators.Last(closes)
	f := indicators.Last(fast)
	s := indicators.Last(slow)
	a := indicators.Last(atr)

	// Slope of the slow EMA over the last N bars, in percent.
	sPrev := s
	if len(slow) > p.SlopeBars {
		sPrev = slow[len(slow)-1-p.SlopeBars]
	}
	slopePct := 0.0
	if sPrev != 0 {
		slopePct = (s - sPrev) / sPrev * 100
	}

	dist := 0.0
	if a > 0 {
		dist = (c - s) / a
	}
	atrPct := 0.0
	if c != 0 {
		atrPct = a / c * 100
	}

	gap := f - s
	if gap < 0 {
		gap = -gap
	}
	sideway := gap < p.SidewayATRMult*a

	var dir models.Direction
	var strength float64
	switch {
	case sideway:
		dir = models.DirSideway
	case f > s:
		dir = models.DirUp
		strength = strengthFromGap(gap, a)
	default:
		dir = models.DirDown
		strength = strengthFromGap(gap, a)
	}

	return &models.TrendFacts{
		Direction:  dir,
		Strength:   util.Round(strength, 4),
		EMAFast:    util.Round(f, 4),
		EMASlow:    util.Round(s, 4),
		SlowSlope:  util.Round(slopePct, 6),
		ATRPct:     util.Round(atrPct, 4),
		DistToSlow: util.Round(dist, 4),
		IsSideway:  sideway,
	}, nil
}

func strengthFromGap(gap, atr float64) float64 {
	if atr <= 0 {
		return 0.5
	}
	s := gap / (2 * atr)
	if s > 1 {
		return 1
	}
	return s
}

// Package sr detects support and resistance from pivot fractals: pivots
// are confirmed structurally, scored by recency, wick rejection and
// oscillator agreement, clustered by ATR proximity, then role-flipped on a
// break of structure.
package sr

import (
	"fmt"
	"sort"

	"TradeAgent/internal/analysis/indicators"
	"TradeAgent/internal/domain/models"
	"TradeAgent/pkg/util"
)

// Compute returns ranked levels and zones for a single-timeframe candle
// series. Series shorter than the warm-up requirement yield an empty
// result rather than an error.
func Compute(candles []models.Candle, params Params) (*models.SRFacts, error) {
	p := params.Merge()
	total := len(candles)
	if total < p.minBars() {
		return &models.SRFacts{Levels: []models.Level{}, Zones: []models.Zone{}}, nil
	}

	closes := models.Closes(candles)
	highs := models.Highs(candles)
	lows := models.Lows(candles)

	atrSeries, err := indicators.ATR(highs, lows, closes, p.ATRPeriod)
	if err != nil {
		return nil, fmt.Errorf("sr: atr: %w", err)
	}
	atrVal := indicators.Last(atrSeries)
	width := p.ClusterTol * atrVal

	osc, err := buildOscState(closes, p)
	if err != nil {
		return nil, fmt.Errorf("sr: oscillator: %w", err)
	}

	highPivots := pivotHighs(highs, p.FractalN)
	lowPivots := pivotLows(lows, p.FractalN)
	markStructural(highPivots, lowPivots, highs, lows, p.ConfirmBars)

	// Pivot highs seed resistance, pivot lows seed support. Role changes
	// only through the break-of-structure pass below.
	scored := make([]scoredPivot, 0, len(highPivots)+len(lowPivots))
	for _, pv := range highPivots {
		scored = append(scored, scorePivot(pv, models.KindResistance, candles, total, osc, p))
	}
	for _, pv := range lowPivots {
		scored = append(scored, scorePivot(pv, models.KindSupport, candles, total, osc, p))
	}
	if len(scored) == 0 {
		return &models.SRFacts{Levels: []models.Level{}, Zones: []models.Zone{}}, nil
	}

	arena := clusterPivots(scored, width)
	applyBOSFlips(arena, closes)

	sort.SliceStable(arena, func(i, j int) bool { return arena[i].score > arena[j].score })
	if len(arena) > p.MaxLevels {
		arena = arena[:p.MaxLevels]
	}

	band := width
	if min := atrVal * 0.1; band < min {
		band = min
	}

	levels := make([]models.Level, 0, len(arena))
	zones := make([]models.Zone, 0, len(arena))
	for _, cl := range arena {
		barIdx := cl.lastBar
		if barIdx > total-1 {
			barIdx = total - 1
		}
		score := util.Round(cl.score, 4)
		levels = append(levels, models.Level{
			Price:       util.Round(cl.price, 2),
			Kind:        cl.kind,
			Score:       score,
			Touches:     cl.touches,
			LastTouched: candles[barIdx].OpenTime,
			Structural:  cl.structural,
			Flipped:     cl.flipped,
		})
		zones = append(zones, models.Zone{
			Kind:  cl.kind,
			Low:   util.Round(cl.price-band/2, 2),
			High:  util.Round(cl.price+band/2, 2),
			Score: score,
		})
	}

	return &models.SRFacts{Levels: levels, Zones: zones}, nil
}

func scorePivot(pv pivot, kind models.LevelKind, candles []models.Candle, total int, osc *oscState, p Params) scoredPivot {
	s := recencyWeight(pv.bar, total, p.RecencyHalf)
	s += wickRejectionScore(candles[pv.bar], kind, p.WickThreshold, p.WickBonus)
	s += osc.bonusAt(pv.bar, kind, p.OscWeight)
	if pv.structural {
		s *= structuralMult
	}
	return scoredPivot{
		bar:        pv.bar,
		price:      pv.price,
		kind:       kind,
		score:      s,
		structural: pv.structural,
	}
}

func buildOscState(closes []float64, p Params) (*oscState, error) {
	rsi, err := indicators.RSI(closes, p.OscRSIPeriod)
	if err != nil {
		return nil, err
	}
	fast, err := indicators.EMA(rsi, p.OscFastPeriod)
	if err != nil {
		return nil, err
	}
	slow, err := indicators.WMA(rsi, p.OscSlowPeriod)
	if err != nil {
		return nil, err
	}
	return &oscState{
		rsi:           rsi,
		fast:          fast,
		slow:          slow,
		supportMax:    45,
		resistanceMin: 55,
		margin:        p.OscMargin,
	}, nil
}

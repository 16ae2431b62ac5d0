// Package payload assembles per-timeframe trend and S/R facts into the
// single snapshot downstream consumers read: regime, bias chain, merged
// key levels and invalidation prices.
package payload

import (
	"sort"
	"time"

	"TradeAgent/internal/analysis/bias"
	"TradeAgent/internal/domain/models"
	"TradeAgent/pkg/util"
)

// macroWeight boosts level scores from the slow timeframes during the
// cross-timeframe merge.
var macroWeight = map[string]float64{
	"1w": 2.5,
	"1M": 2.5,
	"1d": 2.0,
}

// mergeOrder fixes the iteration order so the merge is deterministic.
var mergeOrder = []string{"1w", "1M", "1d", "4h", "1h", "15m"}

// priceOrder is the preference order for deriving the current price
// approximation from the most granular trend available.
var priceOrder = []string{"15m", "1h", "4h", "1d", "1w"}

const (
	maxKeyLevels = 5
	dedupPct     = 0.01
)

// Build combines per-timeframe facts into one payload.
func Build(symbol string, asOf time.Time, perTF map[string]models.TFFacts) *models.FactsPayload {
	currentPrice := currentPriceApprox(perTF)

	trends := make(map[string]models.TrendSummary)
	for _, tf := range mergeOrder {
		facts, ok := perTF[tf]
		if !ok || facts.Trend == nil {
			continue
		}
		t := facts.Trend
		trends[tf] = models.TrendSummary{
			Dir:      t.Direction,
			Strength: t.Strength,
			ATRPct:   t.ATRPct,
			Sideway:  t.IsSideway,
		}
	}

	keyLevels := mergeLevels(perTF, maxKeyLevels)

	return &models.FactsPayload{
		Symbol:       symbol,
		AsOf:         asOf,
		Regime:       classifyRegime(perTF),
		BiasChain:    bias.ComputeChain(perTF),
		Trends:       trends,
		KeyLevels:    keyLevels,
		Invalidation: invalidation(keyLevels, currentPrice),
		Timeframes:   perTF,
	}
}

// classifyRegime reads the daily then 4h trend; the first decisive one
// names the regime.
func classifyRegime(perTF map[string]models.TFFacts) models.Regime {
	for _, tf := range []string{"1d", "4h"} {
		facts, ok := perTF[tf]
		if !ok || facts.Trend == nil || facts.Trend.IsSideway {
			continue
		}
		switch facts.Trend.Direction {
		case models.DirUp:
			return models.RegimeUptrend
		case models.DirDown:
			return models.RegimeDowntrend
		}
	}
	return models.RegimeRanging
}

func currentPriceApprox(perTF map[string]models.TFFacts) float64 {
	for _, tf := range priceOrder {
		if facts, ok := perTF[tf]; ok && facts.Trend != nil && facts.Trend.EMAFast > 0 {
			return facts.Trend.EMAFast
		}
	}
	return 0
}

// mergeLevels flattens per-timeframe levels with macro weighting, sorts by
// weighted score and dedups within 1% price proximity, keeping the best.
func mergeLevels(perTF map[string]models.TFFacts, max int) []models.KeyLevel {
	var all []models.KeyLevel
	for _, tf := range mergeOrder {
		facts, ok := perTF[tf]
		if !ok || facts.SR == nil {
			continue
		}
		weight, ok := macroWeight[tf]
		if !ok {
			weight = 1.0
		}
		for _, lv := range facts.SR.Levels {
			all = append(all, models.KeyLevel{
				Price:    lv.Price,
				Kind:     lv.Kind,
				Score:    util.Round(lv.Score*weight, 4),
				Touches:  lv.Touches,
				SourceTF: tf,
			})
		}
	}

	sort.SliceStable(all, func(i, j int) bool { return all[i].Score > all[j].Score })

	merged := make([]models.KeyLevel, 0, max)
	for _, lv := range all {
		tooClose := false
		for _, m := range merged {
			ref := m.Price
			if ref < 1 {
				ref = 1
			}
			if abs(lv.Price-m.Price)/ref < dedupPct {
				tooClose = true
				break
			}
		}
		if !tooClose {
			merged = append(merged, lv)
		}
		if len(merged) >= max {
			break
		}
	}
	return merged
}

// invalidation picks the nearest resistance above and support below the
// current price.
func invalidation(levels []models.KeyLevel, price float64) models.Invalidation {
	var inv models.Invalidation
	if price <= 0 {
		return inv
	}
	for _, lv := range levels {
		switch {
		case lv.Kind == models.KindResistance && lv.Price > price:
			if inv.BullAbove == 0 || lv.Price < inv.BullAbove {
				inv.BullAbove = lv.Price
			}
		case lv.Kind == models.KindSupport && lv.Price < price:
			if inv.BearBelow == 0 || lv.Price > inv.BearBelow {
				inv.BearBelow = lv.Price
			}
		}
	}
	return inv
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

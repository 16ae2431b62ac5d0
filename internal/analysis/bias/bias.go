// Package bias derives per-entry-timeframe directional bias from a higher
// timeframe's trend, with a macro override from the weekly/monthly view.
package bias

import (
	"TradeAgent/internal/domain/models"
)

// EntryMap maps each entry timeframe to the timeframe that supplies its
// directional bias.
var EntryMap = map[string]string{
	"15m": "1h",
	"1h":  "4h",
	"4h":  "1d",
}

// MacroTFs provide macro context; the first one with a strong non-sideway
// trend wins.
var MacroTFs = []string{"1w", "1M"}

// macroMinStrength is the trend strength a macro timeframe needs before it
// can override a neutral bias.
const macroMinStrength = 0.2

func trendToBias(t *models.TrendFacts) models.Bias {
	if t == nil {
		return models.BiasNeutral
	}
	switch t.Direction {
	case models.DirUp:
		return models.BiasLong
	case models.DirDown:
		return models.BiasShort
	default:
		return models.BiasNeutral
	}
}

func macroBias(perTF map[string]models.TFFacts) models.Bias {
	for _, tf := range MacroTFs {
		facts, ok := perTF[tf]
		if !ok || facts.Trend == nil {
			continue
		}
		t := facts.Trend
		if !t.IsSideway && t.Strength > macroMinStrength {
			return trendToBias(t)
		}
	}
	return models.BiasNeutral
}

// ComputeChain builds the bias chain for every entry timeframe.
// Confidence is high when bias and macro agree or macro is silent, medium
// when the macro supplies direction to a neutral bias, low on conflict.
func ComputeChain(perTF map[string]models.TFFacts) map[string]models.BiasEntry {
	macro := macroBias(perTF)
	chain := make(map[string]models.BiasEntry, len(EntryMap))

	for entryTF, biasTF := range EntryMap {
		var b models.Bias = models.BiasNeutral
		if facts, ok := perTF[biasTF]; ok {
			b = trendToBias(facts.Trend)
		}

		effective := b
		if b == models.BiasNeutral && macro != models.BiasNeutral {
			effective = macro
		}

		var conf models.Confidence
		switch {
		case b == macro || macro == models.BiasNeutral:
			conf = models.ConfidenceHigh
		case b == models.BiasNeutral:
			conf = models.ConfidenceMedium
		default:
			conf = models.ConfidenceLow
		}

		chain[entryTF] = models.BiasEntry{
			Bias:       effective,
			FromTF:     biasTF,
			Macro:      macro,
			Confidence: conf,
		}
	}
	return chain
}

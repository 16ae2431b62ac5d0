package plan

import (
	"fmt"
	"sort"
	"strings"

	"TradeAgent/internal/domain/models"
)

// Explain generates the human-readable evidence lines for a plan so
// downstream consumers can see why it was produced.
func Explain(facts *models.FactsPayload, p *models.Plan) []string {
	var lines []string

	lines = append(lines, fmt.Sprintf("REGIME: Market is in %s mode", p.Regime))

	for _, tf := range []string{"1w", "1d", "4h", "1h"} {
		t, ok := facts.Trends[tf]
		if !ok {
			continue
		}
		lines = append(lines, fmt.Sprintf("  %s: %s (strength=%.2f, ATR%%=%.1f%%)",
			tf, t.Dir, t.Strength, t.ATRPct))
	}

	if len(p.BiasChain) > 0 {
		var parts []string
		for _, tf := range []string{"15m", "1h", "4h"} {
			if e, ok := p.BiasChain[tf]; ok {
				parts = append(parts, fmt.Sprintf("%s:%s(%s)", tf, e.Bias, e.FromTF))
			}
		}
		if len(parts) > 0 {
			lines = append(lines, "BIAS CHAIN: "+strings.Join(parts, " | "))
		}
	}

	switch p.PrimaryBias {
	case models.BiasLong:
		lines = append(lines, "DIRECTION: Long bias, higher TF trending up, looking for pullback to support")
	case models.BiasShort:
		lines = append(lines, "DIRECTION: Short bias, higher TF trending down, looking for rally to resistance")
	default:
		lines = append(lines, "DIRECTION: Neutral, no clear directional edge")
	}

	lines = append(lines, levelLines(facts.KeyLevels, models.KindSupport, "SUPPORT")...)
	lines = append(lines, levelLines(facts.KeyLevels, models.KindResistance, "RESISTANCE")...)

	for _, e := range p.EntryRules {
		lines = append(lines, fmt.Sprintf("ENTRY: %s (%s)", e.Trigger, e.Condition))
	}

	lines = append(lines, fmt.Sprintf("STOP: %.2f (%s, distance=%.2f)",
		p.Stop.Price, p.Stop.Method, p.Stop.Distance))

	for _, t := range p.Targets {
		lines = append(lines, fmt.Sprintf("TARGET TP%d: %.2f (R:R=%.1f, from %s)",
			t.TP, t.Price, t.RR, t.SourceTF))
	}

	for _, nt := range p.NoTrade {
		lines = append(lines, "WARNING: "+nt)
	}

	return lines
}

func levelLines(levels []models.KeyLevel, kind models.LevelKind, label string) []string {
	var picked []models.KeyLevel
	for _, lv := range levels {
		if lv.Kind == kind {
			picked = append(picked, lv)
		}
	}
	if len(picked) == 0 {
		return nil
	}
	sort.SliceStable(picked, func(i, j int) bool { return picked[i].Score > picked[j].Score })
	if len(picked) > 2 {
		picked = picked[:2]
	}
	parts := make([]string, 0, len(picked))
	for _, lv := range picked {
		parts = append(parts, fmt.Sprintf("%.0f (score=%.1f, src=%s)", lv.Price, lv.Score, lv.SourceTF))
	}
	return []string{label + ": " + strings.Join(parts, ", ")}
}

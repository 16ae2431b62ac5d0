// Package plan turns a facts payload into an actionable trade plan:
// scenarios, zone-anchored entries, an ATR stop, ranked targets and a
// 0-100 evidence score with no-trade gating.
package plan

import (
	"fmt"
	"sort"

	"TradeAgent/internal/domain/models"
	"TradeAgent/pkg/util"
)

// RiskParams tunes the plan builder. Zero fields fall back to defaults.
type RiskParams struct {
	ATRStopMult  float64 `yaml:"atr_stop_mult" default:"1.5"`
	MinRR        float64 `yaml:"min_rr" default:"2"`
	TimeStopBars int     `yaml:"time_stop_bars" default:"20"`
	MaxATRPct    float64 `yaml:"max_atr_pct" default:"8"`
	MinATRPct    float64 `yaml:"min_atr_pct" default:"0.3"`
}

// DefaultRiskParams returns the documented defaults.
func DefaultRiskParams() RiskParams {
	return RiskParams{ATRStopMult: 1.5, MinRR: 2.0, TimeStopBars: 20, MaxATRPct: 8.0, MinATRPct: 0.3}
}

// Merge overlays non-zero fields of p onto the defaults.
func (p RiskParams) Merge() RiskParams {
	d := DefaultRiskParams()
	if p.ATRStopMult > 0 {
		d.ATRStopMult = p.ATRStopMult
	}
	if p.MinRR > 0 {
		d.MinRR = p.MinRR
	}
	if p.TimeStopBars > 0 {
		d.TimeStopBars = p.TimeStopBars
	}
	if p.MaxATRPct > 0 {
		d.MaxATRPct = p.MaxATRPct
	}
	if p.MinATRPct > 0 {
		d.MinATRPct = p.MinATRPct
	}
	return d
}

// ErrNoPrice means the payload carried no usable price approximation.
var ErrNoPrice = fmt.Errorf("cannot determine current price from facts")

// priceOrder prefers the most granular trend for the price approximation.
var priceOrder = []string{"15m", "1h", "4h", "1d"}

// Build derives a plan from a facts payload. Pure: identical inputs yield
// identical plans.
func Build(facts *models.FactsPayload, riskParams RiskParams) (*models.Plan, error) {
	rp := riskParams.Merge()

	price := currentPrice(facts)
	if price <= 0 {
		return nil, ErrNoPrice
	}

	atrPct4h := atrPct(facts, "4h")
	atrAbs := price * atrPct4h / 100

	supports := sortedLevels(facts, models.KindSupport)
	resistances := sortedLevels(facts, models.KindResistance)

	primaryBias := models.BiasNeutral
	if e, ok := facts.BiasChain["1h"]; ok {
		primaryBias = e.Bias
	}

	scenarios := buildScenarios(facts, price, supports, resistances)
	entryRules := buildEntryRules(primaryBias, supports, resistances)
	stop := buildStop(primaryBias, price, atrAbs, rp, supports, resistances)
	targets := buildTargets(primaryBias, price, stop.Price, supports, resistances)
	noTrade := noTradeReasons(atrPct4h, facts.Regime, primaryBias, rp)
	score := computeScore(facts.BiasChain, primaryBias, entryRules, targets, atrPct4h, rp, noTrade)

	p := &models.Plan{
		Symbol:       facts.Symbol,
		AsOf:         facts.AsOf,
		CurrentPrice: util.Round(price, 2),
		Regime:       facts.Regime,
		PrimaryBias:  primaryBias,
		BiasChain:    facts.BiasChain,
		Scenarios:    scenarios,
		EntryRules:   entryRules,
		Stop:         stop,
		Targets:      targets,
		Invalidation: facts.Invalidation,
		NoTrade:      noTrade,
		Score:        score,
		NoTradeFlag:  score < 30,
	}
	p.Evidence = Explain(facts, p)
	return p, nil
}

func currentPrice(facts *models.FactsPayload) float64 {
	for _, tf := range priceOrder {
		if f, ok := facts.Timeframes[tf]; ok && f.Trend != nil && f.Trend.EMAFast > 0 {
			return f.Trend.EMAFast
		}
	}
	return 0
}

func atrPct(facts *models.FactsPayload, tf string) float64 {
	if f, ok := facts.Timeframes[tf]; ok && f.Trend != nil {
		return f.Trend.ATRPct
	}
	return 2.0
}

// sortedLevels returns key levels of one kind ordered by proximity:
// supports descending (nearest below first), resistances ascending.
func sortedLevels(facts *models.FactsPayload, kind models.LevelKind) []models.KeyLevel {
	var out []models.KeyLevel
	for _, lv := range facts.KeyLevels {
		if lv.Kind == kind {
			out = append(out, lv)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if kind == models.KindResistance {
			return out[i].Price < out[j].Price
		}
		return out[i].Price > out[j].Price
	})
	return out
}

func buildScenarios(facts *models.FactsPayload, price float64, supports, resistances []models.KeyLevel) map[string]models.Scenario {
	bullTarget := price * 1.05
	if len(resistances) > 0 {
		bullTarget = resistances[0].Price
	}
	bearTarget := price * 0.95
	if len(supports) > 0 {
		bearTarget = supports[0].Price
	}

	bullProb, bearProb := models.ProbLow, models.ProbLow
	baseProb := models.ProbMedium
	switch facts.Regime {
	case models.RegimeUptrend:
		bullProb = models.ProbMedium
	case models.RegimeDowntrend:
		bearProb = models.ProbMedium
	case models.RegimeRanging:
		baseProb = models.ProbHigh
	}

	return map[string]models.Scenario{
		"bull": {
			Condition:   fmt.Sprintf("Break above %s", fmtLevel(facts.Invalidation.BullAbove)),
			Target:      util.Round(bullTarget, 2),
			Probability: bullProb,
		},
		"base": {
			Condition:   "Range between key S/R zones",
			Target:      util.Round(price, 2),
			Probability: baseProb,
		},
		"bear": {
			Condition:   fmt.Sprintf("Break below %s", fmtLevel(facts.Invalidation.BearBelow)),
			Target:      util.Round(bearTarget, 2),
			Probability: bearProb,
		},
	}
}

func fmtLevel(price float64) string {
	if price <= 0 {
		return "?"
	}
	return fmt.Sprintf("%.2f", price)
}

func buildEntryRules(primaryBias models.Bias, supports, resistances []models.KeyLevel) []models.EntryRule {
	switch {
	case primaryBias == models.BiasLong && len(supports) > 0:
		zone := supports[0]
		return []models.EntryRule{{
			Type:      models.EntryLong,
			Trigger:   fmt.Sprintf("Pullback to support zone %.2f", zone.Price),
			Zone:      &zone,
			Condition: "Trend up on bias TF + wick rejection at zone",
		}}
	case primaryBias == models.BiasShort && len(resistances) > 0:
		zone := resistances[0]
		return []models.EntryRule{{
			Type:      models.EntryShort,
			Trigger:   fmt.Sprintf("Rally to resistance zone %.2f", zone.Price),
			Zone:      &zone,
			Condition: "Trend down on bias TF + rejection at zone",
		}}
	default:
		return []models.EntryRule{{
			Type:      models.EntryWait,
			Trigger:   "No clear bias, wait for trend alignment",
			Condition: "Bias chain neutral or conflicting",
		}}
	}
}

func buildStop(primaryBias models.Bias, price, atrAbs float64, rp RiskParams, supports, resistances []models.KeyLevel) models.Stop {
	distance := util.Round(atrAbs*rp.ATRStopMult, 2)
	var stopPrice float64
	switch {
	case primaryBias == models.BiasLong && len(supports) > 0:
		stopPrice = supports[0].Price - distance
	case primaryBias == models.BiasShort && len(resistances) > 0:
		stopPrice = resistances[0].Price + distance
	default:
		stopPrice = price - distance
	}
	return models.Stop{
		Price:    util.Round(stopPrice, 2),
		Distance: distance,
		Method:   fmt.Sprintf("%.1fx ATR(4h)", rp.ATRStopMult),
	}
}

// buildTargets annotates up to three opposing levels with reward:risk
// against the stop distance.
func buildTargets(primaryBias models.Bias, price, stopPrice float64, supports, resistances []models.KeyLevel) []models.Target {
	risk := abs(price - stopPrice)
	if risk < 1 {
		risk = 1
	}

	var pool []models.KeyLevel
	switch primaryBias {
	case models.BiasLong:
		pool = resistances
	case models.BiasShort:
		pool = supports
	default:
		return nil
	}
	if len(pool) > 3 {
		pool = pool[:3]
	}

	targets := make([]models.Target, 0, len(pool))
	for i, lv := range pool {
		targets = append(targets, models.Target{
			TP:       i + 1,
			Price:    util.Round(lv.Price, 2),
			RR:       util.Round(abs(lv.Price-price)/risk, 2),
			SourceTF: lv.SourceTF,
		})
	}
	return targets
}

func noTradeReasons(atrPct4h float64, regime models.Regime, primaryBias models.Bias, rp RiskParams) []string {
	var out []string
	if atrPct4h > rp.MaxATRPct {
		out = append(out, fmt.Sprintf("ATR%% too high (%.1f%% > %.1f%%), extreme volatility", atrPct4h, rp.MaxATRPct))
	}
	if atrPct4h < rp.MinATRPct {
		out = append(out, fmt.Sprintf("ATR%% too low (%.1f%% < %.1f%%), no movement", atrPct4h, rp.MinATRPct))
	}
	if regime == models.RegimeRanging {
		out = append(out, "Market ranging, only take highest-conviction setups")
	}
	if primaryBias == models.BiasNeutral {
		out = append(out, "Bias chain neutral, no directional edge")
	}
	return out
}

// computeScore sums the evidence buckets: bias alignment up to 30, a
// zone-backed entry 25, a qualifying reward:risk target 20, volatility in
// the sweet spot 15, minus 10 per no-trade reason, clamped to [0,100].
func computeScore(chain map[string]models.BiasEntry, primaryBias models.Bias, entryRules []models.EntryRule, targets []models.Target, atrPct4h float64, rp RiskParams, noTrade []string) int {
	pts := 0

	highCount := 0
	for _, e := range chain {
		if e.Confidence == models.ConfidenceHigh {
			highCount++
		}
	}
	if primaryBias != models.BiasNeutral {
		switch {
		case highCount >= 2:
			pts += 30
		case highCount >= 1:
			pts += 20
		default:
			pts += 10
		}
	}

	if len(entryRules) > 0 {
		switch {
		case entryRules[0].Zone != nil:
			pts += 25
		case entryRules[0].Type != models.EntryWait:
			pts += 10
		}
	}

	good := false
	for _, t := range targets {
		if t.RR >= rp.MinRR {
			good = true
			break
		}
	}
	switch {
	case good:
		pts += 20
	case len(targets) > 0:
		pts += 10
	}

	switch {
	case atrPct4h >= 1.0 && atrPct4h <= 5.0:
		pts += 15
	case atrPct4h >= 0.5 && atrPct4h <= 8.0:
		pts += 8
	}

	pts -= len(noTrade) * 10
	return util.ClampInt(pts, 0, 100)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

package bias

import (
	"testing"

	"TradeAgent/internal/domain/models"
)

func tf(dir models.Direction, strength float64, sideway bool) models.TFFacts {
	return models.TFFacts{Trend: &models.TrendFacts{
		Direction: dir,
		Strength:  strength,
		IsSideway: sideway,
	}}
}

func TestBiasFollowsHigherTimeframe(t *testing.T) {
	perTF := map[string]models.TFFacts{
		"4h": tf(models.DirUp, 0.8, false),
		"1d": tf(models.DirDown, 0.6, false),
	}
	chain := ComputeChain(perTF)

	if chain["1h"].Bias != models.BiasLong {
		t.Fatalf("1h should take long bias from 4h, got %s", chain["1h"].Bias)
	}
	if chain["1h"].FromTF != "4h" {
		t.Fatalf("unexpected from_tf %s", chain["1h"].FromTF)
	}
	if chain["4h"].Bias != models.BiasShort {
		t.Fatalf("4h should take short bias from 1d, got %s", chain["4h"].Bias)
	}
}

func TestMacroOverridesNeutral(t *testing.T) {
	perTF := map[string]models.TFFacts{
		"4h": tf(models.DirSideway, 0, true),
		"1w": tf(models.DirUp, 0.5, false),
	}
	chain := ComputeChain(perTF)

	e := chain["1h"]
	if e.Bias != models.BiasLong {
		t.Fatalf("neutral bias should adopt strong macro, got %s", e.Bias)
	}
	if e.Macro != models.BiasLong {
		t.Fatalf("expected long macro, got %s", e.Macro)
	}
	if e.Confidence != models.ConfidenceMedium {
		t.Fatalf("macro-supplied direction should be medium confidence, got %s", e.Confidence)
	}
}

func TestWeakMacroDoesNotOverride(t *testing.T) {
	perTF := map[string]models.TFFacts{
		"4h": tf(models.DirSideway, 0, true),
		"1w": tf(models.DirUp, 0.1, false),
	}
	chain := ComputeChain(perTF)
	if chain["1h"].Bias != models.BiasNeutral {
		t.Fatalf("weak macro must not override, got %s", chain["1h"].Bias)
	}
	if chain["1h"].Confidence != models.ConfidenceHigh {
		t.Fatalf("silent macro should leave high confidence, got %s", chain["1h"].Confidence)
	}
}

func TestConflictLowersConfidence(t *testing.T) {
	perTF := map[string]models.TFFacts{
		"4h": tf(models.DirUp, 0.8, false),
		"1w": tf(models.DirDown, 0.9, false),
	}
	chain := ComputeChain(perTF)
	e := chain["1h"]
	if e.Bias != models.BiasLong {
		t.Fatalf("direct bias should win over macro, got %s", e.Bias)
	}
	if e.Confidence != models.ConfidenceLow {
		t.Fatalf("conflicting macro should be low confidence, got %s", e.Confidence)
	}
}

func TestMissingTimeframesAreNeutral(t *testing.T) {
	chain := ComputeChain(map[string]models.TFFacts{})
	for entryTF, e := range chain {
		if e.Bias != models.BiasNeutral {
			t.Fatalf("%s: expected neutral with no data, got %s", entryTF, e.Bias)
		}
	}
	if len(chain) != len(EntryMap) {
		t.Fatalf("chain should cover every entry timeframe")
	}
}

package quality

import (
	"strings"
	"testing"
	"time"

	"TradeAgent/internal/domain/models"
	"TradeAgent/internal/domain/repository"
)

func hourlyCandles(n int, skip map[int]bool) []models.Candle {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]models.Candle, 0, n)
	for i := 0; i < n; i++ {
		if skip[i] {
			continue
		}
		out = append(out, models.Candle{
			OpenTime: base.Add(time.Duration(i) * time.Hour),
			Open:     100, High: 101, Low: 99, Close: 100, Volume: 1,
		})
	}
	return out
}

func TestValidateCleanSeries(t *testing.T) {
	r := Validate(hourlyCandles(48, nil), "BTCUSDT", repository.TF1h, 5)
	if r.Total != 48 || r.Expected != 48 {
		t.Fatalf("total=%d expected=%d", r.Total, r.Expected)
	}
	if r.Score != 1.0 {
		t.Fatalf("score = %g, want 1.0", r.Score)
	}
	if !r.IsOK(0.95) {
		t.Fatal("clean series should be OK")
	}
	if len(r.Gaps) != 0 || r.Dupes != 0 {
		t.Fatalf("gaps=%d dupes=%d", len(r.Gaps), r.Dupes)
	}
}

func TestValidateDetectsGap(t *testing.T) {
	// Remove 10 consecutive hourly bars.
	skip := map[int]bool{}
	for i := 20; i < 30; i++ {
		skip[i] = true
	}
	r := Validate(hourlyCandles(100, skip), "BTCUSDT", repository.TF1h, 5)
	if len(r.Gaps) != 1 {
		t.Fatalf("gaps = %d, want 1", len(r.Gaps))
	}
	if r.Gaps[0].Missing != 10 {
		t.Fatalf("missing = %d, want 10", r.Gaps[0].Missing)
	}
	if r.Score >= 1.0 {
		t.Fatalf("score = %g, want < 1", r.Score)
	}
	if r.Expected != 100 {
		t.Fatalf("expected = %d, want 100", r.Expected)
	}
}

func TestValidateSmallGapBelowThreshold(t *testing.T) {
	skip := map[int]bool{10: true, 11: true}
	r := Validate(hourlyCandles(50, skip), "BTCUSDT", repository.TF1h, 5)
	if len(r.Gaps) != 0 {
		t.Fatalf("gaps = %d, want 0 below threshold", len(r.Gaps))
	}
	if r.Score >= 1.0 {
		t.Fatalf("score = %g, want < 1 with missing bars", r.Score)
	}
}

func TestValidateCountsDuplicates(t *testing.T) {
	candles := hourlyCandles(10, nil)
	candles = append(candles[:5], append([]models.Candle{candles[4]}, candles[5:]...)...)
	r := Validate(candles, "BTCUSDT", repository.TF1h, 5)
	if r.Dupes != 1 {
		t.Fatalf("dupes = %d, want 1", r.Dupes)
	}
	if r.Score != 1.0 {
		t.Fatalf("score = %g, duplicates should not lower coverage", r.Score)
	}
}

func TestValidateFlagsBadRows(t *testing.T) {
	candles := hourlyCandles(10, nil)
	candles[3].High = candles[3].Low - 1 // high below low
	r := Validate(candles, "BTCUSDT", repository.TF1h, 5)
	if len(r.RowErrors) != 1 {
		t.Fatalf("row errors = %d, want 1", len(r.RowErrors))
	}
	if !strings.Contains(r.RowErrors[0], "row 3") {
		t.Fatalf("row error should name the row: %q", r.RowErrors[0])
	}
	if r.IsOK(0.5) {
		t.Fatal("series with row errors must not be OK")
	}
}

func TestValidateEmptySeries(t *testing.T) {
	r := Validate(nil, "BTCUSDT", repository.TF1h, 5)
	if r.Score != 0 || r.Total != 0 {
		t.Fatalf("empty series: score=%g total=%d", r.Score, r.Total)
	}
	if r.IsOK(0.95) {
		t.Fatal("empty series must not be OK")
	}
}

func TestSummaryMentionsKeyFacts(t *testing.T) {
	r := Validate(hourlyCandles(48, nil), "BTCUSDT", repository.TF1h, 5)
	s := r.Summary()
	for _, want := range []string{"BTCUSDT", "1h", "48 / 48", "OK"} {
		if !strings.Contains(s, want) {
			t.Fatalf("summary missing %q:\n%s", want, s)
		}
	}
}

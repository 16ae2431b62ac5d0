package quality

import (
	"fmt"
	"strings"
	"time"

	"TradeAgent/internal/domain/models"
	"TradeAgent/internal/domain/repository"
)

// Gap is a hole in a candle series larger than the reporting threshold.
type Gap struct {
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
	Missing int       `json:"missing"`
}

// Report describes the completeness of a candle series.
type Report struct {
	Symbol    string   `json:"symbol"`
	TF        string   `json:"tf"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Total     int      `json:"total_candles"`
	Expected  int      `json:"expected_candles"`
	Dupes     int      `json:"duplicate_count"`
	Gaps      []Gap    `json:"gaps,omitempty"`
	RowErrors []string `json:"row_errors,omitempty"`
	Score     float64  `json:"quality_score"`
}

// IsOK reports whether the series is usable for analysis.
func (r *Report) IsOK(minScore float64) bool {
	return r.Score >= minScore && len(r.RowErrors) == 0
}

// Summary renders a human-readable report.
func (r *Report) Summary() string {
	missing := 0
	for _, g := range r.Gaps {
		missing += g.Missing
	}
	status := "OK"
	if !r.IsOK(0.95) {
		status = "ISSUES FOUND"
	}
	lines := []string{
		fmt.Sprintf("Symbol   : %s  Interval: %s", r.Symbol, r.TF),
		fmt.Sprintf("Period   : %s -> %s", r.Start.Format("2006-01-02"), r.End.Format("2006-01-02")),
		fmt.Sprintf("Candles  : %d / %d expected", r.Total, r.Expected),
		fmt.Sprintf("Gaps     : %d (%d missing candles)", len(r.Gaps), missing),
		fmt.Sprintf("Dupes    : %d", r.Dupes),
		fmt.Sprintf("Score    : %.3f  %s", r.Score, status),
	}
	if len(r.RowErrors) > 0 {
		lines = append(lines, "Row errors: "+strings.Join(r.RowErrors, "; "))
	}
	for i, g := range r.Gaps {
		if i == 5 {
			lines = append(lines, fmt.Sprintf("  ... and %d more gaps", len(r.Gaps)-5))
			break
		}
		lines = append(lines, fmt.Sprintf("  Gap: %s -> %s (%d candles)",
			g.Start.Format(time.RFC3339), g.End.Format(time.RFC3339), g.Missing))
	}
	return strings.Join(lines, "\n")
}

const maxRowErrors = 10

// Validate checks a candle series for per-row OHLCV violations,
// duplicates, gaps larger than gapThreshold bars, and overall coverage.
// Candles are expected sorted ascending by open time; the score is the
// fraction of expected bars present, ignoring duplicates.
func Validate(candles []models.Candle, symbol string, tf repository.Timeframe, gapThreshold int) *Report {
	r := &Report{Symbol: symbol, TF: string(tf)}
	if len(candles) == 0 {
		now := time.Now().UTC()
		r.Start, r.End = now, now
		return r
	}

	interval := tf.Duration()
	r.Start = candles[0].OpenTime
	r.End = candles[len(candles)-1].OpenTime
	r.Total = len(candles)

	for i, c := range candles {
		if err := c.Validate(); err != nil {
			if len(r.RowErrors) < maxRowErrors {
				r.RowErrors = append(r.RowErrors, fmt.Sprintf("row %d: %v", i, err))
			}
		}
	}

	for i := 1; i < len(candles); i++ {
		d := candles[i].OpenTime.Sub(candles[i-1].OpenTime)
		if d == 0 {
			r.Dupes++
			continue
		}
		missing := int(d/interval) - 1
		if missing > gapThreshold {
			r.Gaps = append(r.Gaps, Gap{
				Start:   candles[i-1].OpenTime,
				End:     candles[i].OpenTime,
				Missing: missing,
			})
		}
	}

	span := r.End.Sub(r.Start)
	r.Expected = int(span/interval) + 1
	unique := r.Total - r.Dupes
	if r.Expected > 0 {
		score := float64(unique) / float64(r.Expected)
		if score > 1 {
			score = 1
		}
		r.Score = score
	}
	return r
}

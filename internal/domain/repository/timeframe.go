package repository

import "time"

// Timeframe represents candle resolution buckets.
type Timeframe string

const (
	TF15m Timeframe = "15m"
	TF1h  Timeframe = "1h"
	TF4h  Timeframe = "4h"
	TF1d  Timeframe = "1d"
	TF1w  Timeframe = "1w"
	TF1M  Timeframe = "1M"
)

// AllTimeframes lists supported timeframes from finest to coarsest.
var AllTimeframes = []Timeframe{TF15m, TF1h, TF4h, TF1d, TF1w, TF1M}

// IsValidTimeframe returns true if tf is a supported timeframe.
func IsValidTimeframe(tf Timeframe) bool {
	switch tf {
	case TF15m, TF1h, TF4h, TF1d, TF1w, TF1M:
		return true
	default:
		return false
	}
}

// DefaultTimeframe returns the default timeframe.
func DefaultTimeframe() Timeframe { return TF1h }

// NormalizeTimeframe converts raw string to a valid timeframe (or default).
func NormalizeTimeframe(s string) Timeframe {
	if s == "" {
		return DefaultTimeframe()
	}
	tf := Timeframe(s)
	if IsValidTimeframe(tf) {
		return tf
	}
	return DefaultTimeframe()
}

// Duration returns the nominal bar duration. Months use 30 days.
func (tf Timeframe) Duration() time.Duration {
	switch tf {
	case TF15m:
		return 15 * time.Minute
	case TF1h:
		return time.Hour
	case TF4h:
		return 4 * time.Hour
	case TF1d:
		return 24 * time.Hour
	case TF1w:
		return 7 * 24 * time.Hour
	case TF1M:
		return 30 * 24 * time.Hour
	default:
		return time.Hour
	}
}

// BarsPerYear returns how many bars of this timeframe fit in a year,
// used to annualize per-bar return statistics. Crypto trades around
// the clock so a year is 365 full days.
func (tf Timeframe) BarsPerYear() float64 {
	const yearHours = 365 * 24
	return yearHours / tf.Duration().Hours()
}

// Package indicators provides the moving-average, range and oscillator
// primitives every analysis layer builds on. Calculations are delegated to
// go-talib; the wrappers add warm-up validation and backfill the lookback
// region so downstream code never sees uninitialized zeros.
package indicators

import (
	"fmt"

	talib "github.com/markcheno/go-talib"
)

// ErrInsufficientData is wrapped by every indicator when the series is
// shorter than the warm-up requirement.
var ErrInsufficientData = fmt.Errorf("insufficient data")

// NeutralRSI is the value the RSI warm-up region is pinned to.
const NeutralRSI = 50.0

func checkLen(name string, n, need int) error {
	if n < need {
		return fmt.Errorf("%s: %w: have %d bars, need %d", name, ErrInsufficientData, n, need)
	}
	return nil
}

// backfill copies the first stable value over the lookback region so the
// head of the series is flat instead of zero.
func backfill(out []float64, lookback int) []float64 {
	if lookback <= 0 || lookback >= len(out) {
		return out
	}
	v := out[lookback]
	for i := 0; i < lookback; i++ {
		out[i] = v
	}
	return out
}

// SMA returns the simple moving average of values.
func SMA(values []float64, period int) ([]float64, error) {
	if err := checkLen("sma", len(values), period); err != nil {
		return nil, err
	}
	return backfill(talib.Sma(values, period), period-1), nil
}

// EMA returns the exponential moving average of values.
func EMA(values []float64, period int) ([]float64, error) {
	if err := checkLen("ema", len(values), period); err != nil {
		return nil, err
	}
	return backfill(talib.Ema(values, period), period-1), nil
}

// WMA returns the linearly weighted moving average of values. The warm-up
// region uses a partial window so early bars still carry information.
func WMA(values []float64, period int) ([]float64, error) {
	if err := checkLen("wma", len(values), period); err != nil {
		return nil, err
	}
	out := talib.Wma(values, period)
	for i := 0; i < period-1 && i < len(out); i++ {
		out[i] = partialWMA(values[:i+1])
	}
	return out, nil
}

func partialWMA(window []float64) float64 {
	var sum, wsum float64
	for i, v := range window {
		w := float64(i + 1)
		sum += v * w
		wsum += w
	}
	if wsum == 0 {
		return 0
	}
	return sum / wsum
}

// RSI returns the Wilder-smoothed relative strength index in [0,100].
// The warm-up region is pinned to the neutral value 50, and bars whose
// Wilder average loss is zero (flat or loss-free history) read 50 as
// well instead of the degenerate 0/100 the raw ratio produces.
func RSI(values []float64, period int) ([]float64, error) {
	if err := checkLen("rsi", len(values), period+1); err != nil {
		return nil, err
	}
	out := talib.Rsi(values, period)
	for i := 0; i < period && i < len(out); i++ {
		out[i] = NeutralRSI
	}
	var avgLoss float64
	for i := 1; i <= period; i++ {
		if d := values[i] - values[i-1]; d < 0 {
			avgLoss -= d
		}
	}
	avgLoss /= float64(period)
	for i := period; i < len(out); i++ {
		if i > period {
			var loss float64
			if d := values[i] - values[i-1]; d < 0 {
				loss = -d
			}
			avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		}
		if avgLoss == 0 {
			out[i] = NeutralRSI
		}
	}
	return out, nil
}

// TrueRange returns the per-bar true range series.
func TrueRange(high, low, close []float64) ([]float64, error) {
	if err := checkLen("true range", len(close), 2); err != nil {
		return nil, err
	}
	return backfill(talib.TRange(high, low, close), 1), nil
}

// ATR returns the Wilder-smoothed average true range.
func ATR(high, low, close []float64, period int) ([]float64, error) {
	if err := checkLen("atr", len(close), period+1); err != nil {
		return nil, err
	}
	return backfill(talib.Atr(high, low, close, period), period), nil
}

// Last returns the final value of a series, or 0 for an empty one.
func Last(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return values[len(values)-1]
}

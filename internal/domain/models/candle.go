package models

import (
	"fmt"
	"time"
)

// Candle represents one OHLCV bar. Candles are immutable once loaded and
// series are ordered ascending by OpenTime.
type Candle struct {
	OpenTime time.Time `json:"timestamp"`
	Open     float64   `json:"open"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Close    float64   `json:"close"`
	Volume   float64   `json:"volume"`
}

// Validate checks the OHLCV invariants for a single bar.
func (c Candle) Validate() error {
	if c.Open <= 0 || c.High <= 0 || c.Low <= 0 || c.Close <= 0 {
		return fmt.Errorf("non-positive price (o=%g h=%g l=%g c=%g)", c.Open, c.High, c.Low, c.Close)
	}
	if c.Volume < 0 {
		return fmt.Errorf("negative volume %g", c.Volume)
	}
	bodyHigh := c.Open
	if c.Close > bodyHigh {
		bodyHigh = c.Close
	}
	bodyLow := c.Open
	if c.Close < bodyLow {
		bodyLow = c.Close
	}
	if c.High < bodyHigh || c.Low > bodyLow {
		return fmt.Errorf("high/low do not bound open/close (o=%g h=%g l=%g c=%g)", c.Open, c.High, c.Low, c.Close)
	}
	return nil
}

// ValidateSeries validates every bar and the ascending-time ordering.
// The returned error identifies the offending row.
func ValidateSeries(candles []Candle) error {
	for i, c := range candles {
		if err := c.Validate(); err != nil {
			return fmt.Errorf("candle %d (%s): %w", i, c.OpenTime.UTC().Format(time.RFC3339), err)
		}
		if i > 0 && !candles[i-1].OpenTime.Before(c.OpenTime) {
			return fmt.Errorf("candle %d (%s): timestamp not ascending", i, c.OpenTime.UTC().Format(time.RFC3339))
		}
	}
	return nil
}

// CandleEvent is a live candle update from an exchange stream.
// Closed marks the final update of the bar.
type CandleEvent struct {
	Symbol string `json:"symbol"`
	TF     string `json:"tf"`
	Candle Candle `json:"candle"`
	Closed bool   `json:"closed"`
}

// Closes extracts the close series.
func Closes(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}
	return out
}

// Highs extracts the high series.
func Highs(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.High
	}
	return out
}

// Lows extracts the low series.
func Lows(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Low
	}
	return out
}

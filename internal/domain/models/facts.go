package models

import "time"

// Direction is a per-timeframe trend direction.
type Direction string

const (
	DirUp      Direction = "up"
	DirDown    Direction = "down"
	DirSideway Direction = "sideway"
)

// Regime classifies the overall market state from higher timeframes.
type Regime string

const (
	RegimeUptrend   Regime = "uptrend"
	RegimeDowntrend Regime = "downtrend"
	RegimeRanging   Regime = "ranging"
)

// Bias is a directional bias for an entry timeframe.
type Bias string

const (
	BiasLong    Bias = "long"
	BiasShort   Bias = "short"
	BiasNeutral Bias = "neutral"
)

// Confidence grades how well a bias agrees with the macro context.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// LevelKind tags a price level as support or resistance.
type LevelKind string

const (
	KindSupport    LevelKind = "support"
	KindResistance LevelKind = "resistance"
)

// Opposite returns the other role, used when a level flips on a break of
// structure.
func (k LevelKind) Opposite() LevelKind {
	if k == KindSupport {
		return KindResistance
	}
	return KindSupport
}

// TrendFacts summarizes the trend state of one timeframe.
type TrendFacts struct {
	Direction  Direction `json:"trend_dir"`
	Strength   float64   `json:"trend_strength"` // 0..1 from EMA separation / ATR
	EMAFast    float64   `json:"ema_fast"`
	EMASlow    float64   `json:"ema_slow"`
	SlowSlope  float64   `json:"ema_slow_slope"` // % change of slow EMA over slope window
	ATRPct     float64   `json:"atr_pct"`
	DistToSlow float64   `json:"dist_to_slow"` // (close - ema_slow) / ATR, signed
	IsSideway  bool      `json:"is_sideway"`
}

// Level is a clustered support/resistance price point.
type Level struct {
	Price       float64   `json:"price"`
	Kind        LevelKind `json:"kind"`
	Score       float64   `json:"score"`
	Touches     int       `json:"touches"`
	LastTouched time.Time `json:"last_touched"`
	Structural  bool      `json:"structural"`
	Flipped     bool      `json:"flipped"`
}

// Zone is the price band around a Level used for proximity checks.
type Zone struct {
	Kind  LevelKind `json:"kind"`
	Low   float64   `json:"low"`
	High  float64   `json:"high"`
	Score float64   `json:"score"`
}

// Contains reports whether price falls inside the band.
func (z Zone) Contains(price float64) bool {
	return price >= z.Low && price <= z.High
}

// SRFacts is the support/resistance output for one timeframe.
type SRFacts struct {
	Levels []Level `json:"levels"`
	Zones  []Zone  `json:"zones"`
}

// BiasEntry is the derived bias for one entry timeframe.
type BiasEntry struct {
	Bias       Bias       `json:"bias"`
	FromTF     string     `json:"from_tf"`
	Macro      Bias       `json:"macro"`
	Confidence Confidence `json:"confidence"`
}

// TFFacts bundles the per-timeframe analysis outputs.
type TFFacts struct {
	Trend *TrendFacts `json:"trend,omitempty"`
	SR    *SRFacts    `json:"sr,omitempty"`
}

// TrendSummary is the condensed per-timeframe view embedded in a payload.
type TrendSummary struct {
	Dir      Direction `json:"dir"`
	Strength float64   `json:"strength"`
	ATRPct   float64   `json:"atr_pct"`
	Sideway  bool      `json:"sideway"`
}

// KeyLevel is a merged cross-timeframe level with its source timeframe.
type KeyLevel struct {
	Price    float64   `json:"price"`
	Kind     LevelKind `json:"kind"`
	Score    float64   `json:"score"`
	Touches  int       `json:"touches"`
	SourceTF string    `json:"source_tf"`
}

// Invalidation carries the nearest opposing levels across current price.
// Zero value means "no level on that side".
type Invalidation struct {
	BullAbove float64 `json:"bull_above,omitempty"`
	BearBelow float64 `json:"bear_below,omitempty"`
}

// DefaultFactsVersion labels payloads produced by the current analysis
// parameter set. Bump it when a parameter change should not be served
// to readers pinned on the old version.
const DefaultFactsVersion = "v1"

// FactsPayload is the aggregate analysis snapshot for one symbol.
// It is created once per analysis run and read-only downstream.
type FactsPayload struct {
	Symbol       string                  `json:"symbol"`
	Version      string                  `json:"version"`
	AsOf         time.Time               `json:"as_of"`
	Regime       Regime                  `json:"regime"`
	BiasChain    map[string]BiasEntry    `json:"bias_chain"`
	Trends       map[string]TrendSummary `json:"trends"`
	KeyLevels    []KeyLevel              `json:"key_levels"`
	Invalidation Invalidation            `json:"invalidation"`
	Timeframes   map[string]TFFacts      `json:"timeframes"`
}

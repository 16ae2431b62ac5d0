package sr

// Params tunes the support/resistance engine. Zero fields fall back to
// defaults.
type Params struct {
	FractalN      int     `yaml:"fractal_n" default:"2"`
	ClusterTol    float64 `yaml:"cluster_tol" default:"0.25"`
	ATRPeriod     int     `yaml:"atr_period" default:"14"`
	RecencyHalf   int     `yaml:"recency_half" default:"50"`
	MaxLevels     int     `yaml:"max_levels" default:"20"`
	WickBonus     float64 `yaml:"wick_bonus" default:"0.5"`
	WickThreshold float64 `yaml:"wick_threshold" default:"0.6"`
	ConfirmBars   int     `yaml:"confirm_bars" default:"12"`
	OscWeight     float64 `yaml:"osc_weight" default:"0.5"`
	OscRSIPeriod  int     `yaml:"osc_rsi_period" default:"14"`
	OscFastPeriod int     `yaml:"osc_fast_period" default:"9"`
	OscSlowPeriod int     `yaml:"osc_slow_period" default:"45"`
	OscMargin     float64 `yaml:"osc_margin" default:"2"`
}

// structuralMult is the score multiplier for structurally confirmed pivots.
const structuralMult = 1.5

// DefaultParams returns the documented defaults.
func DefaultParams() Params {
	return Params{
		FractalN:      2,
		ClusterTol:    0.25,
		ATRPeriod:     14,
		RecencyHalf:   50,
		MaxLevels:     20,
		WickBonus:     0.5,
		WickThreshold: 0.6,
		ConfirmBars:   12,
		OscWeight:     0.5,
		OscRSIPeriod:  14,
		OscFastPeriod: 9,
		OscSlowPeriod: 45,
		OscMargin:     2,
	}
}

// Merge overlays non-zero fields of p onto the defaults.
func (p Params) Merge() Params {
	d := DefaultParams()
	if p.FractalN > 0 {
		d.FractalN = p.FractalN
	}
	if p.ClusterTol > 0 {
		d.ClusterTol = p.ClusterTol
	}
	if p.ATRPeriod > 0 {
		d.ATRPeriod = p.ATRPeriod
	}
	if p.RecencyHalf > 0 {
		d.RecencyHalf = p.RecencyHalf
	}
	if p.MaxLevels > 0 {
		d.MaxLevels = p.MaxLevels
	}
	if p.WickBonus > 0 {
		d.WickBonus = p.WickBonus
	}
	if p.WickThreshold > 0 {
		d.WickThreshold = p.WickThreshold
	}
	if p.ConfirmBars > 0 {
		d.ConfirmBars = p.ConfirmBars
	}
	if p.OscWeight > 0 {
		d.OscWeight = p.OscWeight
	}
	if p.OscRSIPeriod > 0 {
		d.OscRSIPeriod = p.OscRSIPeriod
	}
	if p.OscFastPeriod > 0 {
		d.OscFastPeriod = p.OscFastPeriod
	}
	if p.OscSlowPeriod > 0 {
		d.OscSlowPeriod = p.OscSlowPeriod
	}
	if p.OscMargin > 0 {
		d.OscMargin = p.OscMargin
	}
	return d
}

// minBars is the shortest series the engine will analyze. Below this the
// result is an empty level/zone set.
func (p Params) minBars() int {
	a := 2*p.FractalN + 5
	b := p.OscSlowPeriod + 10
	if b > a {
		return b
	}
	return a
}

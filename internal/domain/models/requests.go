package models

// Requests for analysis HTTP endpoints. Defined in domain for consistency and reuse.

type FactsRequest struct {
	Symbol  string `query:"symbol" json:"symbol" validate:"required"`
	Version string `query:"version" json:"version" default:"v1"`
	AsOf    string `query:"as_of" json:"as_of"`
}

type PlanRequest struct {
	Symbol  string `query:"symbol" json:"symbol" validate:"required"`
	Version string `query:"version" json:"version" default:"v1"`
}

type CandlesRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
	TF     string `query:"tf" json:"tf" default:"1h" validate:"oneof=15m 1h 4h 1d 1w 1M"`
	From   string `query:"from" json:"from"`
	To     string `query:"to" json:"to"`
	Limit  int    `query:"limit" json:"limit" default:"1000" validate:"gte=1,lte=50000"`
}

type AnalyzeRequest struct {
	Symbol    string `query:"symbol" json:"symbol" validate:"required"`
	Intervals string `query:"intervals" json:"intervals" default:"1h,4h,1d,1w"`
	Lookback  int    `query:"lookback" json:"lookback" default:"1000" validate:"gte=100,lte=5000"`
	Version   string `query:"version" json:"version" default:"v1"`
}

type BacktestRequest struct {
	Symbol  string  `query:"symbol" json:"symbol" validate:"required"`
	TF      string  `query:"tf" json:"tf" default:"1h" validate:"oneof=15m 1h 4h 1d"`
	N       int     `query:"n" json:"n" default:"1000" validate:"gte=100,lte=20000"`
	Mode    string  `query:"mode" json:"mode" default:"combined" validate:"oneof=sr_trend rsi_inertia combined"`
	FeeBps  float64 `query:"fee_bps" json:"fee_bps" default:"2"`
	Version string  `query:"version" json:"version" default:"v1"`
}

package models

import "time"

// Side is a position direction in a backtest.
type Side string

const (
	SideLong  Side = "long"
	SideShort Side = "short"
)

// ExitReason explains why a simulated position was closed.
type ExitReason string

const (
	ExitStop         ExitReason = "stop"
	ExitTakeProfit   ExitReason = "take_profit"
	ExitTimeStop     ExitReason = "time_stop"
	ExitInvalidation ExitReason = "invalidation"
	ExitSignalFlip   ExitReason = "signal_flip"
	ExitEndOfData    ExitReason = "end_of_data"
)

// TradeRecord is one completed round trip in a trade ledger.
// Records are immutable once appended.
type TradeRecord struct {
	EntryTime  time.Time  `json:"entry"`
	ExitTime   time.Time  `json:"exit"`
	Side       Side       `json:"side"`
	EntryPrice float64    `json:"entry_price"`
	ExitPrice  float64    `json:"exit_price"`
	PnLPct     float64    `json:"pnl_pct"`
	ExitReason ExitReason `json:"reason"`
	BarsHeld   int        `json:"bars"`
}

// VectorMetrics summarizes a vectorized signal-replay run.
type VectorMetrics struct {
	TotalReturnPct float64 `json:"total_return_pct"`
	MaxDrawdownPct float64 `json:"max_drawdown_pct"`
	Sharpe         float64 `json:"sharpe"`
	Trades         int     `json:"trades"`
	Bars           int     `json:"bars"`
}

// VectorResult is the output of the vectorized backtest.
type VectorResult struct {
	Metrics VectorMetrics `json:"metrics"`
	Trades  []TradeRecord `json:"trade_log"`
}

// PlanMetrics summarizes a bar-by-bar plan simulation run.
type PlanMetrics struct {
	TotalReturnPct float64 `json:"total_return_pct"`
	MaxDrawdownPct float64 `json:"max_drawdown_pct"`
	Trades         int     `json:"trades"`
	Wins           int     `json:"wins"`
	Losses         int     `json:"losses"`
	WinRatePct     float64 `json:"win_rate_pct"`
	AvgWinPct      float64 `json:"avg_win_pct"`
	AvgLossPct     float64 `json:"avg_loss_pct"`
	ProfitFactor   float64 `json:"profit_factor"`
	Bars           int     `json:"bars"`
	Bias           Bias    `json:"bias"`
}

// PlanResult is the output of the plan-rule simulator.
type PlanResult struct {
	Metrics PlanMetrics   `json:"metrics"`
	Trades  []TradeRecord `json:"trade_log"`
	Plan    *Plan         `json:"plan,omitempty"`
}

// BacktestRun is a persisted record of a completed backtest.
type BacktestRun struct {
	ID             string    `json:"id"`
	Symbol         string    `json:"symbol"`
	TF             string    `json:"tf"`
	Mode           string    `json:"mode"`
	Bars           int       `json:"bars"`
	FeeBps         float64   `json:"fee_bps"`
	TotalReturnPct float64   `json:"total_return_pct"`
	MaxDrawdownPct float64   `json:"max_drawdown_pct"`
	Sharpe         float64   `json:"sharpe"`
	Trades         int       `json:"trades"`
	WinRatePct     float64   `json:"win_rate_pct"`
	StartedAt      time.Time `json:"started_at"`
	FinishedAt     time.Time `json:"finished_at"`
}

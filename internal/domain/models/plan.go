package models

import "time"

// Probability is a qualitative scenario likelihood.
type Probability string

const (
	ProbHigh   Probability = "high"
	ProbMedium Probability = "medium"
	ProbLow    Probability = "low"
)

// Scenario is one of the bull/base/bear outcomes in a plan.
type Scenario struct {
	Condition   string      `json:"condition"`
	Target      float64     `json:"target"`
	Probability Probability `json:"probability"`
}

// EntryType tags an entry rule.
type EntryType string

const (
	EntryLong  EntryType = "long"
	EntryShort EntryType = "short"
	EntryWait  EntryType = "wait"
)

// EntryRule describes when and where to enter.
type EntryRule struct {
	Type      EntryType `json:"type"`
	Trigger   string    `json:"trigger"`
	Zone      *KeyLevel `json:"zone,omitempty"`
	Condition string    `json:"condition"`
}

// Stop is the ATR-derived stop loss for a plan.
type Stop struct {
	Price    float64 `json:"price"`
	Distance float64 `json:"distance"`
	Method   string  `json:"method"`
}

// Target is a take-profit level annotated with reward:risk.
type Target struct {
	TP       int     `json:"tp"`
	Price    float64 `json:"price"`
	RR       float64 `json:"rr"`
	SourceTF string  `json:"source"`
}

// Plan is the actionable output derived from one FactsPayload.
type Plan struct {
	Symbol       string               `json:"symbol"`
	AsOf         time.Time            `json:"as_of"`
	CurrentPrice float64              `json:"current_price"`
	Regime       Regime               `json:"regime"`
	PrimaryBias  Bias                 `json:"primary_bias"`
	BiasChain    map[string]BiasEntry `json:"bias_chain"`
	Scenarios    map[string]Scenario  `json:"scenarios"`
	EntryRules   []EntryRule          `json:"entry_rules"`
	Stop         Stop                 `json:"stop"`
	Targets      []Target             `json:"targets"`
	Invalidation Invalidation         `json:"invalidation"`
	NoTrade      []string             `json:"no_trade"`
	Score        int                  `json:"plan_score"`
	NoTradeFlag  bool                 `json:"no_trade_flag"`
	Evidence     []string             `json:"evidence,omitempty"`
}

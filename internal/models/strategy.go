package models

import (
	"strings"
	"time"
)

// Strategy is the account's admission policy for incoming signals.
type Strategy string

const (
	StrategyConservative Strategy = "conservative"
	StrategyAggressive   Strategy = "aggressive"
)

// Action as produced by the analysis feed: "buy"/"sell".
type Action string

const (
	ActionBuy  Action = "buy"
	ActionSell Action = "sell"
)

// Direction returns the position side opened by the action.
func (a Action) Direction() Direction {
	if a == ActionSell {
		return DirectionShort
	}
	return DirectionLong
}

// Signal is an externally scored trading recommendation. It is read-only for the engine
// and must go through the validator before anything trusts its fields.
type Signal struct {
	ID         string    `json:"id"`
	Symbol     string    `json:"symbol"`
	Action     Action    `json:"action"`
	Confidence float64   `json:"confidence"` // 0-100, modeled win probability
	Entry      float64   `json:"entry"`
	StopLoss   float64   `json:"stop_loss"`
	TakeProfit float64   `json:"take_profit"`
	Reasoning  string    `json:"reasoning"`
	Timestamp  time.Time `json:"timestamp"`
}

// NormalizeSymbol is the canonical instrument key: trimmed and upper-cased.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

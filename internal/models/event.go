package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type EventKind string

const (
	EventOpened   EventKind = "opened"
	EventClosed   EventKind = "closed"
	EventRejected EventKind = "rejected"
	// EventIgnored is a policy rejection: expected, not a fault.
	EventIgnored EventKind = "ignored"
)

// TradeEvent is emitted on every terminal transition. Consumers must treat it as immutable.
type TradeEvent struct {
	ID         string          `json:"id"`
	AccountID  string          `json:"account_id"`
	Kind       EventKind       `json:"kind"`
	SignalID   string          `json:"signal_id,omitempty"`
	PositionID string          `json:"position_id,omitempty"`
	Symbol     string          `json:"symbol"`
	Direction  Direction       `json:"direction,omitempty"`
	Confidence float64         `json:"confidence,omitempty"`
	Units      decimal.Decimal `json:"units"`
	Price      decimal.Decimal `json:"price"`
	PnL        decimal.Decimal `json:"pnl"`
	Balance    decimal.Decimal `json:"balance"`
	Reason     string          `json:"reason,omitempty"`
	Reasoning  string          `json:"reasoning,omitempty"`
	Timestamp  time.Time       `json:"timestamp"`
}

// MutatesLedger reports whether the event follows a committed ledger change.
func (e TradeEvent) MutatesLedger() bool {
	return e.Kind == EventOpened || e.Kind == EventClosed
}

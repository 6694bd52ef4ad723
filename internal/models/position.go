package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Direction string

const (
	DirectionLong  Direction = "long"
	DirectionShort Direction = "short"
)

// Position is a simulated open trade. The ledger owns it; everything outside gets copies.
type Position struct {
	ID            string          `json:"id"`
	SignalID      string          `json:"signal_id"`
	Symbol        string          `json:"symbol"`
	Direction     Direction       `json:"direction"`
	EntryPrice    decimal.Decimal `json:"entry_price"`
	Size          decimal.Decimal `json:"size"` // units
	CurrentPrice  decimal.Decimal `json:"current_price"`
	UnrealizedPnL decimal.Decimal `json:"unrealized_pnl"`
	Confidence    float64         `json:"confidence"`
	Strategy      Strategy        `json:"strategy"`
	PositionRatio decimal.Decimal `json:"position_ratio"`
	Leverage      int             `json:"leverage"`
	OpenTime      time.Time       `json:"open_time"`
	StopLoss      decimal.Decimal `json:"stop_loss"`
	TakeProfit    decimal.Decimal `json:"take_profit"`
}

// Notional is the capital committed at entry.
func (p Position) Notional() decimal.Decimal {
	return p.Size.Mul(p.EntryPrice)
}

// PnLAt is the profit of the position marked at price.
func (p Position) PnLAt(price decimal.Decimal) decimal.Decimal {
	if p.Direction == DirectionShort {
		return p.EntryPrice.Sub(price).Mul(p.Size)
	}
	return price.Sub(p.EntryPrice).Mul(p.Size)
}

// ClosedTrade is the result of a close, reconciled against the balance.
type ClosedTrade struct {
	Position    Position        `json:"position"`
	ExitPrice   decimal.Decimal `json:"exit_price"`
	RealizedPnL decimal.Decimal `json:"realized_pnl"`
	Credited    decimal.Decimal `json:"credited"`
	CloseTime   time.Time       `json:"close_time"`
	Reason      string          `json:"reason"`
}

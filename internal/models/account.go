package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account is a point-in-time view of one virtual account.
type Account struct {
	ID             string          `json:"id"`
	Strategy       Strategy        `json:"strategy"`
	InitialBalance decimal.Decimal `json:"initial_balance"`
	Balance        decimal.Decimal `json:"balance"`
	TotalPnL       decimal.Decimal `json:"total_pnl"`
	DailyPnL       decimal.Decimal `json:"daily_pnl"`
	TotalTrades    int             `json:"total_trades"`
	ClosedTrades   int             `json:"closed_trades"`
	Wins           int             `json:"wins"`
	WinRate        float64         `json:"win_rate"` // wins / closed trades
	OpenPositions  int             `json:"open_positions"`
	DayStart       time.Time       `json:"day_start"`
}

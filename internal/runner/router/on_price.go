package router

import (
	"time"

	"github.com/shopspring/decimal"
)

// UpdatePrice marks the symbol on every account. Crossed exits are queued per account.
func (r *Router) UpdatePrice(symbol string, price decimal.Decimal) {
	for _, s := range r.list() {
		s.UpdatePrice(symbol, price)
	}
}

// ResetDaily opens a new daily PnL window on every account.
func (r *Router) ResetDaily(at time.Time) {
	for _, s := range r.list() {
		s.Ledger.ResetDaily(at)
	}
}

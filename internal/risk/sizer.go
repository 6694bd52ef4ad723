package risk

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidPrice      = errors.New("invalid price")
	ErrInvalidRisk       = errors.New("invalid risk percentage")
)

var hundred = decimal.NewFromInt(100)

const unitPrecision = 16

// Sizing is the capital committed to one trade and the resulting unit count.
type Sizing struct {
	Notional decimal.Decimal
	Units    decimal.Decimal
}

// Size computes a trade from the account balance and the per-trade risk percentage:
//
//	notional = balance * riskPct / 100
//	units    = notional / entry, truncated
//
// riskPct is the global per-trade knob, unrelated to the policy's position ratio.
func Size(balance, riskPct, entry decimal.Decimal) (Sizing, error) {
	if !balance.IsPositive() {
		return Sizing{}, fmt.Errorf("%w: balance %s", ErrInsufficientFunds, balance)
	}
	if !entry.IsPositive() {
		return Sizing{}, fmt.Errorf("%w: entry %s", ErrInvalidPrice, entry)
	}
	if !riskPct.IsPositive() {
		return Sizing{}, fmt.Errorf("%w: %s", ErrInvalidRisk, riskPct)
	}

	notional := balance.Mul(riskPct).Div(hundred)
	// truncate so units*entry never exceeds the notional the balance can cover
	units, _ := notional.QuoRem(entry, unitPrecision)
	if !units.IsPositive() {
		return Sizing{}, fmt.Errorf("%w: units %s after division", ErrInsufficientFunds, units)
	}
	return Sizing{Notional: notional, Units: units}, nil
}

// Package validator admits or rejects raw signals before they reach the engine.
package validator

import (
	"fmt"
	"math"
	"strings"

	"paper_trader/internal/models"
)

// ValidationError is a permanent rejection; the signal is never retried.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid signal: " + e.Reason
}

func invalid(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// Validate returns nil for a structurally complete signal with sane ranges.
func Validate(sig models.Signal) error {
	if strings.TrimSpace(sig.Symbol) == "" {
		return invalid("empty symbol")
	}
	if sig.Action != models.ActionBuy && sig.Action != models.ActionSell {
		return invalid("unknown action %q", sig.Action)
	}
	if !finite(sig.Confidence) || sig.Confidence <= 0 || sig.Confidence > 100 {
		return invalid("confidence %v out of (0,100]", sig.Confidence)
	}

	prices := []struct {
		name string
		v    float64
	}{
		{"entry", sig.Entry},
		{"stop loss", sig.StopLoss},
		{"take profit", sig.TakeProfit},
	}
	for _, p := range prices {
		if !finite(p.v) || p.v <= 0 {
			return invalid("%s must be positive, got %v", p.name, p.v)
		}
	}

	switch sig.Action {
	case models.ActionBuy:
		if !(sig.StopLoss < sig.Entry && sig.Entry < sig.TakeProfit) {
			return invalid("buy requires stop loss < entry < take profit (sl=%v entry=%v tp=%v)",
				sig.StopLoss, sig.Entry, sig.TakeProfit)
		}
	case models.ActionSell:
		if !(sig.TakeProfit < sig.Entry && sig.Entry < sig.StopLoss) {
			return invalid("sell requires take profit < entry < stop loss (sl=%v entry=%v tp=%v)",
				sig.StopLoss, sig.Entry, sig.TakeProfit)
		}
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

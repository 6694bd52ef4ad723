package risk

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"paper_trader/internal/models"
)

var (
	// ErrBelowThreshold is a policy rejection, the caller logs it as an ignored signal.
	ErrBelowThreshold  = errors.New("confidence below strategy threshold")
	ErrUnknownStrategy = errors.New("unknown strategy")
)

// tier is one row of the confidence sizing table.
type tier struct {
	minConfidence float64
	positionRatio int64
	safetyFactor  int
	level         models.RiskLevel
	leverage      int
}

// tiers are evaluated top-down, first match wins. The last row catches everything
// that already passed the strategy gate.
var tiers = []tier{
	{95, 25, 9, models.RiskLow, 20},
	{90, 20, 8, models.RiskLow, 15},
	{85, 15, 7, models.RiskMedium, 10},
	{0, 8, 5, models.RiskHigh, 10},
}

// stopLossRequiredBelow forces a stop-loss and disables adding to a position.
const stopLossRequiredBelow = 90

// Resolve maps a strategy and signal confidence to a sizing policy.
func Resolve(strategy models.Strategy, confidence float64) (models.RiskPolicy, error) {
	preset, ok := models.Presets[strategy]
	if !ok {
		return models.RiskPolicy{}, fmt.Errorf("%w: %q", ErrUnknownStrategy, strategy)
	}
	if confidence < preset.MinConfidence {
		return models.RiskPolicy{}, fmt.Errorf("%w: %.2f < %.2f (%s)",
			ErrBelowThreshold, confidence, preset.MinConfidence, strategy)
	}

	t := tiers[len(tiers)-1]
	for _, candidate := range tiers {
		if confidence >= candidate.minConfidence {
			t = candidate
			break
		}
	}

	requiresSL := confidence < stopLossRequiredBelow
	return models.RiskPolicy{
		Strategy:         strategy,
		MinConfidence:    preset.MinConfidence,
		PositionRatio:    decimal.NewFromInt(t.positionRatio),
		SafetyFactor:     t.safetyFactor,
		RiskLevel:        t.level,
		Leverage:         t.leverage,
		RequiresStopLoss: requiresSL,
		CanAddPosition:   !requiresSL,
	}, nil
}

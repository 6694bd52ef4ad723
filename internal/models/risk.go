package models

import "github.com/shopspring/decimal"

type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// RiskPolicy is derived per evaluation and never mutated afterwards.
type RiskPolicy struct {
	Strategy         Strategy        `json:"strategy"`
	MinConfidence    float64         `json:"min_confidence"`
	PositionRatio    decimal.Decimal `json:"position_ratio"` // % of balance, display only
	SafetyFactor     int             `json:"safety_factor"`
	RiskLevel        RiskLevel       `json:"risk_level"`
	Leverage         int             `json:"leverage"`
	RequiresStopLoss bool            `json:"requires_stop_loss"`
	CanAddPosition   bool            `json:"can_add_position"`
}

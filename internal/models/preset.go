package models

// Preset describes a strategy for the dashboard and carries its admission gate.
type Preset struct {
	Name          string
	Description   string
	MinConfidence float64
}

var Presets = map[Strategy]Preset{
	StrategyConservative: {
		Name:          "🟢 Conservative",
		Description:   "Only high-conviction signals, confidence 85 and above",
		MinConfidence: 85,
	},
	StrategyAggressive: {
		Name:          "🔴 Aggressive",
		Description:   "Takes more signals, confidence 70 and above",
		MinConfidence: 70,
	},
}

package engine

import (
	"strings"

	"github.com/roach88/eain/internal/model"
)

// Thresholds is the return/volatility bar for one risk tolerance.
type Thresholds struct {
	MinReturn     float64 `json:"min_return"`
	MaxVolatility float64 `json:"max_volatility"`
}

// RiskThresholds maps each risk tolerance to its bar.
var RiskThresholds = map[model.RiskTolerance]Thresholds{
	model.RiskLow:    {MinReturn: 0.03, MaxVolatility: 0.15},
	model.RiskMedium: {MinReturn: 0.06, MaxVolatility: 0.30},
	model.RiskHigh:   {MinReturn: 0.12, MaxVolatility: 0.60},
}

// ThresholdsFor resolves a tolerance to its row. Matching ignores case and
// surrounding space; anything unrecognized uses the medium row. The
// resolved tolerance is returned alongside the thresholds.
func ThresholdsFor(risk model.RiskTolerance) (model.RiskTolerance, Thresholds) {
	key := model.RiskTolerance(strings.ToLower(strings.TrimSpace(string(risk))))
	if t, ok := RiskThresholds[key]; ok {
		return key, t
	}
	return model.RiskMedium, RiskThresholds[model.RiskMedium]
}

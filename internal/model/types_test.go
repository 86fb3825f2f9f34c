package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScore_IsWeightTimesConfidence(t *testing.T) {
	weights := map[Outcome]float64{Accept: 1.0, Deprioritize: 0.5, Reject: 0.0}
	confidences := []float64{0, 0.2, 0.6, 0.7, 0.8, 0.9, 0.95, 1}

	for outcome, w := range weights {
		for _, c := range confidences {
			assert.Equal(t, w*c, Score(outcome, c), "outcome=%s confidence=%v", outcome, c)
		}
	}
}

func TestScore_KnownValues(t *testing.T) {
	assert.InDelta(t, 0.1, Score(Deprioritize, 0.2), 1e-12)
	assert.InDelta(t, 0.35, Score(Deprioritize, 0.7), 1e-12)
	assert.InDelta(t, 0.8, Score(Accept, 0.8), 1e-12)
	assert.Equal(t, 0.0, Score(Reject, 0.95))
}

func TestOutcome_Valid(t *testing.T) {
	assert.True(t, Accept.Valid())
	assert.True(t, Reject.Valid())
	assert.True(t, Deprioritize.Valid())
	assert.False(t, Outcome("maybe").Valid())
	assert.Equal(t, 0.5, Outcome("maybe").Weight())
}

func TestInvestorProfile_CloneIsDeep(t *testing.T) {
	max := 50.0
	p := InvestorProfile{RiskTolerance: RiskLow, ExcludedIndustries: []string{"Tobacco"}, MaxCarbonScore: &max}
	cp := p.Clone()

	cp.ExcludedIndustries[0] = "Mining"
	*cp.MaxCarbonScore = 1

	assert.Equal(t, "Tobacco", p.ExcludedIndustries[0])
	assert.Equal(t, 50.0, *p.MaxCarbonScore)
}

func TestDecision_RuleNames(t *testing.T) {
	d := Decision{ReasonTree: []ReasonNode{{Rule: "a"}, {Rule: "b"}}}
	assert.Equal(t, []string{"a", "b"}, d.RuleNames())
}

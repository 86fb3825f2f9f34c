package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/eain/internal/model"
)

func sampleDecisions() []model.Decision {
	return []model.Decision{
		{
			Asset:    "XYZ",
			Decision: model.Reject,
			ReasonTree: []model.ReasonNode{{
				Rule:     "exclude_by_industry",
				Outcome:  model.Reject,
				Evidence: map[string]any{"sector": "Tobacco", "excluded": []string{"Tobacco"}},
			}},
		},
		{
			Asset:    "ABC",
			Decision: model.Deprioritize,
			ReasonTree: []model.ReasonNode{
				{Rule: "recent_large_drop", Outcome: model.Deprioritize, Evidence: map[string]any{"percent_change": -8.0}},
				{Rule: "deprioritize_by_return_or_risk", Outcome: model.Deprioritize},
			},
		},
		{
			Asset:      "DEF",
			Decision:   model.Accept,
			ReasonTree: []model.ReasonNode{{Rule: "accept_by_return_and_risk", Outcome: model.Accept}},
		},
	}
}

func TestAssertRuleFired_Found(t *testing.T) {
	err := assertRuleFired(sampleDecisions(), Assertion{Type: AssertRuleFired, Rule: "recent_large_drop"})
	assert.NoError(t, err)
}

func TestAssertRuleFired_ScopedToSymbol(t *testing.T) {
	err := assertRuleFired(sampleDecisions(), Assertion{Type: AssertRuleFired, Symbol: "DEF", Rule: "recent_large_drop"})
	require.Error(t, err)

	var assertErr *AssertionError
	require.ErrorAs(t, err, &assertErr)
	assert.Equal(t, AssertRuleFired, assertErr.Type)
	assert.Equal(t, "rule not found", assertErr.Actual)
}

func TestAssertRuleAbsent(t *testing.T) {
	decisions := sampleDecisions()

	assert.NoError(t, assertRuleAbsent(decisions, Assertion{Rule: "exclude_by_carbon"}))
	assert.NoError(t, assertRuleAbsent(decisions, Assertion{Symbol: "DEF", Rule: "recent_large_drop"}))

	err := assertRuleAbsent(decisions, Assertion{Rule: "recent_large_drop"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "found in reason tree of ABC")
}

func TestAssertRuleOrder_Correct(t *testing.T) {
	err := assertRuleOrder(sampleDecisions(), Assertion{
		Symbol: "ABC",
		Rules:  []string{"recent_large_drop", "deprioritize_by_return_or_risk"},
	})
	assert.NoError(t, err)
}

func TestAssertRuleOrder_WrongOrder(t *testing.T) {
	err := assertRuleOrder(sampleDecisions(), Assertion{
		Symbol: "ABC",
		Rules:  []string{"deprioritize_by_return_or_risk", "recent_large_drop"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "deprioritize_by_return_or_risk (pos 2) should be before recent_large_drop (pos 1)")
}

func TestAssertRuleOrder_MissingRule(t *testing.T) {
	err := assertRuleOrder(sampleDecisions(), Assertion{
		Symbol: "ABC",
		Rules:  []string{"recent_large_drop", "exclude_by_carbon"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing rule: exclude_by_carbon")
}

func TestAssertRuleOrder_UnknownSymbol(t *testing.T) {
	err := assertRuleOrder(sampleDecisions(), Assertion{Symbol: "ZZZ", Rules: []string{"x"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no decision")
}

func TestAssertDecisionCount(t *testing.T) {
	decisions := sampleDecisions()

	assert.NoError(t, assertDecisionCount(decisions, Assertion{Decision: "reject", Count: 1}))
	assert.NoError(t, assertDecisionCount(decisions, Assertion{Decision: "accept", Count: 1}))

	err := assertDecisionCount(decisions, Assertion{Decision: "reject", Count: 2})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Expected: 2 reject decisions")
	assert.Contains(t, err.Error(), "Actual: 1 reject decisions")
}

func TestAssertEvidence_SubsetMatch(t *testing.T) {
	err := assertEvidence(sampleDecisions(), Assertion{
		Symbol:   "XYZ",
		Rule:     "exclude_by_industry",
		Evidence: map[string]any{"excluded": []any{"Tobacco"}},
	})
	assert.NoError(t, err)
}

func TestAssertEvidence_NumericCoercion(t *testing.T) {
	err := assertEvidence(sampleDecisions(), Assertion{
		Symbol:   "ABC",
		Rule:     "recent_large_drop",
		Evidence: map[string]any{"percent_change": -8},
	})
	assert.NoError(t, err)
}

func TestAssertEvidence_Mismatch(t *testing.T) {
	err := assertEvidence(sampleDecisions(), Assertion{
		Symbol:   "XYZ",
		Rule:     "exclude_by_industry",
		Evidence: map[string]any{"sector": "Energy"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sector=Energy")
	assert.Contains(t, err.Error(), "sector=Tobacco")
}

func TestAssertEvidence_RuleNotFound(t *testing.T) {
	err := assertEvidence(sampleDecisions(), Assertion{
		Symbol:   "DEF",
		Rule:     "exclude_by_industry",
		Evidence: map[string]any{"sector": "Tobacco"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rule not found")
}

func TestMatchEvidence_SubsetSemantics(t *testing.T) {
	actual := map[string]any{"a": 1.0, "b": "x", "c": map[string]any{"d": 0.3}}

	assert.True(t, matchEvidence(actual, nil))
	assert.True(t, matchEvidence(actual, map[string]any{"a": 1}))
	assert.True(t, matchEvidence(actual, map[string]any{"c": map[string]any{"d": 0.3}}))
	assert.False(t, matchEvidence(actual, map[string]any{"z": 1}))
	assert.False(t, matchEvidence(actual, map[string]any{"b": "y"}))
	assert.False(t, matchEvidence(nil, map[string]any{"a": 1}))
}

func TestValuesEqual(t *testing.T) {
	assert.True(t, valuesEqual(nil, nil))
	assert.False(t, valuesEqual(nil, 1))
	assert.False(t, valuesEqual("1", nil))
	assert.True(t, valuesEqual(150.0, 150))
	assert.True(t, valuesEqual([]string{"a"}, []any{"a"}))
	assert.False(t, valuesEqual("1", 1))
}

func TestEvaluateAssertions_AllPass(t *testing.T) {
	result := &Result{Pass: true, Decisions: sampleDecisions()}
	errs := EvaluateAssertions(result, []Assertion{
		{Type: AssertRuleFired, Rule: "exclude_by_industry"},
		{Type: AssertDecisionCount, Decision: "deprioritize", Count: 1},
	})
	assert.Empty(t, errs)
}

func TestEvaluateAssertions_SomeFail(t *testing.T) {
	result := &Result{Pass: true, Decisions: sampleDecisions()}
	errs := EvaluateAssertions(result, []Assertion{
		{Type: AssertRuleFired, Rule: "exclude_by_industry"},
		{Type: AssertRuleFired, Rule: "exclude_by_carbon"},
	})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "exclude_by_carbon")
}

func TestEvaluateAssertions_UnknownType(t *testing.T) {
	errs := EvaluateAssertions(&Result{}, []Assertion{{Type: "vibes"}})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], `unknown assertion type "vibes"`)
}

func TestAssertionError_ErrorFormat(t *testing.T) {
	err := &AssertionError{
		Type:      AssertDecisionCount,
		Expected:  "2 accept decisions",
		Actual:    "1 accept decisions",
		Decisions: sampleDecisions()[2:],
	}

	msg := err.Error()
	assert.Contains(t, msg, "Assertion failed: decision_count")
	assert.Contains(t, msg, "Expected: 2 accept decisions")
	assert.Contains(t, msg, "Actual: 1 accept decisions")
	assert.Contains(t, msg, "[1] DEF accept [accept_by_return_and_risk]")
}

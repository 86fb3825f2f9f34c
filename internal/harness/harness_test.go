package harness

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/eain/internal/engine"
	"github.com/roach88/eain/internal/model"
	"github.com/roach88/eain/internal/testutil"
)

func ptr(f float64) *float64 { return &f }

func loadTestScenario(t *testing.T, name string) *Scenario {
	t.Helper()
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", name+".yaml"))
	require.NoError(t, err)
	return s
}

func TestRun_TestdataScenariosPass(t *testing.T) {
	files, err := Discover(filepath.Join("testdata", "scenarios"))
	require.NoError(t, err)

	for _, file := range files {
		t.Run(filepath.Base(file), func(t *testing.T) {
			s, err := LoadScenario(file)
			require.NoError(t, err)

			result, err := Run(s)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
			assert.Empty(t, result.Errors)
			assert.Len(t, result.Decisions, len(s.Assets))
		})
	}
}

func TestRun_DeterministicIdsAndTime(t *testing.T) {
	result, err := Run(loadTestScenario(t, "esg_exclusions"))
	require.NoError(t, err)
	require.Len(t, result.Decisions, 4)

	first := result.Decisions[0]
	assert.Equal(t, "atom_000000000001", first.InvestorAtom)
	assert.Equal(t, "atom_000000000002", first.AssetAtom)
	assert.Equal(t, "decision_0000000001", first.DecisionID)
	assert.Equal(t, testutil.DefaultTime.Unix(), first.Timestamp)
	assert.Nil(t, first.Provenance)

	last := result.Decisions[3]
	assert.Equal(t, "atom_000000000007", last.InvestorAtom)
	assert.Equal(t, "decision_0000000004", last.DecisionID)
}

func TestRun_ReportsMismatches(t *testing.T) {
	s := &Scenario{
		Name:        "mismatch",
		Description: "every checked field is wrong",
		Investor:    model.InvestorProfile{RiskTolerance: model.RiskHigh},
		Assets:      []map[string]any{{"symbol": "DEF", "expected_return": 0.2, "volatility": 0.4}},
		Expect: []Expectation{{
			Symbol:     "DEF",
			Decision:   "reject",
			Confidence: ptr(0.5),
			Score:      ptr(0.1),
			Rules:      []string{"exclude_by_industry"},
		}},
	}

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 4)
	assert.Equal(t, "expect[0] (DEF): decision = accept, want reject", result.Errors[0])
	assert.Contains(t, result.Errors[1], "confidence = 0.8, want 0.5")
	assert.Contains(t, result.Errors[2], "score = 0.8, want 0.1")
	assert.Contains(t, result.Errors[3], "rules = [accept_by_return_and_risk], want [exclude_by_industry]")
}

func TestRun_MissingSymbol(t *testing.T) {
	s := &Scenario{
		Name:        "missing",
		Description: "expectation names an asset that was never evaluated",
		Assets:      []map[string]any{{"symbol": "AAA"}},
		Expect:      []Expectation{{Symbol: "BBB", Decision: "accept"}},
	}

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Equal(t, []string{"expect[0] (BBB): no decision for symbol"}, result.Errors)
}

func TestRun_ToleranceAppliesToFloats(t *testing.T) {
	s := &Scenario{
		Name:        "tolerance",
		Description: "score within tolerance passes",
		Investor:    model.InvestorProfile{RiskTolerance: model.RiskLow},
		Assets:      []map[string]any{{"symbol": "ABC", "percent_change": -8}},
		Expect: []Expectation{{
			Symbol:     "ABC",
			Decision:   "deprioritize",
			Confidence: ptr(0.7 + Tolerance/10),
			Score:      ptr(0.35),
		}},
	}

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRunWithRules_PanickingRuleStillDecides(t *testing.T) {
	rules := append([]engine.Rule{{
		Name: "explodes",
		Eval: func(model.InvestorProfile, model.AssetSnapshot) (*model.ReasonNode, error) {
			panic("boom")
		},
	}}, engine.DefaultRules()...)

	s := &Scenario{
		Name:        "panic",
		Description: "a faulting rule is skipped",
		Investor:    model.InvestorProfile{RiskTolerance: model.RiskHigh},
		Assets:      []map[string]any{{"symbol": "DEF", "expected_return": 0.2, "volatility": 0.4}},
		Expect: []Expectation{{
			Symbol:   "DEF",
			Decision: "accept",
			Rules:    []string{"accept_by_return_and_risk"},
		}},
		Assertions: []Assertion{{Type: AssertRuleAbsent, Rule: "explodes"}},
	}

	result, err := RunWithRules(s, rules)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRunWithRules_ErroringRule(t *testing.T) {
	rules := []engine.Rule{{
		Name: "broken",
		Eval: func(model.InvestorProfile, model.AssetSnapshot) (*model.ReasonNode, error) {
			return nil, errors.New("upstream unavailable")
		},
	}}

	s := &Scenario{
		Name:        "error",
		Description: "only rule errors; default applies",
		Assets:      []map[string]any{{"symbol": "AAA"}},
		Expect: []Expectation{{
			Symbol:     "AAA",
			Decision:   "deprioritize",
			Confidence: ptr(engine.DefaultConfidence),
			Rules:      []string{engine.DefaultRuleName},
		}},
	}

	result, err := RunWithRules(s, rules)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_NilScenario(t *testing.T) {
	_, err := Run(nil)
	require.Error(t, err)
}

func TestRun_IsolatedStores(t *testing.T) {
	s := loadTestScenario(t, "low_risk_drop")

	first, err := Run(s)
	require.NoError(t, err)
	second, err := Run(s)
	require.NoError(t, err)

	assert.Equal(t, first.Decisions, second.Decisions)
}

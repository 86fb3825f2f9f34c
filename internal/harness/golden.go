package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/eain/internal/model"
)

// DecisionSnapshot captures every decision of a scenario execution.
type DecisionSnapshot struct {
	ScenarioName string           `json:"scenario_name"`
	Decisions    []model.Decision `json:"decisions"`
}

// toCanonicalMap converts the snapshot to a map for canonical JSON
// serialization, keeping an empty decision list as [] rather than null.
func (s *DecisionSnapshot) toCanonicalMap() map[string]any {
	decisions := make([]any, len(s.Decisions))
	for i, d := range s.Decisions {
		decisions[i] = d
	}
	return map[string]any{
		"scenario_name": s.ScenarioName,
		"decisions":     decisions,
	}
}

// Canonical returns the canonical JSON of the snapshot.
func (s *DecisionSnapshot) Canonical() ([]byte, error) {
	return model.MarshalCanonical(s.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares its decisions against a
// golden file stored in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the decisions don't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return result, err
	}
	return result, nil
}

// AssertGolden compares an already computed result against a golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	snapshot := DecisionSnapshot{
		ScenarioName: scenarioName,
		Decisions:    result.Decisions,
	}
	data, err := snapshot.Canonical()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)

	return nil
}

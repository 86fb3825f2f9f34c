package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/eain/internal/model"
)

// Scenario defines one decision scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Investor is the profile every asset is evaluated for.
	Investor model.InvestorProfile `yaml:"investor"`

	// Assets are raw snapshots, evaluated in order.
	Assets []map[string]any `yaml:"assets"`

	// Expect lists per-asset expectations.
	Expect []Expectation `yaml:"expect"`

	// Assertions validate the decision set as a whole.
	// Supported types: rule_fired, rule_absent, rule_order, decision_count, evidence
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Expectation describes the decision expected for one symbol. Unset
// optional fields are not checked.
type Expectation struct {
	Symbol     string   `yaml:"symbol"`
	Decision   string   `yaml:"decision"`
	Confidence *float64 `yaml:"confidence,omitempty"`
	Score      *float64 `yaml:"score,omitempty"`

	// Rules is the exact, ordered list of reason node rule names.
	Rules []string `yaml:"rules,omitempty"`
}

// Assertion validates the decision set.
type Assertion struct {
	// Type specifies the assertion type:
	// - "rule_fired": Rule appears in a reason tree (Symbol's, or any)
	// - "rule_absent": Rule appears in no reason tree (Symbol's, or any)
	// - "rule_order": Rules appear in this relative order in Symbol's tree
	// - "decision_count": exactly Count decisions have outcome Decision
	// - "evidence": Symbol's Rule node carries Evidence (subset match)
	Type string `yaml:"type"`

	Symbol   string         `yaml:"symbol,omitempty"`
	Rule     string         `yaml:"rule,omitempty"`
	Rules    []string       `yaml:"rules,omitempty"`
	Decision string         `yaml:"decision,omitempty"`
	Count    int            `yaml:"count,omitempty"`
	Evidence map[string]any `yaml:"evidence,omitempty"`
}

// Assertion type constants.
const (
	AssertRuleFired     = "rule_fired"
	AssertRuleAbsent    = "rule_absent"
	AssertRuleOrder     = "rule_order"
	AssertDecisionCount = "decision_count"
	AssertEvidence      = "evidence"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML from memory.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict decoding catches typos like "expects:" vs "expect:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Assets) == 0 {
		return fmt.Errorf("assets list is required and must be non-empty")
	}

	if len(s.Expect) == 0 && len(s.Assertions) == 0 {
		return fmt.Errorf("expect or assertions must be non-empty")
	}

	for i, asset := range s.Assets {
		if model.AssetSnapshot(asset).Symbol() == model.UnknownSymbol {
			return fmt.Errorf("assets[%d]: symbol is required", i)
		}
	}

	for i, exp := range s.Expect {
		if exp.Symbol == "" {
			return fmt.Errorf("expect[%d]: symbol is required", i)
		}
		if !model.Outcome(exp.Decision).Valid() {
			return fmt.Errorf("expect[%d]: unknown decision %q", i, exp.Decision)
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertRuleFired, AssertRuleAbsent:
		if a.Rule == "" {
			return fmt.Errorf("assertions[%d]: rule is required for %s", index, a.Type)
		}
	case AssertRuleOrder:
		if a.Symbol == "" {
			return fmt.Errorf("assertions[%d]: symbol is required for rule_order", index)
		}
		if len(a.Rules) == 0 {
			return fmt.Errorf("assertions[%d]: rules list is required for rule_order", index)
		}
	case AssertDecisionCount:
		if !model.Outcome(a.Decision).Valid() {
			return fmt.Errorf("assertions[%d]: unknown decision %q for decision_count", index, a.Decision)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for decision_count", index)
		}
	case AssertEvidence:
		if a.Symbol == "" || a.Rule == "" {
			return fmt.Errorf("assertions[%d]: symbol and rule are required for evidence", index)
		}
		if len(a.Evidence) == 0 {
			return fmt.Errorf("assertions[%d]: evidence is required for evidence", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}

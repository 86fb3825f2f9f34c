package harness

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/eain/internal/model"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type      string           // Assertion type for categorization
	Expected  string           // Human-readable expected outcome
	Actual    string           // Human-readable actual outcome
	Decisions []model.Decision // All decisions for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nDecisions:\n")
	for i, d := range e.Decisions {
		fmt.Fprintf(&buf, "  [%d] %s %s %v\n", i+1, d.Asset, d.Decision, d.RuleNames())
	}

	return buf.String()
}

// selectDecisions returns the decisions for symbol, or all of them when
// symbol is empty.
func selectDecisions(decisions []model.Decision, symbol string) []model.Decision {
	if symbol == "" {
		return decisions
	}
	var out []model.Decision
	for _, d := range decisions {
		if d.Asset == symbol {
			out = append(out, d)
		}
	}
	return out
}

func scope(symbol string) string {
	if symbol == "" {
		return "any decision"
	}
	return symbol
}

// assertRuleFired checks that the rule appears in at least one selected
// reason tree.
func assertRuleFired(decisions []model.Decision, assertion Assertion) error {
	for _, d := range selectDecisions(decisions, assertion.Symbol) {
		for _, node := range d.ReasonTree {
			if node.Rule == assertion.Rule {
				return nil
			}
		}
	}
	return &AssertionError{
		Type:      AssertRuleFired,
		Expected:  fmt.Sprintf("%s in reason tree of %s", assertion.Rule, scope(assertion.Symbol)),
		Actual:    "rule not found",
		Decisions: decisions,
	}
}

// assertRuleAbsent checks that the rule appears in no selected reason tree.
func assertRuleAbsent(decisions []model.Decision, assertion Assertion) error {
	for _, d := range selectDecisions(decisions, assertion.Symbol) {
		for _, node := range d.ReasonTree {
			if node.Rule == assertion.Rule {
				return &AssertionError{
					Type:      AssertRuleAbsent,
					Expected:  fmt.Sprintf("%s absent from %s", assertion.Rule, scope(assertion.Symbol)),
					Actual:    fmt.Sprintf("found in reason tree of %s", d.Asset),
					Decisions: decisions,
				}
			}
		}
	}
	return nil
}

// assertRuleOrder checks that rules appear in the specified relative order
// in the symbol's reason tree. Other nodes may appear between them.
func assertRuleOrder(decisions []model.Decision, assertion Assertion) error {
	selected := selectDecisions(decisions, assertion.Symbol)
	if len(selected) == 0 {
		return &AssertionError{
			Type:      AssertRuleOrder,
			Expected:  fmt.Sprintf("decision for %s", assertion.Symbol),
			Actual:    "no decision",
			Decisions: decisions,
		}
	}
	tree := selected[0].ReasonTree

	// Step 1: Find first position of each rule
	positions := make(map[string]int)
	for i, node := range tree {
		if positions[node.Rule] == 0 {
			positions[node.Rule] = i + 1 // 1-indexed for readability
		}
	}

	// Step 2: Verify all rules found
	for _, rule := range assertion.Rules {
		if positions[rule] == 0 {
			return &AssertionError{
				Type:      AssertRuleOrder,
				Expected:  fmt.Sprintf("all rules present: %v", assertion.Rules),
				Actual:    fmt.Sprintf("missing rule: %s", rule),
				Decisions: decisions,
			}
		}
	}

	// Step 3: Verify order
	for i := 1; i < len(assertion.Rules); i++ {
		prev := assertion.Rules[i-1]
		curr := assertion.Rules[i]

		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertRuleOrder,
				Expected: fmt.Sprintf("rules in order: %v", assertion.Rules),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					prev, positions[prev], curr, positions[curr]),
				Decisions: decisions,
			}
		}
	}

	return nil
}

// assertDecisionCount checks that exactly Count decisions have the outcome.
func assertDecisionCount(decisions []model.Decision, assertion Assertion) error {
	count := 0
	for _, d := range decisions {
		if string(d.Decision) == assertion.Decision {
			count++
		}
	}

	if count != assertion.Count {
		return &AssertionError{
			Type:      AssertDecisionCount,
			Expected:  fmt.Sprintf("%d %s decisions", assertion.Count, assertion.Decision),
			Actual:    fmt.Sprintf("%d %s decisions", count, assertion.Decision),
			Decisions: decisions,
		}
	}

	return nil
}

// assertEvidence checks the evidence of the symbol's node for rule, using
// subset semantics.
func assertEvidence(decisions []model.Decision, assertion Assertion) error {
	for _, d := range selectDecisions(decisions, assertion.Symbol) {
		for _, node := range d.ReasonTree {
			if node.Rule != assertion.Rule {
				continue
			}
			if matchEvidence(node.Evidence, assertion.Evidence) {
				return nil
			}
			return &AssertionError{
				Type:      AssertEvidence,
				Expected:  fmt.Sprintf("%s evidence containing %s", assertion.Rule, formatEvidence(assertion.Evidence)),
				Actual:    formatEvidence(node.Evidence),
				Decisions: decisions,
			}
		}
	}
	return &AssertionError{
		Type:      AssertEvidence,
		Expected:  fmt.Sprintf("%s node for %s", assertion.Rule, assertion.Symbol),
		Actual:    "rule not found",
		Decisions: decisions,
	}
}

// formatEvidence renders evidence deterministically for error messages.
func formatEvidence(evidence map[string]any) string {
	if len(evidence) == 0 {
		return "{}"
	}
	keys := make([]string, 0, len(evidence))
	for k := range evidence {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%v", k, evidence[k])
	}
	return strings.Join(parts, ", ")
}

// matchEvidence checks if actual evidence contains all expected keys
// (subset match). Extra keys in actual are ignored.
func matchEvidence(actual, expected map[string]any) bool {
	if len(expected) == 0 {
		return true
	}

	for key, expectedVal := range expected {
		actualVal, exists := actual[key]
		if !exists {
			return false
		}
		if !valuesEqual(actualVal, expectedVal) {
			return false
		}
	}

	return true
}

// valuesEqual compares two values by their canonical JSON form, so a YAML
// int matches an evidence float64 and []any matches []string.
func valuesEqual(actual, expected any) bool {
	if actual == nil && expected == nil {
		return true
	}
	if actual == nil || expected == nil {
		return false
	}

	a, err := model.MarshalCanonical(actual)
	if err != nil {
		return false
	}
	e, err := model.MarshalCanonical(expected)
	if err != nil {
		return false
	}
	return bytes.Equal(a, e)
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertRuleFired:
			err = assertRuleFired(result.Decisions, assertion)
		case AssertRuleAbsent:
			err = assertRuleAbsent(result.Decisions, assertion)
		case AssertRuleOrder:
			err = assertRuleOrder(result.Decisions, assertion)
		case AssertDecisionCount:
			err = assertDecisionCount(result.Decisions, assertion)
		case AssertEvidence:
			err = assertEvidence(result.Decisions, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}

package engine

import (
	"errors"
	"fmt"
)

// ErrEmptySnapshot is returned when Evaluate receives a nil snapshot.
// Providers must supply at least a mapping with a symbol.
var ErrEmptySnapshot = errors.New("engine: empty asset snapshot")

// RuleErrorCode categorizes rule failures.
type RuleErrorCode string

const (
	// ErrCodeRuleFailed indicates the rule returned an error.
	ErrCodeRuleFailed RuleErrorCode = "RULE_FAILED"

	// ErrCodeRulePanic indicates the rule panicked and was recovered.
	ErrCodeRulePanic RuleErrorCode = "RULE_PANIC"

	// ErrCodeInvalidOutcome indicates the rule emitted an unknown outcome.
	ErrCodeInvalidOutcome RuleErrorCode = "INVALID_OUTCOME"
)

// RuleError represents one rule's failure during an evaluation.
//
// Rule errors are never returned from Evaluate; they are logged and the
// failing rule contributes nothing to the reason tree.
type RuleError struct {
	// Code identifies the error category.
	Code RuleErrorCode

	// Rule is the name of the failing rule.
	Rule string

	// Symbol identifies the asset under evaluation.
	Symbol string

	// Err is the underlying error, if any.
	Err error
}

// Error implements the error interface.
func (e *RuleError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: rule %s on %s: %v", e.Code, e.Rule, e.Symbol, e.Err)
	}
	return fmt.Sprintf("%s: rule %s on %s", e.Code, e.Rule, e.Symbol)
}

// Unwrap returns the underlying error.
func (e *RuleError) Unwrap() error {
	return e.Err
}

// IsRulePanic returns true if the error is a recovered rule panic.
// Uses errors.As to handle wrapped errors.
func IsRulePanic(err error) bool {
	var re *RuleError
	if errors.As(err, &re) {
		return re.Code == ErrCodeRulePanic
	}
	return false
}

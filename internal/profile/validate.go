package profile

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"

	"github.com/roach88/eain/internal/model"
)

// Validation error codes (E100-E199)
const (
	ErrUnknownRiskTolerance = "E101" // risk_tolerance not low, medium or high
	ErrNegativeCarbonScore  = "E102" // max_carbon_score below zero
	ErrBlankIndustry        = "E103" // empty excluded industry entry
	ErrDuplicateIndustry    = "E104" // excluded industry listed twice
	ErrLoadFailed           = "E105" // file unreadable
	ErrSchemaMismatch       = "E106" // file does not parse or match the schema
)

// ValidationError represents a profile validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks p against the profile rules.
// Returns all errors found (does not fail-fast).
func Validate(p model.InvestorProfile) []ValidationError {
	var errs []ValidationError

	if !model.ValidRiskTolerances[p.RiskTolerance] {
		errs = append(errs, ValidationError{
			Field:   "risk_tolerance",
			Message: fmt.Sprintf("unknown risk tolerance %q (want low, medium or high)", p.RiskTolerance),
			Code:    ErrUnknownRiskTolerance,
		})
	}

	if p.MaxCarbonScore != nil && *p.MaxCarbonScore < 0 {
		errs = append(errs, ValidationError{
			Field:   "max_carbon_score",
			Message: fmt.Sprintf("must not be negative, got %g", *p.MaxCarbonScore),
			Code:    ErrNegativeCarbonScore,
		})
	}

	fold := cases.Fold()
	seen := make(map[string]int, len(p.ExcludedIndustries))
	for i, industry := range p.ExcludedIndustries {
		field := fmt.Sprintf("excluded_industries[%d]", i)
		trimmed := strings.TrimSpace(industry)
		if trimmed == "" {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: "industry must be non-empty",
				Code:    ErrBlankIndustry,
			})
			continue
		}
		key := fold.String(trimmed)
		if first, dup := seen[key]; dup {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("duplicate of excluded_industries[%d] (%q)", first, p.ExcludedIndustries[first]),
				Code:    ErrDuplicateIndustry,
			})
			continue
		}
		seen[key] = i
	}

	return errs
}

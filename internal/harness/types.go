package harness

import "github.com/roach88/eain/internal/model"

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if every expectation and assertion holds.
	Pass bool `json:"pass"`

	// Decisions holds one decision per asset, in scenario order.
	Decisions []model.Decision `json:"decisions"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:      true,
		Decisions: []model.Decision{},
		Errors:    []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Find returns the first decision for symbol.
func (r *Result) Find(symbol string) (model.Decision, bool) {
	for _, d := range r.Decisions {
		if d.Asset == symbol {
			return d, true
		}
	}
	return model.Decision{}, false
}

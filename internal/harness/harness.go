package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"slices"

	"github.com/roach88/eain/internal/client"
	"github.com/roach88/eain/internal/engine"
	"github.com/roach88/eain/internal/model"
	"github.com/roach88/eain/internal/store"
	"github.com/roach88/eain/internal/testutil"
)

// Tolerance is the absolute difference allowed when comparing expected
// confidences and scores.
const Tolerance = 1e-9

// Harness is the scenario execution engine.
// It runs scenarios with a deterministic clock and ids.
type Harness struct {
	client *client.Client
	store  *store.MemoryStore
}

// newHarness wires a client over a fresh in-memory store. Provenance is
// never recorded.
func newHarness(rules []engine.Rule) *Harness {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	clock := testutil.NewFixedClock(testutil.DefaultTime)
	ids := testutil.NewSequentialIDs()
	st := store.NewMemoryStore()

	opts := []engine.Option{engine.WithClock(clock), engine.WithLogger(logger)}
	if rules != nil {
		opts = append(opts, engine.WithRules(rules...))
	}
	eng := engine.New(opts...)

	return &Harness{
		client: client.New(st, eng,
			client.WithIDGenerator(ids),
			client.WithClock(clock),
			client.WithLogger(logger)),
		store: st,
	}
}

// Run executes a scenario with the built-in rule chain and returns the result.
//
// Each scenario runs against a fresh in-memory atom store.
//
// Execution flow:
// 1. Evaluate every asset for the scenario investor
// 2. Check each expectation against the decision for its symbol
// 3. Evaluate assertions over the full decision set
func Run(scenario *Scenario) (*Result, error) {
	return RunWithRules(scenario, nil)
}

// RunWithRules is Run with a replacement rule chain. A nil chain means the
// built-in rules.
func RunWithRules(scenario *Scenario, rules []engine.Rule) (*Result, error) {
	if scenario == nil {
		return nil, fmt.Errorf("scenario is nil")
	}
	h := newHarness(rules)
	defer h.store.Close()

	ctx := context.Background()
	result := NewResult()

	for i, raw := range scenario.Assets {
		asset := model.AssetSnapshot(raw)
		d, err := h.client.EvaluateAsset(ctx, scenario.Investor, asset)
		if err != nil {
			return nil, fmt.Errorf("assets[%d] (%s): %w", i, asset.Symbol(), err)
		}
		result.Decisions = append(result.Decisions, d)
	}

	for i, exp := range scenario.Expect {
		for _, msg := range checkExpectation(result, exp) {
			result.AddError(fmt.Sprintf("expect[%d] (%s): %s", i, exp.Symbol, msg))
		}
	}

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}

	return result, nil
}

// checkExpectation returns one message per mismatch.
func checkExpectation(result *Result, exp Expectation) []string {
	d, ok := result.Find(exp.Symbol)
	if !ok {
		return []string{"no decision for symbol"}
	}

	var errs []string
	if string(d.Decision) != exp.Decision {
		errs = append(errs, fmt.Sprintf("decision = %s, want %s", d.Decision, exp.Decision))
	}
	if exp.Confidence != nil && !approxEqual(d.Confidence, *exp.Confidence) {
		errs = append(errs, fmt.Sprintf("confidence = %g, want %g", d.Confidence, *exp.Confidence))
	}
	if exp.Score != nil && !approxEqual(d.Score, *exp.Score) {
		errs = append(errs, fmt.Sprintf("score = %g, want %g", d.Score, *exp.Score))
	}
	if exp.Rules != nil {
		if got := d.RuleNames(); !slices.Equal(got, exp.Rules) {
			errs = append(errs, fmt.Sprintf("rules = %v, want %v", got, exp.Rules))
		}
	}
	return errs
}

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) <= Tolerance
}

package engine

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/roach88/eain/internal/model"
)

// ProvenanceTag is the tag attached to every snapshot recorded during an
// evaluation.
const ProvenanceTag = "metta_input"

// Recorder persists the raw snapshot used by an evaluation and returns a
// receipt for it. Implemented by provenance.Recorder.
type Recorder interface {
	Record(snapshot model.AssetSnapshot, tag string) (model.Receipt, error)
}

// Engine evaluates assets for investors with an ordered rule chain.
//
// Thread-safety: an Engine holds no mutable state after construction and
// is safe for concurrent use as long as its Recorder is.
//
// INVARIANTS:
//   - rules order NEVER changes after construction
//   - a reject stops the chain; later rules do not run
//   - a failing rule never aborts the evaluation
type Engine struct {
	rules    []Rule
	recorder Recorder
	clock    Clock
	logger   *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithRules replaces the built-in rule chain. The slice is copied.
func WithRules(rules ...Rule) Option {
	return func(e *Engine) {
		e.rules = append([]Rule(nil), rules...)
	}
}

// WithRecorder enables provenance recording. Without a recorder every
// decision carries a nil provenance receipt.
func WithRecorder(r Recorder) Option {
	return func(e *Engine) {
		e.recorder = r
	}
}

// WithClock sets the clock used for decision timestamps.
func WithClock(c Clock) Option {
	return func(e *Engine) {
		e.clock = c
	}
}

// WithLogger sets the logger used for rule failures and decisions.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// New creates an Engine running DefaultRules unless WithRules is given.
func New(opts ...Option) *Engine {
	e := &Engine{
		rules:  DefaultRules(),
		clock:  SystemClock{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.clock == nil {
		e.clock = SystemClock{}
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// Rules returns a copy of the rule chain in execution order.
func (e *Engine) Rules() []Rule {
	return append([]Rule(nil), e.rules...)
}

// Evaluate runs the rule chain for one asset and folds the result.
//
// Rule failures are logged and skipped. A provenance failure is logged and
// leaves Provenance nil. The only error returned is ErrEmptySnapshot.
// Neither input is mutated.
func (e *Engine) Evaluate(investor model.InvestorProfile, asset model.AssetSnapshot) (model.Decision, error) {
	if asset == nil {
		return model.Decision{}, ErrEmptySnapshot
	}
	symbol := asset.Symbol()

	var fold Fold
	for _, rule := range e.rules {
		node, err := e.runRule(rule, investor, asset)
		if err != nil {
			e.logger.Error("rule failed",
				"rule", rule.Name,
				"symbol", symbol,
				"error", err)
			continue
		}
		if node == nil {
			continue
		}
		if fold.Apply(*node) {
			e.logger.Debug("chain halted", "rule", node.Rule, "symbol", symbol)
			break
		}
	}

	verdict := fold.Verdict()
	decision := model.Decision{
		Asset:      symbol,
		Decision:   verdict.Outcome,
		Score:      model.Score(verdict.Outcome, verdict.Confidence),
		ReasonTree: verdict.Nodes,
		Confidence: verdict.Confidence,
		Provenance: e.record(asset, symbol),
		Timestamp:  e.clock.Now().Unix(),
	}

	e.logger.Info("asset evaluated",
		"symbol", symbol,
		"decision", decision.Decision,
		"confidence", decision.Confidence,
		"score", decision.Score,
		"rules", decision.RuleNames())

	return decision, nil
}

// runRule executes one rule with panic isolation and validates its node.
func (e *Engine) runRule(rule Rule, investor model.InvestorProfile, asset model.AssetSnapshot) (node *model.ReasonNode, err error) {
	symbol := asset.Symbol()
	defer func() {
		if r := recover(); r != nil {
			node = nil
			err = &RuleError{
				Code:   ErrCodeRulePanic,
				Rule:   rule.Name,
				Symbol: symbol,
				Err:    fmt.Errorf("panic: %v", r),
			}
		}
	}()

	if rule.Eval == nil {
		return nil, nil
	}

	// Rules receive copies so a misbehaving rule cannot alter later rules' inputs.
	node, err = rule.Eval(investor.Clone(), asset.Clone())
	if err != nil {
		return nil, &RuleError{Code: ErrCodeRuleFailed, Rule: rule.Name, Symbol: symbol, Err: err}
	}
	if node == nil {
		return nil, nil
	}
	if !node.Outcome.Valid() {
		return nil, &RuleError{
			Code:   ErrCodeInvalidOutcome,
			Rule:   rule.Name,
			Symbol: symbol,
			Err:    fmt.Errorf("outcome %q", node.Outcome),
		}
	}

	out := *node
	if out.Rule == "" {
		out.Rule = rule.Name
	}
	out.Confidence = clampConfidence(out.Confidence)
	return &out, nil
}

// record persists the snapshot. Failures degrade to a nil receipt.
func (e *Engine) record(asset model.AssetSnapshot, symbol string) (receipt *model.Receipt) {
	if e.recorder == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("provenance recording panicked", "symbol", symbol, "panic", r)
			receipt = nil
		}
	}()

	rec, err := e.recorder.Record(asset, ProvenanceTag)
	if err != nil {
		e.logger.Error("provenance recording failed", "symbol", symbol, "error", err)
		return nil
	}
	return &rec
}

func clampConfidence(c float64) float64 {
	switch {
	case math.IsNaN(c) || c < 0:
		return 0
	case c > 1:
		return 1
	default:
		return c
	}
}

package engine

import "github.com/roach88/eain/internal/model"

// Default decision used when no rule fires.
const (
	DefaultRuleName   = "default_deprioritize"
	DefaultConfidence = 0.2
	defaultNote       = "No rules strongly matched; default deprioritize"
)

// Verdict is the folded result of one evaluation.
type Verdict struct {
	Outcome    model.Outcome
	Confidence float64
	Nodes      []model.ReasonNode

	// Defaulted is true when no rule fired and the synthetic node was added.
	Defaulted bool
}

// Fold applies reason nodes in rule order with decision precedence.
//
// Precedence:
//   - reject: terminal, confidence taken from the node, later nodes ignored
//   - accept: replaces a deprioritize and resets confidence; repeated
//     accepts keep the maximum confidence
//   - deprioritize: recorded only while nothing, or another deprioritize,
//     has been recorded; repeated deprioritizes keep the maximum
//
// Every applied node is kept in the reason tree, including those that did
// not change the decision.
//
// The zero value is an empty fold ready for use.
type Fold struct {
	outcome    model.Outcome
	confidence float64
	decided    bool
	halted     bool
	nodes      []model.ReasonNode
}

// Apply folds one node. It returns true once the fold is terminal, after
// which the caller must stop running rules.
func (f *Fold) Apply(node model.ReasonNode) bool {
	if f.halted {
		return true
	}
	f.nodes = append(f.nodes, node)

	switch node.Outcome {
	case model.Reject:
		f.outcome = model.Reject
		f.confidence = node.Confidence
		f.decided = true
		f.halted = true
	case model.Accept:
		if f.decided && f.outcome == model.Accept {
			f.confidence = max(f.confidence, node.Confidence)
		} else {
			f.outcome = model.Accept
			f.confidence = node.Confidence
			f.decided = true
		}
	case model.Deprioritize:
		if !f.decided {
			f.outcome = model.Deprioritize
			f.confidence = node.Confidence
			f.decided = true
		} else if f.outcome == model.Deprioritize {
			f.confidence = max(f.confidence, node.Confidence)
		}
	}
	return f.halted
}

// Halted reports whether a terminal node has been applied.
func (f *Fold) Halted() bool {
	return f.halted
}

// Verdict returns the folded decision. With no applied nodes it returns the
// default deprioritize decision with its single synthetic node, so the
// reason tree is never empty.
func (f *Fold) Verdict() Verdict {
	nodes := make([]model.ReasonNode, len(f.nodes), len(f.nodes)+1)
	copy(nodes, f.nodes)

	if !f.decided {
		nodes = append(nodes, model.ReasonNode{
			Rule:       DefaultRuleName,
			Outcome:    model.Deprioritize,
			Evidence:   nil,
			Note:       defaultNote,
			Confidence: DefaultConfidence,
		})
		return Verdict{
			Outcome:    model.Deprioritize,
			Confidence: DefaultConfidence,
			Nodes:      nodes,
			Defaulted:  true,
		}
	}

	return Verdict{
		Outcome:    f.outcome,
		Confidence: f.confidence,
		Nodes:      nodes,
	}
}

// FoldNodes folds a complete node sequence, stopping at the first reject.
func FoldNodes(nodes []model.ReasonNode) Verdict {
	var f Fold
	for _, n := range nodes {
		if f.Apply(n) {
			break
		}
	}
	return f.Verdict()
}

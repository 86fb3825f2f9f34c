// Package engine implements the EAIN decision engine.
//
// The engine is the heart of EAIN - it runs an ordered rule chain over an
// (investor profile, asset snapshot) pair, folds the emitted reason nodes
// into one decision, and asks the provenance recorder to persist the raw
// evidence it used.
//
// ARCHITECTURE:
//
// Rule Chain:
// Rules are pure functions evaluated in declaration order. Each rule either
// abstains (nil node) or emits one ReasonNode. Missing or unparseable
// evidence makes a rule abstain; it never justifies a rejection on its own.
//
// Precedence Fold:
// Emitted nodes are applied to a Fold in rule order:
//   - reject is terminal: the chain stops and later rules never run
//   - accept overrides a recorded deprioritize and restarts confidence tracking
//   - deprioritize is kept only while nothing stronger has been recorded
//   - no node at all yields a synthetic default_deprioritize node at 0.2
//
// The fold is independent of the rule bodies so precedence can be tested in
// isolation.
//
// Failure Isolation:
// A rule that returns an error or panics is logged and skipped; the rest of
// the chain still runs. A provenance write failure is logged and the decision
// carries no receipt. Neither ever aborts an evaluation.
//
// CRITICAL PATTERNS:
//
// Deterministic Scheduling:
// Rules evaluated in declaration order. The rule slice is copied at
// construction and never reordered. No randomness, no concurrency.
//
// Score:
// score = weight(decision) * confidence, nothing else.
package engine

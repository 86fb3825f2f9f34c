// Package harness runs decision scenarios against the rule engine.
//
// A scenario is a YAML file naming one investor profile, a list of asset
// snapshots, and the decisions the engine is expected to reach for them:
//
//	name: esg_exclusions
//	description: Sector and carbon exclusions reject before return checks
//	investor:
//	  risk_tolerance: medium
//	  excluded_industries: [Tobacco]
//	assets:
//	  - {symbol: XYZ, sector: Tobacco, percent_change: 2}
//	expect:
//	  - {symbol: XYZ, decision: reject, confidence: 0.95, rules: [exclude_by_industry]}
//
// Each scenario runs through the same client facade production uses, backed
// by an in-memory atom store, a fixed clock and sequential ids, so every
// decision (atom ids and timestamps included) is reproducible. Provenance
// recording is disabled.
//
// Beyond per-asset expectations, scenarios may carry assertions over the
// whole decision set (rule_fired, rule_absent, rule_order, decision_count,
// evidence). RunWithGolden compares the canonical JSON of all decisions
// against testdata/golden/{name}.golden.
package harness

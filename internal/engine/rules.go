package engine

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"

	"github.com/roach88/eain/internal/model"
)

// RuleFunc inspects an investor and an asset snapshot. It returns nil to
// abstain or a node carrying its outcome. Rule functions must not mutate
// their inputs and must not perform I/O.
type RuleFunc func(investor model.InvestorProfile, asset model.AssetSnapshot) (*model.ReasonNode, error)

// Rule is a named entry in the rule chain.
type Rule struct {
	Name string
	Eval RuleFunc
}

// Built-in rule names, also used as reason node rule names.
const (
	RuleExcludeByIndustry = "exclude_by_industry"
	RuleExcludeByCarbon   = "exclude_by_carbon"
	RuleRecentLargeDrop   = "recent_large_drop"
	RuleReturnAndRisk     = "return_and_risk"

	// Node names emitted by the return-and-risk rule.
	NodeAcceptByReturnAndRisk      = "accept_by_return_and_risk"
	NodeDeprioritizeByReturnOrRisk = "deprioritize_by_return_or_risk"
)

// Rule confidences.
const (
	ConfidenceExcludeByIndustry  = 0.95
	ConfidenceExcludeByCarbon    = 0.90
	ConfidenceRecentLargeDrop    = 0.70
	ConfidenceReturnAccept       = 0.80
	ConfidenceReturnDeprioritize = 0.60
)

// LargeDropPercent is the percent_change at or below which an asset is
// deprioritized (percent units: -5 means a 5% decline).
const LargeDropPercent = -5.0

// Sources of the expected return used by the return-and-risk rule.
const (
	ReturnSourceReported = "expected_return"
	ReturnSourceProxy    = "percent_change_proxy"
)

// DefaultRules returns the built-in chain in its required order:
// industry exclusion, carbon exclusion, recent large drop, return and risk.
func DefaultRules() []Rule {
	return []Rule{
		{Name: RuleExcludeByIndustry, Eval: ExcludeByIndustry},
		{Name: RuleExcludeByCarbon, Eval: ExcludeByCarbon},
		{Name: RuleRecentLargeDrop, Eval: RecentLargeDrop},
		{Name: RuleReturnAndRisk, Eval: ReturnAndRisk},
	}
}

// ExcludeByIndustry rejects an asset whose sector matches one of the
// investor's excluded industries. Matching is case-folded and trimmed.
func ExcludeByIndustry(investor model.InvestorProfile, asset model.AssetSnapshot) (*model.ReasonNode, error) {
	if len(investor.ExcludedIndustries) == 0 {
		return nil, nil
	}
	sector, ok := asset.Text(model.FieldSector)
	if !ok {
		return nil, nil
	}

	// cases.Caser is stateful; one per call.
	fold := cases.Fold()
	want := fold.String(strings.TrimSpace(sector))
	for _, excluded := range investor.ExcludedIndustries {
		if fold.String(strings.TrimSpace(excluded)) != want {
			continue
		}
		return &model.ReasonNode{
			Rule:    RuleExcludeByIndustry,
			Outcome: model.Reject,
			Evidence: map[string]any{
				"sector":   sector,
				"excluded": append([]string(nil), investor.ExcludedIndustries...),
				"matched":  excluded,
			},
			Note:       fmt.Sprintf("Asset sector '%s' matches investor excluded industries", sector),
			Confidence: ConfidenceExcludeByIndustry,
		}, nil
	}
	return nil, nil
}

// ExcludeByCarbon rejects an asset whose carbon value exceeds the
// investor's max_carbon_score. Without a limit or a numeric carbon value the
// rule abstains.
func ExcludeByCarbon(investor model.InvestorProfile, asset model.AssetSnapshot) (*model.ReasonNode, error) {
	if investor.MaxCarbonScore == nil {
		return nil, nil
	}
	carbon, field, ok := asset.Number(model.FieldCarbon)
	if !ok {
		return nil, nil
	}
	limit := *investor.MaxCarbonScore
	if carbon <= limit {
		return nil, nil
	}
	return &model.ReasonNode{
		Rule:    RuleExcludeByCarbon,
		Outcome: model.Reject,
		Evidence: map[string]any{
			"carbon":       carbon,
			"carbon_field": field,
			"max_allowed":  limit,
		},
		Note:       fmt.Sprintf("Asset carbon %g > investor max %g", carbon, limit),
		Confidence: ConfidenceExcludeByCarbon,
	}, nil
}

// RecentLargeDrop deprioritizes an asset whose percent_change is at or
// below LargeDropPercent.
func RecentLargeDrop(_ model.InvestorProfile, asset model.AssetSnapshot) (*model.ReasonNode, error) {
	pct, _, ok := asset.Number(model.FieldPercentChange)
	if !ok || pct > LargeDropPercent {
		return nil, nil
	}
	return &model.ReasonNode{
		Rule:    RuleRecentLargeDrop,
		Outcome: model.Deprioritize,
		Evidence: map[string]any{
			"percent_change": pct,
			"threshold":      LargeDropPercent,
		},
		Note:       "Asset dropped more than 5% recently",
		Confidence: ConfidenceRecentLargeDrop,
	}, nil
}

// ReturnAndRisk compares expected return and volatility against the
// investor's risk tolerance row.
//
// Expected return comes from expected_return, or failing that from
// max(percent_change/100, 0) as a naive proxy. Volatility is the first
// usable of volatility, beta, stddev and may be absent. Without any
// expected return the rule abstains.
func ReturnAndRisk(investor model.InvestorProfile, asset model.AssetSnapshot) (*model.ReasonNode, error) {
	tolerance, thresholds := ThresholdsFor(investor.RiskTolerance)

	expected, returnSource, ok := expectedReturn(asset)
	if !ok {
		return nil, nil
	}

	var volatility any
	vol, volField, hasVol := asset.Number(model.FieldVolatility)
	if hasVol {
		volatility = vol
	}

	evidence := map[string]any{
		"expected_return":        expected,
		"expected_return_source": returnSource,
		"volatility":             volatility,
		"risk_tolerance":         string(tolerance),
		"thresholds": map[string]any{
			"min_return":     thresholds.MinReturn,
			"max_volatility": thresholds.MaxVolatility,
		},
	}
	if hasVol {
		evidence["volatility_field"] = volField
	}

	if expected >= thresholds.MinReturn && (!hasVol || vol <= thresholds.MaxVolatility) {
		return &model.ReasonNode{
			Rule:       NodeAcceptByReturnAndRisk,
			Outcome:    model.Accept,
			Evidence:   evidence,
			Note:       "Meets expected return and volatility thresholds",
			Confidence: ConfidenceReturnAccept,
		}, nil
	}
	return &model.ReasonNode{
		Rule:       NodeDeprioritizeByReturnOrRisk,
		Outcome:    model.Deprioritize,
		Evidence:   evidence,
		Note:       "Fails return / volatility requirements",
		Confidence: ConfidenceReturnDeprioritize,
	}, nil
}

func expectedReturn(asset model.AssetSnapshot) (float64, string, bool) {
	if r, _, ok := asset.Number(model.FieldExpectedReturn); ok {
		return r, ReturnSourceReported, true
	}
	if pct, _, ok := asset.Number(model.FieldPercentChange); ok {
		return max(pct/100.0, 0.0), ReturnSourceProxy, true
	}
	return 0, "", false
}

package model

// Outcome is the result a rule emits and the final decision of an evaluation.
type Outcome string

const (
	Accept       Outcome = "accept"
	Reject       Outcome = "reject"
	Deprioritize Outcome = "deprioritize"
)

// outcomeWeights maps a decision to its score multiplier.
var outcomeWeights = map[Outcome]float64{
	Accept:       1.0,
	Deprioritize: 0.5,
	Reject:       0.0,
}

// Weight returns the score multiplier for the outcome.
// Unknown outcomes weigh like deprioritize.
func (o Outcome) Weight() float64 {
	if w, ok := outcomeWeights[o]; ok {
		return w
	}
	return outcomeWeights[Deprioritize]
}

// Valid reports whether o is one of the three known outcomes.
func (o Outcome) Valid() bool {
	_, ok := outcomeWeights[o]
	return ok
}

// Score computes the decision score: Weight(decision) * confidence.
// The score depends on nothing else.
func Score(decision Outcome, confidence float64) float64 {
	return decision.Weight() * confidence
}

// RiskTolerance is the investor's stated appetite for volatility.
type RiskTolerance string

const (
	RiskLow    RiskTolerance = "low"
	RiskMedium RiskTolerance = "medium"
	RiskHigh   RiskTolerance = "high"
)

// ValidRiskTolerances defines the recognized tolerance values.
var ValidRiskTolerances = map[RiskTolerance]bool{
	RiskLow:    true,
	RiskMedium: true,
	RiskHigh:   true,
}

// InvestorProfile is the immutable investor input to an evaluation.
type InvestorProfile struct {
	RiskTolerance      RiskTolerance `json:"risk_tolerance" yaml:"risk_tolerance"`
	ExcludedIndustries []string      `json:"excluded_industries,omitempty" yaml:"excluded_industries,omitempty"`
	MaxCarbonScore     *float64      `json:"max_carbon_score,omitempty" yaml:"max_carbon_score,omitempty"`
	Goal               string        `json:"goal,omitempty" yaml:"goal,omitempty"`
}

// Clone returns a deep copy so stored atoms cannot be mutated through the caller's profile.
func (p InvestorProfile) Clone() InvestorProfile {
	out := p
	if p.ExcludedIndustries != nil {
		out.ExcludedIndustries = append([]string(nil), p.ExcludedIndustries...)
	}
	if p.MaxCarbonScore != nil {
		v := *p.MaxCarbonScore
		out.MaxCarbonScore = &v
	}
	return out
}

// ReasonNode records one rule that fired during an evaluation.
// Node order in a reason tree is rule execution order.
type ReasonNode struct {
	Rule       string         `json:"rule"`
	Outcome    Outcome        `json:"outcome"`
	Evidence   map[string]any `json:"evidence"`
	Note       string         `json:"note"`
	Confidence float64        `json:"confidence"`
}

// Receipt is the lightweight provenance reference embedded in a Decision.
// The full raw snapshot lives only in the persisted record at Path.
type Receipt struct {
	Symbol    string `json:"symbol"`
	Hash      string `json:"hash"`
	Path      string `json:"path"`
	Timestamp int64  `json:"timestamp"`
}

// Decision is the output of evaluating one asset for one investor.
//
// InvestorAtom, AssetAtom and DecisionID are attached by the client facade
// after evaluation; everything else is fixed when the engine returns.
type Decision struct {
	Asset      string       `json:"asset"`
	Decision   Outcome      `json:"decision"`
	Score      float64      `json:"score"`
	ReasonTree []ReasonNode `json:"reason_tree"`
	Confidence float64      `json:"confidence"`
	Provenance *Receipt     `json:"provenance"`
	Timestamp  int64        `json:"timestamp"`

	InvestorAtom string `json:"investor_atom,omitempty"`
	AssetAtom    string `json:"asset_atom,omitempty"`
	DecisionID   string `json:"decision_id,omitempty"`
}

// RuleNames returns the rule name of every reason node, in order.
func (d Decision) RuleNames() []string {
	names := make([]string, len(d.ReasonTree))
	for i, n := range d.ReasonTree {
		names[i] = n.Rule
	}
	return names
}

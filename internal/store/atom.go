package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/eain/internal/model"
)

// ErrNotFound is returned by Get when no atom has the requested id.
var ErrNotFound = errors.New("store: atom not found")

// Kind identifies what an atom holds.
type Kind string

const (
	KindInvestor Kind = "Investor"
	KindAsset    Kind = "Asset"
	KindDecision Kind = "Decision"
)

// Valid reports whether k is a known atom kind.
func (k Kind) Valid() bool {
	switch k {
	case KindInvestor, KindAsset, KindDecision:
		return true
	}
	return false
}

// Atom is one stored audit record. Exactly one of Investor, Asset and
// Decision is set, matching Kind.
type Atom struct {
	ID         string                 `json:"id"`
	Kind       Kind                   `json:"kind"`
	CapturedAt int64                  `json:"captured_at"`
	Investor   *model.InvestorProfile `json:"investor,omitempty"`
	Asset      model.AssetSnapshot    `json:"asset,omitempty"`
	Decision   *model.Decision        `json:"decision,omitempty"`
}

// NewInvestorAtom wraps a copy of profile.
func NewInvestorAtom(id string, at time.Time, profile model.InvestorProfile) Atom {
	p := profile.Clone()
	return Atom{ID: id, Kind: KindInvestor, CapturedAt: at.Unix(), Investor: &p}
}

// NewAssetAtom wraps a copy of snapshot.
func NewAssetAtom(id string, at time.Time, snapshot model.AssetSnapshot) Atom {
	return Atom{ID: id, Kind: KindAsset, CapturedAt: at.Unix(), Asset: snapshot.Clone()}
}

// NewDecisionAtom wraps decision.
func NewDecisionAtom(id string, at time.Time, decision model.Decision) Atom {
	d := decision
	d.ReasonTree = append([]model.ReasonNode(nil), decision.ReasonTree...)
	return Atom{ID: id, Kind: KindDecision, CapturedAt: at.Unix(), Decision: &d}
}

// Validate checks that the atom has an id and a payload matching its kind.
func (a Atom) Validate() error {
	if a.ID == "" {
		return errors.New("atom: empty id")
	}
	var ok bool
	switch a.Kind {
	case KindInvestor:
		ok = a.Investor != nil
	case KindAsset:
		ok = a.Asset != nil
	case KindDecision:
		ok = a.Decision != nil
	default:
		return fmt.Errorf("atom %s: unknown kind %q", a.ID, a.Kind)
	}
	if !ok {
		return fmt.Errorf("atom %s: missing %s payload", a.ID, a.Kind)
	}
	return nil
}

// Store is a keyed atom cache.
//
// Put replaces any atom already stored under the same id. Get returns
// ErrNotFound for unknown ids.
type Store interface {
	Put(ctx context.Context, atom Atom) error
	Get(ctx context.Context, id string) (Atom, error)
	Close() error
}

package client

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/eain/internal/model"
	"github.com/roach88/eain/internal/store"
)

// FallbackRule names the single reason node of a fallback decision.
const FallbackRule = "metta_error"

// Evaluator turns an investor and an asset into a decision.
// Implemented by *engine.Engine.
type Evaluator interface {
	Evaluate(investor model.InvestorProfile, asset model.AssetSnapshot) (model.Decision, error)
}

// Clock supplies atom capture times and fallback decision timestamps.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Client records inputs, evaluates, and stores decisions.
//
// Thread-safety: Client is safe for concurrent use when its store,
// evaluator and id generator are.
type Client struct {
	store     store.Store
	evaluator Evaluator
	ids       IDGenerator
	clock     Clock
	logger    *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithIDGenerator sets the atom and decision id source.
func WithIDGenerator(g IDGenerator) Option {
	return func(c *Client) {
		c.ids = g
	}
}

// WithClock sets the clock used for atom capture times.
func WithClock(clock Clock) Option {
	return func(c *Client) {
		c.clock = clock
	}
}

// WithLogger sets the client's logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// New creates a Client over s and eval.
func New(s store.Store, eval Evaluator, opts ...Option) *Client {
	c := &Client{
		store:     s,
		evaluator: eval,
		ids:       RandomIDs{},
		clock:     systemClock{},
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Store returns the underlying atom store.
func (c *Client) Store() store.Store {
	return c.store
}

// AssertInvestorProfile records profile as an atom and returns its id.
func (c *Client) AssertInvestorProfile(ctx context.Context, profile model.InvestorProfile) (string, error) {
	atom := store.NewInvestorAtom(c.ids.AtomID(), c.clock.Now(), profile)
	if err := c.store.Put(ctx, atom); err != nil {
		return "", fmt.Errorf("assert investor: %w", err)
	}
	c.logger.Debug("atom stored", "id", atom.ID, "kind", atom.Kind)
	return atom.ID, nil
}

// AssertAsset records asset as an atom and returns its id.
func (c *Client) AssertAsset(ctx context.Context, asset model.AssetSnapshot) (string, error) {
	if asset == nil {
		asset = model.AssetSnapshot{}
	}
	atom := store.NewAssetAtom(c.ids.AtomID(), c.clock.Now(), asset)
	if err := c.store.Put(ctx, atom); err != nil {
		return "", fmt.Errorf("assert asset: %w", err)
	}
	c.logger.Debug("atom stored", "id", atom.ID, "kind", atom.Kind, "symbol", asset.Symbol())
	return atom.ID, nil
}

// EvaluateAsset evaluates one asset for investor.
//
// Both inputs are recorded as atoms before evaluation. The decision is
// enriched with their ids and a fresh decision id, then stored as an atom.
// Evaluation faults produce a fallback decision instead of an error; the
// returned error reports atom store failures only.
func (c *Client) EvaluateAsset(ctx context.Context, investor model.InvestorProfile, asset model.AssetSnapshot) (model.Decision, error) {
	investorAtom, err := c.AssertInvestorProfile(ctx, investor)
	if err != nil {
		return model.Decision{}, fmt.Errorf("evaluate %s: %w", asset.Symbol(), err)
	}
	assetAtom, err := c.AssertAsset(ctx, asset)
	if err != nil {
		return model.Decision{}, fmt.Errorf("evaluate %s: %w", asset.Symbol(), err)
	}

	decision := c.safeEvaluate(investor, asset)
	decision.InvestorAtom = investorAtom
	decision.AssetAtom = assetAtom
	decision.DecisionID = c.ids.DecisionID()

	atom := store.NewDecisionAtom(decision.DecisionID, c.clock.Now(), decision)
	if err := c.store.Put(ctx, atom); err != nil {
		return decision, fmt.Errorf("store decision %s: %w", decision.DecisionID, err)
	}
	return decision, nil
}

// BatchEvaluate evaluates each asset in order. An asset whose evaluation
// fails is logged and left out; the batch itself never fails.
func (c *Client) BatchEvaluate(ctx context.Context, investor model.InvestorProfile, assets []model.AssetSnapshot) []model.Decision {
	decisions := make([]model.Decision, 0, len(assets))
	for i, asset := range assets {
		d, err := c.EvaluateAsset(ctx, investor, asset)
		if err != nil {
			c.logger.Error("batch item omitted",
				"index", i,
				"symbol", asset.Symbol(),
				"error", err)
			continue
		}
		decisions = append(decisions, d)
	}
	return decisions
}

// GetAtom returns the atom stored under id. Unknown ids yield an error
// wrapping store.ErrNotFound.
func (c *Client) GetAtom(ctx context.Context, id string) (store.Atom, error) {
	return c.store.Get(ctx, id)
}

// safeEvaluate runs the evaluator, converting any panic or error into a
// fallback decision.
func (c *Client) safeEvaluate(investor model.InvestorProfile, asset model.AssetSnapshot) (decision model.Decision) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("evaluator panic: %v", r)
			c.logger.Error("evaluation fallback", "symbol", asset.Symbol(), "error", err)
			decision = c.fallback(asset, err)
		}
	}()

	d, err := c.evaluator.Evaluate(investor, asset)
	if err != nil {
		c.logger.Error("evaluation fallback", "symbol", asset.Symbol(), "error", err)
		return c.fallback(asset, err)
	}
	return d
}

// fallback is the safe default for an evaluation fault: deprioritize with
// zero confidence, one metta_error node and no provenance.
func (c *Client) fallback(asset model.AssetSnapshot, err error) model.Decision {
	return model.Decision{
		Asset:    asset.Symbol(),
		Decision: model.Deprioritize,
		Score:    0,
		ReasonTree: []model.ReasonNode{{
			Rule:       FallbackRule,
			Outcome:    model.Deprioritize,
			Note:       err.Error(),
			Confidence: 0,
		}},
		Confidence: 0,
		Provenance: nil,
		Timestamp:  c.clock.Now().Unix(),
	}
}

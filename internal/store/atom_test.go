package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/eain/internal/model"
)

// forEachStore runs fn against every Store implementation.
func forEachStore(t *testing.T, fn func(t *testing.T, s Store)) {
	t.Run("memory", func(t *testing.T) {
		fn(t, NewMemoryStore())
	})
	t.Run("sqlite", func(t *testing.T) {
		fn(t, openTestStore(t))
	})
}

func TestStore_PutGet(t *testing.T) {
	carbon := 120.0
	at := time.Unix(1704067200, 0)

	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		inv := NewInvestorAtom("atom_a", at, model.InvestorProfile{
			RiskTolerance:      model.RiskLow,
			ExcludedIndustries: []string{"Tobacco"},
			MaxCarbonScore:     &carbon,
			Goal:               "retirement",
		})
		require.NoError(t, s.Put(ctx, inv))

		got, err := s.Get(ctx, "atom_a")
		require.NoError(t, err)
		assert.Equal(t, KindInvestor, got.Kind)
		assert.Equal(t, at.Unix(), got.CapturedAt)
		require.NotNil(t, got.Investor)
		assert.Equal(t, *inv.Investor, *got.Investor)
		assert.Nil(t, got.Decision)
		assert.Nil(t, got.Asset)
	})
}

func TestStore_DecisionAtom(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		d := model.Decision{
			Asset:      "XYZ",
			Decision:   model.Reject,
			Score:      0,
			Confidence: 0.95,
			ReasonTree: []model.ReasonNode{{
				Rule:       "exclude_by_industry",
				Outcome:    model.Reject,
				Note:       "Asset sector 'Tobacco' matches investor excluded industries",
				Confidence: 0.95,
			}},
			Timestamp:    1704067200,
			InvestorAtom: "atom_1",
			AssetAtom:    "atom_2",
			DecisionID:   "decision_1",
		}
		require.NoError(t, s.Put(ctx, NewDecisionAtom("decision_1", time.Unix(1704067200, 0), d)))

		got, err := s.Get(ctx, "decision_1")
		require.NoError(t, err)
		require.NotNil(t, got.Decision)
		assert.Equal(t, model.Reject, got.Decision.Decision)
		assert.Equal(t, 0.95, got.Decision.Confidence)
		assert.Equal(t, []string{"exclude_by_industry"}, got.Decision.RuleNames())
		assert.Equal(t, "atom_2", got.Decision.AssetAtom)
		assert.Nil(t, got.Decision.Provenance)
	})
}

func TestStore_NotFound(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		_, err := s.Get(context.Background(), "atom_missing")
		assert.True(t, errors.Is(err, ErrNotFound))
	})
}

func TestStore_PutReplaces(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		require.NoError(t, s.Put(ctx, NewAssetAtom("atom_x", time.Unix(1, 0), model.AssetSnapshot{"symbol": "A"})))
		require.NoError(t, s.Put(ctx, NewAssetAtom("atom_x", time.Unix(2, 0), model.AssetSnapshot{"symbol": "B"})))

		got, err := s.Get(ctx, "atom_x")
		require.NoError(t, err)
		assert.Equal(t, "B", got.Asset.Symbol())
		assert.Equal(t, int64(2), got.CapturedAt)
	})
}

func TestStore_RejectsInvalidAtoms(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		assert.Error(t, s.Put(ctx, Atom{Kind: KindAsset, Asset: model.AssetSnapshot{}}))
		assert.Error(t, s.Put(ctx, Atom{ID: "a", Kind: "Portfolio"}))
		assert.Error(t, s.Put(ctx, Atom{ID: "a", Kind: KindDecision}))
	})
}

func TestAtom_CopiesInputs(t *testing.T) {
	snapshot := model.AssetSnapshot{"symbol": "A", "tags": []any{"x"}}
	atom := NewAssetAtom("atom_1", time.Unix(0, 0), snapshot)
	snapshot["symbol"] = "B"

	profile := model.InvestorProfile{ExcludedIndustries: []string{"Energy"}}
	inv := NewInvestorAtom("atom_2", time.Unix(0, 0), profile)
	profile.ExcludedIndustries[0] = "Tobacco"

	assert.Equal(t, "A", atom.Asset.Symbol())
	assert.Equal(t, "Energy", inv.Investor.ExcludedIndustries[0])
}

func TestMemoryStore_Concurrent(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := "atom_" + string(rune('a'+i%26)) + string(rune('a'+i/26))
			_ = s.Put(ctx, NewAssetAtom(id, time.Unix(0, 0), model.AssetSnapshot{"symbol": id}))
			_, _ = s.Get(ctx, id)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 50, s.Len())
}

package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentHash_KnownVector(t *testing.T) {
	h, err := ContentHash(map[string]any{"a": 1})
	require.NoError(t, err)
	assert.Equal(t, "015abd7f5cc57a2dd94b7590f04ad8084273905ee33ec5cebeae62276a97f862", h)
	assert.Len(t, h, 64)
}

func TestContentHash_KeyOrderIndependent(t *testing.T) {
	a := AssetSnapshot{}
	a["symbol"] = "XYZ"
	a["sector"] = "Tobacco"
	a["percent_change"] = 2

	b := AssetSnapshot{}
	b["percent_change"] = 2
	b["sector"] = "Tobacco"
	b["symbol"] = "XYZ"

	assert.Equal(t, MustContentHash(a), MustContentHash(b))
	assert.Equal(t, "13b67652c2ca4c60cf28a18a4c927a62133dbb7cab817a211a8b8f52e399397f", MustContentHash(a))
}

func TestContentHash_ValueChangeChangesHash(t *testing.T) {
	base := AssetSnapshot{"symbol": "XYZ", "sector": "Tobacco", "percent_change": 2}
	baseHash := MustContentHash(base)

	variants := []AssetSnapshot{
		{"symbol": "XYZ", "sector": "Tobacco", "percent_change": 3},
		{"symbol": "XYZ", "sector": "tobacco", "percent_change": 2},
		{"symbol": "XYY", "sector": "Tobacco", "percent_change": 2},
		{"symbol": "XYZ", "sector": "Tobacco", "percent_change": 2, "source": "finnhub"},
		{"symbol": "XYZ", "sector": "Tobacco", "percent_change": "2"},
	}
	seen := map[string]bool{baseHash: true}
	for _, v := range variants {
		h := MustContentHash(v)
		assert.False(t, seen[h], "hash collision for %v", v)
		seen[h] = true
	}
}

package market

import (
	"context"
	"fmt"
	"net/url"

	"github.com/roach88/eain/internal/model"
)

// CoinGecko fetches crypto prices by CoinGecko id (e.g. "bitcoin"), not
// ticker symbol.
type CoinGecko struct {
	http  *fetcher
	clock Clock
}

// NewCoinGecko creates a CoinGecko provider from s.
func NewCoinGecko(s Settings) *CoinGecko {
	s = s.withDefaults()
	return &CoinGecko{
		http:  newFetcher(s.CoinGeckoBaseURL, s.HTTPClient, s.RatePerSec),
		clock: s.Clock,
	}
}

// Name returns "coingecko".
func (c *CoinGecko) Name() string { return SourceCoinGecko }

// Fetch reads the simple price endpoint for id.
func (c *CoinGecko) Fetch(ctx context.Context, id string) (model.AssetSnapshot, error) {
	params := url.Values{}
	params.Set("ids", id)
	params.Set("vs_currencies", "usd")
	params.Set("include_market_cap", "true")
	params.Set("include_24hr_vol", "true")
	params.Set("include_24hr_change", "true")

	var body map[string]map[string]any
	if err := c.http.getJSON(ctx, "simple/price", params, &body); err != nil {
		return nil, fmt.Errorf("coingecko %s: %w", id, err)
	}
	entry, ok := body[id]
	if !ok {
		return nil, fmt.Errorf("coingecko %s: %w", id, ErrNoData)
	}

	return model.AssetSnapshot{
		"symbol":     id,
		"price":      entry["usd"],
		"market_cap": entry["usd_market_cap"],
		"24h_change": entry["usd_24h_change"],
		"timestamp":  c.clock.Now().Unix(),
		"source":     SourceCoinGecko,
	}, nil
}

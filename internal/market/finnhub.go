package market

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/roach88/eain/internal/model"
)

// Finnhub fetches quote, company profile and ESG data from finnhub.io.
type Finnhub struct {
	apiKey string
	http   *fetcher
	clock  Clock
	logger *slog.Logger
}

// NewFinnhub creates a Finnhub provider from s.
func NewFinnhub(s Settings) *Finnhub {
	s = s.withDefaults()
	return &Finnhub{
		apiKey: s.FinnhubAPIKey,
		http:   newFetcher(s.FinnhubBaseURL, s.HTTPClient, s.RatePerSec),
		clock:  s.Clock,
		logger: s.Logger,
	}
}

// Name returns "finnhub".
func (f *Finnhub) Name() string { return SourceFinnhub }

// Fetch combines three endpoints into one snapshot. ESG data is optional:
// an HTTP error status from the ESG endpoint leaves the ESG fields null.
func (f *Finnhub) Fetch(ctx context.Context, symbol string) (model.AssetSnapshot, error) {
	if f.apiKey == "" {
		f.logger.Error("FINNHUB_API_KEY is not set in environment")
		return nil, fmt.Errorf("finnhub %s: %w: missing API key", symbol, ErrNoData)
	}

	var quote, profile, esg map[string]any
	if err := f.get(ctx, "quote", symbol, &quote); err != nil {
		return nil, fmt.Errorf("finnhub %s: %w", symbol, err)
	}
	if err := f.get(ctx, "stock/profile2", symbol, &profile); err != nil {
		return nil, fmt.Errorf("finnhub %s: %w", symbol, err)
	}
	if err := f.get(ctx, "stock/esg", symbol, &esg); err != nil {
		var se *StatusError
		if !errors.As(err, &se) {
			return nil, fmt.Errorf("finnhub %s: %w", symbol, err)
		}
		f.logger.Debug("finnhub esg unavailable", "symbol", symbol, "status", se.StatusCode)
		esg = nil
	}

	return model.AssetSnapshot{
		"symbol":         symbol,
		"price":          quote["c"],
		"open":           quote["o"],
		"high":           quote["h"],
		"low":            quote["l"],
		"prev_close":     quote["pc"],
		"change":         quote["d"],
		"percent_change": quote["dp"],
		"timestamp":      f.clock.Now().Unix(),
		"sector":         profile["finnhubIndustry"],
		"market_cap":     profile["marketCapitalization"],
		"name":           profile["name"],
		"exchange":       profile["exchange"],
		"currency":       profile["currency"],

		"carbon_emissions":      esg["carbonEmissions"],
		"total_emissions":       esg["totalEmissions"],
		"governance_score":      esg["governanceScore"],
		"sustainability_report": esg["sustainabilityReport"],

		"source": SourceFinnhub,
	}, nil
}

func (f *Finnhub) get(ctx context.Context, endpoint, symbol string, out *map[string]any) error {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("token", f.apiKey)
	return f.http.getJSON(ctx, endpoint, params, out)
}

package market

import (
	"context"
	"fmt"
	"net/url"

	"github.com/roach88/eain/internal/model"
)

// Yahoo fetches equity quotes from the Yahoo Finance chart endpoint. The
// chart carries no sector or market cap, so those fields stay null.
type Yahoo struct {
	http  *fetcher
	clock Clock
}

// NewYahoo creates a Yahoo provider from s.
func NewYahoo(s Settings) *Yahoo {
	s = s.withDefaults()
	return &Yahoo{
		http:  newFetcher(s.YahooBaseURL, s.HTTPClient, s.RatePerSec),
		clock: s.Clock,
	}
}

// Name returns "yahoo".
func (y *Yahoo) Name() string { return SourceYahoo }

type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta yahooMeta `json:"meta"`
		} `json:"result"`
	} `json:"chart"`
}

type yahooMeta struct {
	RegularMarketPrice *float64 `json:"regularMarketPrice"`
	ChartPreviousClose *float64 `json:"chartPreviousClose"`
	PreviousClose      *float64 `json:"previousClose"`
	ShortName          string   `json:"shortName"`
	Currency           string   `json:"currency"`
	ExchangeName       string   `json:"exchangeName"`
}

// previousClose prefers the chart's own previous close.
func (m yahooMeta) previousClose() *float64 {
	if m.ChartPreviousClose != nil {
		return m.ChartPreviousClose
	}
	return m.PreviousClose
}

// Fetch reads the one-day chart for symbol. The price is the regular market
// price, or the previous close when the market has not traded yet.
func (y *Yahoo) Fetch(ctx context.Context, symbol string) (model.AssetSnapshot, error) {
	params := url.Values{}
	params.Set("range", "1d")
	params.Set("interval", "1d")

	var body yahooChart
	if err := y.http.getJSON(ctx, "v8/finance/chart/"+url.PathEscape(symbol), params, &body); err != nil {
		return nil, fmt.Errorf("yahoo %s: %w", symbol, err)
	}
	if len(body.Chart.Result) == 0 {
		return nil, fmt.Errorf("yahoo %s: %w", symbol, ErrNoData)
	}
	meta := body.Chart.Result[0].Meta

	price := meta.RegularMarketPrice
	if price == nil {
		price = meta.previousClose()
	}
	if price == nil {
		return nil, fmt.Errorf("yahoo %s: no price: %w", symbol, ErrNoData)
	}

	snap := model.AssetSnapshot{
		"symbol":     symbol,
		"price":      *price,
		"timestamp":  y.clock.Now().Unix(),
		"sector":     nil,
		"market_cap": nil,
		"name":       optionalText(meta.ShortName),
		"currency":   optionalText(meta.Currency),
		"exchange":   optionalText(meta.ExchangeName),
		"source":     SourceYahoo,
	}
	if prev := meta.previousClose(); prev != nil {
		snap["prev_close"] = *prev
	}
	return snap, nil
}

func optionalText(s string) any {
	if s == "" {
		return nil
	}
	return s
}

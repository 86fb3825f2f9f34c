// Package market fetches asset snapshots from upstream data sources.
//
// Each Provider turns a symbol into a model.AssetSnapshot: a flat mapping
// tagged with its source and fetch time. Fields a source does not supply
// are left absent or null; the rule chain treats both as missing.
//
// Providers perform network I/O and respect context cancellation. They do
// not retry; a failed fetch is reported to the caller, and Candidates logs
// and skips it.
package market

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/roach88/eain/internal/config"
	"github.com/roach88/eain/internal/model"
)

var (
	// ErrNoData is returned when a source has nothing for a symbol, or
	// cannot be queried at all (for example a missing API key).
	ErrNoData = errors.New("market: no data")

	// ErrUnsupportedSource is returned by NewProvider for unknown sources.
	ErrUnsupportedSource = errors.New("market: unsupported source")
)

// Source names accepted by NewProvider.
const (
	SourceFinnhub   = "finnhub"
	SourceCoinGecko = "coingecko"
	SourceYahoo     = "yahoo"
	SourceFile      = "file"
)

// DefaultSymbols is the watch list used when no symbols are requested.
var DefaultSymbols = []string{"AAPL", "MSFT", "NVDA", "GOOGL", "TSLA"}

// Provider fetches one asset snapshot.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, symbol string) (model.AssetSnapshot, error)
}

// Clock stamps fetched snapshots.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Settings configures provider construction.
type Settings struct {
	FinnhubAPIKey    string
	FinnhubBaseURL   string
	CoinGeckoBaseURL string
	YahooBaseURL     string

	// AssetsFile is the fixture document read by the file source.
	AssetsFile string

	// RatePerSec caps outbound requests per provider. Zero means unlimited.
	RatePerSec float64
	Timeout    time.Duration

	HTTPClient *http.Client
	Clock      Clock
	Logger     *slog.Logger
}

// SettingsFromConfig copies the market fields of cfg.
func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		FinnhubAPIKey:    cfg.FinnhubAPIKey,
		FinnhubBaseURL:   cfg.FinnhubBaseURL,
		CoinGeckoBaseURL: cfg.CoinGeckoBaseURL,
		YahooBaseURL:     cfg.YahooBaseURL,
		RatePerSec:       cfg.MarketRatePerSec,
		Timeout:          cfg.MarketTimeout,
	}
}

func (s Settings) withDefaults() Settings {
	if s.FinnhubBaseURL == "" {
		s.FinnhubBaseURL = "https://finnhub.io/api/v1"
	}
	if s.CoinGeckoBaseURL == "" {
		s.CoinGeckoBaseURL = "https://api.coingecko.com/api/v3"
	}
	if s.YahooBaseURL == "" {
		s.YahooBaseURL = "https://query1.finance.yahoo.com"
	}
	if s.Timeout <= 0 {
		s.Timeout = 10 * time.Second
	}
	if s.HTTPClient == nil {
		s.HTTPClient = &http.Client{Timeout: s.Timeout}
	}
	if s.Clock == nil {
		s.Clock = systemClock{}
	}
	if s.Logger == nil {
		s.Logger = slog.Default()
	}
	return s
}

// NewProvider returns the provider registered under source
// (finnhub, coingecko, yahoo or file; case-insensitive).
func NewProvider(source string, s Settings) (Provider, error) {
	s = s.withDefaults()
	switch strings.ToLower(strings.TrimSpace(source)) {
	case SourceFinnhub:
		return NewFinnhub(s), nil
	case SourceCoinGecko:
		return NewCoinGecko(s), nil
	case SourceYahoo:
		return NewYahoo(s), nil
	case SourceFile:
		if s.AssetsFile == "" {
			return nil, fmt.Errorf("file source: no assets file given")
		}
		return LoadFile(s.AssetsFile, s.Clock)
	default:
		s.Logger.Error("unsupported market data source requested", "source", source)
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedSource, source)
	}
}

// Candidates fetches every symbol from p in order, defaulting to
// DefaultSymbols. Failed fetches are logged and left out.
func Candidates(ctx context.Context, p Provider, symbols []string, logger *slog.Logger) []model.AssetSnapshot {
	if len(symbols) == 0 {
		symbols = DefaultSymbols
	}
	if logger == nil {
		logger = slog.Default()
	}

	results := make([]model.AssetSnapshot, 0, len(symbols))
	for _, sym := range symbols {
		snap, err := p.Fetch(ctx, sym)
		if err != nil {
			logger.Error("asset fetch failed", "source", p.Name(), "symbol", sym, "error", err)
			continue
		}
		results = append(results, snap)
	}
	return results
}

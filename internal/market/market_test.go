package market

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/eain/internal/config"
	"github.com/roach88/eain/internal/model"
	"github.com/roach88/eain/internal/testutil"
)

func quietLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})), &buf
}

func finnhubServer(t *testing.T, esgStatus int) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Query().Get("token") != "k" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		assert.Equal(t, "AAPL", r.URL.Query().Get("symbol"))
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/quote":
			_, _ = w.Write([]byte(`{"c":190.5,"o":188,"h":191,"l":187.5,"pc":189,"d":1.5,"dp":0.79}`))
		case "/stock/profile2":
			_, _ = w.Write([]byte(`{"finnhubIndustry":"Technology","marketCapitalization":2950000,"name":"Apple Inc","exchange":"NASDAQ","currency":"USD"}`))
		case "/stock/esg":
			if esgStatus != http.StatusOK {
				w.WriteHeader(esgStatus)
				return
			}
			_, _ = w.Write([]byte(`{"carbonEmissions":42.5,"totalEmissions":100,"governanceScore":7.1,"sustainabilityReport":true}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestFinnhub_Fetch(t *testing.T) {
	srv, calls := finnhubServer(t, http.StatusOK)
	logger, _ := quietLogger()
	p := NewFinnhub(Settings{
		FinnhubAPIKey:  "k",
		FinnhubBaseURL: srv.URL,
		Clock:          testutil.NewFixedClock(time.Time{}),
		Logger:         logger,
	})

	snap, err := p.Fetch(context.Background(), "AAPL")
	require.NoError(t, err)

	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, "AAPL", snap.Symbol())
	assert.Equal(t, "finnhub", snap.Source())
	assert.Equal(t, 190.5, snap["price"])
	assert.Equal(t, 0.79, snap["percent_change"])
	assert.Equal(t, "Technology", snap["sector"])
	assert.Equal(t, 42.5, snap["carbon_emissions"])
	assert.Equal(t, true, snap["sustainability_report"])
	assert.Equal(t, testutil.DefaultTime.Unix(), snap["timestamp"])
}

func TestFinnhub_MissingESG(t *testing.T) {
	srv, _ := finnhubServer(t, http.StatusForbidden)
	logger, _ := quietLogger()
	p := NewFinnhub(Settings{FinnhubAPIKey: "k", FinnhubBaseURL: srv.URL, Logger: logger})

	snap, err := p.Fetch(context.Background(), "AAPL")
	require.NoError(t, err)

	v, present := snap["carbon_emissions"]
	assert.True(t, present)
	assert.Nil(t, v)
	_, _, ok := snap.Number(model.FieldCarbon)
	assert.False(t, ok)
}

func TestFinnhub_MissingKey(t *testing.T) {
	srv, calls := finnhubServer(t, http.StatusOK)
	logger, logs := quietLogger()
	p := NewFinnhub(Settings{FinnhubBaseURL: srv.URL, Logger: logger})

	_, err := p.Fetch(context.Background(), "AAPL")
	assert.ErrorIs(t, err, ErrNoData)
	assert.Equal(t, int32(0), calls.Load())
	assert.Contains(t, logs.String(), "FINNHUB_API_KEY")
}

func TestFinnhub_QuoteErrorDoesNotLeakToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()
	p := NewFinnhub(Settings{FinnhubAPIKey: "super-secret", FinnhubBaseURL: srv.URL})

	_, err := p.Fetch(context.Background(), "AAPL")
	require.Error(t, err)

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusTooManyRequests, se.StatusCode)
	assert.NotContains(t, err.Error(), "super-secret")
}

func TestCoinGecko_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/simple/price", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "usd", q.Get("vs_currencies"))
		assert.Equal(t, "true", q.Get("include_24hr_change"))
		if q.Get("ids") != "bitcoin" {
			_, _ = w.Write([]byte(`{}`))
			return
		}
		_, _ = w.Write([]byte(`{"bitcoin":{"usd":67000.5,"usd_market_cap":1.3e12,"usd_24h_vol":2.5e10,"usd_24h_change":-1.2}}`))
	}))
	defer srv.Close()
	p := NewCoinGecko(Settings{CoinGeckoBaseURL: srv.URL, Clock: testutil.NewFixedClock(time.Time{})})

	snap, err := p.Fetch(context.Background(), "bitcoin")
	require.NoError(t, err)
	assert.Equal(t, "bitcoin", snap.Symbol())
	assert.Equal(t, "coingecko", snap.Source())
	assert.Equal(t, 67000.5, snap["price"])
	assert.Equal(t, -1.2, snap["24h_change"])

	_, err = p.Fetch(context.Background(), "dogecoin")
	assert.ErrorIs(t, err, ErrNoData)
}

func TestYahoo_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1d", r.URL.Query().Get("range"))
		switch r.URL.Path {
		case "/v8/finance/chart/AAPL":
			_, _ = w.Write([]byte(`{"chart":{"result":[{"meta":{"symbol":"AAPL","regularMarketPrice":189.5,"chartPreviousClose":187.25,"shortName":"Apple Inc.","currency":"USD","exchangeName":"NMS"}}],"error":null}}`))
		case "/v8/finance/chart/PRE":
			_, _ = w.Write([]byte(`{"chart":{"result":[{"meta":{"previousClose":12.5}}],"error":null}}`))
		case "/v8/finance/chart/EMPTY":
			_, _ = w.Write([]byte(`{"chart":{"result":[],"error":null}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found"}}}`))
		}
	}))
	defer srv.Close()
	p := NewYahoo(Settings{YahooBaseURL: srv.URL, Clock: testutil.NewFixedClock(time.Time{})})

	snap, err := p.Fetch(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "AAPL", snap.Symbol())
	assert.Equal(t, "yahoo", snap.Source())
	assert.Equal(t, 189.5, snap["price"])
	assert.Equal(t, 187.25, snap["prev_close"])
	assert.Equal(t, "Apple Inc.", snap["name"])
	assert.Equal(t, testutil.DefaultTime.Unix(), snap["timestamp"])
	_, hasSector := snap.Value("sector")
	assert.False(t, hasSector)

	pre, err := p.Fetch(context.Background(), "PRE")
	require.NoError(t, err)
	assert.Equal(t, 12.5, pre["price"])
	assert.Nil(t, pre["name"])

	_, err = p.Fetch(context.Background(), "EMPTY")
	assert.ErrorIs(t, err, ErrNoData)

	_, err = p.Fetch(context.Background(), "NOPE")
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
}

func TestFile_Fetch(t *testing.T) {
	f, err := LoadFile("testdata/assets.yaml", testutil.NewFixedClock(time.Time{}))
	require.NoError(t, err)

	assert.Equal(t, []string{"ABC", "DEF", "XYZ", "bitcoin"}, f.Symbols())

	snap, err := f.Fetch(context.Background(), "xyz")
	require.NoError(t, err)
	assert.Equal(t, "XYZ", snap.Symbol())
	assert.Equal(t, "file", snap.Source())
	assert.Equal(t, "Tobacco", snap["sector"])
	assert.Equal(t, testutil.DefaultTime.Unix(), snap["timestamp"])

	def, err := f.Fetch(context.Background(), "DEF")
	require.NoError(t, err)
	assert.Equal(t, "analyst", def.Source())

	btc, err := f.Fetch(context.Background(), "BITCOIN")
	require.NoError(t, err)
	assert.Equal(t, "bitcoin", btc.Symbol())

	_, err = f.Fetch(context.Background(), "NOPE")
	assert.ErrorIs(t, err, ErrNoData)
}

func TestFile_FetchReturnsCopies(t *testing.T) {
	f, err := LoadFile("testdata/assets.yaml", nil)
	require.NoError(t, err)

	a, err := f.Fetch(context.Background(), "XYZ")
	require.NoError(t, err)
	a["sector"] = "Technology"

	b, err := f.Fetch(context.Background(), "XYZ")
	require.NoError(t, err)
	assert.Equal(t, "Tobacco", b["sector"])
}

func TestLoadFile_Errors(t *testing.T) {
	_, err := LoadFile("testdata/missing.yaml", nil)
	assert.Error(t, err)
}

func TestNewProvider(t *testing.T) {
	cfg := &config.Config{FinnhubAPIKey: "k", MarketRatePerSec: 5, MarketTimeout: time.Second}
	s := SettingsFromConfig(cfg)
	assert.Equal(t, "k", s.FinnhubAPIKey)

	p, err := NewProvider("FinnHub", s)
	require.NoError(t, err)
	assert.Equal(t, SourceFinnhub, p.Name())

	p, err = NewProvider("coingecko", s)
	require.NoError(t, err)
	assert.Equal(t, SourceCoinGecko, p.Name())

	_, err = NewProvider("file", s)
	assert.Error(t, err)

	s.AssetsFile = "testdata/assets.yaml"
	p, err = NewProvider("file", s)
	require.NoError(t, err)
	assert.Equal(t, SourceFile, p.Name())

	p, err = NewProvider("yahoo", s)
	require.NoError(t, err)
	assert.Equal(t, SourceYahoo, p.Name())

	logger, _ := quietLogger()
	s.Logger = logger
	_, err = NewProvider("bloomberg", s)
	assert.ErrorIs(t, err, ErrUnsupportedSource)
}

func TestCandidates_SkipsFailures(t *testing.T) {
	f, err := LoadFile("testdata/assets.yaml", nil)
	require.NoError(t, err)
	logger, logs := quietLogger()

	got := Candidates(context.Background(), f, []string{"XYZ", "MISSING", "ABC"}, logger)

	require.Len(t, got, 2)
	assert.Equal(t, "XYZ", got[0].Symbol())
	assert.Equal(t, "ABC", got[1].Symbol())
	assert.Contains(t, logs.String(), "asset fetch failed")
	assert.Contains(t, logs.String(), "MISSING")
}

// recordingProvider records requested symbols.
type recordingProvider struct{ got []string }

func (p *recordingProvider) Name() string { return "recording" }

func (p *recordingProvider) Fetch(_ context.Context, symbol string) (model.AssetSnapshot, error) {
	p.got = append(p.got, symbol)
	return model.AssetSnapshot{"symbol": symbol}, nil
}

func TestCandidates_DefaultSymbols(t *testing.T) {
	p := &recordingProvider{}

	got := Candidates(context.Background(), p, nil, nil)

	assert.Equal(t, DefaultSymbols, p.got)
	assert.Len(t, got, len(DefaultSymbols))
}

func TestFetcher_RateLimitHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	f := newFetcher(srv.URL, srv.Client(), 0.001)
	var out map[string]any
	require.NoError(t, f.getJSON(context.Background(), "x", nil, &out))

	// The single burst token is spent; the next wait exceeds the deadline.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := f.getJSON(ctx, "x", nil, &out)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "rate limit"), err.Error())
}

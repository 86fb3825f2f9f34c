// Package config loads runtime configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds every environment-driven setting.
type Config struct {
	FinnhubAPIKey    string        `env:"FINNHUB_API_KEY"`
	FinnhubBaseURL   string        `env:"FINNHUB_BASE_URL" envDefault:"https://finnhub.io/api/v1"`
	CoinGeckoBaseURL string        `env:"COINGECKO_BASE_URL" envDefault:"https://api.coingecko.com/api/v3"`
	YahooBaseURL     string        `env:"YAHOO_BASE_URL" envDefault:"https://query1.finance.yahoo.com"`
	MarketSource     string        `env:"MARKET_SOURCE" envDefault:"finnhub"`
	MarketRatePerSec float64       `env:"MARKET_RATE_PER_SEC" envDefault:"5"`
	MarketTimeout    time.Duration `env:"MARKET_TIMEOUT" envDefault:"10s"`

	ProvenanceDir    string `env:"PROVENANCE_DIR" envDefault:"./provenance_logs"`
	RecordProvenance bool   `env:"RECORD_PROVENANCE" envDefault:"true"`
	AtomDB           string `env:"ATOM_DB"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"INFO"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`

	AgentHost       string        `env:"AGENT_HOST" envDefault:"0.0.0.0"`
	AgentPort       int           `env:"AGENT_PORT" envDefault:"8000"`
	APIRatePerSec   float64       `env:"API_RATE_PER_SEC" envDefault:"20"`
	APIRateBurst    int           `env:"API_RATE_BURST" envDefault:"50"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// TrustedProxies lists proxy IPs or CIDRs whose X-Forwarded-For is
	// honored. Empty trusts none and uses the peer address.
	TrustedProxies []string `env:"TRUSTED_PROXIES" envSeparator:","`
}

// Load reads a dotenv file, then parses the environment.
//
// With no files, ".env" in the working directory is tried and may be
// missing. Files named explicitly must exist. Variables already set in the
// environment take precedence over any file.
func Load(files ...string) (*Config, error) {
	if err := loadDotEnv(files); err != nil {
		return nil, err
	}

	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadDotEnv(files []string) error {
	if len(files) == 0 {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load .env: %w", err)
		}
		return nil
	}
	if err := godotenv.Load(files...); err != nil {
		return fmt.Errorf("load env file: %w", err)
	}
	return nil
}

// ParseEnv loads configuration from environment variables into target.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Validate checks value ranges that env tags cannot express.
func (c *Config) Validate() error {
	var errs []error
	if c.MarketRatePerSec <= 0 {
		errs = append(errs, fmt.Errorf("MARKET_RATE_PER_SEC must be positive, got %g", c.MarketRatePerSec))
	}
	if c.MarketTimeout <= 0 {
		errs = append(errs, fmt.Errorf("MARKET_TIMEOUT must be positive, got %s", c.MarketTimeout))
	}
	if c.AgentPort < 0 || c.AgentPort > 65535 {
		errs = append(errs, fmt.Errorf("AGENT_PORT out of range: %d", c.AgentPort))
	}
	if c.APIRatePerSec < 0 {
		errs = append(errs, fmt.Errorf("API_RATE_PER_SEC must not be negative, got %g", c.APIRatePerSec))
	}
	if c.APIRatePerSec > 0 && c.APIRateBurst < 1 {
		errs = append(errs, fmt.Errorf("API_RATE_BURST must be at least 1, got %d", c.APIRateBurst))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Errorf("SHUTDOWN_TIMEOUT must be positive, got %s", c.ShutdownTimeout))
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.LogFormat))
	}
	return errors.Join(errs...)
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.AgentHost, strconv.Itoa(c.AgentPort))
}

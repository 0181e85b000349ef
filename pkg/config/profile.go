package config

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// ExchangeProfile describes the REST surface of the wired exchange: base URL,
// endpoint paths, auth header names and order-sizing limits. The bridge talks
// to exactly one exchange per process; the profile only makes its constants
// configurable, it is not a multi-exchange abstraction.
type ExchangeProfile struct {
	Name        string `yaml:"name"`
	BaseURL     string `yaml:"base_url"`
	BalancePath string `yaml:"balance_path"`
	OrderPath   string `yaml:"order_path"`
	TimePath    string `yaml:"time_path"`

	// Header carrying the API key, and the header pair used by schemes that
	// sign outside the query string.
	KeyHeader       string `yaml:"key_header"`
	SignatureHeader string `yaml:"signature_header"`
	TimestampHeader string `yaml:"timestamp_header"`

	// Signing scheme override; empty defers to SIGNING_SCHEME.
	Scheme string `yaml:"scheme"`

	RecvWindow  int64  `yaml:"recv_window"` // ms
	QuoteAsset  string `yaml:"quote_asset"`
	MinNotional string `yaml:"min_notional"` // in quote asset units
}

// DefaultProfile returns the built-in Pionex profile.
func DefaultProfile() ExchangeProfile {
	return ExchangeProfile{
		Name:            "pionex",
		BaseURL:         "https://api.pionex.com",
		BalancePath:     "/api/v1/account",
		OrderPath:       "/api/v1/order",
		TimePath:        "/api/v1/time",
		KeyHeader:       "X-MBX-APIKEY",
		SignatureHeader: "X-API-SIGNATURE",
		TimestampHeader: "X-API-TIMESTAMP",
		RecvWindow:      5000,
		QuoteAsset:      "USDT",
		MinNotional:     "5",
	}
}

// LoadProfile reads a profile from a YAML file, filling gaps from defaults.
func LoadProfile(path string) (ExchangeProfile, error) {
	p := DefaultProfile()
	if path == "" {
		return p, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("read exchange profile: %w", err)
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("parse exchange profile: %w", err)
	}
	if err := p.validate(); err != nil {
		return p, err
	}
	return p, nil
}

func (p ExchangeProfile) validate() error {
	if p.BaseURL == "" {
		return fmt.Errorf("exchange profile: base_url is required")
	}
	if p.BalancePath == "" || p.OrderPath == "" {
		return fmt.Errorf("exchange profile: balance_path and order_path are required")
	}
	if p.QuoteAsset == "" {
		return fmt.Errorf("exchange profile: quote_asset is required")
	}
	if _, err := decimal.NewFromString(p.MinNotional); p.MinNotional != "" && err != nil {
		return fmt.Errorf("exchange profile: bad min_notional %q: %w", p.MinNotional, err)
	}
	return nil
}

// MinNotionalDecimal parses the configured minimum order value. An empty
// setting means no minimum beyond "positive".
func (p ExchangeProfile) MinNotionalDecimal() decimal.Decimal {
	if p.MinNotional == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(p.MinNotional)
	if err != nil {
		return decimal.Zero
	}
	return d
}

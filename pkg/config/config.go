package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds environment-driven settings for the bridge.
type Config struct {
	Port string

	// Exchange credentials
	APIKey    string
	APISecret string

	// Signing scheme name; must match a scheme registered in pkg/exchange/sign.
	SigningScheme string

	// Path to an optional exchange profile YAML. Empty means built-in defaults.
	ProfilePath string

	// Execution
	DryRun         bool
	RequestTimeout time.Duration // per outbound exchange call

	// Webhook auth: empty disables auth on the alert endpoint.
	WebhookSecret string

	// Duplicate-signal suppression window; zero disables it.
	DedupWindow time.Duration

	// SMTP notifier
	SMTPHost     string
	SMTPPort     int
	SMTPFrom     string
	SMTPTo       string
	SMTPPassword string

	// Generic HTTP webhook notifier (e.g. Discord-compatible); empty disables.
	NotifyWebhookURL string
}

// Load reads environment variables (optionally via .env) into Config.
func Load() (*Config, error) {
	// Ignore error so the app still starts when .env is missing.
	_ = godotenv.Load()

	cfg := &Config{
		Port:             getEnv("PORT", "8080"),
		APIKey:           os.Getenv("API_KEY"),
		APISecret:        os.Getenv("API_SECRET"),
		SigningScheme:    getEnv("SIGNING_SCHEME", "query"),
		ProfilePath:      os.Getenv("EXCHANGE_PROFILE"),
		DryRun:           getEnv("DRY_RUN", "false") == "true",
		RequestTimeout:   getEnvDuration("REQUEST_TIMEOUT", 10*time.Second),
		WebhookSecret:    os.Getenv("WEBHOOK_SECRET"),
		DedupWindow:      getEnvDuration("DEDUP_WINDOW", 0),
		SMTPHost:         os.Getenv("SMTP_HOST"),
		SMTPPort:         getEnvInt("SMTP_PORT", 587),
		SMTPFrom:         os.Getenv("SMTP_FROM"),
		SMTPTo:           os.Getenv("SMTP_TO"),
		SMTPPassword:     os.Getenv("SMTP_PASSWORD"),
		NotifyWebhookURL: os.Getenv("NOTIFY_WEBHOOK_URL"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate enforces fail-fast startup: missing credentials must abort the
// process, not surface per-request.
func (c *Config) validate() error {
	if !c.DryRun && (c.APIKey == "" || c.APISecret == "") {
		return fmt.Errorf("config: API_KEY and API_SECRET are required (set DRY_RUN=true to run without credentials)")
	}
	if c.SMTPHost != "" && (c.SMTPFrom == "" || c.SMTPTo == "") {
		return fmt.Errorf("config: SMTP_HOST set but SMTP_FROM/SMTP_TO missing")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("config: REQUEST_TIMEOUT must be positive")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

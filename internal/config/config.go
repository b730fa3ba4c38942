package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration.
// Values are loaded from environment variables with sensible defaults.
type Config struct {
	// Ops server
	OpsPort  int
	LogLevel string

	// Backend
	BackendURL string
	Username   string
	Password   string
	BankID     string

	// HTTP client
	HTTPTimeout time.Duration

	// Resilience
	MaxConcurrentFetches int

	// Cache
	HistoryCacheTTL time.Duration

	// Reconciliation
	PollInterval time.Duration // 0 disables background polling

	// Display
	CurrencySymbol string

	// Observability
	OTLPEndpoint string
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	return &Config{
		OpsPort:  getEnvInt("OPS_PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		BackendURL: getEnv("BACKEND_URL", "http://localhost:3000"),
		Username:   getEnv("PW_USERNAME", ""),
		Password:   getEnv("PW_PASSWORD", ""),
		BankID:     getEnv("PW_BANK_ID", ""),

		HTTPTimeout: getEnvDuration("HTTP_TIMEOUT", 10*time.Second),

		MaxConcurrentFetches: getEnvInt("MAX_CONCURRENT_FETCHES", 8),

		HistoryCacheTTL: getEnvDuration("HISTORY_CACHE_TTL", 5*time.Minute),

		PollInterval: getEnvDuration("POLL_INTERVAL", 0),

		CurrencySymbol: getEnv("CURRENCY_SYMBOL", "Ƹ"),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

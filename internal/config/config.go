// Package config handles loading and validating configuration from
// environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/kalshiwatch/engine/internal/detector"
)

// Config holds all configuration values for the surveillance engine.
type Config struct {
	// Kalshi trade API
	KalshiAPIURL string
	KalshiWSURL  string
	KalshiAPIKey string
	HTTPTimeout  time.Duration

	// Fetch sizes
	TradeLimit     int
	OrderbookDepth int
	ScanLimit      int

	// Detection parameters
	MinTrades          int
	SurgeWindowDays    int
	SurgeBaselineSplit float64
	VPINBucketFraction float64

	// Live tape collection
	EnableLiveTape bool
	TapeDuration   time.Duration

	// Workers
	WorkerCount int

	// Logging
	LogLevel string
}

// Load reads configuration from environment variables with fallback to a
// .env file. Priority order: environment variables > .env file > defaults.
func Load() (*Config, error) {
	// Attempt to load .env file (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		KalshiAPIURL: getEnv("KALSHI_API_URL", "https://api.elections.kalshi.com/trade-api/v2"),
		KalshiWSURL:  getEnv("KALSHI_WS_URL", "wss://api.elections.kalshi.com/trade-api/ws/v2"),
		KalshiAPIKey: getEnv("KALSHI_API_KEY", ""),
		HTTPTimeout:  time.Duration(getEnvInt("HTTP_TIMEOUT_SECONDS", 10)) * time.Second,

		TradeLimit:     getEnvInt("TRADE_LIMIT", 500),
		OrderbookDepth: getEnvInt("ORDERBOOK_DEPTH", 20),
		ScanLimit:      getEnvInt("SCAN_LIMIT", 25),

		MinTrades:          getEnvInt("MIN_TRADES", 15),
		SurgeWindowDays:    getEnvInt("SURGE_WINDOW_DAYS", 7),
		SurgeBaselineSplit: getEnvFloat("SURGE_BASELINE_SPLIT", 0.9),
		VPINBucketFraction: getEnvFloat("VPIN_BUCKET_FRACTION", 0.05),

		EnableLiveTape: getEnvBool("ENABLE_LIVE_TAPE", false),
		TapeDuration:   time.Duration(getEnvInt("TAPE_DURATION_SECONDS", 30)) * time.Second,

		WorkerCount: getEnvInt("WORKER_COUNT", 4),

		LogLevel: getEnv("LOG_LEVEL", "INFO"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration values are set and valid.
func (c *Config) Validate() error {
	if c.KalshiAPIURL == "" {
		return fmt.Errorf("KALSHI_API_URL is required")
	}

	if c.TradeLimit < 1 {
		return fmt.Errorf("TRADE_LIMIT must be positive")
	}

	if c.MinTrades < 1 {
		return fmt.Errorf("MIN_TRADES must be positive")
	}

	if c.SurgeBaselineSplit <= 0 || c.SurgeBaselineSplit >= 1 {
		return fmt.Errorf("SURGE_BASELINE_SPLIT must be between 0 and 1")
	}

	if c.VPINBucketFraction <= 0 || c.VPINBucketFraction >= 1 {
		return fmt.Errorf("VPIN_BUCKET_FRACTION must be between 0 and 1")
	}

	if c.WorkerCount < 1 {
		return fmt.Errorf("WORKER_COUNT must be at least 1")
	}

	return nil
}

// DetectorParams maps the config onto the engine's parameter set.
func (c *Config) DetectorParams() detector.Params {
	return detector.Params{
		MinTrades:          c.MinTrades,
		SurgeWindow:        time.Duration(c.SurgeWindowDays) * 24 * time.Hour,
		SurgeBaselineSplit: c.SurgeBaselineSplit,
		VPINBucketFraction: c.VPINBucketFraction,
	}
}

// MaskedAPIKey returns the API key with most characters hidden for logging.
func (c *Config) MaskedAPIKey() string {
	return maskSecret(c.KalshiAPIKey)
}

// maskSecret hides all but the first and last 4 characters of a secret.
func maskSecret(s string) string {
	if len(s) <= 8 {
		if len(s) == 0 {
			return "(not set)"
		}
		return "****"
	}
	return s[:4] + "****" + s[len(s)-4:]
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an environment variable as an integer or returns a default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvFloat retrieves an environment variable as a float64 or returns a default.
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

// getEnvBool retrieves an environment variable as a boolean or returns a default.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

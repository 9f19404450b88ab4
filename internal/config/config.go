// Package config provides centralized configuration loaded from environment
// variables. Shared by cmd/api and cmd/beastwatch.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// --------------------------------------------------------------------------
// Defaults
// --------------------------------------------------------------------------

const (
	// DefaultToriiURL is the production Torii GraphQL endpoint.
	DefaultToriiURL = "https://api.cartridge.gg/x/achievbb/torii/graphql"

	// DefaultVitalThreshold triggers an alert for any vital strictly below
	// this value. Matches the shipped game client.
	DefaultVitalThreshold = 90
)

// --------------------------------------------------------------------------
// Config struct, populated from environment variables
// --------------------------------------------------------------------------

type Config struct {
	// Database
	DatabaseURL    string
	DBPoolMinConns int
	DBPoolMaxConns int
	DBPoolMaxLife  time.Duration

	// API server
	APIHost     string
	APIPort     int
	Environment string // development, staging, production
	Debug       bool

	// CORS
	CORSAllowOrigins []string

	// Rate limiting
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Torii data source
	ToriiURL               string
	ToriiRequestsPerMinute int

	// Check pipeline
	CheckInterval  time.Duration
	CheckWorkers   int
	VitalThreshold int
	CooldownWindow time.Duration

	// Push delivery
	FCMServerKey string
	TestMode     bool
	TestFCMToken string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	dbURL := envOr("DATABASE_URL", "")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL must be set")
	}

	cfg := &Config{
		DatabaseURL:    dbURL,
		DBPoolMinConns: envInt("DB_POOL_MIN_CONNS", 2),
		DBPoolMaxConns: envInt("DB_POOL_MAX_CONNS", 10),
		DBPoolMaxLife:  time.Duration(envInt("DB_POOL_MAX_LIFE_MINUTES", 30)) * time.Minute,

		APIHost:     envOr("API_HOST", "0.0.0.0"),
		APIPort:     envInt("API_PORT", envInt("PORT", 8000)),
		Environment: envOr("ENVIRONMENT", "development"),
		Debug:       envBool("DEBUG", false),

		CORSAllowOrigins: envList("CORS_ALLOW_ORIGINS", []string{
			"http://localhost:3000",
			"http://localhost:5173",
		}),

		RateLimitEnabled:  envBool("RATE_LIMIT_ENABLED", true),
		RateLimitRequests: envInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow:   time.Duration(envInt("RATE_LIMIT_WINDOW", 60)) * time.Second,

		ToriiURL:               envOr("TORII_GRAPHQL_URL", DefaultToriiURL),
		ToriiRequestsPerMinute: envInt("TORII_REQUESTS_PER_MINUTE", 600),

		CheckInterval:  envDuration("CHECK_INTERVAL", time.Minute),
		CheckWorkers:   envInt("CHECK_WORKERS", 4),
		VitalThreshold: envInt("VITAL_THRESHOLD", DefaultVitalThreshold),
		CooldownWindow: envDuration("COOLDOWN_WINDOW", time.Hour),

		FCMServerKey: envOr("FCM_SERVER_KEY", ""),
		TestMode:     envBool("TEST_MODE", false),
		TestFCMToken: envOr("TEST_FCM_TOKEN", ""),
	}

	if cfg.VitalThreshold < 0 || cfg.VitalThreshold > 100 {
		return nil, fmt.Errorf("VITAL_THRESHOLD must be in [0,100], got %d", cfg.VitalThreshold)
	}
	if cfg.TestMode && cfg.TestFCMToken == "" {
		return nil, fmt.Errorf("TEST_MODE requires TEST_FCM_TOKEN")
	}
	return cfg, nil
}

// IsProduction returns true if running in production environment.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// --------------------------------------------------------------------------
// Env helpers
// --------------------------------------------------------------------------

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}

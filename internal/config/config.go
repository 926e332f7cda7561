// Package config loads runtime configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the client daemon.
type Config struct {
	// BackendURL is the base URL of the hosted chore service.
	BackendURL string
	// AuthURL is the base URL of the auth provider. Defaults to BackendURL.
	AuthURL string
	// AccessToken is the bearer token for the signed-in user.
	AccessToken string
	// RefreshToken, when set, lets the session client renew AccessToken.
	RefreshToken string

	CachePath    string
	ListenAddr   string
	LogLevel     string
	SnapshotDir  string
	SnapshotPass string

	// ProbeInterval is the connectivity probe cadence.
	ProbeInterval time.Duration
	// OutboxRetention is how long done outbox entries are kept.
	OutboxRetention time.Duration
}

// Load loads configuration from environment variables. A .env file in the
// working directory is applied first if present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		AccessToken:     os.Getenv("SHIPSHAPE_ACCESS_TOKEN"),
		RefreshToken:    os.Getenv("SHIPSHAPE_REFRESH_TOKEN"),
		CachePath:       getEnvOrDefault("SHIPSHAPE_CACHE_PATH", "shipshape.db"),
		ListenAddr:      getEnvOrDefault("SHIPSHAPE_LISTEN_ADDR", "127.0.0.1:8793"),
		LogLevel:        getEnvOrDefault("SHIPSHAPE_LOG_LEVEL", "info"),
		SnapshotDir:     getEnvOrDefault("SHIPSHAPE_SNAPSHOT_DIR", "snapshots"),
		SnapshotPass:    os.Getenv("SHIPSHAPE_SNAPSHOT_PASSPHRASE"),
		ProbeInterval:   30 * time.Second,
		OutboxRetention: 30 * 24 * time.Hour,
	}

	if cfg.BackendURL = os.Getenv("SHIPSHAPE_BACKEND_URL"); cfg.BackendURL == "" {
		return nil, fmt.Errorf("SHIPSHAPE_BACKEND_URL environment variable is required")
	}
	cfg.AuthURL = getEnvOrDefault("SHIPSHAPE_AUTH_URL", cfg.BackendURL)

	if v := os.Getenv("SHIPSHAPE_PROBE_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid SHIPSHAPE_PROBE_INTERVAL: %w", err)
		}
		cfg.ProbeInterval = d
	}

	if v := os.Getenv("SHIPSHAPE_OUTBOX_RETENTION"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid SHIPSHAPE_OUTBOX_RETENTION: %w", err)
		}
		cfg.OutboxRetention = d
	}

	return cfg, nil
}

// getEnvOrDefault returns environment variable value or default if not set
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// Package config handles server configuration: defaults, environment
// overlay and command-line flags, in that order of precedence.
package config

import (
	"fmt"
	"time"

	"github.com/avolkov/folio/internal/server/jwt"
)

// Config holds runtime settings for the folio server.
//
// Fields:
//   - Addr: bind address for the HTTP endpoint.
//   - DatabaseDSN: sqlite database path, ":memory:" for ephemeral runs.
//   - SecretKey: HMAC secret for signing access tokens (HS256). Must be
//     at least 32 bytes; there is no insecure default.
//   - AccessTokenTTL / RefreshTokenTTL: token lifetimes.
//   - MaxTokensPerUser: active refresh token cap per user.
//   - RevokedRetention: how long revoked token records are kept for audit.
//   - SweepSpec: cron spec for the token sweep job.
//   - CacheSize: user lookup cache capacity.
//   - LogLevel: slog level name (debug, info, warn, error).
type Config struct {
	Addr             string
	DatabaseDSN      string
	SecretKey        string
	AccessTokenTTL   time.Duration
	RefreshTokenTTL  time.Duration
	MaxTokensPerUser int
	RevokedRetention time.Duration
	SweepSpec        string
	CacheSize        int
	LogLevel         string
}

// LoadDefaults populates Config with development defaults.
// SecretKey has no default; it must come from the environment or a flag.
func (c *Config) LoadDefaults() {
	c.Addr = ":8080"
	c.DatabaseDSN = "folio.db"
	c.AccessTokenTTL = time.Hour
	c.RefreshTokenTTL = 7 * 24 * time.Hour
	c.MaxTokensPerUser = 5
	c.RevokedRetention = 30 * 24 * time.Hour
	c.SweepSpec = "@every 1h"
	c.CacheSize = 1024
	c.LogLevel = "info"
}

// Load builds a Config by applying defaults, then overlaying values from
// the environment and finally from command-line flags.
func Load() (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)
	if err := parseFlags(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate rejects configurations the server must not start with.
func (c *Config) Validate() error {
	if len(c.SecretKey) < jwt.MinSecretLen {
		return fmt.Errorf("secret key must be at least %d bytes, got %d", jwt.MinSecretLen, len(c.SecretKey))
	}
	if c.AccessTokenTTL <= 0 {
		return fmt.Errorf("access token TTL must be positive")
	}
	if c.RefreshTokenTTL <= 0 {
		return fmt.Errorf("refresh token TTL must be positive")
	}
	if c.MaxTokensPerUser < 1 {
		return fmt.Errorf("max tokens per user must be at least 1")
	}
	if c.CacheSize < 1 {
		return fmt.Errorf("cache size must be at least 1")
	}

	return nil
}

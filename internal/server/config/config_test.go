package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	cfg.SecretKey = strings.Repeat("s", 32)
	return cfg
}

func TestLoadDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.LoadDefaults()

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "folio.db", cfg.DatabaseDSN)
	assert.Equal(t, time.Hour, cfg.AccessTokenTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.RefreshTokenTTL)
	assert.Equal(t, 5, cfg.MaxTokensPerUser)
	assert.Equal(t, 30*24*time.Hour, cfg.RevokedRetention)
	assert.Equal(t, "@every 1h", cfg.SweepSpec)
	// No default secret: a missing secret has to fail validation
	assert.Empty(t, cfg.SecretKey)
}

func TestParseEnv(t *testing.T) {
	t.Setenv("FOLIO_ADDR", ":9090")
	t.Setenv("FOLIO_SECRET_KEY", strings.Repeat("k", 40))
	t.Setenv("FOLIO_ACCESS_TOKEN_TTL", "5m")
	t.Setenv("FOLIO_MAX_TOKENS_PER_USER", "3")

	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)

	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, strings.Repeat("k", 40), cfg.SecretKey)
	assert.Equal(t, 5*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, 3, cfg.MaxTokensPerUser)
	// Untouched fields keep their defaults
	assert.Equal(t, "folio.db", cfg.DatabaseDSN)
}

func TestParseEnv_IgnoresUnparseable(t *testing.T) {
	t.Setenv("FOLIO_ACCESS_TOKEN_TTL", "not-a-duration")
	t.Setenv("FOLIO_CACHE_SIZE", "not-a-number")

	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)

	assert.Equal(t, time.Hour, cfg.AccessTokenTTL)
	assert.Equal(t, 1024, cfg.CacheSize)
}

func TestValidate(t *testing.T) {
	require.NoError(t, validConfig().Validate())

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"missing secret", func(c *Config) { c.SecretKey = "" }, "secret key"},
		{"short secret", func(c *Config) { c.SecretKey = "too-short" }, "secret key"},
		{"zero access ttl", func(c *Config) { c.AccessTokenTTL = 0 }, "access token TTL"},
		{"negative refresh ttl", func(c *Config) { c.RefreshTokenTTL = -time.Hour }, "refresh token TTL"},
		{"zero token cap", func(c *Config) { c.MaxTokensPerUser = 0 }, "max tokens per user"},
		{"zero cache size", func(c *Config) { c.CacheSize = 0 }, "cache size"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

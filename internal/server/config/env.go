package config

import (
	"os"
	"strconv"
	"time"
)

// parseEnv overlays Config fields from FOLIO_* environment variables.
// Unset or unparseable variables leave the current value untouched.
func parseEnv(c *Config) {
	overlayString(&c.Addr, "FOLIO_ADDR")
	overlayString(&c.DatabaseDSN, "FOLIO_DATABASE_DSN")
	overlayString(&c.SecretKey, "FOLIO_SECRET_KEY")
	overlayDuration(&c.AccessTokenTTL, "FOLIO_ACCESS_TOKEN_TTL")
	overlayDuration(&c.RefreshTokenTTL, "FOLIO_REFRESH_TOKEN_TTL")
	overlayInt(&c.MaxTokensPerUser, "FOLIO_MAX_TOKENS_PER_USER")
	overlayDuration(&c.RevokedRetention, "FOLIO_REVOKED_RETENTION")
	overlayString(&c.SweepSpec, "FOLIO_SWEEP_SPEC")
	overlayInt(&c.CacheSize, "FOLIO_CACHE_SIZE")
	overlayString(&c.LogLevel, "FOLIO_LOG_LEVEL")
}

func overlayString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = v
	}
}

func overlayInt(dst *int, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func overlayDuration(dst *time.Duration, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}

package config

import "flag"

// parseFlags overlays selected Config fields from command-line flags.
// Flags are registered on the global flag set so the binary can add its
// own (such as -version) before the single flag.Parse call here.
//
// Supported flags:
//
//	-a string     HTTP bind address (e.g., ":8080")
//	-d string     sqlite database path
//	-s string     JWT HMAC secret key
//	-access-ttl   access token lifetime (Go duration, e.g., "1h")
//	-refresh-ttl  refresh token lifetime (e.g., "168h")
//	-log-level    slog level name
func parseFlags(c *Config) error {
	flag.StringVar(&c.Addr, "a", c.Addr, "address and port to run server")
	flag.StringVar(&c.DatabaseDSN, "d", c.DatabaseDSN, "sqlite database path")
	flag.StringVar(&c.SecretKey, "s", c.SecretKey, "secret key")
	flag.DurationVar(&c.AccessTokenTTL, "access-ttl", c.AccessTokenTTL, "access token lifetime")
	flag.DurationVar(&c.RefreshTokenTTL, "refresh-ttl", c.RefreshTokenTTL, "refresh token lifetime")
	flag.StringVar(&c.LogLevel, "log-level", c.LogLevel, "log level (debug, info, warn, error)")

	flag.Parse()

	return nil
}

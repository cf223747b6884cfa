package ratelimit

import (
	"time"
)

// Config holds rate limiter configuration.
type Config struct {
	// Limit is the maximum number of requests allowed in the window.
	Limit int

	// Window is the time window for the rate limit.
	Window time.Duration

	// KeyPrefix is the prefix for Redis keys (default: "ratelimit:").
	KeyPrefix string
}

// DefaultConfig returns a config with sensible defaults for auth routes.
func DefaultConfig() Config {
	return Config{
		Limit:     10,
		Window:    time.Minute,
		KeyPrefix: "ratelimit:",
	}
}

package config

import "time"

// RateLimitConfig describes the token bucket kept in Redis for the write
// endpoints that anonymous callers can reach (booking admission, register,
// login).  Each key gets Capacity tokens and regains RefillTokens every
// RefillInterval.
type RateLimitConfig struct {
	Enabled        bool
	Capacity       int
	RefillTokens   int
	RefillInterval time.Duration
	TTL            time.Duration
	Prefix         string
}

// LoadRateLimitConfig reads RATE_LIMIT_* variables and clamps them to usable
// values.
func LoadRateLimitConfig() RateLimitConfig {
	c := RateLimitConfig{
		Enabled:        envBool("RATE_LIMIT_ENABLED", true),
		Capacity:       envInt("RATE_LIMIT_CAPACITY", 20),
		RefillTokens:   envInt("RATE_LIMIT_REFILL_TOKENS", 1),
		RefillInterval: envDur("RATE_LIMIT_REFILL_INTERVAL", 3*time.Second),
		TTL:            envDur("RATE_LIMIT_TTL", 10*time.Minute),
		Prefix:         getenv("RATE_LIMIT_PREFIX", "spacehire:rl"),
	}
	if c.Capacity < 1 {
		c.Capacity = 1
	}
	if c.RefillTokens < 1 {
		c.RefillTokens = 1
	}
	if c.RefillInterval <= 0 {
		c.RefillInterval = time.Second
	}
	// the bucket must outlive a full refill or idle keys reset to full early
	if minTTL := time.Duration(c.Capacity/c.RefillTokens+1) * c.RefillInterval; c.TTL < minTTL {
		c.TTL = minTTL
	}
	return c
}

package config

import "time"

// CacheConfig controls the Redis response cache placed in front of the public
// listing browse endpoints (search, featured, detail, reviews).  Writes to a
// listing or a new review drop every entry under Prefix, so TTL only bounds
// how long an entry survives when nothing changes.
type CacheConfig struct {
	Enabled      bool
	TTL          time.Duration
	Prefix       string
	MaxBodyBytes int // responses larger than this are served but not stored
}

// LoadCacheConfig reads CACHE_* variables.  Defaults are used when variables
// are not set.
func LoadCacheConfig() CacheConfig {
	c := CacheConfig{
		Enabled:      envBool("CACHE_ENABLED", true),
		TTL:          envDur("CACHE_TTL", 30*time.Second),
		Prefix:       getenv("CACHE_PREFIX", "spacehire:cache"),
		MaxBodyBytes: envInt("CACHE_MAX_BODY_BYTES", 1<<20),
	}
	if c.TTL <= 0 {
		c.TTL = 30 * time.Second
	}
	return c
}

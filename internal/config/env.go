package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Helpers shared by the loaders in this package.  Unlike must(), they fall
// back to a default when the variable is unset or malformed.

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envBool(k string, d bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(k))) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return d
}

func envInt(k string, d int) int {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return d
}

func envDur(k string, d time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if dur, err := time.ParseDuration(v); err == nil {
		return dur
	}
	return d
}

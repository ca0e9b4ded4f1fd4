package config

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig holds connection settings for the cache and rate limiter.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TLS      bool
}

// LoadRedisConfig reads REDIS_ADDR (or REDIS_HOST + REDIS_PORT),
// REDIS_PASSWORD, REDIS_DB and REDIS_TLS.
func LoadRedisConfig() RedisConfig {
	addr := getenv("REDIS_ADDR", "localhost:6379")
	if host, port := getenv("REDIS_HOST", ""), getenv("REDIS_PORT", ""); host != "" && port != "" {
		addr = host + ":" + port
	}
	return RedisConfig{
		Addr:     addr,
		Password: getenv("REDIS_PASSWORD", ""),
		DB:       envInt("REDIS_DB", 0),
		TLS:      envBool("REDIS_TLS", false),
	}
}

// NewRedisClient connects and pings Redis.  Callers treat an error as
// "run without cache and rate limiting" rather than a fatal condition.
func NewRedisClient(rc RedisConfig) (*redis.Client, error) {
	opts := &redis.Options{Addr: rc.Addr, Password: rc.Password, DB: rc.DB}
	if rc.TLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", rc.Addr, err)
	}
	return client, nil
}

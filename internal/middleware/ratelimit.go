package middleware

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/spacehire/internal/config"
)

// tokenBucket refills the bucket for the elapsed whole intervals, then takes
// one token if available.  It returns {allowed, remaining, retry_after_ms}.
var tokenBucket = redis.NewScript(`
	local key = KEYS[1]
	local now_ms = tonumber(ARGV[1])
	local capacity = tonumber(ARGV[2])
	local refill_tokens = tonumber(ARGV[3])
	local interval_ms = tonumber(ARGV[4])
	local ttl_seconds = tonumber(ARGV[5])

	local state = redis.call('HMGET', key, 'tokens', 'last_refill_ms')
	local tokens = tonumber(state[1])
	local last_refill = tonumber(state[2])
	if tokens == nil or last_refill == nil then
		tokens = capacity
		last_refill = now_ms
	end

	local elapsed = math.max(0, now_ms - last_refill)
	local intervals = math.floor(elapsed / interval_ms)
	if intervals > 0 then
		tokens = math.min(capacity, tokens + intervals * refill_tokens)
		last_refill = last_refill + intervals * interval_ms
	end

	local allowed = 0
	local retry_after_ms = 0
	if tokens > 0 then
		allowed = 1
		tokens = tokens - 1
	else
		retry_after_ms = math.max(0, interval_ms - (now_ms - last_refill))
	end

	redis.call('HSET', key, 'tokens', tokens, 'last_refill_ms', last_refill)
	redis.call('EXPIRE', key, ttl_seconds)
	return { allowed, tokens, retry_after_ms }
`)

// NewTokenBucket limits requests per caller and route with a Redis token
// bucket.  Redis failures fail open: the request is served and a warning is
// logged.  With rate limiting disabled or no client it is a no-op.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client, log logrus.FieldLogger) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return passthrough
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := buildRateKey(cfg.Prefix, c)
			vals, err := tokenBucket.Run(c.Request().Context(), rdb, []string{key},
				time.Now().UnixMilli(),
				cfg.Capacity,
				cfg.RefillTokens,
				cfg.RefillInterval.Milliseconds(),
				int64(cfg.TTL/time.Second),
			).Int64Slice()
			if err != nil || len(vals) != 3 {
				log.WithError(err).WithField("key", key).Warn("rate limiter unavailable, allowing request")
				return next(c)
			}
			allowed, remaining, retryMs := vals[0] == 1, vals[1], vals[2]

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
			if !allowed {
				secs := retryAfterSeconds(retryMs)
				h.Set("Retry-After", strconv.Itoa(secs))
				log.WithFields(logrus.Fields{"key": key, "retry_after": secs}).Info("rate limit exceeded")
				return echo.NewHTTPError(http.StatusTooManyRequests, fmt.Sprintf("rate limit exceeded, retry in %ds", secs))
			}
			return next(c)
		}
	}
}

func retryAfterSeconds(ms int64) int {
	secs := int(math.Ceil(float64(ms) / 1000.0))
	if secs < 1 {
		secs = 1
	}
	return secs
}

// buildRateKey scopes the bucket by client IP, authenticated account and
// route pattern.
func buildRateKey(prefix string, c echo.Context) string {
	ip := c.RealIP()
	if ip == "" {
		ip = "unknown"
	}
	route := c.Request().Method + " " + c.Path()
	return strings.Join([]string{prefix, "ip", ip, rateIdentity(c), route}, ":")
}

func passthrough(next echo.HandlerFunc) echo.HandlerFunc { return next }

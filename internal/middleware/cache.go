package middleware

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/spacehire/internal/config"
)

// captureWriter captures response body/status while forwarding to the client.
type captureWriter struct {
	http.ResponseWriter
	status   int
	buf      bytes.Buffer
	limit    int
	overflow bool
}

func (cw *captureWriter) WriteHeader(code int) {
	cw.status = code
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *captureWriter) Write(b []byte) (int, error) {
	if !cw.overflow {
		if cw.limit > 0 && cw.buf.Len()+len(b) > cw.limit {
			cw.overflow = true
			cw.buf.Reset()
		} else {
			cw.buf.Write(b)
		}
	}
	return cw.ResponseWriter.Write(b)
}

// cachedResponse is the value stored in Redis for one cached GET.
type cachedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// cacheKey hashes the route pattern, concrete path and query so that keys
// stay short.  Every key lives under prefix so Invalidate can sweep them.
func cacheKey(prefix string, c echo.Context) string {
	r := c.Request()
	sum := sha1.Sum([]byte(c.Path() + "|" + r.URL.Path + "?" + r.URL.RawQuery))
	return fmt.Sprintf("%s:%x", prefix, sum[:])
}

// ResponseCache serves repeated anonymous GETs of public listing data from
// Redis.  Only 200 responses are stored.  Redis errors are logged and the
// request falls through to the handler.
type ResponseCache struct {
	cfg config.CacheConfig
	rdb *redis.Client
	log logrus.FieldLogger
}

// NewResponseCache returns a cache; a nil client or disabled config yields
// a cache whose middleware and Invalidate do nothing.
func NewResponseCache(cfg config.CacheConfig, rdb *redis.Client, log logrus.FieldLogger) *ResponseCache {
	return &ResponseCache{cfg: cfg, rdb: rdb, log: log}
}

func (rc *ResponseCache) enabled() bool { return rc != nil && rc.cfg.Enabled && rc.rdb != nil }

// Middleware returns the echo middleware for cacheable routes.
func (rc *ResponseCache) Middleware() echo.MiddlewareFunc {
	if !rc.enabled() {
		return passthrough
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Method != http.MethodGet {
				return next(c)
			}
			ctx := c.Request().Context()
			key := cacheKey(rc.cfg.Prefix, c)

			if bs, err := rc.rdb.Get(ctx, key).Bytes(); err == nil {
				var hit cachedResponse
				if json.Unmarshal(bs, &hit) == nil {
					c.Response().Header().Set("X-Cache", "HIT")
					return c.Blob(hit.Status, hit.ContentType, hit.Body)
				}
			} else if err != redis.Nil {
				rc.log.WithError(err).Warn("cache read failed")
			}

			cw := &captureWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: rc.cfg.MaxBodyBytes}
			c.Response().Writer = cw
			c.Response().Header().Set("X-Cache", "MISS")
			if err := next(c); err != nil {
				return err
			}
			if cw.status != http.StatusOK || cw.overflow {
				return nil
			}
			payload, err := json.Marshal(cachedResponse{
				Status:      cw.status,
				ContentType: c.Response().Header().Get(echo.HeaderContentType),
				Body:        cw.buf.Bytes(),
			})
			if err != nil {
				return nil
			}
			// the request context may already be cancelled once the client has its answer
			wctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			if err := rc.rdb.Set(wctx, key, payload, rc.cfg.TTL).Err(); err != nil {
				rc.log.WithError(err).Warn("cache write failed")
			}
			return nil
		}
	}
}

// Invalidate drops every cached response.  It is called after writes that
// change public listing data (listing create/update/delete, new review).
func (rc *ResponseCache) Invalidate(ctx context.Context) {
	if !rc.enabled() {
		return
	}
	iter := rc.rdb.Scan(ctx, 0, rc.cfg.Prefix+":*", 200).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		rc.log.WithError(err).Warn("cache invalidation scan failed")
		return
	}
	if len(keys) == 0 {
		return
	}
	if err := rc.rdb.Del(ctx, keys...).Err(); err != nil {
		rc.log.WithError(err).Warn("cache invalidation failed")
	}
}

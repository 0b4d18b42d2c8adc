// Package middleware provides the Redis-backed response cache and rate
// limiter applied to the HTTP surface. Both degrade to pass-throughs when
// Redis is not available, so the registry keeps working at the gate even
// with the cache tier down.
package middleware

import (
	"context"
	"crypto/sha1"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/vehicle-access-registry/internal/config"
)

// ResponseCache caches the JSON bodies of the read-only views (session
// list, alerts, stats) for a short TTL. Every successful write bumps a
// generation counter that is part of each cache key, so stale entries are
// abandoned rather than scanned and deleted. The TTL stays short because
// overstay status drifts with the clock even when no row changes.
type ResponseCache struct {
	cfg config.CacheConfig
	rdb *redis.Client
}

// NewResponseCache returns a ResponseCache. rdb may be nil, in which case
// the middleware methods are pass-throughs.
func NewResponseCache(cfg config.CacheConfig, rdb *redis.Client) *ResponseCache {
	return &ResponseCache{cfg: cfg, rdb: rdb}
}

func (rc *ResponseCache) enabled() bool {
	return rc != nil && rc.cfg.Enabled && rc.rdb != nil
}

func passthrough(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error { return next(c) }
}

func (rc *ResponseCache) generationKey() string {
	return rc.cfg.Prefix + ":gen"
}

// key builds the cache key for a request, folding in the current
// generation so invalidated entries are never read again.
func (rc *ResponseCache) key(ctx context.Context, c echo.Context) string {
	gen, err := rc.rdb.Get(ctx, rc.generationKey()).Result()
	if err != nil {
		gen = "0"
	}
	r := c.Request()
	sum := sha1.Sum([]byte(c.Path() + "?" + r.URL.RawQuery))
	return fmt.Sprintf("%s:%s:%x", rc.cfg.Prefix, gen, sum[:])
}

// Read returns the caching middleware for GET views. Only 200 responses
// with a body within the size limit are stored.
func (rc *ResponseCache) Read() echo.MiddlewareFunc {
	if !rc.enabled() {
		return passthrough
	}
	ttl := rc.cfg.TTL
	if ttl <= 0 {
		ttl = 15 * time.Second
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Method != http.MethodGet {
				return next(c)
			}
			ctx := c.Request().Context()
			key := rc.key(ctx, c)

			if body, err := rc.rdb.Get(ctx, key).Bytes(); err == nil {
				c.Response().Header().Set("X-Cache", "HIT")
				return c.JSONBlob(http.StatusOK, body)
			}

			cw := newCaptureWriter(c.Response().Writer, int64(rc.cfg.MaxBodyBytes))
			c.Response().Writer = cw
			c.Response().Header().Set("X-Cache", "MISS")

			if err := next(c); err != nil {
				return err
			}
			if cw.status == http.StatusOK && !cw.truncated {
				_ = rc.rdb.SetEx(context.Background(), key, cw.buf.Bytes(), ttl).Err()
			}
			return nil
		}
	}
}

// Invalidate returns the middleware applied to write endpoints. After a
// successful (2xx) write it bumps the generation counter, orphaning every
// cached view at once.
func (rc *ResponseCache) Invalidate() echo.MiddlewareFunc {
	if !rc.enabled() {
		return passthrough
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if err := next(c); err != nil {
				return err
			}
			status := c.Response().Status
			if status >= 200 && status < 300 {
				_ = rc.rdb.Incr(context.Background(), rc.generationKey()).Err()
			}
			return nil
		}
	}
}

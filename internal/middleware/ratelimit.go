package middleware

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/exam-seating/internal/config"
)

// tokenBucketScript keeps {tk, ts} per key.  Tokens come back in whole
// refill steps; the reply is {allowed, left, wait_ms}.
var tokenBucketScript = redis.NewScript(`
local cap, step, every, now, ttl = tonumber(ARGV[1]), tonumber(ARGV[2]), tonumber(ARGV[3]), tonumber(ARGV[4]), tonumber(ARGV[5])
local tk = tonumber(redis.call('HGET', KEYS[1], 'tk'))
local ts = tonumber(redis.call('HGET', KEYS[1], 'ts'))
if tk == nil or ts == nil then
  tk, ts = cap, now
end
local n = math.floor(math.max(0, now - ts) / every)
if n > 0 then
  tk = math.min(cap, tk + n * step)
  ts = ts + n * every
end
local ok, wait = 0, 0
if tk > 0 then
  ok, tk = 1, tk - 1
else
  wait = math.max(0, every - (now - ts))
end
redis.call('HSET', KEYS[1], 'tk', tk, 'ts', ts)
redis.call('EXPIRE', KEYS[1], ttl)
return {ok, tk, wait}
`)

// bucket is one take attempt against the script.
type bucket struct {
	cfg config.RateLimitConfig
	rdb *redis.Client
}

// take returns whether the request may pass, the tokens left and how long
// to wait when it may not.
func (b bucket) take(ctx context.Context, key string) (bool, int64, time.Duration, error) {
	v, err := tokenBucketScript.Run(ctx, b.rdb, []string{key},
		b.cfg.Capacity, b.cfg.RefillTokens, b.cfg.RefillInterval.Milliseconds(),
		time.Now().UnixMilli(), int64(b.cfg.TTL.Seconds()),
	).Int64Slice()
	if err != nil {
		return true, 0, 0, err
	}
	if len(v) != 3 {
		return true, 0, 0, redis.Nil
	}
	return v[0] == 1, v[1], time.Duration(v[2]) * time.Millisecond, nil
}

// NewTokenBucket throttles the login endpoints.  It is a pass-through when
// disabled or without Redis, and lets requests through when Redis errors:
// an outage must not lock everybody out of login.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	b := bucket{cfg: cfg, rdb: rdb}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := rateKey(cfg, c)
			allowed, left, wait, err := b.take(c.Request().Context(), key)
			if err != nil {
				if cfg.Debug {
					log.Printf("ratelimit: %s: %v", key, err)
				}
				return next(c)
			}
			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(left, 10))
			if allowed {
				return next(c)
			}
			secs := int((wait + time.Second - 1) / time.Second)
			h.Set("Retry-After", strconv.Itoa(secs))
			if cfg.Debug {
				log.Printf("ratelimit: blocked %s for %s", key, wait)
			}
			return fail(c, http.StatusTooManyRequests, "Too many attempts, try again in "+strconv.Itoa(secs)+"s")
		}
	}
}

// rateKey builds the bucket key for cfg.KeyStrategy.  Unknown strategies
// behave like ip_route.
func rateKey(cfg config.RateLimitConfig, c echo.Context) string {
	ip := c.RealIP()
	if ip == "" {
		ip = "unknown"
	}
	route := c.Request().Method + " " + c.Path()

	var parts []string
	for _, dim := range strings.Split(strings.ToLower(cfg.KeyStrategy), "_") {
		switch dim {
		case "ip":
			parts = append(parts, "ip", ip)
		case "user":
			parts = append(parts, "user", subject(c))
		case "route":
			parts = append(parts, "route", route)
		}
	}
	if len(parts) == 0 {
		parts = []string{"ip", ip, "route", route}
	}
	return cfg.Prefix + ":" + strings.Join(parts, ":")
}

// ratelimit.go implements a per-IP rate limiter on a fixed Redis window.
// Counters live in Redis rather than process memory so the limit holds
// across replicas and restarts. Designed for the upload endpoints.
package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

// RateLimit returns middleware that limits requests per IP to maxRequests
// within the given window duration. Returns 429 when exceeded.
//
// Each IP gets a counter keyed by the current window; the first hit sets the
// key's TTL so counters clean themselves up. If Redis is unreachable the
// limiter fails open: an unavailable limiter must not take uploads down
// with it.
func RateLimit(rdb *redis.Client, maxRequests int, window time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if maxRequests <= 0 {
				return next(c)
			}

			ctx := c.Request().Context()
			ip := c.RealIP()
			key := fmt.Sprintf("ratelimit:%s:%d", ip, time.Now().UnixNano()/int64(window))

			pipe := rdb.TxPipeline()
			incr := pipe.Incr(ctx, key)
			pipe.Expire(ctx, key, window)
			if _, err := pipe.Exec(ctx); err != nil {
				slog.Warn("rate limiter unavailable, allowing request",
					slog.String("ip", ip),
					slog.Any("error", err),
				)
				return next(c)
			}

			if incr.Val() > int64(maxRequests) {
				return c.JSON(http.StatusTooManyRequests, map[string]any{
					"status":  http.StatusTooManyRequests,
					"message": "Rate limit exceeded. Please try again later.",
					"success": false,
				})
			}
			return next(c)
		}
	}
}

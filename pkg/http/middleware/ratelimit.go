package middleware

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
)

// Limiter decides whether a keyed caller may proceed.
type Limiter interface {
	Allow(key string) bool
	RetryAfter(key string) time.Duration
}

// RateLimit rejects callers over budget with 429, keyed by client IP.
// Routes listed in exempt always pass.
func RateLimit(l Limiter, exempt ...string) echo.MiddlewareFunc {
	skip := make(map[string]bool, len(exempt))
	for _, p := range exempt {
		if p != "" {
			skip[p] = true
		}
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if skip[c.Path()] {
				return next(c)
			}
			key := c.RealIP()
			if l.Allow(key) {
				return next(c)
			}
			wait := int(math.Ceil(l.RetryAfter(key).Seconds()))
			if wait < 1 {
				wait = 1
			}
			c.Response().Header().Set("Retry-After", strconv.Itoa(wait))
			return c.JSON(http.StatusTooManyRequests, map[string]interface{}{
				"status":  http.StatusTooManyRequests,
				"message": http.StatusText(http.StatusTooManyRequests),
			})
		}
	}
}

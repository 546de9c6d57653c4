package middleware

import (
	"github.com/labstack/echo/v4"

	"servicemarket/internal/infrastructure/ratelimit"
	"servicemarket/pkg/errors"
	"servicemarket/pkg/logger"
	"servicemarket/pkg/response"
)

// RateLimit spends one token of action per request. Authenticated requests
// are keyed by uid, anonymous ones by client IP.
func RateLimit(limiter *ratelimit.RateLimiter, action string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := UserID(c)
			if key == "" {
				key = "ip:" + c.RealIP()
			}

			if ok, wait := limiter.Allow(key, action); !ok {
				logger.Warn("RATE LIMIT: %s blocked on %s (retry in %v)", key, action, wait)
				return response.Error(c, errors.TooManyRequests("Rate limit exceeded", wait))
			}
			return next(c)
		}
	}
}

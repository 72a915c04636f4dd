package middleware

import (
	"context"
	"net/http"

	applogger "PerpDash/pkg/logger"

	"github.com/labstack/echo/v4"
)

// Allower is satisfied by the in-memory and Redis limiters.
type Allower interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// RateLimitConfig configures RateLimitWithConfig.
type RateLimitConfig struct {
	Limiter Allower
	Logger  *applogger.Logger
	// Skip lists route paths (as registered) that are never limited.
	Skip []string
	// Rejected writes the response for a request over budget. Defaults to a 429 {"error":"rate limited"}.
	Rejected echo.HandlerFunc
}

// RateLimit rejects requests once the client IP is over budget. Paths in skip are never limited.
// Limiter errors let the request through.
func RateLimit(limiter Allower, l *applogger.Logger, skip ...string) echo.MiddlewareFunc {
	return RateLimitWithConfig(RateLimitConfig{Limiter: limiter, Logger: l, Skip: skip})
}

// RateLimitWithConfig is RateLimit with a custom rejection response.
func RateLimitWithConfig(cfg RateLimitConfig) echo.MiddlewareFunc {
	l := cfg.Logger
	if l == nil {
		l = applogger.Nop()
	}
	rejected := cfg.Rejected
	if rejected == nil {
		rejected = func(c echo.Context) error {
			return c.JSON(http.StatusTooManyRequests, map[string]string{"error": "rate limited"})
		}
	}
	skipped := make(map[string]struct{}, len(cfg.Skip))
	for _, p := range cfg.Skip {
		skipped[p] = struct{}{}
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, ok := skipped[c.Path()]; ok || cfg.Limiter == nil {
				return next(c)
			}
			ip := c.RealIP()
			ok, err := cfg.Limiter.Allow(c.Request().Context(), ip)
			if err != nil {
				l.Warn("rate limiter unavailable", applogger.Error(err), applogger.String("remote_ip", ip))
				return next(c)
			}
			if !ok {
				return rejected(c)
			}
			return next(c)
		}
	}
}

package http

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"sync"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	"github.com/fyrsmithlabs/contextmem/internal/config"
)

// bearerAuthMiddleware authenticates requests with a static bearer token.
// Comparison is constant-time.
func bearerAuthMiddleware(token config.Secret) echo.MiddlewareFunc {
	want := []byte(token.Value())
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			got, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || subtle.ConstantTimeCompare([]byte(got), want) != 1 {
				return c.JSON(http.StatusUnauthorized, errorResponse{
					Error: errorDetail{Kind: "Unauthorized", Message: "missing or invalid bearer token"},
				})
			}
			return next(c)
		}
	}
}

// rateLimitMiddleware applies a token bucket per client IP. Rejections map
// to 429 so clients retry with backoff.
func rateLimitMiddleware(cfg config.RateLimitConfig) echo.MiddlewareFunc {
	var mu sync.Mutex
	limiters := make(map[string]*rate.Limiter)

	limiterFor := func(ip string) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()
		l, ok := limiters[ip]
		if !ok {
			l = rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst)
			limiters[ip] = l
		}
		return l
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !limiterFor(c.RealIP()).Allow() {
				return c.JSON(http.StatusTooManyRequests, errorResponse{
					Error: errorDetail{Kind: "RateLimited", Message: "request rate exceeded, retry with backoff"},
				})
			}
			return next(c)
		}
	}
}

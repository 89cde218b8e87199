package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"github.com/sebastianleon1-sys/Zerby2/internal/errs"
	"github.com/sebastianleon1-sys/Zerby2/internal/server"
)

const msgTooManyRequests = "Demasiados intentos, espera un momento"

// Limits for the endpoints that guess at secrets: login, registration and
// PIN confirmation. Keyed by client IP.
const (
	SensitiveRate  = rate.Limit(10.0 / 60.0)
	SensitiveBurst = 5
	limiterExpiry  = 10 * time.Minute
)

type RateLimitMiddleware struct {
	server *server.Server
}

func NewRateLimitMiddleware(s *server.Server) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		server: s,
	}
}

// RecordRateLimitHit records a New Relic custom event for a rejected request.
func (r *RateLimitMiddleware) RecordRateLimitHit(endpoint string) {
	r.server.LoggerService.RecordEvent("RateLimitHit", map[string]interface{}{
		"endpoint": endpoint,
	})
}

// Sensitive returns an in-memory per-IP token bucket limiter.
func (r *RateLimitMiddleware) Sensitive() echo.MiddlewareFunc {
	return r.limiter(SensitiveRate, SensitiveBurst)
}

func (r *RateLimitMiddleware) limiter(limit rate.Limit, burst int) echo.MiddlewareFunc {
	store := echomw.NewRateLimiterMemoryStoreWithConfig(echomw.RateLimiterMemoryStoreConfig{
		Rate:      limit,
		Burst:     burst,
		ExpiresIn: limiterExpiry,
	})

	return echomw.RateLimiterWithConfig(echomw.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return errs.NewInternalServerError()
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			r.RecordRateLimitHit(c.Path())
			GetLogger(c).Warn().
				Str("identifier", identifier).
				Str("endpoint", c.Path()).
				Msg("rate limit exceeded")
			c.Response().Header().Set("Retry-After", "60")
			return errs.NewTooManyRequestsError(msgTooManyRequests, nil)
		},
	})
}

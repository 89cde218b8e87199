package middleware

import (
	"context"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/rs/zerolog"

	"github.com/sebastianleon1-sys/Zerby2/internal/logger"
	"github.com/sebastianleon1-sys/Zerby2/internal/model"
	"github.com/sebastianleon1-sys/Zerby2/internal/server"
)

const (
	// UserIDKey and UserRoleKey hold the authenticated account's id (as a
	// string) and its AccountType in Echo context.
	UserIDKey   = "user_id"
	UserRoleKey = "user_role"

	// PrincipalKey holds the model.Principal set by RequireAuth.
	PrincipalKey = "principal"

	// LoggerKey is used as the key for storing the request-scoped logger.
	LoggerKey = "logger"
)

type ctxKey int

const (
	principalCtxKey ctxKey = iota
	loggerCtxKey
)

// ContextEnhancer is a middleware helper that enriches request context.
//
// It builds a request-scoped logger with useful fields like:
//   - request_id
//   - method, path, ip
//   - trace.id/span.id (if New Relic transaction exists)
//
// It then stores that logger in both Echo's context and the request's
// context.Context.
type ContextEnhancer struct {
	server *server.Server
}

func NewContextEnhancer(s *server.Server) *ContextEnhancer {
	return &ContextEnhancer{server: s}
}

// EnhanceContext returns an Echo middleware.
//
// Session auth runs per route group, after this middleware, so user fields
// are added to the logger by SetPrincipal instead.
func (ce *ContextEnhancer) EnhanceContext() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			contextLogger := ce.server.Logger.With().
				Str("request_id", GetRequestID(c)).
				Str("method", c.Request().Method).
				Str("path", c.Path()).
				Str("ip", c.RealIP()).
				Logger()

			if txn := newrelic.FromContext(c.Request().Context()); txn != nil {
				contextLogger = logger.WithTraceContext(contextLogger, txn)
			}

			setLogger(c, &contextLogger)
			return next(c)
		}
	}
}

func setLogger(c echo.Context, l *zerolog.Logger) {
	c.Set(LoggerKey, l)
	ctx := context.WithValue(c.Request().Context(), loggerCtxKey, l)
	c.SetRequest(c.Request().WithContext(ctx))
}

// SetPrincipal records the authenticated account on the request and adds it
// to the request logger.
func SetPrincipal(c echo.Context, p model.Principal) {
	userID := strconv.FormatInt(p.ID, 10)
	c.Set(PrincipalKey, p)
	c.Set(UserIDKey, userID)
	c.Set(UserRoleKey, string(p.Tipo))

	ctx := context.WithValue(c.Request().Context(), principalCtxKey, p)
	c.SetRequest(c.Request().WithContext(ctx))

	l := GetLogger(c).With().
		Str("user_id", userID).
		Str("user_role", string(p.Tipo)).
		Logger()
	setLogger(c, &l)
}

// GetPrincipal returns the account set by RequireAuth.
func GetPrincipal(c echo.Context) (model.Principal, bool) {
	p, ok := c.Get(PrincipalKey).(model.Principal)
	return p, ok
}

// PrincipalFromContext is GetPrincipal for code that only sees a
// context.Context.
func PrincipalFromContext(ctx context.Context) (model.Principal, bool) {
	p, ok := ctx.Value(principalCtxKey).(model.Principal)
	return p, ok
}

// GetUserID reads user_id from Echo context.
func GetUserID(c echo.Context) string {
	if userID, ok := c.Get(UserIDKey).(string); ok {
		return userID
	}
	return ""
}

// GetLogger retrieves the request-scoped logger from Echo context.
//
// If EnhanceContext middleware didn't run, it returns a no-op logger.
func GetLogger(c echo.Context) *zerolog.Logger {
	if logger, ok := c.Get(LoggerKey).(*zerolog.Logger); ok {
		return logger
	}

	logger := zerolog.Nop()
	return &logger
}

// LoggerFromContext is GetLogger for code that only sees a context.Context.
func LoggerFromContext(ctx context.Context) *zerolog.Logger {
	if logger, ok := ctx.Value(loggerCtxKey).(*zerolog.Logger); ok {
		return logger
	}
	logger := zerolog.Nop()
	return &logger
}

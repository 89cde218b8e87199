package middleware

import (
	"errors"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sebastianleon1-sys/Zerby2/internal/errs"
	"github.com/sebastianleon1-sys/Zerby2/internal/lib/session"
	"github.com/sebastianleon1-sys/Zerby2/internal/model"
	"github.com/sebastianleon1-sys/Zerby2/internal/server"
)

const msgUnauthorized = "No autorizado"

// AuthMiddleware authenticates requests from the session cookie.
type AuthMiddleware struct {
	server *server.Server
}

// NewAuthMiddleware constructs an AuthMiddleware.
func NewAuthMiddleware(s *server.Server) *AuthMiddleware {
	return &AuthMiddleware{
		server: s,
	}
}

// RequireAuth is an Echo middleware that enforces an active session.
//
// On success the Principal is stored both in Echo's context and in the
// request's context.Context.
func (auth *AuthMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()

		token := auth.server.Sessions.TokenFromRequest(c.Request())
		if token == "" {
			return errs.NewUnauthorizedError(msgUnauthorized, true)
		}

		p, err := auth.server.Sessions.Get(c.Request().Context(), token)
		if errors.Is(err, session.ErrNoSession) {
			GetLogger(c).Debug().
				Str("function", "RequireAuth").
				Dur("duration", time.Since(start)).
				Msg("session missing or expired")
			return errs.NewUnauthorizedError(msgUnauthorized, true)
		}
		if err != nil {
			return err
		}

		SetPrincipal(c, p)

		GetLogger(c).Debug().
			Str("function", "RequireAuth").
			Str("user_id", strconv.FormatInt(p.ID, 10)).
			Str("user_role", string(p.Tipo)).
			Dur("duration", time.Since(start)).
			Msg("session authenticated")

		return next(c)
	}
}

// RequireUsuario authenticates and admits only usuario accounts.
func (auth *AuthMiddleware) RequireUsuario(next echo.HandlerFunc) echo.HandlerFunc {
	return auth.RequireAuth(requireType(model.AccountUsuario, next))
}

// RequireProveedor authenticates and admits only proveedor accounts.
func (auth *AuthMiddleware) RequireProveedor(next echo.HandlerFunc) echo.HandlerFunc {
	return auth.RequireAuth(requireType(model.AccountProveedor, next))
}

func requireType(tipo model.AccountType, next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		p, ok := GetPrincipal(c)
		if !ok || p.Tipo != tipo {
			return errs.NewUnauthorizedError(msgUnauthorized, true)
		}
		return next(c)
	}
}

package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sebastianleon1-sys/Zerby2/internal/config"
	"github.com/sebastianleon1-sys/Zerby2/internal/errs"
	"github.com/sebastianleon1-sys/Zerby2/internal/lib/session"
	"github.com/sebastianleon1-sys/Zerby2/internal/model"
	"github.com/sebastianleon1-sys/Zerby2/internal/server"
)

// sessionRedis answers the two calls the session store makes. Any other
// Cmdable method panics on the nil embedded interface.
type sessionRedis struct {
	redis.Cmdable
	vals map[string]string
}

func (r *sessionRedis) TxPipelined(context.Context, func(redis.Pipeliner) error) ([]redis.Cmder, error) {
	return nil, nil
}

func (r *sessionRedis) HGetAll(context.Context, string) *redis.MapStringStringCmd {
	return redis.NewMapStringStringResult(r.vals, nil)
}

func (r *sessionRedis) Expire(context.Context, string, time.Duration) *redis.BoolCmd {
	return redis.NewBoolResult(true, nil)
}

func testServer(rdb redis.Cmdable) *server.Server {
	log := zerolog.Nop()
	cfg := &config.Config{
		Auth: config.AuthConfig{SecretKey: "test-secret", CookieName: "zerby_session", SessionTTL: time.Hour},
	}
	return &server.Server{
		Config:   cfg,
		Logger:   &log,
		Sessions: session.NewStore(rdb, cfg.Auth),
	}
}

func newEcho(s *server.Server) *echo.Echo {
	e := echo.New()
	e.HTTPErrorHandler = NewGlobalMiddlewares(s).GlobalErrorHandler
	return e
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errs.HTTPError {
	t.Helper()
	var body errs.HTTPError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func okHandler(c echo.Context) error {
	p, _ := GetPrincipal(c)
	return c.JSON(http.StatusOK, map[string]any{"id": p.ID, "tipo": p.Tipo})
}

func TestRequireAuth_RejectsMissingAndForgedCookies(t *testing.T) {
	s := testServer(nil)
	e := newEcho(s)
	e.GET("/me", okHandler, NewAuthMiddleware(s).RequireAuth)

	t.Run("no cookie", func(t *testing.T) {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/me", nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, msgUnauthorized, decodeError(t, rec).Message)
	})

	t.Run("forged cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.AddCookie(&http.Cookie{Name: "zerby_session", Value: "forged.value"})
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestRequireAuth_AdmitsValidSession(t *testing.T) {
	rdb := &sessionRedis{vals: map[string]string{"user_id": "42", "user_type": "proveedor"}}
	s := testServer(rdb)

	token, err := s.Sessions.Create(context.Background(), model.Principal{ID: 42, Tipo: model.AccountProveedor})
	require.NoError(t, err)

	e := newEcho(s)
	auth := NewAuthMiddleware(s)
	e.GET("/any", okHandler, auth.RequireAuth)
	e.GET("/proveedor", okHandler, auth.RequireProveedor)
	e.GET("/usuario", okHandler, auth.RequireUsuario)

	get := func(path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.AddCookie(s.Sessions.Cookie(token))
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec
	}

	rec := get("/any")
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.EqualValues(t, 42, body["id"])
	assert.Equal(t, "proveedor", body["tipo"])

	assert.Equal(t, http.StatusOK, get("/proveedor").Code)
	assert.Equal(t, http.StatusUnauthorized, get("/usuario").Code, "wrong account type")
}

func TestRequireAuth_ExpiredSession(t *testing.T) {
	rdb := &sessionRedis{vals: map[string]string{}}
	s := testServer(rdb)
	token, err := s.Sessions.Create(context.Background(), model.Principal{ID: 1, Tipo: model.AccountUsuario})
	require.NoError(t, err)

	e := newEcho(s)
	e.GET("/me", okHandler, NewAuthMiddleware(s).RequireAuth)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(s.Sessions.Cookie(token))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSetPrincipal(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

	_, ok := GetPrincipal(c)
	assert.False(t, ok)

	p := model.Principal{ID: 7, Tipo: model.AccountUsuario}
	SetPrincipal(c, p)

	got, ok := GetPrincipal(c)
	require.True(t, ok)
	assert.Equal(t, p, got)
	assert.Equal(t, "7", GetUserID(c))

	fromCtx, ok := PrincipalFromContext(c.Request().Context())
	require.True(t, ok)
	assert.Equal(t, p, fromCtx)
	assert.NotNil(t, LoggerFromContext(c.Request().Context()))
}

func TestGlobalErrorHandler(t *testing.T) {
	s := testServer(nil)
	e := newEcho(s)

	e.GET("/domain", func(c echo.Context) error {
		return errs.NewConflictError("Estado cambió", nil)
	})
	e.GET("/boom", func(c echo.Context) error {
		return errors.New("pq: something leaked")
	})
	e.GET("/echo", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusMethodNotAllowed)
	})
	e.GET("/pin", func(c echo.Context) error {
		code := errs.CodeInvalidPin
		return errs.NewBadRequestError("PIN incorrecto", true, &code, nil, nil).
			WithData("intentos_restantes", 3)
	})

	do := func(method, path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
		return rec
	}

	t.Run("unknown route", func(t *testing.T) {
		rec := do(http.MethodGet, "/nope")
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, msgRouteNotFound, decodeError(t, rec).Message)
	})

	t.Run("domain error passes through", func(t *testing.T) {
		rec := do(http.MethodGet, "/domain")
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "Estado cambió", decodeError(t, rec).Message)
	})

	t.Run("unknown error is masked", func(t *testing.T) {
		rec := do(http.MethodGet, "/boom")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		body := decodeError(t, rec)
		assert.Equal(t, http.StatusText(http.StatusInternalServerError), body.Message)
		assert.NotContains(t, rec.Body.String(), "leaked")
	})

	t.Run("echo error", func(t *testing.T) {
		rec := do(http.MethodGet, "/echo")
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
		assert.Equal(t, "METHOD_NOT_ALLOWED", decodeError(t, rec).Code)
	})

	t.Run("error data", func(t *testing.T) {
		rec := do(http.MethodGet, "/pin")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), `"intentos_restantes":3`)
	})

	t.Run("HEAD has no body", func(t *testing.T) {
		e.HEAD("/domain", func(c echo.Context) error {
			return errs.NewConflictError("x", nil)
		})
		rec := do(http.MethodHead, "/domain")
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Empty(t, rec.Body.String())
	})
}

func TestStatusOf(t *testing.T) {
	assert.Equal(t, http.StatusForbidden, statusOf(errs.NewForbiddenError("x", false)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, statusOf(echo.ErrStatusRequestEntityTooLarge))
	assert.Equal(t, http.StatusInternalServerError, statusOf(errors.New("x")))
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "6M", formatBytes(6<<20))
	assert.Equal(t, "1025K", formatBytes(1<<20+1024))
	assert.Equal(t, "2K", formatBytes(1025))
}

func TestRequestID(t *testing.T) {
	e := echo.New()
	e.Use(RequestID())
	e.GET("/", func(c echo.Context) error {
		return c.String(http.StatusOK, GetRequestID(c))
	})

	t.Run("reuses incoming id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "abc-123")
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		assert.Equal(t, "abc-123", rec.Body.String())
		assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
	})

	t.Run("replaces oversized id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, strings.Repeat("x", 129))
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		assert.Len(t, rec.Body.String(), 36)
	})
}

func TestSensitiveRateLimit(t *testing.T) {
	s := testServer(nil)
	e := newEcho(s)
	e.POST("/login", func(c echo.Context) error {
		return c.NoContent(http.StatusNoContent)
	}, NewRateLimitMiddleware(s).Sensitive())

	hit := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = ip + ":1234"
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec
	}

	for i := 0; i < SensitiveBurst; i++ {
		require.Equal(t, http.StatusNoContent, hit("10.0.0.1").Code, "request %d", i)
	}

	rec := hit("10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Equal(t, msgTooManyRequests, decodeError(t, rec).Message)

	assert.Equal(t, http.StatusNoContent, hit("10.0.0.2").Code, "limits are per IP")
}

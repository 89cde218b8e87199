package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sebastianleon1-sys/Zerby2/internal/config"
	"github.com/sebastianleon1-sys/Zerby2/internal/errs"
	"github.com/sebastianleon1-sys/Zerby2/internal/handler"
	"github.com/sebastianleon1-sys/Zerby2/internal/lib/metrics"
	"github.com/sebastianleon1-sys/Zerby2/internal/lib/session"
	"github.com/sebastianleon1-sys/Zerby2/internal/server"
	"github.com/sebastianleon1-sys/Zerby2/internal/service"
)

// testRouter builds the full router without backing services. Only requests
// that stop in middleware may be sent through it.
func testRouter(t *testing.T) http.Handler {
	t.Helper()
	log := zerolog.Nop()

	obs := config.DefaultObservabilityConfig()
	obs.Metrics.Enabled = true

	cfg := &config.Config{
		Primary:       config.Primary{Env: "test"},
		Server:        config.ServerConfig{CORSAllowedOrigins: []string{"http://localhost:3000"}},
		Auth:          config.AuthConfig{SecretKey: "router-test", CookieName: "zerby_session", SessionTTL: time.Hour},
		Storage:       config.DefaultStorageConfig(),
		Observability: obs,
	}
	s := &server.Server{
		Config:   cfg,
		Logger:   &log,
		Metrics:  metrics.New(),
		Sessions: session.NewStore(nil, cfg.Auth),
	}

	return NewRouter(s, handler.NewHandlers(s, &service.Services{}))
}

func TestRouter_UnknownPathsAre404(t *testing.T) {
	r := testRouter(t)

	for _, path := range []string{"/api/nope", "/api/solicitudes/1/desconocido", "/nada"} {
		t.Run(path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

			assert.Equal(t, http.StatusNotFound, rec.Code)
			var body errs.HTTPError
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, "Ruta no encontrada", body.Message)
		})
	}
}

func TestRouter_ProtectedRoutesRequireSession(t *testing.T) {
	r := testRouter(t)

	routes := []struct{ method, path string }{
		{http.MethodGet, "/api/get_profile"},
		{http.MethodGet, "/api/proveedores/cercanos"},
		{http.MethodGet, "/api/buscar?q=gasfiter"},
		{http.MethodPost, "/api/solicitudes"},
		{http.MethodGet, "/api/solicitudes/3"},
		{http.MethodPost, "/api/solicitudes/3/confirmar"},
		{http.MethodPost, "/api/iniciar_chat/2"},
		{http.MethodGet, "/api/conversaciones"},
		{http.MethodPost, "/api/conversacion/1/enviar"},
		{http.MethodPost, "/api/calificar/2"},
		{http.MethodPost, "/api/portafolio/add"},
		{http.MethodDelete, "/api/portafolio/delete/4"},
		{http.MethodGet, "/ws"},
	}

	for _, rt := range routes {
		t.Run(rt.method+" "+rt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(rt.method, rt.path, nil))
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestRouter_RequestIDAndMetrics(t *testing.T) {
	r := testRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/conversaciones", nil))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/api/conversaciones")
}

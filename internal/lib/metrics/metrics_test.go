package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.RequestTransition("pendiente", "aceptada")
	m.RequestTransition("pendiente", "aceptada")
	m.ChatMessage()
	m.GeocodeLookup("hit")
	m.WebsocketOpened()
	m.WebsocketOpened()
	m.WebsocketClosed()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requestTransitions.WithLabelValues("pendiente", "aceptada")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.chatMessages))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.geocodeLookups.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.wsConnections))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RequestTransition("a", "b")
		m.ChatMessage()
		m.GeocodeLookup("miss")
		m.WebsocketOpened()
		m.WebsocketClosed()
		m.EmailJob("email:welcome", "ok")
		m.HTTPRequest("GET", "/status", 200, time.Millisecond)
	})
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.ChatMessage()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "zerby_chat_messages_total 1")
}

func TestMetrics_HTTPRequest(t *testing.T) {
	m := New()
	m.HTTPRequest("POST", "/api/solicitudes/:id/aceptar", 200, 20*time.Millisecond)
	m.HTTPRequest("POST", "/api/solicitudes/:id/aceptar", 409, 5*time.Millisecond)

	assert.Equal(t, 2, testutil.CollectAndCount(m.httpRequests))
}

// Package metrics holds the Prometheus collectors exported on /metrics.
//
// Every method is safe to call on a nil *Metrics so components can be
// constructed without metrics in tests.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "zerby"

// Metrics groups the application collectors and the registry they live in.
type Metrics struct {
	registry *prometheus.Registry

	requestTransitions *prometheus.CounterVec
	chatMessages       prometheus.Counter
	geocodeLookups     *prometheus.CounterVec
	wsConnections      prometheus.Gauge
	emailJobs          *prometheus.CounterVec
	httpRequests       *prometheus.HistogramVec
}

// New creates a registry with Go/process collectors plus the app collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		requestTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "service_request_transitions_total",
			Help:      "Service request state transitions, by source and target state.",
		}, []string{"from", "to"}),
		chatMessages: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_messages_total",
			Help:      "Chat messages persisted and broadcast.",
		}),
		geocodeLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_lookups_total",
			Help:      "Address lookups, by outcome (hit, miss, error, cached).",
		}, []string{"result"}),
		wsConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "websocket_connections",
			Help:      "Currently open websocket connections on this instance.",
		}),
		emailJobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "email_jobs_total",
			Help:      "Email tasks processed by the worker, by task type and status.",
		}, []string{"type", "status"}),
		httpRequests: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency, by method, route template and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}

	reg.MustRegister(m.requestTransitions, m.chatMessages, m.geocodeLookups, m.wsConnections, m.emailJobs, m.httpRequests)

	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry (tests gather from it).
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) RequestTransition(from, to string) {
	if m == nil {
		return
	}
	m.requestTransitions.WithLabelValues(from, to).Inc()
}

func (m *Metrics) ChatMessage() {
	if m == nil {
		return
	}
	m.chatMessages.Inc()
}

func (m *Metrics) GeocodeLookup(result string) {
	if m == nil {
		return
	}
	m.geocodeLookups.WithLabelValues(result).Inc()
}

func (m *Metrics) WebsocketOpened() {
	if m == nil {
		return
	}
	m.wsConnections.Inc()
}

func (m *Metrics) WebsocketClosed() {
	if m == nil {
		return
	}
	m.wsConnections.Dec()
}

func (m *Metrics) EmailJob(taskType, status string) {
	if m == nil {
		return
	}
	m.emailJobs.WithLabelValues(taskType, status).Inc()
}

// HTTPRequest observes one served request. route is the template
// ("/api/solicitudes/:id"), never the raw path.
func (m *Metrics) HTTPRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())
}

package middleware

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sebastianleon1-sys/Zerby2/internal/server"
)

// MetricsMiddleware records request latency in the Prometheus registry.
type MetricsMiddleware struct {
	server *server.Server
}

func NewMetricsMiddleware(s *server.Server) *MetricsMiddleware {
	return &MetricsMiddleware{server: s}
}

func (m *MetricsMiddleware) Observe() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if err != nil {
				status = statusOf(err)
			}
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			m.server.Metrics.HTTPRequest(c.Request().Method, route, status, time.Since(start))
			return err
		}
	}
}

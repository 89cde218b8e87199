package handler

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/sync/errgroup"

	"github.com/sebastianleon1-sys/Zerby2/internal/middleware"
	"github.com/sebastianleon1-sys/Zerby2/internal/server"
)

// HealthHandler exposes /status for load balancers and uptime monitors.
type HealthHandler struct {
	Handler
}

func NewHealthHandler(s *server.Server) *HealthHandler {
	return &HealthHandler{
		Handler: NewHandler(s),
	}
}

type checkResult struct {
	Status       string `json:"status"`
	ResponseTime string `json:"response_time"`
	Error        string `json:"error,omitempty"`
}

type HealthResponse struct {
	Status      string                 `json:"status"`
	Timestamp   time.Time              `json:"timestamp"`
	Environment string                 `json:"environment"`
	Checks      map[string]checkResult `json:"checks"`
}

// checks returns the dependency probes /status runs. Both are required for
// the service to work, so either failing makes the instance unhealthy.
func (h *HealthHandler) checks() map[string]func(ctx context.Context) error {
	return map[string]func(ctx context.Context) error{
		"database": func(ctx context.Context) error { return h.server.DB.Pool.Ping(ctx) },
		"redis":    func(ctx context.Context) error { return h.server.Redis.Ping(ctx).Err() },
	}
}

// CheckHealth answers 200 when every dependency check passes and 503
// otherwise. Checks run concurrently, each bounded by the configured
// timeout.
func (h *HealthHandler) CheckHealth(c echo.Context) error {
	start := time.Now()

	logger := middleware.GetLogger(c).With().
		Str("operation", "health_check").
		Logger()

	response := HealthResponse{
		Status:      "healthy",
		Timestamp:   time.Now().UTC(),
		Environment: h.server.Config.Primary.Env,
		Checks:      make(map[string]checkResult),
	}

	timeout := h.server.Config.Observability.HealthTimeout()

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(c.Request().Context())
	for name, check := range h.checks() {
		g.Go(func() error {
			checkCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			checkStart := time.Now()
			err := check(checkCtx)
			result := checkResult{Status: "healthy", ResponseTime: time.Since(checkStart).String()}
			if err != nil {
				result.Status = "unhealthy"
				result.Error = err.Error()

				logger.Error().
					Err(err).
					Str("check", name).
					Dur("response_time", time.Since(checkStart)).
					Msg("health check failed")

				h.server.LoggerService.RecordEvent("HealthCheckError", map[string]interface{}{
					"check_type":       name,
					"operation":        "health_check",
					"error_type":       name + "_unhealthy",
					"response_time_ms": time.Since(checkStart).Milliseconds(),
					"error_message":    err.Error(),
				})
			}

			mu.Lock()
			response.Checks[name] = result
			mu.Unlock()
			// Never fail the group: one bad check must not cancel the others.
			return nil
		})
	}
	_ = g.Wait()

	for _, r := range response.Checks {
		if r.Status != "healthy" {
			response.Status = "unhealthy"
		}
	}

	if response.Status != "healthy" {
		logger.Warn().
			Dur("total_duration", time.Since(start)).
			Msg("health check failed")
		return c.JSON(http.StatusServiceUnavailable, response)
	}

	logger.Debug().
		Dur("total_duration", time.Since(start)).
		Msg("health check passed")

	return c.JSON(http.StatusOK, response)
}

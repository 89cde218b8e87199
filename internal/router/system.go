package router

import (
	"github.com/labstack/echo/v4"

	"github.com/sebastianleon1-sys/Zerby2/internal/handler"
	"github.com/sebastianleon1-sys/Zerby2/internal/server"
)

// registerSystemRoutes registers endpoints that are not business logic:
// health, docs, metrics and static files (docs assets and uploads).
func registerSystemRoutes(r *echo.Echo, s *server.Server, h *handler.Handlers) {
	r.GET("/status", h.Health.CheckHealth)

	if path := s.Config.Observability.MetricsPath(); path != "" {
		r.GET(path, h.Metrics)
	}

	// Uploads are registered first so they win over the generic /static.
	r.Static(s.Config.Storage.PublicPath, s.Config.Storage.UploadDir)
	r.Static("/static", handler.StaticDir)

	r.GET("/docs", h.OpenAPI.ServeOpenAPIUI)
}

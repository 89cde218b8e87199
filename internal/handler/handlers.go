package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/sebastianleon1-sys/Zerby2/internal/server"
	"github.com/sebastianleon1-sys/Zerby2/internal/service"
)

// Handlers groups every HTTP handler so the router receives them as one
// value.
type Handlers struct {
	Health    *HealthHandler
	OpenAPI   *OpenAPIHandler
	Auth      *AuthHandler
	Discovery *DiscoveryHandler
	Solicitud *SolicitudHandler
	Chat      *ChatHandler
	Rating    *RatingHandler
	Portfolio *PortfolioHandler

	// Metrics serves the Prometheus registry.
	Metrics echo.HandlerFunc
}

func NewHandlers(s *server.Server, services *service.Services) *Handlers {
	return &Handlers{
		Health:    NewHealthHandler(s),
		OpenAPI:   NewOpenAPIHandler(s),
		Auth:      NewAuthHandler(s, services.Auth),
		Discovery: NewDiscoveryHandler(s, services.Discovery),
		Solicitud: NewSolicitudHandler(s, services.Solicitud),
		Chat:      NewChatHandler(s, services.Chat),
		Rating:    NewRatingHandler(s, services.Rating),
		Portfolio: NewPortfolioHandler(s, services.Portfolio),
		Metrics:   echo.WrapHandler(s.Metrics.Handler()),
	}
}

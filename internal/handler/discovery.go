package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/sebastianleon1-sys/Zerby2/internal/server"
	"github.com/sebastianleon1-sys/Zerby2/internal/service"
	"github.com/sebastianleon1-sys/Zerby2/internal/validation"
)

type DiscoveryHandler struct {
	Handler
	discovery *service.DiscoveryService
}

func NewDiscoveryHandler(s *server.Server, discovery *service.DiscoveryService) *DiscoveryHandler {
	return &DiscoveryHandler{Handler: NewHandler(s), discovery: discovery}
}

type SearchRequest struct {
	Q string `query:"q" validate:"max=100"`
}

func (r *SearchRequest) Validate() error { return validation.Struct(r) }

func (h *DiscoveryHandler) Nearest(c echo.Context, _ *Empty) ([]service.ProveedorListing, error) {
	p, err := principal(c)
	if err != nil {
		return nil, err
	}
	return h.discovery.Nearest(c.Request().Context(), p)
}

func (h *DiscoveryHandler) Search(c echo.Context, req *SearchRequest) ([]service.ProveedorListing, error) {
	p, err := principal(c)
	if err != nil {
		return nil, err
	}
	return h.discovery.Search(c.Request().Context(), p, req.Q)
}

package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/sebastianleon1-sys/Zerby2/internal/server"
	"github.com/sebastianleon1-sys/Zerby2/internal/service"
	"github.com/sebastianleon1-sys/Zerby2/internal/validation"
)

type RatingHandler struct {
	Handler
	ratings *service.RatingService
}

func NewRatingHandler(s *server.Server, ratings *service.RatingService) *RatingHandler {
	return &RatingHandler{Handler: NewHandler(s), ratings: ratings}
}

type RateRequest struct {
	ProveedorID int64   `param:"proveedor_id" validate:"required,gt=0"`
	Puntuacion  int     `json:"puntuacion"`
	Comentario  *string `json:"comentario" validate:"omitempty,max=1000"`
}

// Validate leaves the 1..5 range to the service so the client gets the same
// message whichever way the value is out of range.
func (r *RateRequest) Validate() error { return validation.Struct(r) }

type PublicProfileRequest struct {
	ID int64 `param:"id" validate:"required,gt=0"`
}

func (r *PublicProfileRequest) Validate() error { return validation.Struct(r) }

func (h *RatingHandler) Rate(c echo.Context, req *RateRequest) (Mensaje, int, error) {
	p, err := principal(c)
	if err != nil {
		return Mensaje{}, 0, err
	}
	_, created, err := h.ratings.Rate(c.Request().Context(), p, req.ProveedorID, req.Puntuacion, req.Comentario)
	if err != nil {
		return Mensaje{}, 0, err
	}
	if created {
		return Mensaje{Mensaje: "Calificación enviada"}, statusFor(true), nil
	}
	return Mensaje{Mensaje: "Calificación actualizada"}, statusFor(false), nil
}

func (h *RatingHandler) PublicProfile(c echo.Context, req *PublicProfileRequest) (*service.PerfilProveedor, error) {
	return h.ratings.PublicProfile(c.Request().Context(), req.ID)
}

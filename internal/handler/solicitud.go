package handler

import (
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/sebastianleon1-sys/Zerby2/internal/lib/pin"
	"github.com/sebastianleon1-sys/Zerby2/internal/model"
	"github.com/sebastianleon1-sys/Zerby2/internal/server"
	"github.com/sebastianleon1-sys/Zerby2/internal/service"
	"github.com/sebastianleon1-sys/Zerby2/internal/validation"
)

// SolicitudHandler serves the service request lifecycle.
type SolicitudHandler struct {
	Handler
	solicitudes *service.SolicitudService
}

func NewSolicitudHandler(s *server.Server, solicitudes *service.SolicitudService) *SolicitudHandler {
	return &SolicitudHandler{Handler: NewHandler(s), solicitudes: solicitudes}
}

type CreateSolicitudRequest struct {
	ProveedorID int64   `json:"proveedor_id" validate:"required,gt=0"`
	Descripcion string  `json:"descripcion" validate:"required,max=2000"`
	Direccion   *string `json:"direccion" validate:"omitempty,max=255"`
}

func (r *CreateSolicitudRequest) Validate() error { return validation.Struct(r) }

type SolicitudIDRequest struct {
	ID int64 `param:"id" validate:"required,gt=0"`
}

func (r *SolicitudIDRequest) Validate() error { return validation.Struct(r) }

// AcceptRequest carries the quoted amount. monto may be sent as a JSON
// number or string.
type AcceptRequest struct {
	ID    int64           `param:"id" validate:"required,gt=0"`
	Monto decimal.Decimal `json:"monto"`
}

func (r *AcceptRequest) Validate() error {
	if err := validation.Struct(r); err != nil {
		return err
	}
	if !r.Monto.Round(2).IsPositive() {
		return validation.CustomValidationErrors{{Field: "monto", Message: "debe ser mayor que 0"}}
	}
	return nil
}

type RejectRequest struct {
	ID     int64   `param:"id" validate:"required,gt=0"`
	Motivo *string `json:"motivo" validate:"omitempty,max=500"`
}

func (r *RejectRequest) Validate() error { return validation.Struct(r) }

type ConfirmRequest struct {
	ID  int64  `param:"id" validate:"required,gt=0"`
	Pin string `json:"pin" validate:"required,max=12"`
}

// Validate rejects malformed codes here so they never count as a failed
// attempt against the request's PIN.
func (r *ConfirmRequest) Validate() error {
	if err := validation.Struct(r); err != nil {
		return err
	}
	if !pin.Valid(strings.TrimSpace(r.Pin)) {
		return validation.CustomValidationErrors{{Field: "pin", Message: "debe tener 6 dígitos"}}
	}
	return nil
}

type PagoResponse struct {
	Mensaje   string                   `json:"mensaje"`
	Pin       string                   `json:"pin"`
	Solicitud *model.SolicitudServicio `json:"solicitud"`
}

type SolicitudResponse struct {
	Mensaje   string                   `json:"mensaje"`
	Solicitud *model.SolicitudServicio `json:"solicitud"`
}

func (h *SolicitudHandler) Create(c echo.Context, req *CreateSolicitudRequest) (SolicitudResponse, error) {
	p, err := principal(c)
	if err != nil {
		return SolicitudResponse{}, err
	}
	sol, err := h.solicitudes.Create(c.Request().Context(), p, service.CreateSolicitudInput{
		ProveedorID: req.ProveedorID,
		Descripcion: req.Descripcion,
		Direccion:   req.Direccion,
	})
	if err != nil {
		return SolicitudResponse{}, err
	}
	return SolicitudResponse{Mensaje: "Solicitud enviada", Solicitud: sol}, nil
}

func (h *SolicitudHandler) List(c echo.Context, _ *Empty) ([]model.SolicitudServicio, error) {
	p, err := principal(c)
	if err != nil {
		return nil, err
	}
	return h.solicitudes.List(c.Request().Context(), p)
}

func (h *SolicitudHandler) Get(c echo.Context, req *SolicitudIDRequest) (*model.SolicitudServicio, error) {
	p, err := principal(c)
	if err != nil {
		return nil, err
	}
	return h.solicitudes.Get(c.Request().Context(), p, req.ID)
}

func (h *SolicitudHandler) Accept(c echo.Context, req *AcceptRequest) (SolicitudResponse, error) {
	p, err := principal(c)
	if err != nil {
		return SolicitudResponse{}, err
	}
	sol, err := h.solicitudes.Accept(c.Request().Context(), p, req.ID, req.Monto)
	if err != nil {
		return SolicitudResponse{}, err
	}
	return SolicitudResponse{Mensaje: "Cotización enviada", Solicitud: sol}, nil
}

func (h *SolicitudHandler) Reject(c echo.Context, req *RejectRequest) (SolicitudResponse, error) {
	p, err := principal(c)
	if err != nil {
		return SolicitudResponse{}, err
	}
	sol, err := h.solicitudes.Reject(c.Request().Context(), p, req.ID, req.Motivo)
	if err != nil {
		return SolicitudResponse{}, err
	}
	return SolicitudResponse{Mensaje: "Solicitud rechazada", Solicitud: sol}, nil
}

func (h *SolicitudHandler) Pay(c echo.Context, req *SolicitudIDRequest) (PagoResponse, error) {
	p, err := principal(c)
	if err != nil {
		return PagoResponse{}, err
	}
	sol, pin, err := h.solicitudes.Pay(c.Request().Context(), p, req.ID)
	if err != nil {
		return PagoResponse{}, err
	}
	return PagoResponse{Mensaje: "Pago exitoso", Pin: pin, Solicitud: sol}, nil
}

func (h *SolicitudHandler) RegeneratePin(c echo.Context, req *SolicitudIDRequest) (PagoResponse, error) {
	p, err := principal(c)
	if err != nil {
		return PagoResponse{}, err
	}
	sol, pin, err := h.solicitudes.RegeneratePin(c.Request().Context(), p, req.ID)
	if err != nil {
		return PagoResponse{}, err
	}
	return PagoResponse{Mensaje: "PIN regenerado", Pin: pin, Solicitud: sol}, nil
}

func (h *SolicitudHandler) Confirm(c echo.Context, req *ConfirmRequest) (SolicitudResponse, error) {
	p, err := principal(c)
	if err != nil {
		return SolicitudResponse{}, err
	}
	sol, err := h.solicitudes.Confirm(c.Request().Context(), p, req.ID, req.Pin)
	if err != nil {
		return SolicitudResponse{}, err
	}
	return SolicitudResponse{Mensaje: "Trabajo finalizado", Solicitud: sol}, nil
}

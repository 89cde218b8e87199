package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sebastianleon1-sys/Zerby2/internal/errs"
	"github.com/sebastianleon1-sys/Zerby2/internal/model"
	"github.com/sebastianleon1-sys/Zerby2/internal/server"
	"github.com/sebastianleon1-sys/Zerby2/internal/service"
	"github.com/sebastianleon1-sys/Zerby2/internal/validation"
)

// imageField is the multipart field carrying the upload.
const imageField = "imagen"

type PortfolioHandler struct {
	Handler
	portfolio *service.PortfolioService
}

func NewPortfolioHandler(s *server.Server, portfolio *service.PortfolioService) *PortfolioHandler {
	return &PortfolioHandler{Handler: NewHandler(s), portfolio: portfolio}
}

type AddPortfolioRequest struct {
	Descripcion *string `form:"descripcion" validate:"omitempty,max=500"`
}

func (r *AddPortfolioRequest) Validate() error { return validation.Struct(r) }

type PortfolioItemRequest struct {
	ID int64 `param:"id" validate:"required,gt=0"`
}

func (r *PortfolioItemRequest) Validate() error { return validation.Struct(r) }

type AddPortfolioResponse struct {
	Mensaje string                `json:"mensaje"`
	Item    *model.PortafolioItem `json:"item"`
}

func (h *PortfolioHandler) Add(c echo.Context, req *AddPortfolioRequest) (AddPortfolioResponse, error) {
	p, err := principal(c)
	if err != nil {
		return AddPortfolioResponse{}, err
	}

	fh, err := c.FormFile(imageField)
	if err != nil {
		if err == http.ErrMissingFile {
			return AddPortfolioResponse{}, errs.NewBadRequestError("No se encontró el archivo de imagen", true, nil, nil, nil)
		}
		return AddPortfolioResponse{}, errs.NewBadRequestError("Formulario inválido", true, nil, nil, nil)
	}
	if fh.Filename == "" {
		return AddPortfolioResponse{}, errs.NewBadRequestError("Nombre de archivo vacío", true, nil, nil, nil)
	}

	f, err := fh.Open()
	if err != nil {
		return AddPortfolioResponse{}, err
	}
	defer f.Close()

	item, err := h.portfolio.Add(c.Request().Context(), p, fh.Filename, f, req.Descripcion)
	if err != nil {
		return AddPortfolioResponse{}, err
	}
	return AddPortfolioResponse{Mensaje: "Trabajo subido con éxito", Item: item}, nil
}

func (h *PortfolioHandler) Delete(c echo.Context, req *PortfolioItemRequest) (Mensaje, error) {
	p, err := principal(c)
	if err != nil {
		return Mensaje{}, err
	}
	if err := h.portfolio.Delete(c.Request().Context(), p, req.ID); err != nil {
		return Mensaje{}, err
	}
	return Mensaje{Mensaje: "Trabajo eliminado"}, nil
}

package service

import (
	"context"

	"github.com/sebastianleon1-sys/Zerby2/internal/errs"
	"github.com/sebastianleon1-sys/Zerby2/internal/model"
)

const MsgPuntuacionRange = "Puntuación debe ser un número entero entre 1 y 5"

// RatingService handles ratings and the public provider profile.
type RatingService struct {
	calificaciones calificacionStore
	proveedores    proveedorStore
	portafolio     portafolioStore
}

func NewRatingService(calificaciones calificacionStore, proveedores proveedorStore, portafolio portafolioStore) *RatingService {
	return &RatingService{calificaciones: calificaciones, proveedores: proveedores, portafolio: portafolio}
}

// Rate stores the usuario's rating of a provider, replacing an earlier one.
// created is false when a rating was updated.
func (s *RatingService) Rate(ctx context.Context, p model.Principal, proveedorID int64, puntuacion int, comentario *string) (*model.Calificacion, bool, error) {
	if !p.IsUsuario() {
		return nil, false, errs.NewUnauthorizedError(MsgUnauthorized, true)
	}
	if puntuacion < model.MinPuntuacion || puntuacion > model.MaxPuntuacion {
		return nil, false, errs.NewBadRequestError(MsgPuntuacionRange, true, nil, nil, nil)
	}
	if _, err := s.proveedores.GetByID(ctx, proveedorID); err != nil {
		return nil, false, err
	}

	return s.calificaciones.Upsert(ctx, &model.Calificacion{
		Puntuacion:  puntuacion,
		UsuarioID:   p.ID,
		ProveedorID: proveedorID,
		Comentario:  trimmedOrNil(comentario),
	})
}

type CalificacionPublica struct {
	Puntuacion    int     `json:"puntuacion"`
	Comentario    *string `json:"comentario"`
	NombreUsuario string  `json:"nombre_usuario"`
	Timestamp     string  `json:"timestamp"`
}

type PortafolioPublico struct {
	ID          int64   `json:"id"`
	ImagenURL   string  `json:"imagen_url"`
	Descripcion *string `json:"descripcion"`
}

type PerfilProveedor struct {
	ID               int64                 `json:"id"`
	Nombre           string                `json:"nombre"`
	Oficio           string                `json:"oficio"`
	Descripcion      *string               `json:"descripcion"`
	Direccion        *string               `json:"direccion"`
	Horario          *string               `json:"horario"`
	AtiendeUrgencias bool                  `json:"atiende_urgencias"`
	Telefono         string                `json:"telefono"`
	CalifPromedio    float64               `json:"calif_promedio"`
	CalifTotal       int                   `json:"calif_total"`
	Calificaciones   []CalificacionPublica `json:"calificaciones"`
	Portafolio       []PortafolioPublico   `json:"portafolio"`
}

// PublicProfile is visible without a session.
func (s *RatingService) PublicProfile(ctx context.Context, proveedorID int64) (*PerfilProveedor, error) {
	prov, err := s.proveedores.GetResumen(ctx, proveedorID)
	if err != nil {
		return nil, err
	}
	ratings, err := s.calificaciones.ListForProveedor(ctx, proveedorID)
	if err != nil {
		return nil, err
	}
	items, err := s.portafolio.ListForProveedor(ctx, proveedorID)
	if err != nil {
		return nil, err
	}

	perfil := &PerfilProveedor{
		ID:               prov.ID,
		Nombre:           prov.NombreCompleto,
		Oficio:           prov.Oficio,
		Descripcion:      prov.Descripcion,
		Direccion:        prov.Direccion,
		Horario:          prov.Horario,
		AtiendeUrgencias: prov.AtiendeUrgencias,
		Telefono:         prov.Telefono,
		CalifPromedio:    prov.CalifPromedio,
		CalifTotal:       prov.CalifTotal,
		Calificaciones:   make([]CalificacionPublica, len(ratings)),
		Portafolio:       make([]PortafolioPublico, len(items)),
	}
	for i, r := range ratings {
		perfil.Calificaciones[i] = CalificacionPublica{
			Puntuacion:    r.Puntuacion,
			Comentario:    r.Comentario,
			NombreUsuario: r.NombreUsuario,
			Timestamp:     r.Timestamp.Format(DateLayout),
		}
	}
	for i, item := range items {
		perfil.Portafolio[i] = PortafolioPublico{ID: item.ID, ImagenURL: item.ImagenURL, Descripcion: item.Descripcion}
	}
	return perfil, nil
}

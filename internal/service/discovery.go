package service

import (
	"context"
	"strings"

	"github.com/sebastianleon1-sys/Zerby2/internal/errs"
	"github.com/sebastianleon1-sys/Zerby2/internal/lib/geo"
	"github.com/sebastianleon1-sys/Zerby2/internal/model"
)

const (
	// NearestLimit caps the distance-ranked listing.
	NearestLimit = 20
	// UnlocatedLimit is how many providers a usuario without coordinates
	// gets, unranked.
	UnlocatedLimit = 10
)

// ProveedorListing is a provider as shown in listings and search results.
type ProveedorListing struct {
	ProveedorID      int64    `json:"proveedor_id"`
	Nombre           string   `json:"nombre"`
	Oficio           string   `json:"oficio"`
	Descripcion      *string  `json:"descripcion"`
	Telefono         string   `json:"telefono"`
	Direccion        *string  `json:"direccion"`
	Horario          *string  `json:"horario"`
	AtiendeUrgencias bool     `json:"atiende_urgencias"`
	CalifPromedio    float64  `json:"calif_promedio"`
	CalifTotal       int      `json:"calif_total"`
	Lat              *float64 `json:"lat"`
	Lon              *float64 `json:"lon"`
	DistanciaKm      *float64 `json:"distancia_km,omitempty"`
}

func newProveedorListing(p model.ProveedorResumen) ProveedorListing {
	return ProveedorListing{
		ProveedorID:      p.ID,
		Nombre:           p.NombreCompleto,
		Oficio:           p.Oficio,
		Descripcion:      p.Descripcion,
		Telefono:         p.Telefono,
		Direccion:        p.Direccion,
		Horario:          p.Horario,
		AtiendeUrgencias: p.AtiendeUrgencias,
		CalifPromedio:    p.CalifPromedio,
		CalifTotal:       p.CalifTotal,
		Lat:              p.Lat,
		Lon:              p.Lon,
	}
}

type DiscoveryService struct {
	usuarios    usuarioStore
	proveedores proveedorStore
}

func NewDiscoveryService(usuarios usuarioStore, proveedores proveedorStore) *DiscoveryService {
	return &DiscoveryService{usuarios: usuarios, proveedores: proveedores}
}

// Nearest ranks located providers by haversine distance from the usuario.
// A usuario without coordinates gets the first providers by id instead,
// without distances.
func (s *DiscoveryService) Nearest(ctx context.Context, p model.Principal) ([]ProveedorListing, error) {
	if !p.IsUsuario() {
		return nil, errs.NewUnauthorizedError(MsgUnauthorized, true)
	}

	u, err := s.usuarios.GetByID(ctx, p.ID)
	if err != nil {
		return nil, err
	}

	origin, ok := u.Location()
	if !ok {
		all, err := s.proveedores.List(ctx, UnlocatedLimit)
		if err != nil {
			return nil, err
		}
		return listings(all), nil
	}

	located, err := s.proveedores.ListLocated(ctx)
	if err != nil {
		return nil, err
	}

	ranked := geo.RankByDistance(origin, located, func(pr model.ProveedorResumen) (geo.Point, bool) {
		return pr.Location()
	}, NearestLimit)

	out := make([]ProveedorListing, len(ranked))
	for i, r := range ranked {
		out[i] = newProveedorListing(r.Item)
		km := geo.RoundKm(r.DistanceKm)
		out[i].DistanciaKm = &km
	}
	return out, nil
}

// Search matches q against oficio, descripcion and direccion.
func (s *DiscoveryService) Search(ctx context.Context, p model.Principal, q string) ([]ProveedorListing, error) {
	if !p.IsUsuario() {
		return nil, errs.NewUnauthorizedError(MsgUnauthorized, true)
	}
	found, err := s.proveedores.Search(ctx, strings.TrimSpace(q))
	if err != nil {
		return nil, err
	}
	return listings(found), nil
}

func listings(in []model.ProveedorResumen) []ProveedorListing {
	out := make([]ProveedorListing, len(in))
	for i, p := range in {
		out[i] = newProveedorListing(p)
	}
	return out
}

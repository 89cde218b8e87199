package model

import (
	"time"

	"github.com/sebastianleon1-sys/Zerby2/internal/lib/geo"
)

// AccountType tells the two kinds of account apart. Ids are only unique
// within a type, so every reference to an account carries both.
type AccountType string

const (
	AccountUsuario   AccountType = "usuario"
	AccountProveedor AccountType = "proveedor"
)

func (t AccountType) Valid() bool {
	return t == AccountUsuario || t == AccountProveedor
}

// Principal is the authenticated caller of a request.
type Principal struct {
	ID   int64       `json:"id"`
	Tipo AccountType `json:"tipo"`
}

func (p Principal) IsUsuario() bool   { return p.Tipo == AccountUsuario }
func (p Principal) IsProveedor() bool { return p.Tipo == AccountProveedor }

// Usuario is a client account.
type Usuario struct {
	ID             int64     `json:"id" db:"id"`
	NombreCompleto string    `json:"nombre_completo" db:"nombre_completo"`
	Email          string    `json:"email" db:"email"`
	PasswordHash   string    `json:"-" db:"password_hash"`
	Telefono       *string   `json:"telefono" db:"telefono"`
	Direccion      *string   `json:"direccion" db:"direccion"`
	Lat            *float64  `json:"lat" db:"lat"`
	Lon            *float64  `json:"lon" db:"lon"`
	Creado         time.Time `json:"creado" db:"creado"`
}

// Location reports the geocoded position, if the address was resolved.
func (u Usuario) Location() (geo.Point, bool) {
	return geo.PointFrom(u.Lat, u.Lon)
}

// Proveedor is a service provider account.
type Proveedor struct {
	ID               int64     `json:"id" db:"id"`
	NombreCompleto   string    `json:"nombre_completo" db:"nombre_completo"`
	Email            string    `json:"email" db:"email"`
	PasswordHash     string    `json:"-" db:"password_hash"`
	Telefono         string    `json:"telefono" db:"telefono"`
	Oficio           string    `json:"oficio" db:"oficio"`
	Descripcion      *string   `json:"descripcion" db:"descripcion"`
	Direccion        *string   `json:"direccion" db:"direccion"`
	Horario          *string   `json:"horario" db:"horario"`
	AtiendeUrgencias bool      `json:"atiende_urgencias" db:"atiende_urgencias"`
	Lat              *float64  `json:"lat" db:"lat"`
	Lon              *float64  `json:"lon" db:"lon"`
	Creado           time.Time `json:"creado" db:"creado"`
}

func (p Proveedor) Location() (geo.Point, bool) {
	return geo.PointFrom(p.Lat, p.Lon)
}

// ProveedorResumen is a provider plus its rating aggregate, the row shape
// used by listings and search.
type ProveedorResumen struct {
	Proveedor
	CalifPromedio float64 `db:"calif_promedio"`
	CalifTotal    int     `db:"calif_total"`
}

// Coordinates is the optional position written back after geocoding.
type Coordinates struct {
	Lat *float64
	Lon *float64
}

// CoordinatesOf converts a lookup result into nullable columns.
func CoordinatesOf(p geo.Point, found bool) Coordinates {
	if !found {
		return Coordinates{}
	}
	lat, lon := p.Lat, p.Lon
	return Coordinates{Lat: &lat, Lon: &lon}
}

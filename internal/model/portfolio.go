package model

import "time"

// PortafolioItem is one image in a provider's portfolio.
type PortafolioItem struct {
	ID          int64     `json:"id" db:"id"`
	ProveedorID int64     `json:"proveedor_id" db:"proveedor_id"`
	ImagenURL   string    `json:"imagen_url" db:"imagen_url"`
	Archivo     string    `json:"-" db:"archivo"`
	Descripcion *string   `json:"descripcion" db:"descripcion"`
	Timestamp   time.Time `json:"timestamp" db:"timestamp"`
}

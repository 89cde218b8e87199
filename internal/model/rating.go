package model

import "time"

const (
	MinPuntuacion = 1
	MaxPuntuacion = 5
)

// Calificacion is the single rating a usuario gives a proveedor.
type Calificacion struct {
	ID          int64     `json:"id" db:"id"`
	Puntuacion  int       `json:"puntuacion" db:"puntuacion"`
	UsuarioID   int64     `json:"usuario_id" db:"usuario_id"`
	ProveedorID int64     `json:"proveedor_id" db:"proveedor_id"`
	Comentario  *string   `json:"comentario" db:"comentario"`
	Timestamp   time.Time `json:"timestamp" db:"timestamp"`
}

// CalificacionDetalle is a rating joined with its author's name.
type CalificacionDetalle struct {
	Calificacion
	NombreUsuario string `db:"nombre_usuario"`
}

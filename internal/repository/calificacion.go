package repository

import (
	"context"
	"fmt"

	"github.com/sebastianleon1-sys/Zerby2/internal/model"
)

type CalificacionRepository struct {
	db DBTX
}

func NewCalificacionRepository(db DBTX) *CalificacionRepository {
	return &CalificacionRepository{db: db}
}

type upsertedCalificacion struct {
	model.Calificacion
	Inserted bool `db:"inserted"`
}

// Upsert stores the pair's single rating. created is false when an existing
// rating was overwritten.
func (r *CalificacionRepository) Upsert(ctx context.Context, c *model.Calificacion) (*model.Calificacion, bool, error) {
	// xmax is 0 only for freshly inserted tuples.
	row, err := getOne[upsertedCalificacion](ctx, r.db, "calificacion", `
		INSERT INTO calificaciones (puntuacion, usuario_id, proveedor_id, comentario)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT ON CONSTRAINT uq_usuario_proveedor_calificacion DO UPDATE SET
			puntuacion = EXCLUDED.puntuacion,
			comentario = EXCLUDED.comentario,
			timestamp  = now()
		RETURNING *, (xmax = 0) AS inserted`, c.Puntuacion, c.UsuarioID, c.ProveedorID, c.Comentario)
	if err != nil {
		return nil, false, fmt.Errorf("failed to upsert calificacion: %w", err)
	}
	return &row.Calificacion, row.Inserted, nil
}

// ListForProveedor returns a provider's ratings with author names, newest
// first.
func (r *CalificacionRepository) ListForProveedor(ctx context.Context, proveedorID int64) ([]model.CalificacionDetalle, error) {
	return getMany[model.CalificacionDetalle](ctx, r.db, `
		SELECT c.*, u.nombre_completo AS nombre_usuario
		FROM calificaciones c
		JOIN usuarios u ON u.id = c.usuario_id
		WHERE c.proveedor_id = $1
		ORDER BY c.timestamp DESC, c.id DESC`, proveedorID)
}

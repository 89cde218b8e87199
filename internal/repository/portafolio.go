package repository

import (
	"context"

	"github.com/sebastianleon1-sys/Zerby2/internal/model"
)

type PortafolioRepository struct {
	db DBTX
}

func NewPortafolioRepository(db DBTX) *PortafolioRepository {
	return &PortafolioRepository{db: db}
}

func (r *PortafolioRepository) Create(ctx context.Context, item *model.PortafolioItem) (*model.PortafolioItem, error) {
	return getOne[model.PortafolioItem](ctx, r.db, "portafolio", `
		INSERT INTO portafolio_items (proveedor_id, imagen_url, archivo, descripcion)
		VALUES ($1, $2, $3, $4)
		RETURNING *`, item.ProveedorID, item.ImagenURL, item.Archivo, item.Descripcion)
}

func (r *PortafolioRepository) GetByID(ctx context.Context, id int64) (*model.PortafolioItem, error) {
	return getOne[model.PortafolioItem](ctx, r.db, "portafolio", `SELECT * FROM portafolio_items WHERE id = $1`, id)
}

func (r *PortafolioRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM portafolio_items WHERE id = $1`, id)
	return err
}

func (r *PortafolioRepository) ListForProveedor(ctx context.Context, proveedorID int64) ([]model.PortafolioItem, error) {
	return getMany[model.PortafolioItem](ctx, r.db,
		`SELECT * FROM portafolio_items WHERE proveedor_id = $1 ORDER BY timestamp DESC, id DESC`, proveedorID)
}

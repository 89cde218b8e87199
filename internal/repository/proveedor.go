package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/sebastianleon1-sys/Zerby2/internal/model"
)

type ProveedorRepository struct {
	db DBTX
}

func NewProveedorRepository(db DBTX) *ProveedorRepository {
	return &ProveedorRepository{db: db}
}

// withRatings selects providers with their rating aggregate. The average is
// rounded to one decimal and is 0 for providers without ratings.
const withRatings = `
	SELECT p.*,
		COALESCE(ROUND(AVG(c.puntuacion)::numeric, 1), 0)::float8 AS calif_promedio,
		COUNT(c.id)::int AS calif_total
	FROM proveedores p
	LEFT JOIN calificaciones c ON c.proveedor_id = p.id`

// Create inserts p unless its email is taken by any account, in which case
// the error wraps ErrEmailTaken.
func (r *ProveedorRepository) Create(ctx context.Context, p *model.Proveedor) (*model.Proveedor, error) {
	const stmt = `
		INSERT INTO proveedores (nombre_completo, email, password_hash, telefono, oficio,
			descripcion, direccion, horario, atiende_urgencias, lat, lon)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING *`

	var created *model.Proveedor
	err := withTx(ctx, r.db, func(tx pgx.Tx) error {
		if err := claimEmail(ctx, tx, p.Email); err != nil {
			return err
		}
		var err error
		created, err = getOne[model.Proveedor](ctx, tx, "proveedor", stmt,
			p.NombreCompleto, p.Email, p.PasswordHash, p.Telefono, p.Oficio,
			p.Descripcion, p.Direccion, p.Horario, p.AtiendeUrgencias, p.Lat, p.Lon)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create proveedor: %w", err)
	}
	return created, nil
}

func (r *ProveedorRepository) GetByID(ctx context.Context, id int64) (*model.Proveedor, error) {
	return getOne[model.Proveedor](ctx, r.db, "proveedor", `SELECT * FROM proveedores WHERE id = $1`, id)
}

func (r *ProveedorRepository) GetByEmail(ctx context.Context, email string) (*model.Proveedor, error) {
	return getOne[model.Proveedor](ctx, r.db, "proveedor", `SELECT * FROM proveedores WHERE lower(email) = lower($1)`, email)
}

func (r *ProveedorRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM proveedores WHERE lower(email) = lower($1))`, email).Scan(&exists)
	return exists, err
}

func (r *ProveedorRepository) UpdateProfile(ctx context.Context, id int64, upd ProfileUpdate) (*model.Proveedor, error) {
	const stmt = `
		UPDATE proveedores SET
			telefono  = COALESCE($2, telefono),
			direccion = COALESCE($3, direccion),
			lat       = CASE WHEN $4::boolean THEN $5::float8 ELSE lat END,
			lon       = CASE WHEN $4::boolean THEN $6::float8 ELSE lon END
		WHERE id = $1
		RETURNING *`

	return getOne[model.Proveedor](ctx, r.db, "proveedor", stmt,
		id, upd.Telefono, upd.Direccion, upd.SetCoordinates, upd.Coordinates.Lat, upd.Coordinates.Lon)
}

func (r *ProveedorRepository) UpdateCoordinatesIfAddress(ctx context.Context, id int64, direccion string, c model.Coordinates) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE proveedores SET lat = $3, lon = $4 WHERE id = $1 AND direccion = $2`,
		id, direccion, c.Lat, c.Lon)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// GetResumen returns one provider with its rating aggregate.
func (r *ProveedorRepository) GetResumen(ctx context.Context, id int64) (*model.ProveedorResumen, error) {
	return getOne[model.ProveedorResumen](ctx, r.db, "proveedor",
		withRatings+` WHERE p.id = $1 GROUP BY p.id`, id)
}

// List returns providers by id. A limit <= 0 returns all of them.
func (r *ProveedorRepository) List(ctx context.Context, limit int) ([]model.ProveedorResumen, error) {
	query := withRatings + ` GROUP BY p.id ORDER BY p.id`
	if limit > 0 {
		return getMany[model.ProveedorResumen](ctx, r.db, query+` LIMIT $1`, limit)
	}
	return getMany[model.ProveedorResumen](ctx, r.db, query)
}

// ListLocated returns every provider whose address was geocoded.
func (r *ProveedorRepository) ListLocated(ctx context.Context) ([]model.ProveedorResumen, error) {
	return getMany[model.ProveedorResumen](ctx, r.db,
		withRatings+` WHERE p.lat IS NOT NULL AND p.lon IS NOT NULL GROUP BY p.id ORDER BY p.id`)
}

// Search matches term case-insensitively anywhere in oficio, descripcion or
// direccion. An empty term returns every provider.
func (r *ProveedorRepository) Search(ctx context.Context, term string) ([]model.ProveedorResumen, error) {
	if term == "" {
		return r.List(ctx, 0)
	}
	return getMany[model.ProveedorResumen](ctx, r.db, withRatings+`
		WHERE p.oficio ILIKE $1 OR p.descripcion ILIKE $1 OR p.direccion ILIKE $1
		GROUP BY p.id ORDER BY p.id`, containsPattern(term))
}

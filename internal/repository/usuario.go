package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/sebastianleon1-sys/Zerby2/internal/model"
)

type UsuarioRepository struct {
	db DBTX
}

func NewUsuarioRepository(db DBTX) *UsuarioRepository {
	return &UsuarioRepository{db: db}
}

// ProfileUpdate is a partial profile change. Nil fields keep their value;
// Coordinates is only applied when SetCoordinates is true.
type ProfileUpdate struct {
	Telefono       *string
	Direccion      *string
	SetCoordinates bool
	Coordinates    model.Coordinates
}

// Create inserts u unless its email is taken by any account, in which case
// the error wraps ErrEmailTaken.
func (r *UsuarioRepository) Create(ctx context.Context, u *model.Usuario) (*model.Usuario, error) {
	const stmt = `
		INSERT INTO usuarios (nombre_completo, email, password_hash, telefono, direccion, lat, lon)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING *`

	var created *model.Usuario
	err := withTx(ctx, r.db, func(tx pgx.Tx) error {
		if err := claimEmail(ctx, tx, u.Email); err != nil {
			return err
		}
		var err error
		created, err = getOne[model.Usuario](ctx, tx, "usuario", stmt,
			u.NombreCompleto, u.Email, u.PasswordHash, u.Telefono, u.Direccion, u.Lat, u.Lon)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create usuario: %w", err)
	}
	return created, nil
}

func (r *UsuarioRepository) GetByID(ctx context.Context, id int64) (*model.Usuario, error) {
	return getOne[model.Usuario](ctx, r.db, "usuario", `SELECT * FROM usuarios WHERE id = $1`, id)
}

// GetByEmail matches the email case-insensitively.
func (r *UsuarioRepository) GetByEmail(ctx context.Context, email string) (*model.Usuario, error) {
	return getOne[model.Usuario](ctx, r.db, "usuario", `SELECT * FROM usuarios WHERE lower(email) = lower($1)`, email)
}

func (r *UsuarioRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM usuarios WHERE lower(email) = lower($1))`, email).Scan(&exists)
	return exists, err
}

func (r *UsuarioRepository) UpdateProfile(ctx context.Context, id int64, upd ProfileUpdate) (*model.Usuario, error) {
	const stmt = `
		UPDATE usuarios SET
			telefono  = COALESCE($2, telefono),
			direccion = COALESCE($3, direccion),
			lat       = CASE WHEN $4::boolean THEN $5::float8 ELSE lat END,
			lon       = CASE WHEN $4::boolean THEN $6::float8 ELSE lon END
		WHERE id = $1
		RETURNING *`

	return getOne[model.Usuario](ctx, r.db, "usuario", stmt,
		id, upd.Telefono, upd.Direccion, upd.SetCoordinates, upd.Coordinates.Lat, upd.Coordinates.Lon)
}

// UpdateCoordinatesIfAddress writes coordinates only while the stored
// address is still direccion.
func (r *UsuarioRepository) UpdateCoordinatesIfAddress(ctx context.Context, id int64, direccion string, c model.Coordinates) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE usuarios SET lat = $3, lon = $4 WHERE id = $1 AND direccion = $2`,
		id, direccion, c.Lat, c.Lon)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

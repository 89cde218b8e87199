package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/sebastianleon1-sys/Zerby2/internal/model"
	"github.com/sebastianleon1-sys/Zerby2/internal/sqlerr"
)

// ErrStateChanged is returned when a transition's source state no longer
// holds, i.e. a concurrent transition won.
var ErrStateChanged = errors.New("solicitud state changed concurrently")

// ErrPinLocked is returned when the request has no PIN attempts left.
var ErrPinLocked = errors.New("pin attempts exhausted")

type SolicitudRepository struct {
	db DBTX
}

func NewSolicitudRepository(db DBTX) *SolicitudRepository {
	return &SolicitudRepository{db: db}
}

func (r *SolicitudRepository) Create(ctx context.Context, s *model.SolicitudServicio) (*model.SolicitudServicio, error) {
	created, err := getOne[model.SolicitudServicio](ctx, r.db, "solicitud", `
		INSERT INTO solicitudes_servicio (usuario_id, proveedor_id, descripcion, direccion)
		VALUES ($1, $2, $3, $4)
		RETURNING *`, s.UsuarioID, s.ProveedorID, s.Descripcion, s.Direccion)
	if err != nil {
		return nil, fmt.Errorf("failed to create solicitud: %w", err)
	}
	return created, nil
}

func (r *SolicitudRepository) GetByID(ctx context.Context, id int64) (*model.SolicitudServicio, error) {
	return getOne[model.SolicitudServicio](ctx, r.db, "solicitud", `SELECT * FROM solicitudes_servicio WHERE id = $1`, id)
}

// ListFor returns the requests p takes part in, newest first.
func (r *SolicitudRepository) ListFor(ctx context.Context, p model.Principal) ([]model.SolicitudServicio, error) {
	column := "usuario_id"
	if p.IsProveedor() {
		column = "proveedor_id"
	}
	return getMany[model.SolicitudServicio](ctx, r.db,
		`SELECT * FROM solicitudes_servicio WHERE `+column+` = $1 ORDER BY creada DESC, id DESC`, p.ID)
}

// ListForPair returns a pair's requests, oldest first.
func (r *SolicitudRepository) ListForPair(ctx context.Context, usuarioID, proveedorID int64) ([]model.SolicitudServicio, error) {
	return getMany[model.SolicitudServicio](ctx, r.db, `
		SELECT * FROM solicitudes_servicio
		WHERE usuario_id = $1 AND proveedor_id = $2
		ORDER BY creada, id`, usuarioID, proveedorID)
}

// ChatEnabled reports whether the pair has a request in a state that opens
// chat.
func (r *SolicitudRepository) ChatEnabled(ctx context.Context, usuarioID, proveedorID int64) (bool, error) {
	var ok bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM solicitudes_servicio
			WHERE usuario_id = $1 AND proveedor_id = $2 AND estado = ANY($3)
		)`, usuarioID, proveedorID, model.ChatEstados).Scan(&ok)
	return ok, err
}

// transitionStmt moves a request from $2 to $3 only if it is still in $2.
// Optional columns are kept when their parameter is NULL; setting a PIN
// resets the attempt counter.
const transitionStmt = `
	UPDATE solicitudes_servicio SET
		estado          = $3::varchar,
		monto           = COALESCE($4::numeric, monto),
		motivo_rechazo  = COALESCE($5::text, motivo_rechazo),
		pin             = COALESCE($6::text, pin),
		pin_intentos    = CASE WHEN $6::text IS NULL THEN pin_intentos ELSE 0 END,
		conversacion_id = COALESCE($7::bigint, conversacion_id),
		aceptada_en     = CASE WHEN $3::varchar = 'aceptada' THEN now() ELSE aceptada_en END,
		pagada_en       = CASE WHEN $3::varchar = 'pagado' THEN now() ELSE pagada_en END,
		completada_en   = CASE WHEN $3::varchar = 'completado' THEN now() ELSE completada_en END,
		actualizada     = now()
	WHERE id = $1 AND estado = $2
	RETURNING *`

func transition(ctx context.Context, db DBTX, id int64, from, to model.Estado, upd model.TransitionUpdate) (*model.SolicitudServicio, error) {
	s, err := getOne[model.SolicitudServicio](ctx, db, "solicitud", transitionStmt,
		id, string(from), string(to), nullableDecimal(upd.Monto), upd.MotivoRechazo, upd.Pin, upd.ConversacionID)

	var notFound *sqlerr.NotFound
	if errors.As(err, &notFound) {
		return nil, ErrStateChanged
	}
	return s, err
}

// Transition applies from -> to with the column changes in upd. It returns
// ErrStateChanged if the request is no longer in from.
func (r *SolicitudRepository) Transition(ctx context.Context, id int64, from, to model.Estado, upd model.TransitionUpdate) (*model.SolicitudServicio, error) {
	return transition(ctx, r.db, id, from, to, upd)
}

// Accept moves a pending request to aceptada and links it to the pair's
// conversation, creating the conversation if needed, in one transaction.
func (r *SolicitudRepository) Accept(ctx context.Context, id int64, monto decimal.Decimal) (*model.SolicitudServicio, *model.Conversacion, error) {
	var (
		accepted *model.SolicitudServicio
		conv     *model.Conversacion
	)

	err := withTx(ctx, r.db, func(tx pgx.Tx) error {
		current, err := getOne[model.SolicitudServicio](ctx, tx, "solicitud",
			`SELECT * FROM solicitudes_servicio WHERE id = $1 FOR UPDATE`, id)
		if err != nil {
			return err
		}
		if current.Estado != model.EstadoPendiente {
			return ErrStateChanged
		}

		row, err := getOrCreateConversation(ctx, tx, current.UsuarioID, current.ProveedorID)
		if err != nil {
			return err
		}
		conv = row.Conversacion

		accepted, err = transition(ctx, tx, id, model.EstadoPendiente, model.EstadoAceptada, model.TransitionUpdate{
			Monto:          &monto,
			ConversacionID: &conv.ID,
		})
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return accepted, conv, nil
}

// ResetPin replaces the PIN of a paid request and clears its attempts.
func (r *SolicitudRepository) ResetPin(ctx context.Context, id int64, pin string) (*model.SolicitudServicio, error) {
	s, err := getOne[model.SolicitudServicio](ctx, r.db, "solicitud", `
		UPDATE solicitudes_servicio
		SET pin = $3, pin_intentos = 0, actualizada = now()
		WHERE id = $1 AND estado = $2
		RETURNING *`, id, string(model.EstadoPagado), pin)

	var notFound *sqlerr.NotFound
	if errors.As(err, &notFound) {
		return nil, ErrStateChanged
	}
	return s, err
}

// RecordFailedPin counts a wrong PIN against a paid request and returns the
// attempts used so far. It returns ErrPinLocked once max attempts are spent.
func (r *SolicitudRepository) RecordFailedPin(ctx context.Context, id int64, max int) (int, error) {
	var used int
	err := r.db.QueryRow(ctx, `
		UPDATE solicitudes_servicio
		SET pin_intentos = pin_intentos + 1, actualizada = now()
		WHERE id = $1 AND estado = $2 AND pin_intentos < $3
		RETURNING pin_intentos`, id, string(model.EstadoPagado), max).Scan(&used)
	if errors.Is(err, pgx.ErrNoRows) {
		return max, ErrPinLocked
	}
	return used, err
}

// nullableDecimal keeps a nil amount as SQL NULL.
func nullableDecimal(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	return d.String()
}

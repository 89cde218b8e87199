package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/sebastianleon1-sys/Zerby2/internal/model"
	"github.com/sebastianleon1-sys/Zerby2/internal/sqlerr"
)

type ChatRepository struct {
	db DBTX
}

func NewChatRepository(db DBTX) *ChatRepository {
	return &ChatRepository{db: db}
}

func (r *ChatRepository) GetConversation(ctx context.Context, id int64) (*model.Conversacion, error) {
	return getOne[model.Conversacion](ctx, r.db, "conversacion", `SELECT * FROM conversaciones WHERE id = $1`, id)
}

// FindConversation returns the conversation of a pair, or *sqlerr.NotFound.
func (r *ChatRepository) FindConversation(ctx context.Context, usuarioID, proveedorID int64) (*model.Conversacion, error) {
	return getOne[model.Conversacion](ctx, r.db, "conversacion",
		`SELECT * FROM conversaciones WHERE usuario_id = $1 AND proveedor_id = $2`, usuarioID, proveedorID)
}

// GetOrCreateConversation returns the pair's conversation, creating it when
// missing. created reports whether this call inserted it.
func (r *ChatRepository) GetOrCreateConversation(ctx context.Context, usuarioID, proveedorID int64) (*model.Conversacion, bool, error) {
	conv, err := getOrCreateConversation(ctx, r.db, usuarioID, proveedorID)
	if err != nil {
		return nil, false, err
	}
	return conv.Conversacion, conv.Created, nil
}

type conversationRow struct {
	*model.Conversacion
	Created bool
}

func getOrCreateConversation(ctx context.Context, db DBTX, usuarioID, proveedorID int64) (conversationRow, error) {
	conv, err := getOne[model.Conversacion](ctx, db, "conversacion", `
		INSERT INTO conversaciones (usuario_id, proveedor_id)
		VALUES ($1, $2)
		ON CONFLICT ON CONSTRAINT conversaciones_pair_key DO NOTHING
		RETURNING *`, usuarioID, proveedorID)
	if err == nil {
		return conversationRow{Conversacion: conv, Created: true}, nil
	}

	var notFound *sqlerr.NotFound
	if !errors.As(err, &notFound) {
		return conversationRow{}, err
	}

	// Lost the insert to an existing row.
	conv, err = getOne[model.Conversacion](ctx, db, "conversacion",
		`SELECT * FROM conversaciones WHERE usuario_id = $1 AND proveedor_id = $2`, usuarioID, proveedorID)
	if err != nil {
		return conversationRow{}, err
	}
	return conversationRow{Conversacion: conv}, nil
}

// ListConversations lists p's conversations with the other participant's
// name. detalle is the provider's oficio for usuarios and "Cliente" for
// proveedores.
func (r *ChatRepository) ListConversations(ctx context.Context, p model.Principal) ([]model.ConversacionResumen, error) {
	if p.IsUsuario() {
		return getMany[model.ConversacionResumen](ctx, r.db, `
			SELECT c.id, p.nombre_completo AS otro_participante, p.oficio AS detalle
			FROM conversaciones c
			JOIN proveedores p ON p.id = c.proveedor_id
			WHERE c.usuario_id = $1
			ORDER BY c.id`, p.ID)
	}
	return getMany[model.ConversacionResumen](ctx, r.db, `
		SELECT c.id, u.nombre_completo AS otro_participante, 'Cliente' AS detalle
		FROM conversaciones c
		JOIN usuarios u ON u.id = c.usuario_id
		WHERE c.proveedor_id = $1
		ORDER BY c.id`, p.ID)
}

func (r *ChatRepository) ListMessages(ctx context.Context, conversacionID int64) ([]model.Mensaje, error) {
	return getMany[model.Mensaje](ctx, r.db,
		`SELECT * FROM mensajes WHERE conversacion_id = $1 ORDER BY timestamp, id`, conversacionID)
}

func (r *ChatRepository) CreateMessage(ctx context.Context, m *model.Mensaje) (*model.Mensaje, error) {
	return getOne[model.Mensaje](ctx, r.db, "mensaje", `
		INSERT INTO mensajes (conversacion_id, remitente_id, remitente_tipo, contenido)
		VALUES ($1, $2, $3, $4)
		RETURNING *`, m.ConversacionID, m.RemitenteID, m.RemitenteTipo, m.Contenido)
}

// withTx runs fn inside a transaction on db.
func withTx(ctx context.Context, db DBTX, fn func(tx pgx.Tx) error) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

package service

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/sebastianleon1-sys/Zerby2/internal/errs"
	"github.com/sebastianleon1-sys/Zerby2/internal/lib/metrics"
	"github.com/sebastianleon1-sys/Zerby2/internal/lib/realtime"
	"github.com/sebastianleon1-sys/Zerby2/internal/model"
)

const (
	MsgConversationMissing = "Conversación no existe"
	MsgChatLocked          = "Necesitas una solicitud aceptada por este proveedor para chatear"
	MsgEmptyMessage        = "Mensaje vacío"
)

type ChatService struct {
	chats       chatStore
	solicitudes solicitudStore
	usuarios    usuarioStore
	proveedores proveedorStore
	emitter     emitter
	metrics     *metrics.Metrics
	logger      *zerolog.Logger
}

func NewChatService(chats chatStore, solicitudes solicitudStore, usuarios usuarioStore, proveedores proveedorStore, emitter emitter, m *metrics.Metrics, logger *zerolog.Logger) *ChatService {
	return &ChatService{
		chats:       chats,
		solicitudes: solicitudes,
		usuarios:    usuarios,
		proveedores: proveedores,
		emitter:     emitter,
		metrics:     m,
		logger:      logger,
	}
}

// Start returns the conversation between the usuario p and a provider. A
// new one is only created once the pair has an accepted request; created
// reports whether this call created it.
func (s *ChatService) Start(ctx context.Context, p model.Principal, proveedorID int64) (*model.Conversacion, bool, error) {
	if !p.IsUsuario() {
		return nil, false, errs.NewForbiddenError(MsgUnauthorized, true)
	}
	if _, err := s.proveedores.GetByID(ctx, proveedorID); err != nil {
		return nil, false, err
	}

	conv, err := s.chats.FindConversation(ctx, p.ID, proveedorID)
	if err == nil {
		return conv, false, nil
	}
	if !isNotFound(err) {
		return nil, false, err
	}

	enabled, err := s.solicitudes.ChatEnabled(ctx, p.ID, proveedorID)
	if err != nil {
		return nil, false, err
	}
	if !enabled {
		return nil, false, errs.NewForbiddenError(MsgChatLocked, true)
	}

	return s.chats.GetOrCreateConversation(ctx, p.ID, proveedorID)
}

func (s *ChatService) List(ctx context.Context, p model.Principal) ([]model.ConversacionResumen, error) {
	return s.chats.ListConversations(ctx, p)
}

// conversation loads a conversation p takes part in.
func (s *ChatService) conversation(ctx context.Context, p model.Principal, id int64) (*model.Conversacion, error) {
	conv, err := s.chats.GetConversation(ctx, id)
	if isNotFound(err) {
		return nil, errs.NewNotFoundError(MsgConversationMissing, true, nil)
	}
	if err != nil {
		return nil, err
	}
	if !conv.Participant(p) {
		return nil, errs.NewForbiddenError(MsgUnauthorized, true)
	}
	return conv, nil
}

// Join authorizes p to listen to a conversation's room.
func (s *ChatService) Join(ctx context.Context, p model.Principal, conversacionID int64) error {
	_, err := s.conversation(ctx, p, conversacionID)
	return err
}

type ConversacionDetalle struct {
	OtroNombre string `json:"otro_nombre"`
	Historial  []any  `json:"historial"`
	// ProveedorID lets a usuario link to the provider's profile; it is nil
	// for proveedores.
	ProveedorID *int64 `json:"proveedor_id"`
}

// Details returns the other participant and the conversation's history:
// messages and the pair's service requests merged in time order.
func (s *ChatService) Details(ctx context.Context, p model.Principal, id int64) (*ConversacionDetalle, error) {
	conv, err := s.conversation(ctx, p, id)
	if err != nil {
		return nil, err
	}

	detalle := &ConversacionDetalle{}
	if p.IsUsuario() {
		prov, err := s.proveedores.GetByID(ctx, conv.ProveedorID)
		if err != nil {
			return nil, err
		}
		detalle.OtroNombre = prov.NombreCompleto
		detalle.ProveedorID = &conv.ProveedorID
	} else {
		u, err := s.usuarios.GetByID(ctx, conv.UsuarioID)
		if err != nil {
			return nil, err
		}
		detalle.OtroNombre = u.NombreCompleto
	}

	mensajes, err := s.chats.ListMessages(ctx, conv.ID)
	if err != nil {
		return nil, err
	}
	solicitudes, err := s.solicitudes.ListForPair(ctx, conv.UsuarioID, conv.ProveedorID)
	if err != nil {
		return nil, err
	}

	type entry struct {
		at   time.Time
		item any
	}
	entries := make([]entry, 0, len(mensajes)+len(solicitudes))
	for i := range mensajes {
		ev := newMensajeEvent(&mensajes[i])
		entries = append(entries, entry{at: ev.at, item: ev})
	}
	for i := range solicitudes {
		ev := newSolicitudEvent(&solicitudes[i], solicitudes[i].Creada)
		entries = append(entries, entry{at: ev.at, item: ev})
	}
	slices.SortStableFunc(entries, func(a, b entry) int { return a.at.Compare(b.at) })

	detalle.Historial = make([]any, len(entries))
	for i, e := range entries {
		detalle.Historial[i] = e.item
	}
	return detalle, nil
}

// Send stores a message from p and delivers it to the conversation's room.
func (s *ChatService) Send(ctx context.Context, p model.Principal, id int64, contenido string) (*MensajeEvent, error) {
	contenido = strings.TrimSpace(contenido)
	if contenido == "" {
		return nil, errs.NewBadRequestError(MsgEmptyMessage, true, nil, nil, nil)
	}

	conv, err := s.conversation(ctx, p, id)
	if err != nil {
		return nil, err
	}

	msg, err := s.chats.CreateMessage(ctx, &model.Mensaje{
		ConversacionID: conv.ID,
		RemitenteID:    p.ID,
		RemitenteTipo:  p.Tipo,
		Contenido:      contenido,
	})
	if err != nil {
		return nil, err
	}
	s.metrics.ChatMessage()

	event := newMensajeEvent(msg)
	if err := s.emitter.Emit(ctx, realtime.RoomForConversation(conv.ID), realtime.EventReceiveMessage, event); err != nil {
		// The message is stored; clients will see it on their next reload.
		s.logger.Warn().Err(err).Int64("conversacion_id", conv.ID).Msg("could not broadcast message")
	}
	return &event, nil
}

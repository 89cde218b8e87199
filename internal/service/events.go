package service

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sebastianleon1-sys/Zerby2/internal/model"
)

// Timestamp layouts shown to clients.
const (
	ChatTimeLayout = "02/01 15:04"
	DateLayout     = "02/01/2006"
)

// History entry kinds in a conversation.
const (
	TipoMensaje          = "mensaje"
	TipoSistemaSolicitud = "sistema_solicitud"
)

// MensajeEvent is a chat message as delivered to sockets and listed in a
// conversation's history.
type MensajeEvent struct {
	Tipo           string            `json:"tipo"`
	ID             int64             `json:"id"`
	ConversacionID int64             `json:"conversacion_id"`
	Contenido      string            `json:"contenido"`
	RemitenteID    int64             `json:"remitente_id"`
	RemitenteTipo  model.AccountType `json:"remitente_tipo"`
	Timestamp      string            `json:"timestamp"`

	at time.Time
}

func newMensajeEvent(m *model.Mensaje) MensajeEvent {
	return MensajeEvent{
		Tipo:           TipoMensaje,
		ID:             m.ID,
		ConversacionID: m.ConversacionID,
		Contenido:      m.Contenido,
		RemitenteID:    m.RemitenteID,
		RemitenteTipo:  m.RemitenteTipo,
		Timestamp:      m.Timestamp.Format(ChatTimeLayout),
		at:             m.Timestamp,
	}
}

// SolicitudEvent is a service request shown inline in a conversation, both
// in the history and as a live event after each state change.
type SolicitudEvent struct {
	Tipo           string              `json:"tipo"`
	SolicitudID    int64               `json:"solicitud_id"`
	ConversacionID *int64              `json:"conversacion_id"`
	Estado         model.Estado        `json:"estado"`
	Subtipo        string              `json:"subtipo"`
	Monto          decimal.NullDecimal `json:"monto"`
	Descripcion    string              `json:"descripcion"`
	Mensaje        string              `json:"mensaje"`
	Timestamp      string              `json:"timestamp"`

	at time.Time
}

// newSolicitudEvent describes s. at is the moment the event refers to:
// creation for history entries, the last update for live events.
func newSolicitudEvent(s *model.SolicitudServicio, at time.Time) SolicitudEvent {
	return SolicitudEvent{
		Tipo:           TipoSistemaSolicitud,
		SolicitudID:    s.ID,
		ConversacionID: s.ConversacionID,
		Estado:         s.Estado,
		Subtipo:        subtipo(s.Estado),
		Monto:          s.Monto,
		Descripcion:    s.Descripcion,
		Mensaje:        estadoMensaje(s),
		Timestamp:      at.Format(ChatTimeLayout),
		at:             at,
	}
}

func subtipo(e model.Estado) string {
	switch e {
	case model.EstadoAceptada:
		return "cotizacion"
	case model.EstadoRechazada:
		return "solicitud_rechazada"
	case model.EstadoPagado:
		return "pago_confirmado"
	case model.EstadoCompletado:
		return "trabajo_finalizado"
	default:
		return "solicitud_nueva"
	}
}

// estadoMensaje is the human-readable line for a request's current state.
func estadoMensaje(s *model.SolicitudServicio) string {
	switch s.Estado {
	case model.EstadoAceptada:
		if s.Monto.Valid {
			return fmt.Sprintf("Solicitud aceptada. Monto: $%s", s.Monto.Decimal.String())
		}
		return "Solicitud aceptada"
	case model.EstadoRechazada:
		if s.MotivoRechazo != nil && *s.MotivoRechazo != "" {
			return "Solicitud rechazada: " + *s.MotivoRechazo
		}
		return "Solicitud rechazada"
	case model.EstadoPagado:
		return "Pago confirmado. El cliente tiene el PIN para finalizar el trabajo"
	case model.EstadoCompletado:
		return "Trabajo finalizado"
	default:
		return "Nueva solicitud de servicio: " + s.Descripcion
	}
}

package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estado is the lifecycle state of a service request.
type Estado string

const (
	EstadoPendiente  Estado = "pendiente"
	EstadoAceptada   Estado = "aceptada"
	EstadoRechazada  Estado = "rechazada"
	EstadoPagado     Estado = "pagado"
	EstadoCompletado Estado = "completado"
)

// transitions lists every legal move and the account type allowed to make it.
// rechazada and completado are terminal.
var transitions = map[Estado]map[Estado]AccountType{
	EstadoPendiente: {
		EstadoAceptada:  AccountProveedor,
		EstadoRechazada: AccountProveedor,
	},
	EstadoAceptada: {
		EstadoPagado: AccountUsuario,
	},
	EstadoPagado: {
		EstadoCompletado: AccountProveedor,
	},
}

// ChatEstados are the states that unlock a conversation, in SQL-friendly form.
var ChatEstados = []string{string(EstadoAceptada), string(EstadoPagado), string(EstadoCompletado)}

// TransitionActor returns the account type allowed to move a request from
// one state to another. ok is false for illegal moves.
func TransitionActor(from, to Estado) (AccountType, bool) {
	actor, ok := transitions[from][to]
	return actor, ok
}

// SolicitudServicio is a booking request from a usuario to a proveedor.
type SolicitudServicio struct {
	ID             int64               `json:"id" db:"id"`
	UsuarioID      int64               `json:"usuario_id" db:"usuario_id"`
	ProveedorID    int64               `json:"proveedor_id" db:"proveedor_id"`
	ConversacionID *int64              `json:"conversacion_id" db:"conversacion_id"`
	Descripcion    string              `json:"descripcion" db:"descripcion"`
	Direccion      *string             `json:"direccion" db:"direccion"`
	Monto          decimal.NullDecimal `json:"monto" db:"monto"`
	Estado         Estado              `json:"estado" db:"estado"`
	Pin            *string             `json:"pin,omitempty" db:"pin"`
	PinIntentos    int                 `json:"pin_intentos" db:"pin_intentos"`
	MotivoRechazo  *string             `json:"motivo_rechazo" db:"motivo_rechazo"`
	Creada         time.Time           `json:"creada" db:"creada"`
	AceptadaEn     *time.Time          `json:"aceptada_en" db:"aceptada_en"`
	PagadaEn       *time.Time          `json:"pagada_en" db:"pagada_en"`
	CompletadaEn   *time.Time          `json:"completada_en" db:"completada_en"`
	Actualizada    time.Time           `json:"actualizada" db:"actualizada"`
}

// OwnedBy reports whether p is one of the two parties of the request.
func (s SolicitudServicio) OwnedBy(p Principal) bool {
	switch p.Tipo {
	case AccountUsuario:
		return s.UsuarioID == p.ID
	case AccountProveedor:
		return s.ProveedorID == p.ID
	}
	return false
}

// Redacted returns a copy safe to show to p: only the paying usuario sees
// the PIN.
func (s SolicitudServicio) Redacted(p Principal) SolicitudServicio {
	if !(p.IsUsuario() && p.ID == s.UsuarioID) {
		s.Pin = nil
	}
	return s
}

// TransitionUpdate carries the column changes applied together with a state
// change. Nil fields are left untouched.
type TransitionUpdate struct {
	Monto          *decimal.Decimal
	MotivoRechazo  *string
	Pin            *string
	ConversacionID *int64
}

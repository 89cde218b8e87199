package model

import "time"

// Conversacion is the chat thread of one usuario/proveedor pair.
type Conversacion struct {
	ID          int64     `json:"id" db:"id"`
	UsuarioID   int64     `json:"usuario_id" db:"usuario_id"`
	ProveedorID int64     `json:"proveedor_id" db:"proveedor_id"`
	Creada      time.Time `json:"creada" db:"creada"`
}

// Participant reports whether p takes part in the conversation.
func (c Conversacion) Participant(p Principal) bool {
	switch p.Tipo {
	case AccountUsuario:
		return c.UsuarioID == p.ID
	case AccountProveedor:
		return c.ProveedorID == p.ID
	}
	return false
}

// ConversacionResumen is a conversation as listed for one participant.
type ConversacionResumen struct {
	ID               int64  `db:"id"`
	OtroParticipante string `db:"otro_participante"`
	Detalle          string `db:"detalle"`
}

// Mensaje is one chat message.
type Mensaje struct {
	ID             int64       `json:"id" db:"id"`
	ConversacionID int64       `json:"conversacion_id" db:"conversacion_id"`
	RemitenteID    int64       `json:"remitente_id" db:"remitente_id"`
	RemitenteTipo  AccountType `json:"remitente_tipo" db:"remitente_tipo"`
	Contenido      string      `json:"contenido" db:"contenido"`
	Timestamp      time.Time   `json:"timestamp" db:"timestamp"`
}

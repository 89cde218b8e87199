package service

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/sebastianleon1-sys/Zerby2/internal/lib/email"
	"github.com/sebastianleon1-sys/Zerby2/internal/lib/geo"
	"github.com/sebastianleon1-sys/Zerby2/internal/model"
	"github.com/sebastianleon1-sys/Zerby2/internal/repository"
)

// The interfaces below are the slices of the repositories and libraries each
// service needs, so services can be tested against in-memory fakes.

type usuarioStore interface {
	Create(ctx context.Context, u *model.Usuario) (*model.Usuario, error)
	GetByID(ctx context.Context, id int64) (*model.Usuario, error)
	GetByEmail(ctx context.Context, email string) (*model.Usuario, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	UpdateProfile(ctx context.Context, id int64, upd repository.ProfileUpdate) (*model.Usuario, error)
}

type proveedorStore interface {
	Create(ctx context.Context, p *model.Proveedor) (*model.Proveedor, error)
	GetByID(ctx context.Context, id int64) (*model.Proveedor, error)
	GetByEmail(ctx context.Context, email string) (*model.Proveedor, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	UpdateProfile(ctx context.Context, id int64, upd repository.ProfileUpdate) (*model.Proveedor, error)
	GetResumen(ctx context.Context, id int64) (*model.ProveedorResumen, error)
	List(ctx context.Context, limit int) ([]model.ProveedorResumen, error)
	ListLocated(ctx context.Context) ([]model.ProveedorResumen, error)
	Search(ctx context.Context, term string) ([]model.ProveedorResumen, error)
}

type chatStore interface {
	GetConversation(ctx context.Context, id int64) (*model.Conversacion, error)
	FindConversation(ctx context.Context, usuarioID, proveedorID int64) (*model.Conversacion, error)
	GetOrCreateConversation(ctx context.Context, usuarioID, proveedorID int64) (*model.Conversacion, bool, error)
	ListConversations(ctx context.Context, p model.Principal) ([]model.ConversacionResumen, error)
	ListMessages(ctx context.Context, conversacionID int64) ([]model.Mensaje, error)
	CreateMessage(ctx context.Context, m *model.Mensaje) (*model.Mensaje, error)
}

type solicitudStore interface {
	Create(ctx context.Context, s *model.SolicitudServicio) (*model.SolicitudServicio, error)
	GetByID(ctx context.Context, id int64) (*model.SolicitudServicio, error)
	ListFor(ctx context.Context, p model.Principal) ([]model.SolicitudServicio, error)
	ListForPair(ctx context.Context, usuarioID, proveedorID int64) ([]model.SolicitudServicio, error)
	ChatEnabled(ctx context.Context, usuarioID, proveedorID int64) (bool, error)
	Transition(ctx context.Context, id int64, from, to model.Estado, upd model.TransitionUpdate) (*model.SolicitudServicio, error)
	Accept(ctx context.Context, id int64, monto decimal.Decimal) (*model.SolicitudServicio, *model.Conversacion, error)
	ResetPin(ctx context.Context, id int64, pin string) (*model.SolicitudServicio, error)
	RecordFailedPin(ctx context.Context, id int64, max int) (int, error)
}

type calificacionStore interface {
	Upsert(ctx context.Context, c *model.Calificacion) (*model.Calificacion, bool, error)
	ListForProveedor(ctx context.Context, proveedorID int64) ([]model.CalificacionDetalle, error)
}

type portafolioStore interface {
	Create(ctx context.Context, item *model.PortafolioItem) (*model.PortafolioItem, error)
	GetByID(ctx context.Context, id int64) (*model.PortafolioItem, error)
	Delete(ctx context.Context, id int64) error
	ListForProveedor(ctx context.Context, proveedorID int64) ([]model.PortafolioItem, error)
}

type geocoder interface {
	Geocode(ctx context.Context, address string) (geo.Point, bool, error)
}

type sessionStore interface {
	Create(ctx context.Context, p model.Principal) (string, error)
	Destroy(ctx context.Context, token string) error
}

// jobQueue is the enqueue side of the background job service.
type jobQueue interface {
	EnqueueWelcomeEmail(ctx context.Context, to, nombre string, tipo model.AccountType) error
	EnqueueRequestCreated(ctx context.Context, to string, d email.RequestCreated) error
	EnqueueRequestUpdated(ctx context.Context, to string, d email.RequestUpdated) error
	EnqueueGeoRefresh(ctx context.Context, tipo model.AccountType, id int64, direccion string) error
}

type emitter interface {
	Emit(ctx context.Context, room, event string, data any) error
}

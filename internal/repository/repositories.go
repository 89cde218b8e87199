package repository

import (
	"context"

	"github.com/sebastianleon1-sys/Zerby2/internal/model"
	"github.com/sebastianleon1-sys/Zerby2/internal/server"
)

// Repositories is a container for all repository instances.
type Repositories struct {
	Usuario      *UsuarioRepository
	Proveedor    *ProveedorRepository
	Chat         *ChatRepository
	Solicitud    *SolicitudRepository
	Calificacion *CalificacionRepository
	Portafolio   *PortafolioRepository
}

func NewRepositories(s *server.Server) *Repositories {
	return New(s.DB.Pool)
}

// New builds every repository on top of db.
func New(db DBTX) *Repositories {
	return &Repositories{
		Usuario:      NewUsuarioRepository(db),
		Proveedor:    NewProveedorRepository(db),
		Chat:         NewChatRepository(db),
		Solicitud:    NewSolicitudRepository(db),
		Calificacion: NewCalificacionRepository(db),
		Portafolio:   NewPortafolioRepository(db),
	}
}

// UpdateCoordinatesIfAddress stores geocoding results for either account type.
func (r *Repositories) UpdateCoordinatesIfAddress(ctx context.Context, tipo model.AccountType, id int64, direccion string, c model.Coordinates) (bool, error) {
	if tipo == model.AccountProveedor {
		return r.Proveedor.UpdateCoordinatesIfAddress(ctx, id, direccion, c)
	}
	return r.Usuario.UpdateCoordinatesIfAddress(ctx, id, direccion, c)
}

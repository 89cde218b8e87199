package service

import (
	"github.com/sebastianleon1-sys/Zerby2/internal/lib/job"
	"github.com/sebastianleon1-sys/Zerby2/internal/repository"
	"github.com/sebastianleon1-sys/Zerby2/internal/server"
)

// Services groups the business services the handlers call.
type Services struct {
	Auth      *AuthService
	Discovery *DiscoveryService
	Solicitud *SolicitudService
	Chat      *ChatService
	Rating    *RatingService
	Portfolio *PortfolioService
	Job       *job.JobService
}

func NewService(s *server.Server, repos *repository.Repositories) (*Services, error) {
	return &Services{
		Auth:      NewAuthService(repos.Usuario, repos.Proveedor, s.Sessions, s.Geocoder, s.Job, s.Logger),
		Discovery: NewDiscoveryService(repos.Usuario, repos.Proveedor),
		Solicitud: NewSolicitudService(repos.Solicitud, repos.Usuario, repos.Proveedor, repos.Chat, s.Job, s.Emitter, s.Metrics, s.Logger),
		Chat:      NewChatService(repos.Chat, repos.Solicitud, repos.Usuario, repos.Proveedor, s.Emitter, s.Metrics, s.Logger),
		Rating:    NewRatingService(repos.Calificacion, repos.Proveedor, repos.Portafolio),
		Portfolio: NewPortfolioService(repos.Portafolio, s.Storage, s.Logger),
		Job:       s.Job,
	}, nil
}

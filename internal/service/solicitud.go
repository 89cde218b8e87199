package service

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/sebastianleon1-sys/Zerby2/internal/errs"
	"github.com/sebastianleon1-sys/Zerby2/internal/lib/email"
	"github.com/sebastianleon1-sys/Zerby2/internal/lib/metrics"
	"github.com/sebastianleon1-sys/Zerby2/internal/lib/pin"
	"github.com/sebastianleon1-sys/Zerby2/internal/lib/realtime"
	"github.com/sebastianleon1-sys/Zerby2/internal/model"
	"github.com/sebastianleon1-sys/Zerby2/internal/repository"
)

const (
	MsgInvalidTransition = "La solicitud no admite esta acción en su estado actual"
	MsgInvalidPin        = "PIN incorrecto"
	MsgPinLocked         = "Se agotaron los intentos. El cliente debe generar un nuevo PIN"
	MsgMontoRequired     = "El monto debe ser mayor que cero"
)

// SolicitudService runs the service-request state machine.
//
//	pendiente -> aceptada | rechazada   (proveedor)
//	aceptada  -> pagado                 (usuario, issues the PIN)
//	pagado    -> completado             (proveedor, must present the PIN)
//
// Every state change is persisted with a conditional update, announced in
// the pair's chat room and queued as an email to the other party.
type SolicitudService struct {
	solicitudes solicitudStore
	usuarios    usuarioStore
	proveedores proveedorStore
	chats       chatStore
	jobs        jobQueue
	emitter     emitter
	metrics     *metrics.Metrics
	logger      *zerolog.Logger

	generatePin func() (string, error)
}

func NewSolicitudService(
	solicitudes solicitudStore,
	usuarios usuarioStore,
	proveedores proveedorStore,
	chats chatStore,
	jobs jobQueue,
	emitter emitter,
	m *metrics.Metrics,
	logger *zerolog.Logger,
) *SolicitudService {
	return &SolicitudService{
		solicitudes: solicitudes,
		usuarios:    usuarios,
		proveedores: proveedores,
		chats:       chats,
		jobs:        jobs,
		emitter:     emitter,
		metrics:     m,
		logger:      logger,
		generatePin: pin.Generate,
	}
}

type CreateSolicitudInput struct {
	ProveedorID int64
	Descripcion string
	Direccion   *string
}

// Create opens a pending request from the usuario p to a provider.
func (s *SolicitudService) Create(ctx context.Context, p model.Principal, in CreateSolicitudInput) (*model.SolicitudServicio, error) {
	if !p.IsUsuario() {
		return nil, errs.NewForbiddenError(MsgUnauthorized, true)
	}

	prov, err := s.proveedores.GetByID(ctx, in.ProveedorID)
	if err != nil {
		return nil, err
	}
	u, err := s.usuarios.GetByID(ctx, p.ID)
	if err != nil {
		return nil, err
	}

	direccion := trimmedOrNil(in.Direccion)
	if direccion == nil {
		direccion = u.Direccion
	}

	created, err := s.solicitudes.Create(ctx, &model.SolicitudServicio{
		UsuarioID:   p.ID,
		ProveedorID: prov.ID,
		Descripcion: strings.TrimSpace(in.Descripcion),
		Direccion:   direccion,
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RequestTransition("", string(model.EstadoPendiente))

	// An earlier accepted request may already have opened the pair's chat.
	if conv, err := s.chats.FindConversation(ctx, p.ID, prov.ID); err == nil {
		s.announce(ctx, conv.ID, created)
	}

	if err := s.jobs.EnqueueRequestCreated(ctx, prov.Email, email.RequestCreated{
		SolicitudID:     created.ID,
		ProveedorNombre: prov.NombreCompleto,
		UsuarioNombre:   u.NombreCompleto,
		Descripcion:     created.Descripcion,
		Direccion:       deref(created.Direccion),
	}); err != nil {
		s.logger.Warn().Err(err).Int64("solicitud_id", created.ID).Msg("could not enqueue new request email")
	}

	return ptr(created.Redacted(p)), nil
}

// List returns the requests p takes part in, newest first.
func (s *SolicitudService) List(ctx context.Context, p model.Principal) ([]model.SolicitudServicio, error) {
	list, err := s.solicitudes.ListFor(ctx, p)
	if err != nil {
		return nil, err
	}
	for i := range list {
		list[i] = list[i].Redacted(p)
	}
	return list, nil
}

func (s *SolicitudService) Get(ctx context.Context, p model.Principal, id int64) (*model.SolicitudServicio, error) {
	current, err := s.load(ctx, p, id)
	if err != nil {
		return nil, err
	}
	redacted := current.Redacted(p)
	return &redacted, nil
}

// load fetches a request the caller is a party of.
func (s *SolicitudService) load(ctx context.Context, p model.Principal, id int64) (*model.SolicitudServicio, error) {
	current, err := s.solicitudes.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !current.OwnedBy(p) {
		return nil, errs.NewForbiddenError(MsgUnauthorized, true)
	}
	return current, nil
}

// authorize loads the request and checks that p may move it to "to" from
// its current state.
func (s *SolicitudService) authorize(ctx context.Context, p model.Principal, id int64, to model.Estado) (*model.SolicitudServicio, error) {
	current, err := s.load(ctx, p, id)
	if err != nil {
		return nil, err
	}
	actor, ok := model.TransitionActor(current.Estado, to)
	if !ok {
		return nil, errs.NewInvalidTransitionError(MsgInvalidTransition)
	}
	if actor != p.Tipo {
		return nil, errs.NewForbiddenError(MsgUnauthorized, true)
	}
	return current, nil
}

// Accept quotes monto for a pending request and opens the pair's chat.
func (s *SolicitudService) Accept(ctx context.Context, p model.Principal, id int64, monto decimal.Decimal) (*model.SolicitudServicio, error) {
	// The column keeps two decimals, so 0.004 would store as zero.
	monto = monto.Round(2)
	if !monto.IsPositive() {
		return nil, errs.NewBadRequestError(MsgMontoRequired, true, nil,
			[]errs.FieldError{{Field: "monto", Error: "debe ser mayor que 0"}}, nil)
	}

	current, err := s.authorize(ctx, p, id, model.EstadoAceptada)
	if err != nil {
		return nil, err
	}

	accepted, _, err := s.solicitudes.Accept(ctx, current.ID, monto)
	if err != nil {
		return nil, transitionError(err)
	}

	s.afterTransition(ctx, current.Estado, accepted)
	return ptr(accepted.Redacted(p)), nil
}

func (s *SolicitudService) Reject(ctx context.Context, p model.Principal, id int64, motivo *string) (*model.SolicitudServicio, error) {
	current, err := s.authorize(ctx, p, id, model.EstadoRechazada)
	if err != nil {
		return nil, err
	}

	rejected, err := s.solicitudes.Transition(ctx, current.ID, current.Estado, model.EstadoRechazada,
		model.TransitionUpdate{MotivoRechazo: trimmedOrNil(motivo)})
	if err != nil {
		return nil, transitionError(err)
	}

	s.afterTransition(ctx, current.Estado, rejected)
	return ptr(rejected.Redacted(p)), nil
}

// Pay marks an accepted request as paid and issues the completion PIN. Only
// the paying usuario ever sees the PIN.
func (s *SolicitudService) Pay(ctx context.Context, p model.Principal, id int64) (*model.SolicitudServicio, string, error) {
	current, err := s.authorize(ctx, p, id, model.EstadoPagado)
	if err != nil {
		return nil, "", err
	}

	code, err := s.generatePin()
	if err != nil {
		return nil, "", err
	}

	paid, err := s.solicitudes.Transition(ctx, current.ID, current.Estado, model.EstadoPagado,
		model.TransitionUpdate{Pin: &code})
	if err != nil {
		return nil, "", transitionError(err)
	}

	s.afterTransition(ctx, current.Estado, paid)
	return ptr(paid.Redacted(p)), code, nil
}

// RegeneratePin issues a fresh PIN for a paid request and clears the failed
// attempts, unlocking confirmation.
func (s *SolicitudService) RegeneratePin(ctx context.Context, p model.Principal, id int64) (*model.SolicitudServicio, string, error) {
	current, err := s.load(ctx, p, id)
	if err != nil {
		return nil, "", err
	}
	if !p.IsUsuario() {
		return nil, "", errs.NewForbiddenError(MsgUnauthorized, true)
	}
	if current.Estado != model.EstadoPagado {
		return nil, "", errs.NewInvalidTransitionError(MsgInvalidTransition)
	}

	code, err := s.generatePin()
	if err != nil {
		return nil, "", err
	}

	updated, err := s.solicitudes.ResetPin(ctx, current.ID, code)
	if err != nil {
		return nil, "", transitionError(err)
	}
	return ptr(updated.Redacted(p)), code, nil
}

// Confirm completes a paid request when the provider presents the right
// PIN. Wrong PINs count against pin.MaxAttempts; once spent, confirmation is
// refused until the usuario regenerates the PIN.
func (s *SolicitudService) Confirm(ctx context.Context, p model.Principal, id int64, submitted string) (*model.SolicitudServicio, error) {
	current, err := s.authorize(ctx, p, id, model.EstadoCompletado)
	if err != nil {
		return nil, err
	}

	if current.PinIntentos >= pin.MaxAttempts {
		return nil, pinLocked()
	}

	submitted = strings.TrimSpace(submitted)
	if !pin.Equal(deref(current.Pin), submitted) {
		used, err := s.solicitudes.RecordFailedPin(ctx, current.ID, pin.MaxAttempts)
		if errors.Is(err, repository.ErrPinLocked) {
			return nil, pinLocked()
		}
		if err != nil {
			return nil, transitionError(err)
		}

		code := errs.CodeInvalidPin
		return nil, errs.NewBadRequestError(MsgInvalidPin, true, &code, nil, nil).
			WithData("intentos_restantes", pin.Remaining(used))
	}

	completed, err := s.solicitudes.Transition(ctx, current.ID, current.Estado, model.EstadoCompletado, model.TransitionUpdate{})
	if err != nil {
		return nil, transitionError(err)
	}

	s.afterTransition(ctx, current.Estado, completed)
	return ptr(completed.Redacted(p)), nil
}

func pinLocked() error {
	code := errs.CodePinLocked
	return errs.NewTooManyRequestsError(MsgPinLocked, &code).WithData("intentos_restantes", 0)
}

// transitionError maps a lost race to the same 409 an illegal move gets.
func transitionError(err error) error {
	if errors.Is(err, repository.ErrStateChanged) {
		return errs.NewInvalidTransitionError(MsgInvalidTransition)
	}
	return err
}

func (s *SolicitudService) afterTransition(ctx context.Context, from model.Estado, updated *model.SolicitudServicio) {
	s.metrics.RequestTransition(string(from), string(updated.Estado))

	convID := updated.ConversacionID
	if convID == nil {
		if conv, err := s.chats.FindConversation(ctx, updated.UsuarioID, updated.ProveedorID); err == nil {
			convID = &conv.ID
		}
	}
	if convID != nil {
		s.announce(ctx, *convID, updated)
	}

	s.notifyByEmail(ctx, updated)
}

// announce posts the request's state into its chat room.
func (s *SolicitudService) announce(ctx context.Context, convID int64, sol *model.SolicitudServicio) {
	event := newSolicitudEvent(sol, sol.Actualizada)
	event.ConversacionID = &convID

	if err := s.emitter.Emit(ctx, realtime.RoomForConversation(convID), realtime.EventReceiveMessage, event); err != nil {
		s.logger.Warn().Err(err).Int64("solicitud_id", sol.ID).Msg("could not broadcast request update")
	}
}

// notifyByEmail mails the party that did not make the change: the provider
// when the usuario paid, the usuario otherwise.
func (s *SolicitudService) notifyByEmail(ctx context.Context, sol *model.SolicitudServicio) {
	var to, nombre string
	if sol.Estado == model.EstadoPagado {
		prov, err := s.proveedores.GetByID(ctx, sol.ProveedorID)
		if err != nil {
			s.logger.Warn().Err(err).Int64("solicitud_id", sol.ID).Msg("could not load provider for email")
			return
		}
		to, nombre = prov.Email, prov.NombreCompleto
	} else {
		u, err := s.usuarios.GetByID(ctx, sol.UsuarioID)
		if err != nil {
			s.logger.Warn().Err(err).Int64("solicitud_id", sol.ID).Msg("could not load usuario for email")
			return
		}
		to, nombre = u.Email, u.NombreCompleto
	}

	monto := ""
	if sol.Monto.Valid {
		monto = sol.Monto.Decimal.String()
	}

	if err := s.jobs.EnqueueRequestUpdated(ctx, to, email.RequestUpdated{
		SolicitudID: sol.ID,
		Nombre:      nombre,
		Estado:      string(sol.Estado),
		Mensaje:     estadoMensaje(sol),
		Monto:       monto,
	}); err != nil {
		s.logger.Warn().Err(err).Int64("solicitud_id", sol.ID).Msg("could not enqueue request update email")
	}
}

func ptr[T any](v T) *T { return &v }

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

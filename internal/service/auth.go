package service

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/sebastianleon1-sys/Zerby2/internal/errs"
	"github.com/sebastianleon1-sys/Zerby2/internal/model"
	"github.com/sebastianleon1-sys/Zerby2/internal/repository"
	"github.com/sebastianleon1-sys/Zerby2/internal/sqlerr"
)

const (
	MsgEmailTaken         = "El email ya está registrado"
	MsgInvalidCredentials = "Email o contraseña incorrectos"
	MsgUnauthorized       = "No autorizado"
)

// AuthService registers accounts, opens and closes sessions and manages the
// caller's own profile.
type AuthService struct {
	usuarios    usuarioStore
	proveedores proveedorStore
	sessions    sessionStore
	geocoder    geocoder
	jobs        jobQueue
	logger      *zerolog.Logger

	bcryptCost int
	// dummyHash is compared against when no account matches, so a login
	// for an unknown email costs as much as a wrong password.
	dummyHash []byte
	compare   func(hash, password []byte) error
}

func NewAuthService(usuarios usuarioStore, proveedores proveedorStore, sessions sessionStore, geocoder geocoder, jobs jobQueue, logger *zerolog.Logger) *AuthService {
	return newAuthService(usuarios, proveedores, sessions, geocoder, jobs, logger, bcrypt.DefaultCost)
}

func newAuthService(usuarios usuarioStore, proveedores proveedorStore, sessions sessionStore, geocoder geocoder, jobs jobQueue, logger *zerolog.Logger, cost int) *AuthService {
	dummy, _ := bcrypt.GenerateFromPassword([]byte("zerby-dummy-password"), cost)
	return &AuthService{
		usuarios:    usuarios,
		proveedores: proveedores,
		sessions:    sessions,
		geocoder:    geocoder,
		jobs:        jobs,
		logger:      logger,
		bcryptCost:  cost,
		dummyHash:   dummy,
		compare:     bcrypt.CompareHashAndPassword,
	}
}

type RegisterUsuarioInput struct {
	NombreCompleto string
	Email          string
	Password       string
	Telefono       *string
	Direccion      *string
}

type RegisterProveedorInput struct {
	NombreCompleto   string
	Email            string
	Password         string
	Telefono         string
	Oficio           string
	Descripcion      *string
	Direccion        *string
	Horario          *string
	AtiendeUrgencias bool
}

// RegisterUsuario creates a client account and opens its session.
func (s *AuthService) RegisterUsuario(ctx context.Context, in RegisterUsuarioInput) (*model.Usuario, string, error) {
	email := normalizeEmail(in.Email)
	if err := s.ensureEmailFree(ctx, email); err != nil {
		return nil, "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, "", err
	}

	direccion := trimmedOrNil(in.Direccion)
	coords, retry := s.locate(ctx, direccion)

	u, err := s.usuarios.Create(ctx, &model.Usuario{
		NombreCompleto: strings.TrimSpace(in.NombreCompleto),
		Email:          email,
		PasswordHash:   string(hash),
		Telefono:       trimmedOrNil(in.Telefono),
		Direccion:      direccion,
		Lat:            coords.Lat,
		Lon:            coords.Lon,
	})
	if err != nil {
		if errors.Is(err, repository.ErrEmailTaken) || sqlerr.IsUniqueViolation(err, "") {
			return nil, "", errs.NewBadRequestError(MsgEmailTaken, true, nil, nil, nil)
		}
		return nil, "", err
	}

	principal := model.Principal{ID: u.ID, Tipo: model.AccountUsuario}
	s.afterRegister(ctx, principal, u.Email, u.NombreCompleto, direccion, retry)

	token, err := s.sessions.Create(ctx, principal)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

// RegisterProveedor creates a provider account and opens its session.
func (s *AuthService) RegisterProveedor(ctx context.Context, in RegisterProveedorInput) (*model.Proveedor, string, error) {
	email := normalizeEmail(in.Email)
	if err := s.ensureEmailFree(ctx, email); err != nil {
		return nil, "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, "", err
	}

	direccion := trimmedOrNil(in.Direccion)
	coords, retry := s.locate(ctx, direccion)

	p, err := s.proveedores.Create(ctx, &model.Proveedor{
		NombreCompleto:   strings.TrimSpace(in.NombreCompleto),
		Email:            email,
		PasswordHash:     string(hash),
		Telefono:         strings.TrimSpace(in.Telefono),
		Oficio:           strings.TrimSpace(in.Oficio),
		Descripcion:      trimmedOrNil(in.Descripcion),
		Direccion:        direccion,
		Horario:          trimmedOrNil(in.Horario),
		AtiendeUrgencias: in.AtiendeUrgencias,
		Lat:              coords.Lat,
		Lon:              coords.Lon,
	})
	if err != nil {
		if errors.Is(err, repository.ErrEmailTaken) || sqlerr.IsUniqueViolation(err, "") {
			return nil, "", errs.NewBadRequestError(MsgEmailTaken, true, nil, nil, nil)
		}
		return nil, "", err
	}

	principal := model.Principal{ID: p.ID, Tipo: model.AccountProveedor}
	s.afterRegister(ctx, principal, p.Email, p.NombreCompleto, direccion, retry)

	token, err := s.sessions.Create(ctx, principal)
	if err != nil {
		return nil, "", err
	}
	return p, token, nil
}

// ensureEmailFree rejects an email used by either account type; a usuario
// and a proveedor sharing one would make login ambiguous. It only saves the
// hashing and geocoding work: Create repeats the check under a lock.
func (s *AuthService) ensureEmailFree(ctx context.Context, email string) error {
	taken, err := s.usuarios.EmailExists(ctx, email)
	if err != nil {
		return err
	}
	if !taken {
		taken, err = s.proveedores.EmailExists(ctx, email)
		if err != nil {
			return err
		}
	}
	if taken {
		return errs.NewBadRequestError(MsgEmailTaken, true, nil, nil, nil)
	}
	return nil
}

func (s *AuthService) afterRegister(ctx context.Context, p model.Principal, email, nombre string, direccion *string, retryGeocode bool) {
	if err := s.jobs.EnqueueWelcomeEmail(ctx, email, nombre, p.Tipo); err != nil {
		s.logger.Warn().Err(err).Int64("account_id", p.ID).Msg("could not enqueue welcome email")
	}
	if retryGeocode {
		s.enqueueGeoRefresh(ctx, p, *direccion)
	}
}

func (s *AuthService) enqueueGeoRefresh(ctx context.Context, p model.Principal, direccion string) {
	if err := s.jobs.EnqueueGeoRefresh(ctx, p.Tipo, p.ID, direccion); err != nil {
		s.logger.Warn().Err(err).Int64("account_id", p.ID).Msg("could not enqueue geocode retry")
	}
}

// locate geocodes an optional address. retry is true when the lookup failed
// for a reason worth retrying later; the account is stored without
// coordinates meanwhile.
func (s *AuthService) locate(ctx context.Context, direccion *string) (coords model.Coordinates, retry bool) {
	if direccion == nil {
		return model.Coordinates{}, false
	}
	point, found, err := s.geocoder.Geocode(ctx, *direccion)
	if err != nil {
		s.logger.Warn().Err(err).Str("direccion", *direccion).Msg("geocoding failed, storing without coordinates")
		return model.Coordinates{}, true
	}
	return model.CoordinatesOf(point, found), false
}

// Login checks the usuario accounts first, then the proveedor accounts.
func (s *AuthService) Login(ctx context.Context, email, password string) (model.Principal, string, error) {
	email = normalizeEmail(email)

	principal, ok, err := s.authenticate(ctx, email, password)
	if err != nil {
		return model.Principal{}, "", err
	}
	if !ok {
		return model.Principal{}, "", errs.NewUnauthorizedError(MsgInvalidCredentials, true)
	}

	token, err := s.sessions.Create(ctx, principal)
	if err != nil {
		return model.Principal{}, "", err
	}
	return principal, token, nil
}

// authenticate resolves email to at most one account, usuario first, and
// runs exactly one password comparison on every path. Emails are unique
// across both tables, so a usuario match ends the lookup.
func (s *AuthService) authenticate(ctx context.Context, email, password string) (model.Principal, bool, error) {
	hash := s.dummyHash
	var principal model.Principal
	found := false

	u, err := s.usuarios.GetByEmail(ctx, email)
	switch {
	case err == nil:
		hash, principal, found = []byte(u.PasswordHash), model.Principal{ID: u.ID, Tipo: model.AccountUsuario}, true
	case !isNotFound(err):
		return model.Principal{}, false, err
	default:
		p, err := s.proveedores.GetByEmail(ctx, email)
		switch {
		case err == nil:
			hash, principal, found = []byte(p.PasswordHash), model.Principal{ID: p.ID, Tipo: model.AccountProveedor}, true
		case !isNotFound(err):
			return model.Principal{}, false, err
		}
	}

	if err := s.compare(hash, []byte(password)); err != nil || !found {
		return model.Principal{}, false, nil
	}
	return principal, true, nil
}

// Logout destroys the session behind token. Unknown tokens are not an error.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.sessions.Destroy(ctx, token)
}

// UsuarioProfile is what a usuario sees of its own account.
type UsuarioProfile struct {
	ID        int64             `json:"id"`
	Nombre    string            `json:"nombre"`
	Email     string            `json:"email"`
	Tipo      model.AccountType `json:"tipo"`
	Direccion *string           `json:"direccion"`
	Lat       *float64          `json:"lat"`
	Lon       *float64          `json:"lon"`
	Telefono  *string           `json:"telefono"`
}

type ProveedorProfile struct {
	ID        int64             `json:"id"`
	Nombre    string            `json:"nombre"`
	Email     string            `json:"email"`
	Tipo      model.AccountType `json:"tipo"`
	Oficio    string            `json:"oficio"`
	Direccion *string           `json:"direccion"`
	Telefono  string            `json:"telefono"`
}

// Profile returns a *UsuarioProfile or *ProveedorProfile for p.
func (s *AuthService) Profile(ctx context.Context, p model.Principal) (any, error) {
	if p.IsUsuario() {
		u, err := s.usuarios.GetByID(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		return usuarioProfile(u), nil
	}

	prov, err := s.proveedores.GetByID(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	return proveedorProfile(prov), nil
}

func usuarioProfile(u *model.Usuario) *UsuarioProfile {
	return &UsuarioProfile{
		ID:        u.ID,
		Nombre:    u.NombreCompleto,
		Email:     u.Email,
		Tipo:      model.AccountUsuario,
		Direccion: u.Direccion,
		Lat:       u.Lat,
		Lon:       u.Lon,
		Telefono:  u.Telefono,
	}
}

func proveedorProfile(p *model.Proveedor) *ProveedorProfile {
	return &ProveedorProfile{
		ID:        p.ID,
		Nombre:    p.NombreCompleto,
		Email:     p.Email,
		Tipo:      model.AccountProveedor,
		Oficio:    p.Oficio,
		Direccion: p.Direccion,
		Telefono:  p.Telefono,
	}
}

// UpdateProfileInput changes the contact data of an account. Nil fields are
// left as they are.
type UpdateProfileInput struct {
	Telefono  *string
	Direccion *string
}

// UpdateUsuarioProfile applies in to a usuario, geocoding the address again
// only when it changed.
func (s *AuthService) UpdateUsuarioProfile(ctx context.Context, p model.Principal, in UpdateProfileInput) (*UsuarioProfile, error) {
	if !p.IsUsuario() {
		return nil, errs.NewForbiddenError(MsgUnauthorized, true)
	}
	current, err := s.usuarios.GetByID(ctx, p.ID)
	if err != nil {
		return nil, err
	}

	upd, retry := s.profileUpdate(ctx, in, current.Direccion)
	u, err := s.usuarios.UpdateProfile(ctx, p.ID, upd)
	if err != nil {
		return nil, err
	}
	if retry {
		s.enqueueGeoRefresh(ctx, p, *upd.Direccion)
	}
	return usuarioProfile(u), nil
}

func (s *AuthService) UpdateProveedorProfile(ctx context.Context, p model.Principal, in UpdateProfileInput) (*ProveedorProfile, error) {
	if !p.IsProveedor() {
		return nil, errs.NewForbiddenError(MsgUnauthorized, true)
	}
	current, err := s.proveedores.GetByID(ctx, p.ID)
	if err != nil {
		return nil, err
	}

	upd, retry := s.profileUpdate(ctx, in, current.Direccion)
	prov, err := s.proveedores.UpdateProfile(ctx, p.ID, upd)
	if err != nil {
		return nil, err
	}
	if retry {
		s.enqueueGeoRefresh(ctx, p, *upd.Direccion)
	}
	return proveedorProfile(prov), nil
}

func (s *AuthService) profileUpdate(ctx context.Context, in UpdateProfileInput, currentDireccion *string) (repository.ProfileUpdate, bool) {
	upd := repository.ProfileUpdate{Telefono: trimmedOrNil(in.Telefono)}

	direccion := trimmedOrNil(in.Direccion)
	if direccion == nil || (currentDireccion != nil && *direccion == *currentDireccion) {
		return upd, false
	}

	upd.Direccion = direccion
	upd.SetCoordinates = true
	coords, retry := s.locate(ctx, direccion)
	upd.Coordinates = coords
	return upd, retry
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// trimmedOrNil trims s and maps empty to nil.
func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}

func isNotFound(err error) bool {
	var notFound *sqlerr.NotFound
	return errors.As(err, &notFound)
}

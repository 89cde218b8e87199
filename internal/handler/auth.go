package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sebastianleon1-sys/Zerby2/internal/middleware"
	"github.com/sebastianleon1-sys/Zerby2/internal/model"
	"github.com/sebastianleon1-sys/Zerby2/internal/server"
	"github.com/sebastianleon1-sys/Zerby2/internal/service"
	"github.com/sebastianleon1-sys/Zerby2/internal/validation"
)

// AuthHandler serves registration, login, logout and the own-profile routes.
type AuthHandler struct {
	Handler
	auth *service.AuthService
}

func NewAuthHandler(s *server.Server, auth *service.AuthService) *AuthHandler {
	return &AuthHandler{Handler: NewHandler(s), auth: auth}
}

type RegisterUsuarioRequest struct {
	NombreCompleto string  `json:"nombre_completo" validate:"required,min=2,max=100"`
	Email          string  `json:"email" validate:"required,email,max=100"`
	Password       string  `json:"password" validate:"required,min=6,max=72"`
	Telefono       *string `json:"telefono" validate:"omitempty,max=15"`
	Direccion      *string `json:"direccion" validate:"omitempty,max=255"`
}

func (r *RegisterUsuarioRequest) Validate() error { return validation.Struct(r) }

type RegisterProveedorRequest struct {
	NombreCompleto   string  `json:"nombre_completo" validate:"required,min=2,max=100"`
	Email            string  `json:"email" validate:"required,email,max=100"`
	Password         string  `json:"password" validate:"required,min=6,max=72"`
	Telefono         string  `json:"telefono" validate:"required,max=15"`
	Oficio           string  `json:"oficio" validate:"required,max=50"`
	Descripcion      *string `json:"descripcion" validate:"omitempty,max=2000"`
	Direccion        *string `json:"direccion" validate:"omitempty,max=255"`
	Horario          *string `json:"horario" validate:"omitempty,max=100"`
	AtiendeUrgencias bool    `json:"atiende_urgencias"`
}

func (r *RegisterProveedorRequest) Validate() error { return validation.Struct(r) }

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (r *LoginRequest) Validate() error { return validation.Struct(r) }

type UpdateProfileRequest struct {
	Telefono  *string `json:"telefono" validate:"omitempty,max=15"`
	Direccion *string `json:"direccion" validate:"omitempty,max=255"`
}

func (r *UpdateProfileRequest) Validate() error { return validation.Struct(r) }

type LoginResponse struct {
	Mensaje string            `json:"mensaje"`
	Tipo    model.AccountType `json:"tipo"`
}

func (h *AuthHandler) RegisterUsuario(c echo.Context, req *RegisterUsuarioRequest) (Mensaje, error) {
	_, token, err := h.auth.RegisterUsuario(c.Request().Context(), service.RegisterUsuarioInput{
		NombreCompleto: req.NombreCompleto,
		Email:          req.Email,
		Password:       req.Password,
		Telefono:       req.Telefono,
		Direccion:      req.Direccion,
	})
	if err != nil {
		return Mensaje{}, err
	}
	c.SetCookie(h.server.Sessions.Cookie(token))
	return Mensaje{Mensaje: "Usuario registrado"}, nil
}

func (h *AuthHandler) RegisterProveedor(c echo.Context, req *RegisterProveedorRequest) (Mensaje, error) {
	_, token, err := h.auth.RegisterProveedor(c.Request().Context(), service.RegisterProveedorInput{
		NombreCompleto:   req.NombreCompleto,
		Email:            req.Email,
		Password:         req.Password,
		Telefono:         req.Telefono,
		Oficio:           req.Oficio,
		Descripcion:      req.Descripcion,
		Direccion:        req.Direccion,
		Horario:          req.Horario,
		AtiendeUrgencias: req.AtiendeUrgencias,
	})
	if err != nil {
		return Mensaje{}, err
	}
	c.SetCookie(h.server.Sessions.Cookie(token))
	return Mensaje{Mensaje: "Proveedor registrado con éxito"}, nil
}

func (h *AuthHandler) Login(c echo.Context, req *LoginRequest) (LoginResponse, error) {
	p, token, err := h.auth.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return LoginResponse{}, err
	}
	c.SetCookie(h.server.Sessions.Cookie(token))
	return LoginResponse{Mensaje: "Inicio de sesión exitoso", Tipo: p.Tipo}, nil
}

// Logout works with or without a live session and always clears the cookie.
func (h *AuthHandler) Logout(c echo.Context, _ *Empty) (Mensaje, error) {
	token := h.server.Sessions.TokenFromRequest(c.Request())
	if err := h.auth.Logout(c.Request().Context(), token); err != nil {
		middleware.GetLogger(c).Warn().Err(err).Msg("could not destroy session")
	}
	c.SetCookie(h.server.Sessions.ExpiredCookie())
	return Mensaje{Mensaje: "Sesión cerrada"}, nil
}

func (h *AuthHandler) Profile(c echo.Context, _ *Empty) (any, error) {
	p, err := principal(c)
	if err != nil {
		return nil, err
	}
	return h.auth.Profile(c.Request().Context(), p)
}

func (h *AuthHandler) UpdateUsuarioProfile(c echo.Context, req *UpdateProfileRequest) (Mensaje, error) {
	p, err := principal(c)
	if err != nil {
		return Mensaje{}, err
	}
	if _, err := h.auth.UpdateUsuarioProfile(c.Request().Context(), p, service.UpdateProfileInput{
		Telefono:  req.Telefono,
		Direccion: req.Direccion,
	}); err != nil {
		return Mensaje{}, err
	}
	return Mensaje{Mensaje: "Perfil actualizado correctamente"}, nil
}

func (h *AuthHandler) UpdateProveedorProfile(c echo.Context, req *UpdateProfileRequest) (Mensaje, error) {
	p, err := principal(c)
	if err != nil {
		return Mensaje{}, err
	}
	if _, err := h.auth.UpdateProveedorProfile(c.Request().Context(), p, service.UpdateProfileInput{
		Telefono:  req.Telefono,
		Direccion: req.Direccion,
	}); err != nil {
		return Mensaje{}, err
	}
	return Mensaje{Mensaje: "Perfil actualizado correctamente"}, nil
}

// statusFor picks 201 for newly created resources and 200 otherwise.
func statusFor(created bool) int {
	if created {
		return http.StatusCreated
	}
	return http.StatusOK
}

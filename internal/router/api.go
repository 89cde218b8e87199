package router

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sebastianleon1-sys/Zerby2/internal/handler"
	"github.com/sebastianleon1-sys/Zerby2/internal/middleware"
)

func registerAuthRoutes(r *echo.Echo, mws *middleware.Middlewares, h *handler.Handlers) {
	a := h.Auth
	limited := mws.RateLimit.Sensitive()

	r.POST("/registrar/usuario", handler.Handle(a.Handler, a.RegisterUsuario, http.StatusCreated, &handler.RegisterUsuarioRequest{}), limited)
	r.POST("/registrar/proveedor", handler.Handle(a.Handler, a.RegisterProveedor, http.StatusCreated, &handler.RegisterProveedorRequest{}), limited)
	r.POST("/api/login", handler.Handle(a.Handler, a.Login, http.StatusOK, &handler.LoginRequest{}), limited)

	logout := handler.Handle(a.Handler, a.Logout, http.StatusOK, &handler.Empty{})
	r.GET("/api/logout", logout)
	r.POST("/api/logout", logout)

	r.GET("/api/get_profile", handler.Handle(a.Handler, a.Profile, http.StatusOK, &handler.Empty{}), mws.Auth.RequireAuth)
	r.POST("/api/usuario/actualizar_perfil", handler.Handle(a.Handler, a.UpdateUsuarioProfile, http.StatusOK, &handler.UpdateProfileRequest{}), mws.Auth.RequireUsuario)
	r.POST("/api/proveedor/actualizar_perfil", handler.Handle(a.Handler, a.UpdateProveedorProfile, http.StatusOK, &handler.UpdateProfileRequest{}), mws.Auth.RequireProveedor)
}

func registerDiscoveryRoutes(r *echo.Echo, mws *middleware.Middlewares, h *handler.Handlers) {
	d := h.Discovery
	auth := mws.Auth.RequireUsuario

	r.GET("/api/proveedores/cercanos", handler.Handle(d.Handler, d.Nearest, http.StatusOK, &handler.Empty{}), auth)
	r.GET("/api/buscar", handler.Handle(d.Handler, d.Search, http.StatusOK, &handler.SearchRequest{}), auth)
}

func registerSolicitudRoutes(r *echo.Echo, mws *middleware.Middlewares, h *handler.Handlers) {
	s := h.Solicitud
	auth := mws.Auth.RequireAuth
	// Group without group-level middleware so unknown paths stay 404.
	g := r.Group("/api/solicitudes")

	g.POST("", handler.Handle(s.Handler, s.Create, http.StatusCreated, &handler.CreateSolicitudRequest{}), auth)
	g.GET("", handler.Handle(s.Handler, s.List, http.StatusOK, &handler.Empty{}), auth)
	g.GET("/:id", handler.Handle(s.Handler, s.Get, http.StatusOK, &handler.SolicitudIDRequest{}), auth)
	g.POST("/:id/aceptar", handler.Handle(s.Handler, s.Accept, http.StatusOK, &handler.AcceptRequest{}), auth)
	g.POST("/:id/rechazar", handler.Handle(s.Handler, s.Reject, http.StatusOK, &handler.RejectRequest{}), auth)
	g.POST("/:id/pagar", handler.Handle(s.Handler, s.Pay, http.StatusOK, &handler.SolicitudIDRequest{}), auth)
	g.POST("/:id/regenerar_pin", handler.Handle(s.Handler, s.RegeneratePin, http.StatusOK, &handler.SolicitudIDRequest{}), auth)
	g.POST("/:id/confirmar", handler.Handle(s.Handler, s.Confirm, http.StatusOK, &handler.ConfirmRequest{}), auth, mws.RateLimit.Sensitive())
}

func registerChatRoutes(r *echo.Echo, mws *middleware.Middlewares, h *handler.Handlers) {
	c := h.Chat

	r.POST("/api/iniciar_chat/:proveedor_id", handler.HandleStatus(c.Handler, c.Start, &handler.ProveedorIDRequest{}), mws.Auth.RequireUsuario)

	auth := mws.Auth.RequireAuth
	r.GET("/api/conversaciones", handler.Handle(c.Handler, c.List, http.StatusOK, &handler.Empty{}), auth)
	r.GET("/api/conversacion/:id/detalles", handler.Handle(c.Handler, c.Details, http.StatusOK, &handler.ConversacionIDRequest{}), auth)
	r.POST("/api/conversacion/:id/enviar", handler.Handle(c.Handler, c.Send, http.StatusCreated, &handler.SendMessageRequest{}), auth)

	r.GET("/ws", c.Websocket, auth)
}

func registerRatingRoutes(r *echo.Echo, mws *middleware.Middlewares, h *handler.Handlers) {
	rt := h.Rating

	r.POST("/api/calificar/:proveedor_id", handler.HandleStatus(rt.Handler, rt.Rate, &handler.RateRequest{}), mws.Auth.RequireUsuario)
	r.GET("/api/perfil/proveedor/:id", handler.Handle(rt.Handler, rt.PublicProfile, http.StatusOK, &handler.PublicProfileRequest{}))
}

func registerPortfolioRoutes(r *echo.Echo, mws *middleware.Middlewares, h *handler.Handlers) {
	p := h.Portfolio
	auth := mws.Auth.RequireProveedor

	r.POST("/api/portafolio/add", handler.Handle(p.Handler, p.Add, http.StatusCreated, &handler.AddPortfolioRequest{}), auth)
	r.DELETE("/api/portafolio/delete/:id", handler.Handle(p.Handler, p.Delete, http.StatusOK, &handler.PortfolioItemRequest{}), auth)
}

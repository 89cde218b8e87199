package handler

import (
	"net/http"
	"net/url"
	"slices"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/sebastianleon1-sys/Zerby2/internal/lib/realtime"
	"github.com/sebastianleon1-sys/Zerby2/internal/middleware"
	"github.com/sebastianleon1-sys/Zerby2/internal/server"
	"github.com/sebastianleon1-sys/Zerby2/internal/service"
	"github.com/sebastianleon1-sys/Zerby2/internal/validation"
)

// ChatHandler serves conversations over HTTP and the /ws realtime channel.
type ChatHandler struct {
	Handler
	chat     *service.ChatService
	upgrader websocket.Upgrader
}

func NewChatHandler(s *server.Server, chat *service.ChatService) *ChatHandler {
	h := &ChatHandler{Handler: NewHandler(s), chat: chat}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// checkOrigin admits same-host requests, non-browser clients and the CORS
// origins from config. The session cookie would otherwise let any page open
// a socket on the user's behalf.
func (h *ChatHandler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if u.Host == r.Host {
		return true
	}
	allowed := h.server.Config.Server.CORSAllowedOrigins
	return slices.Contains(allowed, "*") || slices.Contains(allowed, origin)
}

type ProveedorIDRequest struct {
	ProveedorID int64 `param:"proveedor_id" validate:"required,gt=0"`
}

func (r *ProveedorIDRequest) Validate() error { return validation.Struct(r) }

type ConversacionIDRequest struct {
	ID int64 `param:"id" validate:"required,gt=0"`
}

func (r *ConversacionIDRequest) Validate() error { return validation.Struct(r) }

type SendMessageRequest struct {
	ID        int64  `param:"id" validate:"required,gt=0"`
	Contenido string `json:"contenido" validate:"max=2000"`
}

func (r *SendMessageRequest) Validate() error { return validation.Struct(r) }

type StartChatResponse struct {
	Mensaje        string `json:"mensaje"`
	ConversacionID int64  `json:"conversacion_id"`
}

type ConversacionItem struct {
	ID               int64  `json:"id"`
	OtroParticipante string `json:"otro_participante"`
	Detalle          string `json:"detalle"`
}

type SendMessageResponse struct {
	Mensaje string                `json:"mensaje"`
	Data    *service.MensajeEvent `json:"data"`
}

// Start answers 201 when the conversation was created and 200 when it
// already existed.
func (h *ChatHandler) Start(c echo.Context, req *ProveedorIDRequest) (StartChatResponse, int, error) {
	p, err := principal(c)
	if err != nil {
		return StartChatResponse{}, 0, err
	}
	conv, created, err := h.chat.Start(c.Request().Context(), p, req.ProveedorID)
	if err != nil {
		return StartChatResponse{}, 0, err
	}
	msg := "Conversación existente"
	if created {
		msg = "Conversación iniciada"
	}
	return StartChatResponse{Mensaje: msg, ConversacionID: conv.ID}, statusFor(created), nil
}

func (h *ChatHandler) List(c echo.Context, _ *Empty) ([]ConversacionItem, error) {
	p, err := principal(c)
	if err != nil {
		return nil, err
	}
	convs, err := h.chat.List(c.Request().Context(), p)
	if err != nil {
		return nil, err
	}
	out := make([]ConversacionItem, len(convs))
	for i, conv := range convs {
		out[i] = ConversacionItem{ID: conv.ID, OtroParticipante: conv.OtroParticipante, Detalle: conv.Detalle}
	}
	return out, nil
}

func (h *ChatHandler) Details(c echo.Context, req *ConversacionIDRequest) (*service.ConversacionDetalle, error) {
	p, err := principal(c)
	if err != nil {
		return nil, err
	}
	return h.chat.Details(c.Request().Context(), p, req.ID)
}

func (h *ChatHandler) Send(c echo.Context, req *SendMessageRequest) (SendMessageResponse, error) {
	p, err := principal(c)
	if err != nil {
		return SendMessageResponse{}, err
	}
	event, err := h.chat.Send(c.Request().Context(), p, req.ID, req.Contenido)
	if err != nil {
		return SendMessageResponse{}, err
	}
	return SendMessageResponse{Mensaje: "Enviado", Data: event}, nil
}

// Websocket upgrades an authenticated request and serves it until the client
// disconnects.
func (h *ChatHandler) Websocket(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	ws, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// The upgrader already wrote an HTTP error response.
		middleware.GetLogger(c).Debug().Err(err).Msg("websocket upgrade failed")
		return nil
	}

	logger := middleware.GetLogger(c).With().Str("component", "websocket").Logger()
	conn := realtime.NewConn(ws, h.server.Hub, p, h.chat.Join, logger)

	logger.Debug().Msg("websocket connected")
	conn.Serve(c.Request().Context())
	logger.Debug().Msg("websocket closed")
	return nil
}

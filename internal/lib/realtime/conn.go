package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/sebastianleon1-sys/Zerby2/internal/errs"
	"github.com/sebastianleon1-sys/Zerby2/internal/model"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// MsgConvIDRequired is sent when a join frame has no usable conv_id.
const MsgConvIDRequired = "conv_id requerido"

// JoinFunc authorizes p to follow conversation convID. Rejections should be
// *errs.HTTPError so their message can be relayed to the client.
type JoinFunc func(ctx context.Context, p model.Principal, convID int64) error

type inboundFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type joinData struct {
	ConvID json.RawMessage `json:"conv_id"`
}

// Conn serves one authenticated websocket.
type Conn struct {
	ws        *websocket.Conn
	hub       *Hub
	principal model.Principal
	join      JoinFunc
	logger    zerolog.Logger
}

func NewConn(ws *websocket.Conn, hub *Hub, p model.Principal, join JoinFunc, logger zerolog.Logger) *Conn {
	return &Conn{ws: ws, hub: hub, principal: p, join: join, logger: logger}
}

// Serve runs the socket until the client goes away or ctx is cancelled.
// It always closes the websocket.
func (c *Conn) Serve(ctx context.Context) {
	sub := c.hub.Register()
	ctx, cancel := context.WithCancel(ctx)

	done := make(chan struct{})
	go func() {
		defer close(done)
		c.writePump(ctx, sub)
	}()

	c.readPump(ctx, sub)

	cancel()
	c.hub.Unregister(sub)
	<-done
	_ = c.ws.Close()
}

func (c *Conn) readPump(ctx context.Context, sub *Subscriber) {
	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug().Err(err).Msg("websocket closed unexpectedly")
			}
			return
		}

		var in inboundFrame
		if err := json.Unmarshal(raw, &in); err != nil {
			c.reply(sub, EventError, map[string]string{"message": "Mensaje inválido"})
			continue
		}

		switch in.Event {
		case EventJoin:
			c.handleJoin(ctx, sub, in.Data)
		default:
			c.logger.Debug().Str("event", in.Event).Msg("ignoring unknown websocket event")
		}
	}
}

func (c *Conn) handleJoin(ctx context.Context, sub *Subscriber, raw json.RawMessage) {
	var data joinData
	_ = json.Unmarshal(raw, &data)

	convID, ok := parseConvID(data.ConvID)
	if !ok {
		c.reply(sub, EventError, map[string]string{"message": MsgConvIDRequired})
		return
	}

	if err := c.join(ctx, c.principal, convID); err != nil {
		c.reply(sub, EventError, map[string]string{"message": clientMessage(err)})
		return
	}

	room := RoomForConversation(convID)
	if !c.hub.Join(sub, room) {
		return
	}
	c.logger.Debug().Str("room", room).Msg("joined room")
	c.reply(sub, EventJoined, map[string]int64{"conv_id": convID})
}

func (c *Conn) reply(sub *Subscriber, event string, data any) {
	payload, err := encodeFrame(event, data)
	if err != nil {
		c.logger.Error().Err(err).Msg("encoding reply")
		return
	}
	c.hub.SendDirect(sub, payload)
}

func (c *Conn) writePump(ctx context.Context, sub *Subscriber) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return

		case payload, ok := <-sub.Send():
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Dropped by the hub for being too slow.
				_ = c.ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "slow consumer"))
				_ = c.ws.Close()
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, payload); err != nil {
				_ = c.ws.Close()
				return
			}

		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = c.ws.Close()
				return
			}
		}
	}
}

// parseConvID accepts a positive id sent as a JSON number or string.
func parseConvID(raw json.RawMessage) (int64, bool) {
	s := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	if s == "" || s == "null" {
		return 0, false
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func clientMessage(err error) string {
	var httpErr *errs.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Message
	}
	return "Error interno"
}

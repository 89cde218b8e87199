package service

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sebastianleon1-sys/Zerby2/internal/lib/realtime"
	"github.com/sebastianleon1-sys/Zerby2/internal/model"
)

type chatFixture struct {
	*solicitudFixture
	chat *ChatService
}

func newChatFixture() *chatFixture {
	sf := newSolicitudFixture()
	w := sf.w
	return &chatFixture{
		solicitudFixture: sf,
		chat:             NewChatService(fakeChats{w}, fakeSolicitudes{w}, fakeUsuarios{w}, fakeProveedores{w}, sf.emitter, nil, nopLogger()),
	}
}

// accepted creates and accepts a request, returning its conversation id.
func (f *chatFixture) accepted(t *testing.T) int64 {
	t.Helper()
	s := f.create(t)
	acc, err := f.svc.Accept(context.Background(), proveedorP(f.prov.ID), s.ID, decimal.NewFromInt(5000))
	require.NoError(t, err)
	return *acc.ConversacionID
}

func TestChat_StartRequiresAcceptedRequest(t *testing.T) {
	f := newChatFixture()
	ctx := context.Background()
	u := usuarioP(f.usuario.ID)

	_, _, err := f.chat.Start(ctx, u, f.prov.ID)
	assert.Equal(t, http.StatusForbidden, httpStatus(err))
	assert.Equal(t, MsgChatLocked, httpErr(err).Message)

	// A pending request is not enough.
	f.create(t)
	_, _, err = f.chat.Start(ctx, u, f.prov.ID)
	assert.Equal(t, http.StatusForbidden, httpStatus(err))

	convID := f.accepted(t)
	conv, created, err := f.chat.Start(ctx, u, f.prov.ID)
	require.NoError(t, err)
	assert.False(t, created, "accepting already opened it")
	assert.Equal(t, convID, conv.ID)
}

func TestChat_StartCreatesWhenEnabled(t *testing.T) {
	f := newChatFixture()
	ctx := context.Background()

	// A request can be accepted in storage without a conversation, e.g.
	// rows written before chats were linked.
	f.w.solicitudes[999] = &model.SolicitudServicio{ID: 999, UsuarioID: f.usuario.ID, ProveedorID: f.prov.ID, Estado: model.EstadoPagado}

	conv, created, err := f.chat.Start(ctx, usuarioP(f.usuario.ID), f.prov.ID)
	require.NoError(t, err)
	assert.True(t, created)

	again, created, err := f.chat.Start(ctx, usuarioP(f.usuario.ID), f.prov.ID)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, conv.ID, again.ID)
}

func TestChat_StartErrors(t *testing.T) {
	f := newChatFixture()
	ctx := context.Background()

	_, _, err := f.chat.Start(ctx, proveedorP(f.prov.ID), f.prov.ID)
	assert.Equal(t, http.StatusForbidden, httpStatus(err))

	_, _, err = f.chat.Start(ctx, usuarioP(f.usuario.ID), 424242)
	assert.True(t, isNotFound(err))
}

func TestChat_SendAndDetails(t *testing.T) {
	f := newChatFixture()
	ctx := context.Background()
	convID := f.accepted(t)
	u, p := usuarioP(f.usuario.ID), proveedorP(f.prov.ID)

	before := len(f.emitter.events)
	msg, err := f.chat.Send(ctx, u, convID, "  hola, ¿mañana a las 10?  ")
	require.NoError(t, err)
	assert.Equal(t, "hola, ¿mañana a las 10?", msg.Contenido)
	assert.Equal(t, model.AccountUsuario, msg.RemitenteTipo)
	assert.Equal(t, TipoMensaje, msg.Tipo)

	require.Len(t, f.emitter.events, before+1)
	ev := f.emitter.events[before]
	assert.Equal(t, realtime.RoomForConversation(convID), ev.room)
	assert.Equal(t, realtime.EventReceiveMessage, ev.event)

	_, err = f.chat.Send(ctx, p, convID, "perfecto")
	require.NoError(t, err)

	asUsuario, err := f.chat.Details(ctx, u, convID)
	require.NoError(t, err)
	assert.Equal(t, "Beto", asUsuario.OtroNombre)
	require.NotNil(t, asUsuario.ProveedorID)
	assert.Equal(t, f.prov.ID, *asUsuario.ProveedorID)

	// The request was created before both messages.
	require.Len(t, asUsuario.Historial, 3)
	first, ok := asUsuario.Historial[0].(SolicitudEvent)
	require.True(t, ok)
	assert.Equal(t, model.EstadoAceptada, first.Estado)
	assert.Equal(t, "perfecto", asUsuario.Historial[2].(MensajeEvent).Contenido)

	asProveedor, err := f.chat.Details(ctx, p, convID)
	require.NoError(t, err)
	assert.Equal(t, "Ana", asProveedor.OtroNombre)
	assert.Nil(t, asProveedor.ProveedorID)
}

func TestChat_SendErrors(t *testing.T) {
	f := newChatFixture()
	ctx := context.Background()
	convID := f.accepted(t)

	_, err := f.chat.Send(ctx, usuarioP(f.usuario.ID), convID, "   ")
	assert.Equal(t, http.StatusBadRequest, httpStatus(err))

	_, err = f.chat.Send(ctx, usuarioP(f.usuario.ID+500), convID, "hola")
	assert.Equal(t, http.StatusForbidden, httpStatus(err))

	_, err = f.chat.Send(ctx, usuarioP(f.usuario.ID), 777777, "hola")
	assert.Equal(t, http.StatusNotFound, httpStatus(err))
	assert.Equal(t, MsgConversationMissing, httpErr(err).Message)
}

func TestChat_SendSurvivesBroadcastFailure(t *testing.T) {
	f := newChatFixture()
	convID := f.accepted(t)
	f.emitter.err = errors.New("redis down")

	msg, err := f.chat.Send(context.Background(), usuarioP(f.usuario.ID), convID, "hola")
	require.NoError(t, err)
	assert.NotZero(t, msg.ID)
	assert.Len(t, f.w.mensajes, 1)
}

func TestChat_JoinAndList(t *testing.T) {
	f := newChatFixture()
	ctx := context.Background()
	convID := f.accepted(t)

	assert.NoError(t, f.chat.Join(ctx, proveedorP(f.prov.ID), convID))
	assert.Equal(t, http.StatusForbidden, httpStatus(f.chat.Join(ctx, proveedorP(f.prov.ID+1), convID)))

	list, err := f.chat.List(ctx, usuarioP(f.usuario.ID))
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Beto", list[0].OtroParticipante)
	assert.Equal(t, "Electricista", list[0].Detalle)

	list, err = f.chat.List(ctx, proveedorP(f.prov.ID))
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Cliente", list[0].Detalle)
}

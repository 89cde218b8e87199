package realtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/sebastianleon1-sys/Zerby2/internal/lib/metrics"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestRoomForConversation(t *testing.T) {
	assert.Equal(t, "chat_42", RoomForConversation(42))
}

func TestHub_JoinAndDeliver(t *testing.T) {
	hub := NewHub(4, metrics.New())
	a := hub.Register()
	b := hub.Register()
	c := hub.Register()
	defer hub.Unregister(a)
	defer hub.Unregister(b)
	defer hub.Unregister(c)

	require.True(t, hub.Join(a, "chat_1"))
	require.True(t, hub.Join(b, "chat_1"))
	require.True(t, hub.Join(c, "chat_2"))
	assert.Equal(t, 2, hub.roomSize("chat_1"))

	n := hub.Deliver("chat_1", []byte("hola"))
	assert.Equal(t, 2, n)
	assert.Equal(t, []byte("hola"), <-a.Send())
	assert.Equal(t, []byte("hola"), <-b.Send())
	assert.Empty(t, c.Send())

	assert.Zero(t, hub.Deliver("chat_unknown", []byte("x")))
}

func TestHub_DropsSlowSubscriber(t *testing.T) {
	m := metrics.New()
	hub := NewHub(2, m)
	slow := hub.Register()
	fast := hub.Register()
	defer hub.Unregister(fast)

	hub.Join(slow, "chat_1")
	hub.Join(fast, "chat_1")

	for i := 0; i < 2; i++ {
		assert.Equal(t, 2, hub.Deliver("chat_1", []byte("m")))
		<-fast.Send()
	}

	// slow never reads; its queue is full now.
	assert.Equal(t, 1, hub.Deliver("chat_1", []byte("m")))
	assert.Equal(t, 1, hub.roomSize("chat_1"))

	// Buffered frames drain, then the channel reports closed.
	<-slow.Send()
	<-slow.Send()
	_, open := <-slow.Send()
	assert.False(t, open)

	assert.False(t, hub.Join(slow, "chat_2"), "dropped subscribers cannot rejoin")
	assert.False(t, hub.SendDirect(slow, []byte("x")))

	// Unregister after a drop must not double count or panic.
	hub.Unregister(slow)
	hub.Unregister(slow)
}

func TestHub_UnregisterCleansRooms(t *testing.T) {
	hub := NewHub(1, nil)
	s := hub.Register()
	hub.Join(s, "chat_1")
	hub.Join(s, "chat_2")

	hub.Unregister(s)

	assert.Zero(t, hub.roomSize("chat_1"))
	assert.Zero(t, hub.roomSize("chat_2"))
	assert.Empty(t, hub.rooms)
}

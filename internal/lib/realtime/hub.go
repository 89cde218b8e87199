// Package realtime delivers chat events to websocket clients grouped in
// rooms, one room per conversation.
//
// Delivery is best effort: a subscriber whose buffer is full is dropped
// rather than allowed to stall the room.
package realtime

import (
	"strconv"
	"sync"

	"github.com/sebastianleon1-sys/Zerby2/internal/lib/metrics"
)

// Event names exchanged over the socket.
const (
	EventJoin           = "join"
	EventJoined         = "joined"
	EventError          = "error"
	EventReceiveMessage = "receive_message"
)

// DefaultBuffer is the per-subscriber outbound queue length.
const DefaultBuffer = 64

// Frame is the JSON envelope of every socket message, in both directions.
type Frame struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// RoomForConversation names the room of a conversation.
func RoomForConversation(id int64) string {
	return "chat_" + strconv.FormatInt(id, 10)
}

// Subscriber is one connected socket as seen by the hub.
type Subscriber struct {
	send   chan []byte
	rooms  map[string]struct{}
	closed bool
}

// Send is closed when the hub drops or unregisters the subscriber.
func (s *Subscriber) Send() <-chan []byte {
	return s.send
}

// Hub tracks room membership for the sockets of this process.
type Hub struct {
	mu      sync.Mutex
	rooms   map[string]map[*Subscriber]struct{}
	buffer  int
	metrics *metrics.Metrics
}

func NewHub(buffer int, m *metrics.Metrics) *Hub {
	if buffer < 1 {
		buffer = DefaultBuffer
	}
	return &Hub{
		rooms:   make(map[string]map[*Subscriber]struct{}),
		buffer:  buffer,
		metrics: m,
	}
}

// Register creates a subscriber with an empty room set.
func (h *Hub) Register() *Subscriber {
	h.metrics.WebsocketOpened()
	return &Subscriber{
		send:  make(chan []byte, h.buffer),
		rooms: make(map[string]struct{}),
	}
}

// Unregister removes s from every room and closes its channel. Safe to call
// more than once and after the hub dropped s.
func (h *Hub) Unregister(s *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if s.closed {
		return
	}
	h.removeLocked(s)
	h.metrics.WebsocketClosed()
}

// Join adds s to room. It returns false if s has already been dropped.
func (h *Hub) Join(s *Subscriber, room string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if s.closed {
		return false
	}

	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*Subscriber]struct{})
		h.rooms[room] = members
	}
	members[s] = struct{}{}
	s.rooms[room] = struct{}{}
	return true
}

// Deliver queues payload for every member of room and returns how many
// subscribers accepted it. Members with a full queue are dropped.
func (h *Hub) Deliver(room string, payload []byte) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	delivered := 0
	for s := range h.rooms[room] {
		select {
		case s.send <- payload:
			delivered++
		default:
			h.removeLocked(s)
			h.metrics.WebsocketClosed()
		}
	}
	return delivered
}

// roomSize is the number of local members of room.
func (h *Hub) roomSize(room string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms[room])
}

// SendDirect queues payload for s alone, used for join replies. It reports
// false if the queue is full or s is gone.
func (h *Hub) SendDirect(s *Subscriber, payload []byte) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if s.closed {
		return false
	}
	select {
	case s.send <- payload:
		return true
	default:
		return false
	}
}

func (h *Hub) removeLocked(s *Subscriber) {
	for room := range s.rooms {
		if members, ok := h.rooms[room]; ok {
			delete(members, s)
			if len(members) == 0 {
				delete(h.rooms, room)
			}
		}
	}
	s.rooms = nil
	s.closed = true
	close(s.send)
}

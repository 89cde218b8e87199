package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Emitter sends an event to everyone in a room, on every instance.
type Emitter interface {
	Emit(ctx context.Context, room, event string, data any) error
}

func encodeFrame(event string, data any) ([]byte, error) {
	b, err := json.Marshal(Frame{Event: event, Data: data})
	if err != nil {
		return nil, fmt.Errorf("encoding %s frame: %w", event, err)
	}
	return b, nil
}

// LocalEmitter delivers straight to the in-process hub. Enough for a single
// instance and for tests.
type LocalEmitter struct {
	hub *Hub
}

func NewLocalEmitter(hub *Hub) *LocalEmitter {
	return &LocalEmitter{hub: hub}
}

func (e *LocalEmitter) Emit(_ context.Context, room, event string, data any) error {
	payload, err := encodeFrame(event, data)
	if err != nil {
		return err
	}
	e.hub.Deliver(room, payload)
	return nil
}

// DefaultChannel is the Redis pub/sub channel carrying room events.
const DefaultChannel = "zerby:realtime"

// envelope is what travels over Redis: the target room and the ready-made
// socket frame.
type envelope struct {
	Room  string          `json:"room"`
	Frame json.RawMessage `json:"frame"`
}

// RedisEmitter publishes events on a Redis channel. Every instance runs
// Listen and hands what it receives to its own hub, so a message sent on
// one instance reaches sockets connected to any other.
type RedisEmitter struct {
	rdb     redis.UniversalClient
	channel string
	hub     *Hub
	logger  *zerolog.Logger
}

func NewRedisEmitter(rdb redis.UniversalClient, hub *Hub, logger *zerolog.Logger) *RedisEmitter {
	return &RedisEmitter{rdb: rdb, channel: DefaultChannel, hub: hub, logger: logger}
}

func (e *RedisEmitter) Emit(ctx context.Context, room, event string, data any) error {
	frame, err := encodeFrame(event, data)
	if err != nil {
		return err
	}
	msg, err := json.Marshal(envelope{Room: room, Frame: frame})
	if err != nil {
		return fmt.Errorf("encoding envelope: %w", err)
	}
	if err := e.rdb.Publish(ctx, e.channel, msg).Err(); err != nil {
		return fmt.Errorf("publishing to %s: %w", e.channel, err)
	}
	return nil
}

// Listen relays published events to the local hub until ctx is cancelled.
func (e *RedisEmitter) Listen(ctx context.Context) error {
	sub := e.rdb.Subscribe(ctx, e.channel)
	defer sub.Close()

	// Wait for the subscription to be confirmed so early publishes are not lost.
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribing to %s: %w", e.channel, err)
	}

	e.logger.Info().Str("channel", e.channel).Msg("realtime relay listening")

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var env envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				e.logger.Warn().Err(err).Msg("dropping malformed realtime envelope")
				continue
			}
			e.hub.Deliver(env.Room, env.Frame)
		}
	}
}

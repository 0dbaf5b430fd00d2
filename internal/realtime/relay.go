package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nirmaan-tracker/nirmaan-api/internal/constants"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// relayMessage is what instances exchange over the Redis channel.
type relayMessage struct {
	Event string          `json:"event"`
	Rooms []string        `json:"rooms"`
	Data  json.RawMessage `json:"data"`
}

// RedisRelay publishes emits to Redis and delivers every message it receives
// to the local hub, so all instances reach their own connections.
type RedisRelay struct {
	rdb     *redis.Client
	hub     *Hub
	channel string
	logger  *zap.Logger
}

// NewRedisRelay creates a relay on the default channel.
func NewRedisRelay(rdb *redis.Client, hub *Hub, logger *zap.Logger) *RedisRelay {
	return &RedisRelay{rdb: rdb, hub: hub, channel: constants.RelayChannel, logger: logger}
}

// Emit publishes the event. Local delivery happens when the subscription echoes it back.
func (r *RedisRelay) Emit(event string, payload any, rooms ...string) error {
	msg, err := encodeRelayMessage(event, payload, rooms)
	if err != nil {
		return err
	}
	if err := r.rdb.Publish(context.Background(), r.channel, msg).Err(); err != nil {
		return fmt.Errorf("failed to publish %s: %w", event, err)
	}
	return nil
}

// Run delivers subscribed messages to the hub until ctx is cancelled.
func (r *RedisRelay) Run(ctx context.Context) error {
	sub := r.rdb.Subscribe(ctx, r.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", r.channel, err)
	}
	r.logger.Info("realtime relay subscribed", zap.String("channel", r.channel))

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case m, ok := <-ch:
			if !ok {
				return nil
			}
			msg, err := decodeRelayMessage([]byte(m.Payload))
			if err != nil {
				r.logger.Warn("ignoring malformed relay message", zap.Error(err))
				continue
			}
			r.hub.deliver(msg.Event, msg.Data, msg.Rooms)
		}
	}
}

func encodeRelayMessage(event string, payload any, rooms []string) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s payload: %w", event, err)
	}
	return json.Marshal(relayMessage{Event: event, Rooms: rooms, Data: data})
}

func decodeRelayMessage(b []byte) (relayMessage, error) {
	var msg relayMessage
	if err := json.Unmarshal(b, &msg); err != nil {
		return msg, err
	}
	if msg.Event == "" || len(msg.Rooms) == 0 {
		return msg, fmt.Errorf("relay message without event or rooms")
	}
	return msg, nil
}

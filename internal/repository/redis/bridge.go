package redis

import (
	"context"
	"encoding/json"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"equiprent-backend/internal/logger"
)

// Deliverer is the local fan-out target of a bridge, normally a websocket hub.
type Deliverer interface {
	PushToUser(userID int32, event string, data any)
	PushToUsers(userIDs []int32, event string, data any)
	PushToRoom(room string, event string, data any)
	Broadcast(event string, data any)
}

type envelope struct {
	Users []int32         `json:"users,omitempty"`
	Room  string          `json:"room,omitempty"`
	All   bool            `json:"all,omitempty"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Bridge publishes pushes on a Redis channel so every instance's hub delivers
// them. It satisfies Deliverer itself. When publishing fails the push is
// delivered locally only.
type Bridge struct {
	client  *goredis.Client
	channel string
	local   Deliverer
}

func NewBridge(client *goredis.Client, channel string, local Deliverer) *Bridge {
	return &Bridge{client: client, channel: channel, local: local}
}

func (b *Bridge) PushToUser(userID int32, event string, data any) {
	b.publish(envelope{Users: []int32{userID}, Event: event}, data, func() { b.local.PushToUser(userID, event, data) })
}

func (b *Bridge) PushToUsers(userIDs []int32, event string, data any) {
	if len(userIDs) == 0 {
		return
	}
	b.publish(envelope{Users: userIDs, Event: event}, data, func() { b.local.PushToUsers(userIDs, event, data) })
}

func (b *Bridge) PushToRoom(room string, event string, data any) {
	b.publish(envelope{Room: room, Event: event}, data, func() { b.local.PushToRoom(room, event, data) })
}

func (b *Bridge) Broadcast(event string, data any) {
	b.publish(envelope{All: true, Event: event}, data, func() { b.local.Broadcast(event, data) })
}

func (b *Bridge) publish(env envelope, data any, fallback func()) {
	raw, err := json.Marshal(data)
	if err != nil {
		logger.Warn("Failed to encode realtime payload", "channel", b.channel, "event", env.Event, "error", err)
		return
	}
	env.Data = raw
	payload, err := json.Marshal(env)
	if err != nil {
		fallback()
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := b.client.Publish(ctx, b.channel, payload).Err(); err != nil {
		logger.Warn("Realtime publish failed, delivering locally", "channel", b.channel, "event", env.Event, "error", err)
		fallback()
	}
}

// Run delivers messages from the channel to the local hub until ctx is done.
func (b *Bridge) Run(ctx context.Context) error {
	sub := b.client.Subscribe(ctx, b.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return err
	}
	logger.Info("Realtime bridge subscribed", "channel", b.channel)

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			b.deliver(msg.Payload)
		}
	}
}

func (b *Bridge) deliver(payload string) {
	var env envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		logger.Warn("Dropping malformed realtime message", "channel", b.channel, "error", err)
		return
	}
	switch {
	case env.All:
		b.local.Broadcast(env.Event, env.Data)
	case env.Room != "":
		b.local.PushToRoom(env.Room, env.Event, env.Data)
	case len(env.Users) == 1:
		b.local.PushToUser(env.Users[0], env.Event, env.Data)
	default:
		b.local.PushToUsers(env.Users, env.Event, env.Data)
	}
}

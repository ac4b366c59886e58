// Package feed streams organization activity over Redis pub/sub to WebSocket clients.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	channelPrefix  = "org:"
	publishTimeout = 5 * time.Second
)

// Activity names published on an organization channel.
const (
	EventEventCreated = "event.created"
	EventMemberJoined = "member.joined"
	EventMemberLeft   = "member.left"
)

// Message is the JSON envelope published to Redis and relayed to clients.
type Message struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
	At    int64           `json:"at"`
}

// Channel returns the Redis channel of an organization.
func Channel(orgID uuid.UUID) string {
	return channelPrefix + orgID.String()
}

// RedisPubSub publishes and subscribes to organization channels.
type RedisPubSub struct {
	client redis.UniversalClient
	logger *zap.Logger
	now    func() time.Time
}

// NewRedisPubSub creates a Redis pub/sub bridge for organization activity.
func NewRedisPubSub(client redis.UniversalClient, logger *zap.Logger) *RedisPubSub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisPubSub{client: client, logger: logger, now: time.Now}
}

// Publish sends event with data to the organization's channel.
func (r *RedisPubSub) Publish(ctx context.Context, orgID uuid.UUID, event string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", event, err)
	}
	body, err := json.Marshal(Message{Event: event, Data: payload, At: r.now().Unix()})
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if err := r.client.Publish(ctx, Channel(orgID), body).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", event, err)
	}
	r.logger.Debug("feed event published", zap.String("org_id", orgID.String()), zap.String("event", event))
	return nil
}

// Subscribe delivers every message of the organization's channel to handler until
// ctx is done or the returned cancel function is called.
func (r *RedisPubSub) Subscribe(ctx context.Context, orgID uuid.UUID, handler func(Message)) (cancel func(), err error) {
	ctx, cancelCtx := context.WithCancel(ctx)
	pubsub := r.client.Subscribe(ctx, Channel(orgID))
	if _, err := pubsub.Receive(ctx); err != nil {
		cancelCtx()
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe: %w", err)
	}
	ch := pubsub.Channel()
	go func() {
		defer pubsub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var m Message
				if err := json.Unmarshal([]byte(msg.Payload), &m); err != nil {
					r.logger.Warn("dropping malformed feed message", zap.String("channel", msg.Channel), zap.Error(err))
					continue
				}
				handler(m)
			}
		}
	}()
	return cancelCtx, nil
}

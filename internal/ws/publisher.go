package ws

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Publisher pushes a job event toward connected clients.
type Publisher interface {
	PublishJobEvent(ctx context.Context, ev JobEvent) error
}

// RedisPublisher publishes events on the shared Redis channel so every API
// instance sees them regardless of which process produced them.
type RedisPublisher struct {
	rdb *redis.Client
}

func NewRedisPublisher(rdb *redis.Client) *RedisPublisher {
	return &RedisPublisher{rdb: rdb}
}

func (p *RedisPublisher) PublishJobEvent(ctx context.Context, ev JobEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal job event: %w", err)
	}
	return p.rdb.Publish(ctx, RedisChannel, payload).Err()
}

// HubPublisher delivers events straight into the local hub. Used when no
// Redis is configured, at the cost of cross-process fan-out.
type HubPublisher struct {
	hub *Hub
}

func NewHubPublisher(hub *Hub) *HubPublisher {
	return &HubPublisher{hub: hub}
}

func (p *HubPublisher) PublishJobEvent(_ context.Context, ev JobEvent) error {
	p.hub.Broadcast(ev)
	return nil
}

// RedisSubscriber rebroadcasts events from the shared channel into the
// local hub.
type RedisSubscriber struct {
	rdb    *redis.Client
	hub    *Hub
	logger zerolog.Logger
}

func NewRedisSubscriber(rdb *redis.Client, hub *Hub, logger zerolog.Logger) *RedisSubscriber {
	return &RedisSubscriber{rdb: rdb, hub: hub, logger: logger}
}

func (s *RedisSubscriber) Run(ctx context.Context) {
	sub := s.rdb.Subscribe(ctx, RedisChannel)
	defer func() {
		_ = sub.Close()
	}()
	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var ev JobEvent
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				s.logger.Warn().Err(err).Msg("malformed job event on redis channel")
				continue
			}
			s.hub.Broadcast(ev)
		}
	}
}

var (
	_ Publisher = (*RedisPublisher)(nil)
	_ Publisher = (*HubPublisher)(nil)
)

package push

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisBroker publishes and subscribes to availability events over redis
// pub/sub. Every API replica publishes to the same channel space, so any
// replica can serve any client's stream.
type RedisBroker struct {
	client *redis.Client
	prefix string
	logger *zap.Logger
}

// NewRedisBroker constructs a broker around an established redis client.
func NewRedisBroker(client *redis.Client, prefix string, logger *zap.Logger) *RedisBroker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisBroker{client: client, prefix: prefix, logger: logger}
}

func (b *RedisBroker) channel(weekID string) string {
	return fmt.Sprintf("%s:%s", b.prefix, weekID)
}

// Publish implements Publisher.
func (b *RedisBroker) Publish(ctx context.Context, event Event) error {
	payload, err := event.Encode()
	if err != nil {
		return err
	}
	if err := b.client.Publish(ctx, b.channel(event.WeekID), payload).Err(); err != nil {
		return fmt.Errorf("push: publish %s: %w", event.Kind, err)
	}
	return nil
}

// Subscribe opens a Subscription for one week. The returned subscription is
// closed by cancelling ctx or calling Close.
func (b *RedisBroker) Subscribe(ctx context.Context, weekID string) (Subscription, error) {
	pubsub := b.client.Subscribe(ctx, b.channel(weekID))
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("push: subscribe week %s: %w", weekID, err)
	}

	sub := &redisSubscription{
		pubsub: pubsub,
		events: make(chan Event, 16),
	}
	go sub.pump(ctx, b.logger)
	return sub, nil
}

type redisSubscription struct {
	pubsub *redis.PubSub
	events chan Event
}

func (s *redisSubscription) Events() <-chan Event { return s.events }

func (s *redisSubscription) Close() error {
	return s.pubsub.Close()
}

func (s *redisSubscription) pump(ctx context.Context, logger *zap.Logger) {
	defer close(s.events)
	ch := s.pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			event, err := Decode([]byte(msg.Payload))
			if err != nil {
				logger.Warn("dropping malformed push event", zap.Error(err))
				continue
			}
			select {
			case s.events <- event:
			case <-ctx.Done():
				return
			}
		}
	}
}

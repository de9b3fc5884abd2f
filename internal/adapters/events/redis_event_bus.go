package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/zatekoja/articleforge/internal/domain/entities"
	"github.com/zatekoja/articleforge/internal/domain/providers"
	redisclient "github.com/zatekoja/articleforge/internal/infrastructure/clients/redis"
	"github.com/zatekoja/articleforge/internal/infrastructure/observability"
)

// DefaultChannel carries every run event; per-slug channels hang off it
const DefaultChannel = "articleforge:runs"

// RedisRunEventBus implements providers.RunEventBus using Redis Pub/Sub
type RedisRunEventBus struct {
	client        *redisclient.Client
	prefix        string
	subscriptions map[string]*redis.PubSub
	subscribers   map[string]map[chan entities.RunEvent]struct{}
	mu            sync.RWMutex
	ctx           context.Context
	cancel        context.CancelFunc
}

// NewRedisRunEventBus creates a new Redis-based run event bus
func NewRedisRunEventBus(client *redisclient.Client, prefix string) *RedisRunEventBus {
	if prefix == "" {
		prefix = DefaultChannel
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &RedisRunEventBus{
		client:        client,
		prefix:        prefix,
		subscriptions: make(map[string]*redis.PubSub),
		subscribers:   make(map[string]map[chan entities.RunEvent]struct{}),
		ctx:           ctx,
		cancel:        cancel,
	}
}

var _ providers.RunEventBus = (*RedisRunEventBus)(nil)

// Publish sends event to the all-runs channel and to the slug channel
func (b *RedisRunEventBus) Publish(ctx context.Context, event entities.RunEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal run event: %w", err)
	}

	pipe := b.client.Client().Pipeline()
	pipe.Publish(ctx, b.prefix, data)
	pipe.Publish(ctx, providers.RunChannel(b.prefix, event.Slug), data)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to publish run event: %w", err)
	}

	observability.LoggerFromContext(ctx).Debug().
		Str("slug", event.Slug).
		Str("stage", string(event.Stage)).
		Str("status", string(event.Status)).
		Msg("published run event")
	return nil
}

// Subscribe streams events for slug, or for every run when slug is empty
func (b *RedisRunEventBus) Subscribe(ctx context.Context, slug string) (<-chan entities.RunEvent, error) {
	channel := providers.RunChannel(b.prefix, slug)
	b.mu.Lock()

	if _, exists := b.subscriptions[channel]; !exists {
		pubsub := b.client.Client().Subscribe(b.ctx, channel)
		b.subscriptions[channel] = pubsub
		go b.receiveMessages(channel, pubsub.Channel())
	}

	if b.subscribers[channel] == nil {
		b.subscribers[channel] = make(map[chan entities.RunEvent]struct{})
	}

	eventChan := make(chan entities.RunEvent, 100)
	b.subscribers[channel][eventChan] = struct{}{}
	subscriberCount := len(b.subscribers[channel])
	b.mu.Unlock()

	observability.GetLogger().Debug().Str("channel", channel).Int("subscribers", subscriberCount).Msg("subscribed to run events")

	go func() {
		<-ctx.Done()
		b.removeSubscriber(channel, eventChan)
	}()

	return eventChan, nil
}

// receiveMessages fans Redis messages out to local subscribers
func (b *RedisRunEventBus) receiveMessages(channel string, ch <-chan *redis.Message) {
	defer func() {
		if err := b.cleanupChannel(channel); err != nil {
			observability.GetLogger().Warn().Err(err).Str("channel", channel).Msg("failed to clean up channel")
		}
	}()

	for {
		select {
		case <-b.ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			b.dispatch(channel, msg.Payload)
		}
	}
}

func (b *RedisRunEventBus) dispatch(channel, payload string) {
	var event entities.RunEvent
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		observability.GetLogger().Warn().Err(err).Str("channel", channel).Msg("dropping malformed run event")
		return
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for subscriber := range b.subscribers[channel] {
		select {
		case subscriber <- event:
		default:
			observability.GetLogger().Warn().
				Str("channel", channel).
				Str("slug", event.Slug).
				Msg("subscriber channel full, skipping run event")
		}
	}
}

func (b *RedisRunEventBus) removeSubscriber(channel string, eventChan chan entities.RunEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subscribers, exists := b.subscribers[channel]
	if !exists {
		return
	}
	if _, ok := subscribers[eventChan]; !ok {
		return
	}

	delete(subscribers, eventChan)
	close(eventChan)

	if len(subscribers) == 0 {
		delete(b.subscribers, channel)
		if pubsub, ok := b.subscriptions[channel]; ok {
			_ = pubsub.Close()
			delete(b.subscriptions, channel)
		}
	}
}

func (b *RedisRunEventBus) cleanupChannel(channel string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if subscribers, exists := b.subscribers[channel]; exists {
		for subscriber := range subscribers {
			close(subscriber)
		}
		delete(b.subscribers, channel)
	}

	if pubsub, ok := b.subscriptions[channel]; ok {
		delete(b.subscriptions, channel)
		if err := pubsub.Close(); err != nil {
			return fmt.Errorf("failed to close subscription %s: %w", channel, err)
		}
	}
	return nil
}

// Close closes the event bus and all subscriptions
func (b *RedisRunEventBus) Close() error {
	b.cancel()

	b.mu.RLock()
	channels := make([]string, 0, len(b.subscriptions))
	for channel := range b.subscriptions {
		channels = append(channels, channel)
	}
	b.mu.RUnlock()

	var errs []error
	for _, channel := range channels {
		if err := b.cleanupChannel(channel); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Package redis implements the change-notification port over redis
// pub/sub, one channel per poll. Redis guarantees per-channel ordering,
// which gives subscribers per-poll event ordering.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/pollingx/api/internal/core/domain"
	"github.com/pollingx/api/internal/core/ports"
	"github.com/redis/go-redis/v9"
)

type Notifier struct {
	client *redis.Client
	logger *slog.Logger

	mu   sync.Mutex
	subs map[string]*redis.PubSub
}

func NewNotifier(client *redis.Client, logger *slog.Logger) *Notifier {
	return &Notifier{
		client: client,
		logger: logger,
		subs:   make(map[string]*redis.PubSub),
	}
}

var _ ports.Notifier = (*Notifier)(nil)

func channelFor(pollID uuid.UUID) string {
	return "poll:" + pollID.String()
}

func (n *Notifier) Publish(ctx context.Context, pollID uuid.UUID, event domain.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := n.client.Publish(ctx, channelFor(pollID), payload).Err(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", channelFor(pollID), err)
	}
	return nil
}

func (n *Notifier) Subscribe(ctx context.Context, pollID uuid.UUID, handler ports.EventHandler) (string, error) {
	pubsub := n.client.Subscribe(ctx, channelFor(pollID))

	// Force the subscription to be established before returning so no
	// event published after Subscribe is missed.
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return "", fmt.Errorf("failed to subscribe to %s: %w", channelFor(pollID), err)
	}

	token := uuid.NewString()
	n.mu.Lock()
	n.subs[token] = pubsub
	n.mu.Unlock()

	go func() {
		for msg := range pubsub.Channel() {
			var event domain.Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				n.logger.Warn("dropping malformed poll event", "channel", msg.Channel, "error", err)
				continue
			}
			handler(event)
		}
	}()

	return token, nil
}

func (n *Notifier) Unsubscribe(token string) error {
	n.mu.Lock()
	pubsub, ok := n.subs[token]
	delete(n.subs, token)
	n.mu.Unlock()

	if !ok {
		return fmt.Errorf("unknown subscription token %q", token)
	}
	// Closing the pubsub closes its channel and ends the reader goroutine.
	return pubsub.Close()
}

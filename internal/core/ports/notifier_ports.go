package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/pollingx/api/internal/core/domain"
)

// EventHandler receives events for a subscribed poll. Handlers for a
// given poll are invoked in publish order, at least once per mutation.
type EventHandler func(event domain.Event)

// Notifier is the change-notification boundary. The core only publishes;
// subscription management belongs to the transport adapter. Unsubscribing
// one token must not affect other subscribers of the same poll.
type Notifier interface {
	Publish(ctx context.Context, pollID uuid.UUID, event domain.Event) error
	Subscribe(ctx context.Context, pollID uuid.UUID, handler EventHandler) (token string, err error)
	Unsubscribe(token string) error
}

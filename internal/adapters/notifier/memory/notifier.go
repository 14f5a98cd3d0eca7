// Package memory implements the change-notification port with in-process
// fan-out. It serves single-node deployments and the unit tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/pollingx/api/internal/core/domain"
	"github.com/pollingx/api/internal/core/ports"
)

type Notifier struct {
	mu       sync.RWMutex
	handlers map[uuid.UUID]map[string]ports.EventHandler
	tokens   map[string]uuid.UUID
}

func NewNotifier() *Notifier {
	return &Notifier{
		handlers: make(map[uuid.UUID]map[string]ports.EventHandler),
		tokens:   make(map[string]uuid.UUID),
	}
}

var _ ports.Notifier = (*Notifier)(nil)

// Publish delivers the event to every subscriber of the poll before
// returning, so each handler observes events for a given poll in
// publish order.
func (n *Notifier) Publish(ctx context.Context, pollID uuid.UUID, event domain.Event) error {
	n.mu.RLock()
	handlers := make([]ports.EventHandler, 0, len(n.handlers[pollID]))
	for _, h := range n.handlers[pollID] {
		handlers = append(handlers, h)
	}
	n.mu.RUnlock()

	for _, h := range handlers {
		h(event)
	}
	return nil
}

func (n *Notifier) Subscribe(ctx context.Context, pollID uuid.UUID, handler ports.EventHandler) (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	token := uuid.NewString()
	if n.handlers[pollID] == nil {
		n.handlers[pollID] = make(map[string]ports.EventHandler)
	}
	n.handlers[pollID][token] = handler
	n.tokens[token] = pollID
	return token, nil
}

func (n *Notifier) Unsubscribe(token string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	pollID, ok := n.tokens[token]
	if !ok {
		return fmt.Errorf("unknown subscription token %q", token)
	}
	delete(n.tokens, token)
	delete(n.handlers[pollID], token)
	if len(n.handlers[pollID]) == 0 {
		delete(n.handlers, pollID)
	}
	return nil
}

package memory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pollingx/api/internal/core/domain"
)

func TestPublishReachesAllSubscribers(t *testing.T) {
	n := NewNotifier()
	ctx := context.Background()
	pollID := uuid.New()

	var first, second []domain.Event
	_, err := n.Subscribe(ctx, pollID, func(e domain.Event) { first = append(first, e) })
	require.NoError(t, err)
	_, err = n.Subscribe(ctx, pollID, func(e domain.Event) { second = append(second, e) })
	require.NoError(t, err)

	require.NoError(t, n.Publish(ctx, pollID, domain.Event{Kind: domain.EventResultsUpdated, PollID: pollID}))

	assert.Len(t, first, 1)
	assert.Len(t, second, 1)
}

func TestPublishIsScopedPerPoll(t *testing.T) {
	n := NewNotifier()
	ctx := context.Background()
	pollA, pollB := uuid.New(), uuid.New()

	var received []domain.Event
	_, err := n.Subscribe(ctx, pollA, func(e domain.Event) { received = append(received, e) })
	require.NoError(t, err)

	require.NoError(t, n.Publish(ctx, pollB, domain.Event{Kind: domain.EventPollUpdated, PollID: pollB}))

	assert.Empty(t, received)
}

func TestEventsArriveInPublishOrder(t *testing.T) {
	n := NewNotifier()
	ctx := context.Background()
	pollID := uuid.New()

	var kinds []domain.EventKind
	_, err := n.Subscribe(ctx, pollID, func(e domain.Event) { kinds = append(kinds, e.Kind) })
	require.NoError(t, err)

	require.NoError(t, n.Publish(ctx, pollID, domain.Event{Kind: domain.EventPollUpdated}))
	require.NoError(t, n.Publish(ctx, pollID, domain.Event{Kind: domain.EventResultsUpdated}))
	require.NoError(t, n.Publish(ctx, pollID, domain.Event{Kind: domain.EventPollDeleted}))

	assert.Equal(t, []domain.EventKind{
		domain.EventPollUpdated,
		domain.EventResultsUpdated,
		domain.EventPollDeleted,
	}, kinds)
}

func TestUnsubscribeLeavesOthersIntact(t *testing.T) {
	n := NewNotifier()
	ctx := context.Background()
	pollID := uuid.New()

	var first, second int
	token, err := n.Subscribe(ctx, pollID, func(domain.Event) { first++ })
	require.NoError(t, err)
	_, err = n.Subscribe(ctx, pollID, func(domain.Event) { second++ })
	require.NoError(t, err)

	require.NoError(t, n.Unsubscribe(token))
	require.NoError(t, n.Publish(ctx, pollID, domain.Event{Kind: domain.EventResultsUpdated}))

	assert.Equal(t, 0, first)
	assert.Equal(t, 1, second)
}

func TestUnsubscribeUnknownToken(t *testing.T) {
	n := NewNotifier()

	assert.Error(t, n.Unsubscribe("no-such-token"))
}

package services_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	notifiermem "github.com/pollingx/api/internal/adapters/notifier/memory"
	"github.com/pollingx/api/internal/adapters/repository/memory"
	"github.com/pollingx/api/internal/core/domain"
	"github.com/pollingx/api/internal/core/ports"
	"github.com/pollingx/api/internal/core/services"
)

type testEnv struct {
	store    *memory.Store
	notifier *notifiermem.Notifier
	polls    ports.PollService
	votes    ports.VoteService
	results  ports.ResultService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := memory.NewStore()
	notifier := notifiermem.NewNotifier()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	timeout := 5 * time.Second

	results := services.NewResultService(store, store, store, timeout)
	polls := services.NewPollService(store, store, store, results, notifier, logger, timeout)
	votes := services.NewVoteService(polls, store, results, notifier, logger, timeout)

	return &testEnv{
		store:    store,
		notifier: notifier,
		polls:    polls,
		votes:    votes,
		results:  results,
	}
}

func (e *testEnv) createPoll(t *testing.T, ownerID uuid.UUID, input ports.CreatePollInput) *domain.Poll {
	t.Helper()

	poll, err := e.polls.Create(context.Background(), ownerID, input)
	require.NoError(t, err)
	return poll
}

func publicPollInput(options ...string) ports.CreatePollInput {
	if len(options) == 0 {
		options = []string{"Pizza", "Sushi"}
	}
	return ports.CreatePollInput{
		Title:    "Lunch?",
		Options:  options,
		IsPublic: true,
	}
}

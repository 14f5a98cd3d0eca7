package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pollingx/api/internal/core/domain"
	"github.com/pollingx/api/internal/core/ports"
)

func TestCastVote_Success(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userA, userB := uuid.New(), uuid.New()

	poll := env.createPoll(t, userA, publicPollInput("Pizza", "Sushi"))

	vote, err := env.votes.CastVote(ctx, domain.Identity{ID: userB}, ports.CastVoteInput{PollID: poll.ID, OptionIndex: 0})
	require.NoError(t, err)

	assert.Equal(t, poll.ID, vote.PollID)
	assert.Equal(t, userB, vote.VoterID)
	assert.Equal(t, 0, vote.OptionIndex)
	assert.False(t, vote.VotedAt.IsZero())

	results, err := env.results.ComputeResults(ctx, poll.ID)
	require.NoError(t, err)
	assert.Equal(t, []domain.OptionResult{
		{OptionIndex: 0, VoteCount: 1, Percentage: 100},
		{OptionIndex: 1, VoteCount: 0, Percentage: 0},
	}, results)
}

func TestCastVote_UnknownPoll(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.votes.CastVote(context.Background(), domain.Identity{ID: uuid.New()}, ports.CastVoteInput{PollID: uuid.New(), OptionIndex: 0})
	assert.ErrorIs(t, err, domain.ErrPollNotFound)
}

func TestCastVote_OptionIndexOutOfRange(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	voter := domain.Identity{ID: uuid.New()}

	poll := env.createPoll(t, uuid.New(), publicPollInput("Pizza", "Sushi"))

	for _, index := range []int{-1, 2, 100} {
		_, err := env.votes.CastVote(ctx, voter, ports.CastVoteInput{PollID: poll.ID, OptionIndex: index})
		var ve *domain.ValidationError
		require.ErrorAs(t, err, &ve, "index %d", index)
	}

	// No vote was persisted by the failed casts.
	voted, err := env.store.HasVoted(ctx, poll.ID, voter.ID)
	require.NoError(t, err)
	assert.False(t, voted)
}

func TestCastVote_InactivePoll(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := uuid.New()

	poll := env.createPoll(t, owner, publicPollInput())

	inactive := false
	_, err := env.polls.Update(ctx, owner, poll.ID, ports.UpdatePollInput{IsActive: &inactive})
	require.NoError(t, err)

	_, err = env.votes.CastVote(ctx, domain.Identity{ID: uuid.New()}, ports.CastVoteInput{PollID: poll.ID, OptionIndex: 0})
	assert.ErrorIs(t, err, domain.ErrPollClosed)
}

func TestCastVote_ExpiredPollRegardlessOfActive(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := uuid.New()

	poll := env.createPoll(t, owner, publicPollInput())
	require.True(t, poll.IsActive)

	past := time.Now().Add(-time.Minute)
	poll.ExpiresAt = &past
	require.NoError(t, env.store.Update(ctx, poll, false))

	_, err := env.votes.CastVote(ctx, domain.Identity{ID: uuid.New()}, ports.CastVoteInput{PollID: poll.ID, OptionIndex: 0})
	assert.ErrorIs(t, err, domain.ErrPollClosed)
}

func TestCastVote_SingleVotePerVoter(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	voter := domain.Identity{ID: uuid.New()}

	poll := env.createPoll(t, uuid.New(), publicPollInput())

	_, err := env.votes.CastVote(ctx, voter, ports.CastVoteInput{PollID: poll.ID, OptionIndex: 0})
	require.NoError(t, err)

	_, err = env.votes.CastVote(ctx, voter, ports.CastVoteInput{PollID: poll.ID, OptionIndex: 1})
	assert.ErrorIs(t, err, domain.ErrAlreadyVoted)

	results, err := env.results.ComputeResults(ctx, poll.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), results[0].VoteCount)
	assert.Equal(t, int64(0), results[1].VoteCount)
}

func TestCastVote_MultipleVotesAllowed(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	voter := domain.Identity{ID: uuid.New()}

	input := publicPollInput()
	input.AllowMultipleVotes = true
	poll := env.createPoll(t, uuid.New(), input)

	for i := 0; i < 3; i++ {
		_, err := env.votes.CastVote(ctx, voter, ports.CastVoteInput{PollID: poll.ID, OptionIndex: i % 2})
		require.NoError(t, err)
	}

	total, err := env.results.TotalVotes(ctx, poll.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
}

func TestCastVote_MaxVotesPerUserCap(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	voter := domain.Identity{ID: uuid.New()}

	input := publicPollInput()
	input.AllowMultipleVotes = true
	input.Settings = map[string]any{"max_votes_per_user": 2}
	poll := env.createPoll(t, uuid.New(), input)

	for i := 0; i < 2; i++ {
		_, err := env.votes.CastVote(ctx, voter, ports.CastVoteInput{PollID: poll.ID, OptionIndex: 0})
		require.NoError(t, err)
	}

	_, err := env.votes.CastVote(ctx, voter, ports.CastVoteInput{PollID: poll.ID, OptionIndex: 1})
	assert.ErrorIs(t, err, domain.ErrAlreadyVoted)

	// Other voters are unaffected by one voter hitting their cap.
	_, err = env.votes.CastVote(ctx, domain.Identity{ID: uuid.New()}, ports.CastVoteInput{PollID: poll.ID, OptionIndex: 1})
	require.NoError(t, err)
}

func TestCastVote_ConcurrentDuplicatesSingleWinner(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	voter := domain.Identity{ID: uuid.New()}

	poll := env.createPoll(t, uuid.New(), publicPollInput())

	const attempts = 8
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.votes.CastVote(ctx, voter, ports.CastVoteInput{PollID: poll.ID, OptionIndex: 0})
		}(i)
	}
	wg.Wait()

	var succeeded, duplicates int
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case assert.ErrorIs(t, err, domain.ErrAlreadyVoted):
			duplicates++
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, attempts-1, duplicates)

	total, err := env.results.TotalVotes(ctx, poll.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

func TestCastVote_PrivatePollOnlyOwner(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := uuid.New()

	input := publicPollInput()
	input.IsPublic = false
	poll := env.createPoll(t, owner, input)

	_, err := env.votes.CastVote(ctx, domain.Identity{ID: uuid.New()}, ports.CastVoteInput{PollID: poll.ID, OptionIndex: 0})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = env.votes.CastVote(ctx, domain.Identity{ID: owner}, ports.CastVoteInput{PollID: poll.ID, OptionIndex: 0})
	assert.NoError(t, err)
}

func TestCastVote_PublishesResultsUpdate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	poll := env.createPoll(t, uuid.New(), publicPollInput())

	events := make(chan domain.Event, 1)
	_, err := env.notifier.Subscribe(ctx, poll.ID, func(e domain.Event) { events <- e })
	require.NoError(t, err)

	_, err = env.votes.CastVote(ctx, domain.Identity{ID: uuid.New()}, ports.CastVoteInput{PollID: poll.ID, OptionIndex: 1})
	require.NoError(t, err)

	select {
	case event := <-events:
		assert.Equal(t, domain.EventResultsUpdated, event.Kind)
		assert.Equal(t, poll.ID, event.PollID)
		assert.Equal(t, int64(1), event.TotalVotes)
		require.Len(t, event.Results, 2)
		assert.Equal(t, int64(1), event.Results[1].VoteCount)
	case <-time.After(time.Second):
		t.Fatal("expected a results_updated event")
	}
}

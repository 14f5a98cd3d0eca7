package services_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pollingx/api/internal/core/domain"
	"github.com/pollingx/api/internal/core/ports"
)

func castVotes(t *testing.T, env *testEnv, pollID uuid.UUID, perOption []int) int64 {
	t.Helper()

	var total int64
	for option, n := range perOption {
		for i := 0; i < n; i++ {
			_, err := env.votes.CastVote(context.Background(), domain.Identity{ID: uuid.New()}, ports.CastVoteInput{
				PollID:      pollID,
				OptionIndex: option,
			})
			require.NoError(t, err)
			total++
		}
	}
	return total
}

func TestComputeResults_NoVotes(t *testing.T) {
	env := newTestEnv(t)

	poll := env.createPoll(t, uuid.New(), publicPollInput("a", "b", "c"))

	results, err := env.results.ComputeResults(context.Background(), poll.ID)
	require.NoError(t, err)

	require.Len(t, results, 3)
	for i, row := range results {
		assert.Equal(t, i, row.OptionIndex)
		assert.Equal(t, int64(0), row.VoteCount)
		assert.Equal(t, 0, row.Percentage)
	}
}

func TestComputeResults_CountsSumToTotal(t *testing.T) {
	env := newTestEnv(t)

	poll := env.createPoll(t, uuid.New(), publicPollInput("a", "b", "c"))
	total := castVotes(t, env, poll.ID, []int{5, 1, 1})

	results, err := env.results.ComputeResults(context.Background(), poll.ID)
	require.NoError(t, err)

	var sum int64
	for _, row := range results {
		sum += row.VoteCount
		assert.GreaterOrEqual(t, row.Percentage, 0)
		assert.LessOrEqual(t, row.Percentage, 100)
	}
	assert.Equal(t, total, sum)

	// 5/7, 1/7, 1/7 round to 71, 14, 14.
	assert.Equal(t, 71, results[0].Percentage)
	assert.Equal(t, 14, results[1].Percentage)
	assert.Equal(t, 14, results[2].Percentage)
}

func TestComputeResults_TiesRoundHalfUp(t *testing.T) {
	env := newTestEnv(t)

	input := publicPollInput("a", "b", "c", "d", "e", "f", "g", "h")
	poll := env.createPoll(t, uuid.New(), input)
	castVotes(t, env, poll.ID, []int{1, 7})

	results, err := env.results.ComputeResults(context.Background(), poll.ID)
	require.NoError(t, err)

	// 1/8 = 12.5% rounds up to 13; rows round independently, so the
	// percentages sum to 101 here. That is intended behavior.
	assert.Equal(t, 13, results[0].Percentage)
	assert.Equal(t, 88, results[1].Percentage)
}

func TestComputeResults_UnknownPoll(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.results.ComputeResults(context.Background(), uuid.New())
	assert.ErrorIs(t, err, domain.ErrPollNotFound)
}

func TestHasVoted(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	voter := domain.Identity{ID: uuid.New()}

	poll := env.createPoll(t, uuid.New(), publicPollInput())

	voted, err := env.results.HasVoted(ctx, poll.ID, voter.ID)
	require.NoError(t, err)
	assert.False(t, voted)

	_, err = env.votes.CastVote(ctx, voter, ports.CastVoteInput{PollID: poll.ID, OptionIndex: 1})
	require.NoError(t, err)

	voted, err = env.results.HasVoted(ctx, poll.ID, voter.ID)
	require.NoError(t, err)
	assert.True(t, voted)
}

func TestVoterChoice(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	voter := domain.Identity{ID: uuid.New()}

	poll := env.createPoll(t, uuid.New(), publicPollInput())

	_, ok, err := env.results.VoterChoice(ctx, poll.ID, voter.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = env.votes.CastVote(ctx, voter, ports.CastVoteInput{PollID: poll.ID, OptionIndex: 1})
	require.NoError(t, err)

	choice, ok, err := env.results.VoterChoice(ctx, poll.ID, voter.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, choice)
}

func TestAnalytics(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	voter := domain.Identity{ID: uuid.New()}

	input := publicPollInput()
	input.AllowMultipleVotes = true
	poll := env.createPoll(t, uuid.New(), input)

	// One voter, two votes, three views.
	for i := 0; i < 2; i++ {
		_, err := env.votes.CastVote(ctx, voter, ports.CastVoteInput{PollID: poll.ID, OptionIndex: i})
		require.NoError(t, err)
	}
	for i := 0; i < 3; i++ {
		require.NoError(t, env.polls.RecordView(ctx, &domain.PollView{PollID: poll.ID}))
	}

	analytics, err := env.results.Analytics(ctx, poll.ID)
	require.NoError(t, err)

	assert.Equal(t, int64(3), analytics.TotalViews)
	assert.Equal(t, int64(2), analytics.TotalVotes)
	assert.Equal(t, int64(1), analytics.UniqueVoters)
	require.Len(t, analytics.VoteDistribution, 2)
	assert.Equal(t, int64(1), analytics.VoteDistribution[0].VoteCount)
}

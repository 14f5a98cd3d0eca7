package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/pollingx/api/internal/core/domain"
)

type VoteRepository interface {
	// SaveVote persists the vote. When the poll disallows multiple votes
	// the store enforces at most one vote per (poll, voter) and returns
	// domain.ErrAlreadyVoted on violation, so concurrent casts from the
	// same voter cannot both succeed.
	SaveVote(ctx context.Context, vote *domain.Vote, singleVote bool) error
	CountByOption(ctx context.Context, pollID uuid.UUID) (map[int]int64, error)
	HasVoted(ctx context.Context, pollID, voterID uuid.UUID) (bool, error)
	// VoterChoice returns the option index of the voter's first vote on
	// the poll, or ok=false if they have not voted.
	VoterChoice(ctx context.Context, pollID, voterID uuid.UUID) (int, bool, error)
	CountByVoter(ctx context.Context, pollID, voterID uuid.UUID) (int64, error)
	HasAnyVote(ctx context.Context, pollID uuid.UUID) (bool, error)
	CountDistinctVoters(ctx context.Context, pollID uuid.UUID) (int64, error)
}

type CastVoteInput struct {
	PollID      uuid.UUID
	OptionIndex int
}

type VoteService interface {
	CastVote(ctx context.Context, voter domain.Identity, input CastVoteInput) (*domain.Vote, error)
}

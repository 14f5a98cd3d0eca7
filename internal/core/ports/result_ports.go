package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/pollingx/api/internal/core/domain"
)

type ViewRepository interface {
	SaveView(ctx context.Context, view *domain.PollView) error
	CountViewsForPoll(ctx context.Context, pollID uuid.UUID) (int64, error)
}

type ResultService interface {
	// ComputeResults returns one row per option in the poll's option
	// order, reflecting all votes persisted at call time.
	ComputeResults(ctx context.Context, pollID uuid.UUID) ([]domain.OptionResult, error)
	TotalVotes(ctx context.Context, pollID uuid.UUID) (int64, error)
	HasVoted(ctx context.Context, pollID, voterID uuid.UUID) (bool, error)
	VoterChoice(ctx context.Context, pollID, voterID uuid.UUID) (int, bool, error)
	Analytics(ctx context.Context, pollID uuid.UUID) (*domain.PollAnalytics, error)
}

package services

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/pollingx/api/internal/core/domain"
	"github.com/pollingx/api/internal/core/ports"
)

type resultService struct {
	pollRepo  ports.PollRepository
	voteRepo  ports.VoteRepository
	viewRepo  ports.ViewRepository
	opTimeout time.Duration
}

func NewResultService(
	pollRepo ports.PollRepository,
	voteRepo ports.VoteRepository,
	viewRepo ports.ViewRepository,
	opTimeout time.Duration,
) ports.ResultService {
	return &resultService{
		pollRepo:  pollRepo,
		voteRepo:  voteRepo,
		viewRepo:  viewRepo,
		opTimeout: opTimeout,
	}
}

func (s *resultService) ComputeResults(ctx context.Context, pollID uuid.UUID) ([]domain.OptionResult, error) {
	sctx, cancel := storeCtx(ctx, s.opTimeout)
	poll, err := s.pollRepo.GetByID(sctx, pollID)
	cancel()
	if err != nil {
		return nil, err
	}

	sctx, cancel = storeCtx(ctx, s.opTimeout)
	counts, err := s.voteRepo.CountByOption(sctx, pollID)
	cancel()
	if err != nil {
		return nil, err
	}

	var total int64
	for _, c := range counts {
		total += c
	}

	results := make([]domain.OptionResult, len(poll.Options))
	for i := range poll.Options {
		count := counts[i]
		results[i] = domain.OptionResult{
			OptionIndex: i,
			VoteCount:   count,
			Percentage:  percentage(count, total),
		}
	}

	return results, nil
}

func (s *resultService) TotalVotes(ctx context.Context, pollID uuid.UUID) (int64, error) {
	sctx, cancel := storeCtx(ctx, s.opTimeout)
	defer cancel()

	counts, err := s.voteRepo.CountByOption(sctx, pollID)
	if err != nil {
		return 0, err
	}

	var total int64
	for _, c := range counts {
		total += c
	}
	return total, nil
}

func (s *resultService) HasVoted(ctx context.Context, pollID, voterID uuid.UUID) (bool, error) {
	sctx, cancel := storeCtx(ctx, s.opTimeout)
	defer cancel()

	return s.voteRepo.HasVoted(sctx, pollID, voterID)
}

func (s *resultService) VoterChoice(ctx context.Context, pollID, voterID uuid.UUID) (int, bool, error) {
	sctx, cancel := storeCtx(ctx, s.opTimeout)
	defer cancel()

	return s.voteRepo.VoterChoice(sctx, pollID, voterID)
}

func (s *resultService) Analytics(ctx context.Context, pollID uuid.UUID) (*domain.PollAnalytics, error) {
	distribution, err := s.ComputeResults(ctx, pollID)
	if err != nil {
		return nil, err
	}

	var totalVotes int64
	for _, r := range distribution {
		totalVotes += r.VoteCount
	}

	sctx, cancel := storeCtx(ctx, s.opTimeout)
	views, err := s.viewRepo.CountViewsForPoll(sctx, pollID)
	cancel()
	if err != nil {
		return nil, err
	}

	sctx, cancel = storeCtx(ctx, s.opTimeout)
	voters, err := s.voteRepo.CountDistinctVoters(sctx, pollID)
	cancel()
	if err != nil {
		return nil, err
	}

	return &domain.PollAnalytics{
		TotalViews:       views,
		TotalVotes:       totalVotes,
		UniqueVoters:     voters,
		VoteDistribution: distribution,
	}, nil
}

// percentage rounds half-up to the nearest integer. Rows are rounded
// independently, so a poll's percentages may not sum to exactly 100.
func percentage(count, total int64) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(count*100) / float64(total)))
}

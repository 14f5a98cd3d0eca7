package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/pollingx/api/internal/core/domain"
	"github.com/pollingx/api/internal/core/ports"
)

type voteService struct {
	polls     ports.PollService
	voteRepo  ports.VoteRepository
	results   ports.ResultService
	notifier  ports.Notifier
	logger    *slog.Logger
	opTimeout time.Duration
}

func NewVoteService(
	polls ports.PollService,
	voteRepo ports.VoteRepository,
	results ports.ResultService,
	notifier ports.Notifier,
	logger *slog.Logger,
	opTimeout time.Duration,
) ports.VoteService {
	return &voteService{
		polls:     polls,
		voteRepo:  voteRepo,
		results:   results,
		notifier:  notifier,
		logger:    logger,
		opTimeout: opTimeout,
	}
}

func (s *voteService) CastVote(ctx context.Context, voter domain.Identity, input ports.CastVoteInput) (*domain.Vote, error) {
	poll, err := s.polls.Get(ctx, input.PollID, &voter)
	if err != nil {
		return nil, err
	}

	if !poll.Votable(time.Now()) {
		return nil, domain.ErrPollClosed
	}

	if input.OptionIndex < 0 || input.OptionIndex >= len(poll.Options) {
		return nil, domain.NewValidationError("option_index", "must reference an existing option")
	}

	if !poll.AllowMultipleVotes {
		// Courtesy pre-check only. The store's uniqueness constraint is
		// what actually serializes concurrent casts from the same voter.
		sctx, cancel := storeCtx(ctx, s.opTimeout)
		voted, err := s.voteRepo.HasVoted(sctx, poll.ID, voter.ID)
		cancel()
		if err != nil {
			return nil, err
		}
		if voted {
			return nil, domain.ErrAlreadyVoted
		}
	} else if err := s.checkVoteCap(ctx, poll, voter.ID); err != nil {
		return nil, err
	}

	vote := &domain.Vote{
		ID:          uuid.New(),
		PollID:      poll.ID,
		VoterID:     voter.ID,
		OptionIndex: input.OptionIndex,
		VotedAt:     time.Now(),
	}

	sctx, cancel := storeCtx(ctx, s.opTimeout)
	defer cancel()
	if err := s.voteRepo.SaveVote(sctx, vote, !poll.AllowMultipleVotes); err != nil {
		return nil, err
	}

	s.notifyResults(ctx, poll)

	return vote, nil
}

// checkVoteCap enforces the optional per-voter cap on multi-vote polls.
func (s *voteService) checkVoteCap(ctx context.Context, poll *domain.Poll, voterID uuid.UUID) error {
	settings, err := domain.DecodeSettings(poll.Settings)
	if err != nil {
		s.logger.Warn("ignoring malformed poll settings", "poll_id", poll.ID, "error", err)
		return nil
	}
	if settings.MaxVotesPerUser <= 0 {
		return nil
	}

	sctx, cancel := storeCtx(ctx, s.opTimeout)
	cast, err := s.voteRepo.CountByVoter(sctx, poll.ID, voterID)
	cancel()
	if err != nil {
		return err
	}
	if cast >= int64(settings.MaxVotesPerUser) {
		return domain.ErrAlreadyVoted
	}
	return nil
}

// notifyResults recomputes the poll's results and fans them out. The vote
// is already durable at this point, so failures here are logged only.
func (s *voteService) notifyResults(ctx context.Context, poll *domain.Poll) {
	results, err := s.results.ComputeResults(ctx, poll.ID)
	if err != nil {
		s.logger.Error("failed to recompute results after vote", "poll_id", poll.ID, "error", err)
		return
	}

	var total int64
	for _, r := range results {
		total += r.VoteCount
	}

	event := domain.Event{
		Kind:       domain.EventResultsUpdated,
		PollID:     poll.ID,
		Results:    results,
		TotalVotes: total,
		OccurredAt: time.Now(),
	}
	if err := s.notifier.Publish(ctx, poll.ID, event); err != nil {
		s.logger.Error("failed to publish results update", "poll_id", poll.ID, "error", err)
	}
}

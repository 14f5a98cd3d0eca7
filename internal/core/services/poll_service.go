package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/pollingx/api/internal/core/domain"
	"github.com/pollingx/api/internal/core/ports"
)

type pollService struct {
	pollRepo  ports.PollRepository
	voteRepo  ports.VoteRepository
	viewRepo  ports.ViewRepository
	results   ports.ResultService
	notifier  ports.Notifier
	logger    *slog.Logger
	opTimeout time.Duration
}

func NewPollService(
	pollRepo ports.PollRepository,
	voteRepo ports.VoteRepository,
	viewRepo ports.ViewRepository,
	results ports.ResultService,
	notifier ports.Notifier,
	logger *slog.Logger,
	opTimeout time.Duration,
) ports.PollService {
	return &pollService{
		pollRepo:  pollRepo,
		voteRepo:  voteRepo,
		viewRepo:  viewRepo,
		results:   results,
		notifier:  notifier,
		logger:    logger,
		opTimeout: opTimeout,
	}
}

func (s *pollService) Create(ctx context.Context, ownerID uuid.UUID, input ports.CreatePollInput) (*domain.Poll, error) {
	now := time.Now()

	title, err := validateTitle(input.Title)
	if err != nil {
		return nil, err
	}
	options, err := validateOptions(input.Options)
	if err != nil {
		return nil, err
	}
	if err := validateDescription(input.Description); err != nil {
		return nil, err
	}
	if err := validateExpiry(input.ExpiresAt, now); err != nil {
		return nil, err
	}

	poll := &domain.Poll{
		ID:                 uuid.New(),
		Title:              title,
		Description:        input.Description,
		Options:            options,
		CreatedBy:          ownerID,
		CreatedAt:          now,
		ExpiresAt:          input.ExpiresAt,
		IsActive:           true,
		IsPublic:           input.IsPublic,
		AllowMultipleVotes: input.AllowMultipleVotes,
		Tags:               input.Tags,
		Settings:           input.Settings,
	}

	sctx, cancel := storeCtx(ctx, s.opTimeout)
	defer cancel()
	if err := s.pollRepo.Save(sctx, poll); err != nil {
		return nil, err
	}

	return poll, nil
}

func (s *pollService) Update(ctx context.Context, ownerID, pollID uuid.UUID, patch ports.UpdatePollInput) (*domain.Poll, error) {
	poll, err := s.loadOwned(ctx, ownerID, pollID)
	if err != nil {
		return nil, err
	}

	now := time.Now()

	if patch.Title != nil {
		title, err := validateTitle(*patch.Title)
		if err != nil {
			return nil, err
		}
		poll.Title = title
	}
	if patch.Options != nil {
		// Courtesy pre-check. Options are frozen once votes exist so
		// stored option indices stay meaningful; the store re-checks
		// atomically with the write, which closes the window where a
		// vote lands between this check and the update.
		sctx, cancel := storeCtx(ctx, s.opTimeout)
		voted, err := s.voteRepo.HasAnyVote(sctx, pollID)
		cancel()
		if err != nil {
			return nil, err
		}
		if voted {
			return nil, domain.ErrPollHasVotes
		}
		options, err := validateOptions(*patch.Options)
		if err != nil {
			return nil, err
		}
		poll.Options = options
	}
	if patch.Description != nil {
		if err := validateDescription(*patch.Description); err != nil {
			return nil, err
		}
		poll.Description = *patch.Description
	}
	if patch.ClearExpiry {
		poll.ExpiresAt = nil
	} else if patch.ExpiresAt != nil {
		if err := validateExpiry(patch.ExpiresAt, now); err != nil {
			return nil, err
		}
		poll.ExpiresAt = patch.ExpiresAt
	}
	if patch.IsActive != nil {
		poll.IsActive = *patch.IsActive
	}
	if patch.IsPublic != nil {
		poll.IsPublic = *patch.IsPublic
	}
	if patch.AllowMultipleVotes != nil {
		poll.AllowMultipleVotes = *patch.AllowMultipleVotes
	}
	if patch.Tags != nil {
		poll.Tags = *patch.Tags
	}
	if patch.Settings != nil {
		poll.Settings = *patch.Settings
	}

	sctx, cancel := storeCtx(ctx, s.opTimeout)
	defer cancel()
	if err := s.pollRepo.Update(sctx, poll, patch.Options != nil); err != nil {
		return nil, err
	}

	s.publish(ctx, domain.Event{
		Kind:       domain.EventPollUpdated,
		PollID:     poll.ID,
		Poll:       poll,
		OccurredAt: time.Now(),
	})

	return poll, nil
}

func (s *pollService) Delete(ctx context.Context, ownerID, pollID uuid.UUID) error {
	_, err := s.loadOwned(ctx, ownerID, pollID)
	if err != nil {
		// Retrying a delete of an already-deleted poll is a no-op.
		if errors.Is(err, domain.ErrPollNotFound) {
			return nil
		}
		return err
	}

	sctx, cancel := storeCtx(ctx, s.opTimeout)
	defer cancel()
	if err := s.pollRepo.Delete(sctx, pollID); err != nil {
		return err
	}

	s.publish(ctx, domain.Event{
		Kind:       domain.EventPollDeleted,
		PollID:     pollID,
		OccurredAt: time.Now(),
	})

	return nil
}

func (s *pollService) Get(ctx context.Context, pollID uuid.UUID, viewer *domain.Identity) (*domain.Poll, error) {
	sctx, cancel := storeCtx(ctx, s.opTimeout)
	defer cancel()

	poll, err := s.pollRepo.GetByID(sctx, pollID)
	if err != nil {
		return nil, err
	}

	if !poll.IsPublic && (viewer == nil || viewer.ID != poll.CreatedBy) {
		return nil, domain.ErrForbidden
	}

	return poll, nil
}

func (s *pollService) ListForOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.PollSummary, error) {
	sctx, cancel := storeCtx(ctx, s.opTimeout)
	polls, err := s.pollRepo.ListByOwner(sctx, ownerID)
	cancel()
	if err != nil {
		return nil, err
	}

	summaries := make([]*domain.PollSummary, 0, len(polls))
	for _, poll := range polls {
		total, err := s.results.TotalVotes(ctx, poll.ID)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, &domain.PollSummary{Poll: poll, TotalVotes: total})
	}

	return summaries, nil
}

func (s *pollService) ListPublic(ctx context.Context) ([]*domain.PollSummary, error) {
	sctx, cancel := storeCtx(ctx, s.opTimeout)
	defer cancel()

	return s.pollRepo.ListPublic(sctx)
}

func (s *pollService) RecordView(ctx context.Context, view *domain.PollView) error {
	if view.ID == uuid.Nil {
		view.ID = uuid.New()
	}
	if view.ViewedAt.IsZero() {
		view.ViewedAt = time.Now()
	}

	sctx, cancel := storeCtx(ctx, s.opTimeout)
	defer cancel()
	if err := s.viewRepo.SaveView(sctx, view); err != nil {
		// View tracking is best-effort and must not break the viewer path.
		s.logger.Warn("failed to record poll view", "poll_id", view.PollID, "error", err)
	}
	return nil
}

func (s *pollService) loadOwned(ctx context.Context, ownerID, pollID uuid.UUID) (*domain.Poll, error) {
	sctx, cancel := storeCtx(ctx, s.opTimeout)
	defer cancel()

	poll, err := s.pollRepo.GetByID(sctx, pollID)
	if err != nil {
		return nil, err
	}
	if poll.CreatedBy != ownerID {
		return nil, domain.ErrForbidden
	}
	return poll, nil
}

func (s *pollService) publish(ctx context.Context, event domain.Event) {
	if err := s.notifier.Publish(ctx, event.PollID, event); err != nil {
		// The mutation already succeeded; delivery is at-least-once and
		// eventual, so a publish failure is logged, not surfaced.
		s.logger.Error("failed to publish poll event", "poll_id", event.PollID, "kind", event.Kind, "error", err)
	}
}

func validateTitle(title string) (string, error) {
	trimmed := strings.TrimSpace(title)
	if trimmed == "" {
		return "", domain.NewValidationError("title", "must not be empty")
	}
	if utf8.RuneCountInString(trimmed) > domain.MaxTitleLen {
		return "", domain.NewValidationError("title", "must be at most 200 characters")
	}
	return trimmed, nil
}

func validateOptions(options []string) ([]string, error) {
	if len(options) < domain.MinOptions || len(options) > domain.MaxOptions {
		return nil, domain.NewValidationError("options", "must contain between 2 and 10 options")
	}

	trimmed := make([]string, 0, len(options))
	for _, opt := range options {
		t := strings.TrimSpace(opt)
		if t == "" {
			return nil, domain.NewValidationError("options", "option labels must not be empty")
		}
		if utf8.RuneCountInString(t) > domain.MaxOptionLen {
			return nil, domain.NewValidationError("options", "option labels must be at most 100 characters")
		}
		trimmed = append(trimmed, t)
	}

	return trimmed, nil
}

func validateDescription(description string) error {
	if utf8.RuneCountInString(description) > domain.MaxDescriptionLen {
		return domain.NewValidationError("description", "must be at most 500 characters")
	}
	return nil
}

func validateExpiry(expiresAt *time.Time, now time.Time) error {
	if expiresAt != nil && !expiresAt.After(now) {
		return domain.NewValidationError("expires_at", "must be in the future")
	}
	return nil
}

func storeCtx(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

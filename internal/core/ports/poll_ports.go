package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pollingx/api/internal/core/domain"
)

type PollRepository interface {
	// Save inserts a new poll; an id collision returns ErrConflict.
	Save(ctx context.Context, poll *domain.Poll) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Poll, error)
	// Update rewrites the mutable fields of an existing poll. When
	// optionsChanged is set the rewrite is conditional on the poll still
	// having no votes, checked atomically with the write; ErrPollHasVotes
	// is returned when a vote exists.
	Update(ctx context.Context, poll *domain.Poll, optionsChanged bool) error
	// Delete removes the poll and cascades to its votes and views in a
	// single transaction. Deleting an unknown poll is a no-op.
	Delete(ctx context.Context, id uuid.UUID) error
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Poll, error)
	// ListPublic returns active public polls, most-voted-first then newest.
	ListPublic(ctx context.Context) ([]*domain.PollSummary, error)
}

type CreatePollInput struct {
	Title              string
	Description        string
	Options            []string
	ExpiresAt          *time.Time
	IsPublic           bool
	AllowMultipleVotes bool
	Tags               []string
	Settings           map[string]any
}

// UpdatePollInput patches a poll field-by-field; nil fields are left
// untouched. ClearExpiry removes an existing expiry, it wins over
// ExpiresAt when both are set.
type UpdatePollInput struct {
	Title              *string
	Description        *string
	Options            *[]string
	ExpiresAt          *time.Time
	ClearExpiry        bool
	IsActive           *bool
	IsPublic           *bool
	AllowMultipleVotes *bool
	Tags               *[]string
	Settings           *map[string]any
}

type PollService interface {
	Create(ctx context.Context, ownerID uuid.UUID, input CreatePollInput) (*domain.Poll, error)
	Update(ctx context.Context, ownerID, pollID uuid.UUID, patch UpdatePollInput) (*domain.Poll, error)
	Delete(ctx context.Context, ownerID, pollID uuid.UUID) error
	Get(ctx context.Context, pollID uuid.UUID, viewer *domain.Identity) (*domain.Poll, error)
	ListForOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.PollSummary, error)
	ListPublic(ctx context.Context) ([]*domain.PollSummary, error)
	RecordView(ctx context.Context, view *domain.PollView) error
}

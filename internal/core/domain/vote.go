package domain

import (
	"time"

	"github.com/google/uuid"
)

// Vote records one voter's choice on one poll. Votes are append-only:
// they are never edited or withdrawn, only removed when their poll is
// deleted.
type Vote struct {
	ID          uuid.UUID `json:"id"`
	PollID      uuid.UUID `json:"poll_id"`
	VoterID     uuid.UUID `json:"voter_id"`
	OptionIndex int       `json:"option_index"`
	VotedAt     time.Time `json:"voted_at"`
}

// PollView is a best-effort record of a poll being opened by a viewer.
// ViewerID is nil for unauthenticated views.
type PollView struct {
	ID        uuid.UUID  `json:"id"`
	PollID    uuid.UUID  `json:"poll_id"`
	ViewerID  *uuid.UUID `json:"viewer_id,omitempty"`
	ViewedAt  time.Time  `json:"viewed_at"`
	Referrer  string     `json:"referrer,omitempty"`
	UserAgent string     `json:"user_agent,omitempty"`
}

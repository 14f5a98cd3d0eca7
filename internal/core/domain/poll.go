package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	MaxTitleLen       = 200
	MaxDescriptionLen = 500
	MaxOptionLen      = 100
	MinOptions        = 2
	MaxOptions        = 10
)

type Poll struct {
	ID                 uuid.UUID      `json:"id"`
	Title              string         `json:"title"`
	Description        string         `json:"description,omitempty"`
	Options            []string       `json:"options"`
	CreatedBy          uuid.UUID      `json:"created_by"`
	CreatedAt          time.Time      `json:"created_at"`
	ExpiresAt          *time.Time     `json:"expires_at,omitempty"`
	IsActive           bool           `json:"is_active"`
	IsPublic           bool           `json:"is_public"`
	AllowMultipleVotes bool           `json:"allow_multiple_votes"`
	Tags               []string       `json:"tags,omitempty"`
	Settings           map[string]any `json:"settings,omitempty"`
}

// Votable reports whether the poll accepts votes at the given instant:
// active and either without an expiry or not yet expired.
func (p *Poll) Votable(now time.Time) bool {
	if !p.IsActive {
		return false
	}
	return p.ExpiresAt == nil || p.ExpiresAt.After(now)
}

// PollSummary is the listing projection: the poll plus its current total
// vote count.
type PollSummary struct {
	Poll       *Poll `json:"poll"`
	TotalVotes int64 `json:"total_votes"`
}

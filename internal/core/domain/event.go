package domain

import (
	"time"

	"github.com/google/uuid"
)

type EventKind string

const (
	EventPollUpdated    EventKind = "poll_updated"
	EventPollDeleted    EventKind = "poll_deleted"
	EventResultsUpdated EventKind = "results_updated"
)

// Event is the payload fanned out to subscribers of a poll whenever its
// state or results change. Poll and Results are populated according to
// Kind; a deleted poll carries neither.
type Event struct {
	Kind       EventKind      `json:"kind"`
	PollID     uuid.UUID      `json:"poll_id"`
	Poll       *Poll          `json:"poll,omitempty"`
	Results    []OptionResult `json:"results,omitempty"`
	TotalVotes int64          `json:"total_votes"`
	OccurredAt time.Time      `json:"occurred_at"`
}

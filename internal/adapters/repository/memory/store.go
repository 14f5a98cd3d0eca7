// Package memory provides in-memory implementations of the store ports.
// They mirror the postgres adapters' semantics, including write-time vote
// uniqueness, and back the unit tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pollingx/api/internal/core/domain"
	"github.com/pollingx/api/internal/core/ports"
)

type Store struct {
	mu sync.RWMutex

	polls map[uuid.UUID]domain.Poll
	votes map[uuid.UUID][]domain.Vote
	views map[uuid.UUID][]domain.PollView

	// dedup mirrors the (poll_id, dedup_key) unique index.
	dedup map[uuid.UUID]map[uuid.UUID]struct{}
}

func NewStore() *Store {
	return &Store{
		polls: make(map[uuid.UUID]domain.Poll),
		votes: make(map[uuid.UUID][]domain.Vote),
		views: make(map[uuid.UUID][]domain.PollView),
		dedup: make(map[uuid.UUID]map[uuid.UUID]struct{}),
	}
}

var (
	_ ports.PollRepository = (*Store)(nil)
	_ ports.VoteRepository = (*Store)(nil)
	_ ports.ViewRepository = (*Store)(nil)
)

func (s *Store) Save(ctx context.Context, poll *domain.Poll) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.polls[poll.ID]; exists {
		return domain.ErrConflict
	}
	s.polls[poll.ID] = clonePoll(poll)
	return nil
}

func (s *Store) GetByID(ctx context.Context, id uuid.UUID) (*domain.Poll, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	poll, ok := s.polls[id]
	if !ok {
		return nil, domain.ErrPollNotFound
	}
	copied := clonePoll(&poll)
	return &copied, nil
}

func (s *Store) Update(ctx context.Context, poll *domain.Poll, optionsChanged bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.polls[poll.ID]; !ok {
		return domain.ErrPollNotFound
	}
	if optionsChanged && len(s.votes[poll.ID]) > 0 {
		return domain.ErrPollHasVotes
	}
	s.polls[poll.ID] = clonePoll(poll)
	return nil
}

func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.polls, id)
	delete(s.votes, id)
	delete(s.views, id)
	delete(s.dedup, id)
	return nil
}

func (s *Store) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Poll, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var polls []*domain.Poll
	for _, poll := range s.polls {
		if poll.CreatedBy != ownerID {
			continue
		}
		copied := clonePoll(&poll)
		polls = append(polls, &copied)
	}
	sort.Slice(polls, func(i, j int) bool {
		return polls[i].CreatedAt.After(polls[j].CreatedAt)
	})
	return polls, nil
}

func (s *Store) ListPublic(ctx context.Context) ([]*domain.PollSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := time.Now()
	var summaries []*domain.PollSummary
	for _, poll := range s.polls {
		if !poll.IsPublic || !poll.Votable(now) {
			continue
		}
		copied := clonePoll(&poll)
		summaries = append(summaries, &domain.PollSummary{
			Poll:       &copied,
			TotalVotes: int64(len(s.votes[poll.ID])),
		})
	}
	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].TotalVotes != summaries[j].TotalVotes {
			return summaries[i].TotalVotes > summaries[j].TotalVotes
		}
		return summaries[i].Poll.CreatedAt.After(summaries[j].Poll.CreatedAt)
	})
	return summaries, nil
}

func (s *Store) SaveVote(ctx context.Context, vote *domain.Vote, singleVote bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dedupKey := vote.ID
	if singleVote {
		dedupKey = vote.VoterID
	}

	keys := s.dedup[vote.PollID]
	if keys == nil {
		keys = make(map[uuid.UUID]struct{})
		s.dedup[vote.PollID] = keys
	}
	if _, exists := keys[dedupKey]; exists {
		return domain.ErrAlreadyVoted
	}
	keys[dedupKey] = struct{}{}

	s.votes[vote.PollID] = append(s.votes[vote.PollID], *vote)
	return nil
}

func (s *Store) CountByOption(ctx context.Context, pollID uuid.UUID) (map[int]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[int]int64)
	for _, vote := range s.votes[pollID] {
		counts[vote.OptionIndex]++
	}
	return counts, nil
}

func (s *Store) HasVoted(ctx context.Context, pollID, voterID uuid.UUID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, vote := range s.votes[pollID] {
		if vote.VoterID == voterID {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) VoterChoice(ctx context.Context, pollID, voterID uuid.UUID) (int, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, vote := range s.votes[pollID] {
		if vote.VoterID == voterID {
			return vote.OptionIndex, true, nil
		}
	}
	return 0, false, nil
}

func (s *Store) CountByVoter(ctx context.Context, pollID, voterID uuid.UUID) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, vote := range s.votes[pollID] {
		if vote.VoterID == voterID {
			count++
		}
	}
	return count, nil
}

func (s *Store) HasAnyVote(ctx context.Context, pollID uuid.UUID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.votes[pollID]) > 0, nil
}

func (s *Store) CountDistinctVoters(ctx context.Context, pollID uuid.UUID) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	voters := make(map[uuid.UUID]struct{})
	for _, vote := range s.votes[pollID] {
		voters[vote.VoterID] = struct{}{}
	}
	return int64(len(voters)), nil
}

func (s *Store) SaveView(ctx context.Context, view *domain.PollView) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.views[view.PollID] = append(s.views[view.PollID], *view)
	return nil
}

func (s *Store) CountViewsForPoll(ctx context.Context, pollID uuid.UUID) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return int64(len(s.views[pollID])), nil
}

func clonePoll(poll *domain.Poll) domain.Poll {
	copied := *poll
	copied.Options = append([]string(nil), poll.Options...)
	if poll.Tags != nil {
		copied.Tags = append([]string(nil), poll.Tags...)
	}
	if poll.ExpiresAt != nil {
		t := *poll.ExpiresAt
		copied.ExpiresAt = &t
	}
	if poll.Settings != nil {
		settings := make(map[string]any, len(poll.Settings))
		for k, v := range poll.Settings {
			settings[k] = v
		}
		copied.Settings = settings
	}
	return copied
}

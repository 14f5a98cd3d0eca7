package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/pollingx/api/internal/core/domain"
	"github.com/pollingx/api/internal/core/ports"
)

type voteRepository struct {
	db *sql.DB
}

func NewVoteRepository(db *sql.DB) ports.VoteRepository {
	return &voteRepository{
		db: db,
	}
}

// SaveVote inserts the vote. For single-vote polls dedup_key is the voter id,
// so the unique index on (poll_id, dedup_key) rejects a second vote from
// the same voter even under concurrent inserts; for multi-vote polls the
// vote's own id is used and every insert is unique.
func (r *voteRepository) SaveVote(ctx context.Context, vote *domain.Vote, singleVote bool) error {
	dedupKey := vote.ID
	if singleVote {
		dedupKey = vote.VoterID
	}

	query := `
		INSERT INTO votes (id, poll_id, voter_id, option_index, voted_at, dedup_key)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, query,
		vote.ID, vote.PollID, vote.VoterID, vote.OptionIndex, vote.VotedAt, dedupKey,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyVoted
		}
		return storeErr("failed to save vote", err)
	}
	return nil
}

func (r *voteRepository) CountByOption(ctx context.Context, pollID uuid.UUID) (map[int]int64, error) {
	query := `
		SELECT option_index, COUNT(*)
		FROM votes
		WHERE poll_id = $1
		GROUP BY option_index
	`
	rows, err := r.db.QueryContext(ctx, query, pollID)
	if err != nil {
		return nil, storeErr("failed to count votes by option", err)
	}
	defer rows.Close()

	counts := make(map[int]int64)
	for rows.Next() {
		var (
			index int
			count int64
		)
		if err := rows.Scan(&index, &count); err != nil {
			return nil, storeErr("failed to scan vote count", err)
		}
		counts[index] = count
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("error iterating vote counts", err)
	}
	return counts, nil
}

func (r *voteRepository) HasVoted(ctx context.Context, pollID, voterID uuid.UUID) (bool, error) {
	query := `SELECT 1 FROM votes WHERE poll_id = $1 AND voter_id = $2 LIMIT 1`
	var exists int
	err := r.db.QueryRowContext(ctx, query, pollID, voterID).Scan(&exists)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, storeErr("failed to check existing vote", err)
	}
	return true, nil
}

func (r *voteRepository) VoterChoice(ctx context.Context, pollID, voterID uuid.UUID) (int, bool, error) {
	query := `
		SELECT option_index
		FROM votes
		WHERE poll_id = $1 AND voter_id = $2
		ORDER BY voted_at ASC
		LIMIT 1
	`
	var index int
	err := r.db.QueryRowContext(ctx, query, pollID, voterID).Scan(&index)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, false, nil
		}
		return 0, false, storeErr("failed to get voter choice", err)
	}
	return index, true, nil
}

func (r *voteRepository) CountByVoter(ctx context.Context, pollID, voterID uuid.UUID) (int64, error) {
	query := `SELECT COUNT(*) FROM votes WHERE poll_id = $1 AND voter_id = $2`
	var count int64
	if err := r.db.QueryRowContext(ctx, query, pollID, voterID).Scan(&count); err != nil {
		return 0, storeErr("failed to count voter votes", err)
	}
	return count, nil
}

func (r *voteRepository) HasAnyVote(ctx context.Context, pollID uuid.UUID) (bool, error) {
	query := `SELECT 1 FROM votes WHERE poll_id = $1 LIMIT 1`
	var exists int
	err := r.db.QueryRowContext(ctx, query, pollID).Scan(&exists)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, storeErr("failed to check poll votes", err)
	}
	return true, nil
}

func (r *voteRepository) CountDistinctVoters(ctx context.Context, pollID uuid.UUID) (int64, error) {
	query := `SELECT COUNT(DISTINCT voter_id) FROM votes WHERE poll_id = $1`
	var count int64
	if err := r.db.QueryRowContext(ctx, query, pollID).Scan(&count); err != nil {
		return 0, storeErr("failed to count distinct voters", err)
	}
	return count, nil
}

package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pollingx/api/internal/core/domain"
	"github.com/pollingx/api/internal/core/ports"
)

type pollRepository struct {
	db *sql.DB
}

func NewPollRepository(db *sql.DB) ports.PollRepository {
	return &pollRepository{
		db: db,
	}
}

func (r *pollRepository) Save(ctx context.Context, poll *domain.Poll) error {
	options, settings, err := marshalBlobs(poll)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO polls (id, title, description, options, created_by, created_at,
			expires_at, is_active, is_public, allow_multiple_votes, tags, settings)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err = r.db.ExecContext(ctx, query,
		poll.ID, poll.Title, poll.Description, options, poll.CreatedBy, poll.CreatedAt,
		poll.ExpiresAt, poll.IsActive, poll.IsPublic, poll.AllowMultipleVotes,
		pq.Array(poll.Tags), settings,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrConflict
		}
		return storeErr("failed to insert poll", err)
	}
	return nil
}

func (r *pollRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Poll, error) {
	query := `
		SELECT id, title, description, options, created_by, created_at,
			expires_at, is_active, is_public, allow_multiple_votes, tags, settings
		FROM polls
		WHERE id = $1
	`

	poll, err := scanPoll(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrPollNotFound
		}
		return nil, storeErr("failed to get poll", err)
	}
	return poll, nil
}

// Update rewrites the poll row. An options change is guarded in the
// statement itself, so a vote landing concurrently can never end up
// referencing replaced option indices.
func (r *pollRepository) Update(ctx context.Context, poll *domain.Poll, optionsChanged bool) error {
	options, settings, err := marshalBlobs(poll)
	if err != nil {
		return err
	}

	query := `
		UPDATE polls
		SET title = $2, description = $3, options = $4, expires_at = $5,
			is_active = $6, is_public = $7, allow_multiple_votes = $8,
			tags = $9, settings = $10
		WHERE id = $1
	`
	if optionsChanged {
		query += ` AND NOT EXISTS (SELECT 1 FROM votes WHERE votes.poll_id = polls.id)`
	}
	res, err := r.db.ExecContext(ctx, query,
		poll.ID, poll.Title, poll.Description, options, poll.ExpiresAt,
		poll.IsActive, poll.IsPublic, poll.AllowMultipleVotes,
		pq.Array(poll.Tags), settings,
	)
	if err != nil {
		return storeErr("failed to update poll", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return storeErr("failed to update poll", err)
	}
	if affected == 0 {
		if optionsChanged {
			var exists int
			err := r.db.QueryRowContext(ctx, `SELECT 1 FROM polls WHERE id = $1`, poll.ID).Scan(&exists)
			if err == nil {
				return domain.ErrPollHasVotes
			}
			if err != sql.ErrNoRows {
				return storeErr("failed to update poll", err)
			}
		}
		return domain.ErrPollNotFound
	}
	return nil
}

// Delete removes the poll together with its votes and views in one
// transaction, so a crash or retry can never leave orphans behind.
// Deleting an already-deleted poll succeeds as a no-op.
func (r *pollRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return storeErr("failed to begin transaction", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM votes WHERE poll_id = $1`, id); err != nil {
		return storeErr("failed to delete votes", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM poll_views WHERE poll_id = $1`, id); err != nil {
		return storeErr("failed to delete poll views", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM polls WHERE id = $1`, id); err != nil {
		return storeErr("failed to delete poll", err)
	}

	if err := tx.Commit(); err != nil {
		return storeErr("failed to commit transaction", err)
	}
	return nil
}

func (r *pollRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Poll, error) {
	query := `
		SELECT id, title, description, options, created_by, created_at,
			expires_at, is_active, is_public, allow_multiple_votes, tags, settings
		FROM polls
		WHERE created_by = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, storeErr("failed to list polls by owner", err)
	}
	defer rows.Close()

	var polls []*domain.Poll
	for rows.Next() {
		poll, err := scanPoll(rows)
		if err != nil {
			return nil, storeErr("failed to scan poll", err)
		}
		polls = append(polls, poll)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("error iterating polls", err)
	}
	return polls, nil
}

func (r *pollRepository) ListPublic(ctx context.Context) ([]*domain.PollSummary, error) {
	query := `
		SELECT p.id, p.title, p.description, p.options, p.created_by, p.created_at,
			p.expires_at, p.is_active, p.is_public, p.allow_multiple_votes, p.tags, p.settings,
			COUNT(v.id) AS vote_count
		FROM polls p
		LEFT JOIN votes v ON v.poll_id = p.id
		WHERE p.is_public AND p.is_active
			AND (p.expires_at IS NULL OR p.expires_at > NOW())
		GROUP BY p.id
		ORDER BY COUNT(v.id) DESC, p.created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, storeErr("failed to list public polls", err)
	}
	defer rows.Close()

	var summaries []*domain.PollSummary
	for rows.Next() {
		var (
			poll        domain.Poll
			optionsRaw  []byte
			settingsRaw []byte
			tags        pq.StringArray
			total       int64
		)
		err := rows.Scan(
			&poll.ID, &poll.Title, &poll.Description, &optionsRaw, &poll.CreatedBy,
			&poll.CreatedAt, &poll.ExpiresAt, &poll.IsActive, &poll.IsPublic,
			&poll.AllowMultipleVotes, &tags, &settingsRaw, &total,
		)
		if err != nil {
			return nil, storeErr("failed to scan public poll", err)
		}
		if err := unmarshalBlobs(&poll, optionsRaw, settingsRaw, tags); err != nil {
			return nil, err
		}
		summaries = append(summaries, &domain.PollSummary{Poll: &poll, TotalVotes: total})
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("error iterating public polls", err)
	}
	return summaries, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPoll(row rowScanner) (*domain.Poll, error) {
	var (
		poll        domain.Poll
		optionsRaw  []byte
		settingsRaw []byte
		tags        pq.StringArray
	)
	err := row.Scan(
		&poll.ID, &poll.Title, &poll.Description, &optionsRaw, &poll.CreatedBy,
		&poll.CreatedAt, &poll.ExpiresAt, &poll.IsActive, &poll.IsPublic,
		&poll.AllowMultipleVotes, &tags, &settingsRaw,
	)
	if err != nil {
		return nil, err
	}
	if err := unmarshalBlobs(&poll, optionsRaw, settingsRaw, tags); err != nil {
		return nil, err
	}
	return &poll, nil
}

func marshalBlobs(poll *domain.Poll) (options, settings []byte, err error) {
	options, err = json.Marshal(poll.Options)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal options: %w", err)
	}
	settings, err = json.Marshal(poll.Settings)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal settings: %w", err)
	}
	return options, settings, nil
}

func unmarshalBlobs(poll *domain.Poll, optionsRaw, settingsRaw []byte, tags pq.StringArray) error {
	if err := json.Unmarshal(optionsRaw, &poll.Options); err != nil {
		return fmt.Errorf("failed to unmarshal options: %w", err)
	}
	if len(settingsRaw) > 0 {
		if err := json.Unmarshal(settingsRaw, &poll.Settings); err != nil {
			return fmt.Errorf("failed to unmarshal settings: %w", err)
		}
	}
	poll.Tags = []string(tags)
	return nil
}

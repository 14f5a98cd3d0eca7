package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/pollingx/api/internal/core/domain"
	"github.com/pollingx/api/internal/core/ports"
)

type viewRepository struct {
	db *sql.DB
}

func NewViewRepository(db *sql.DB) ports.ViewRepository {
	return &viewRepository{
		db: db,
	}
}

func (r *viewRepository) SaveView(ctx context.Context, view *domain.PollView) error {
	query := `
		INSERT INTO poll_views (id, poll_id, viewer_id, viewed_at, referrer, user_agent)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, query,
		view.ID, view.PollID, view.ViewerID, view.ViewedAt, view.Referrer, view.UserAgent,
	)
	if err != nil {
		return storeErr("failed to save poll view", err)
	}
	return nil
}

func (r *viewRepository) CountViewsForPoll(ctx context.Context, pollID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM poll_views WHERE poll_id = $1`, pollID).Scan(&count)
	if err != nil {
		return 0, storeErr("failed to count poll views", err)
	}
	return count, nil
}

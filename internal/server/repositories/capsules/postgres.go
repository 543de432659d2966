// Package capsules persists capsule metadata and its notification flag.
package capsules

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/timecapsule/internal/common"
	"github.com/dmitrijs2005/timecapsule/internal/dbx"
	"github.com/dmitrijs2005/timecapsule/internal/server/models"
)

const capsuleColumns = `id, user_id, title, message, open_date, has_images, has_videos, has_message,
		notification_sent, created_at, updated_at`

// PostgresRepository implements Repository over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCapsule(s scanner) (*models.Capsule, error) {
	c := &models.Capsule{}
	err := s.Scan(&c.ID, &c.UserID, &c.Title, &c.Message, &c.OpenDate, &c.HasImages, &c.HasVideos,
		&c.HasMessage, &c.NotificationSent, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Create inserts the capsule and fills in the server-side timestamps.
func (r *PostgresRepository) Create(ctx context.Context, c *models.Capsule) (*models.Capsule, error) {
	query := `
		INSERT INTO capsules (id, user_id, title, message, open_date, has_images, has_videos, has_message, notification_sent)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		c.ID, c.UserID, c.Title, c.Message, c.OpenDate, c.HasImages, c.HasVideos, c.HasMessage, c.NotificationSent,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return c, nil
}

// GetByIDForUser returns the capsule only if userID owns it; otherwise
// common.ErrNotFound, so foreign capsules look exactly like missing ones.
func (r *PostgresRepository) GetByIDForUser(ctx context.Context, id, userID string) (*models.Capsule, error) {
	query := `SELECT ` + capsuleColumns + ` FROM capsules WHERE id = $1 AND user_id = $2`

	c, err := scanCapsule(r.db.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return c, nil
}

// ListByUser returns the user's capsules ordered by open date, earliest first.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]*models.Capsule, error) {
	query := `SELECT ` + capsuleColumns + ` FROM capsules WHERE user_id = $1 ORDER BY open_date ASC`
	return r.list(ctx, query, userID)
}

// ListDueUnnotified returns capsules with open_date <= now that have not been
// marked notified. No ordering is guaranteed.
func (r *PostgresRepository) ListDueUnnotified(ctx context.Context, now time.Time) ([]*models.Capsule, error) {
	query := `SELECT ` + capsuleColumns + ` FROM capsules WHERE open_date <= $1 AND notification_sent = FALSE`
	return r.list(ctx, query, now)
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]*models.Capsule, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select capsules: %w", err)
	}
	defer rows.Close()

	var result []*models.Capsule
	for rows.Next() {
		c, err := scanCapsule(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// MarkNotified flips notification_sent to true only if it is still false.
// It reports whether this call performed the transition.
func (r *PostgresRepository) MarkNotified(ctx context.Context, id string) (bool, error) {
	query := `UPDATE capsules SET notification_sent = TRUE, updated_at = now() WHERE id = $1 AND notification_sent = FALSE`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("failed to mark notified: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n == 1, nil
}

// DeleteForUser removes the capsule row. Media rows must be gone already or
// are removed by the ON DELETE CASCADE constraint.
func (r *PostgresRepository) DeleteForUser(ctx context.Context, id, userID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM capsules WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete capsule: %w", err)
	}
	return dbx.RequireOneRow(res, common.ErrNotFound)
}

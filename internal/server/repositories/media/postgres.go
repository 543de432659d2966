// Package media persists metadata of files uploaded into capsules.
package media

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/timecapsule/internal/common"
	"github.com/dmitrijs2005/timecapsule/internal/dbx"
	"github.com/dmitrijs2005/timecapsule/internal/server/models"
)

const mediaColumns = `id, capsule_id, user_id, original_name, stored_name, file_type, storage_path,
		content_type, size, checksum, created_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMedia(s scanner) (*models.Media, error) {
	m := &models.Media{}
	var fileType string
	err := s.Scan(&m.ID, &m.CapsuleID, &m.UserID, &m.OriginalName, &m.StoredName, &fileType, &m.StoragePath,
		&m.ContentType, &m.Size, &m.Checksum, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	m.FileType = models.FileType(fileType)
	return m, nil
}

func (r *PostgresRepository) Create(ctx context.Context, m *models.Media) (*models.Media, error) {
	query := `
		INSERT INTO media (id, capsule_id, user_id, original_name, stored_name, file_type, storage_path, content_type, size, checksum)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		m.ID, m.CapsuleID, m.UserID, m.OriginalName, m.StoredName, string(m.FileType), m.StoragePath,
		m.ContentType, m.Size, m.Checksum,
	).Scan(&m.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return m, nil
}

// ListByCapsule returns media of a capsule owned by userID, oldest first.
func (r *PostgresRepository) ListByCapsule(ctx context.Context, capsuleID, userID string) ([]*models.Media, error) {
	query := `SELECT ` + mediaColumns + ` FROM media WHERE capsule_id = $1 AND user_id = $2 ORDER BY created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, capsuleID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to select media: %w", err)
	}
	defer rows.Close()

	result := []*models.Media{}
	for rows.Next() {
		m, err := scanMedia(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) GetForCapsule(ctx context.Context, id, capsuleID, userID string) (*models.Media, error) {
	query := `SELECT ` + mediaColumns + ` FROM media WHERE id = $1 AND capsule_id = $2 AND user_id = $3`

	m, err := scanMedia(r.db.QueryRowContext(ctx, query, id, capsuleID, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return m, nil
}

// DeleteByCapsule removes all media rows of the capsule and returns how many went.
func (r *PostgresRepository) DeleteByCapsule(ctx context.Context, capsuleID, userID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM media WHERE capsule_id = $1 AND user_id = $2`, capsuleID, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete media: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}

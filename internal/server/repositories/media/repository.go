package media

import (
	"context"

	"github.com/dmitrijs2005/timecapsule/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, m *models.Media) (*models.Media, error)
	ListByCapsule(ctx context.Context, capsuleID, userID string) ([]*models.Media, error)
	GetForCapsule(ctx context.Context, id, capsuleID, userID string) (*models.Media, error)
	DeleteByCapsule(ctx context.Context, capsuleID, userID string) (int64, error)
}

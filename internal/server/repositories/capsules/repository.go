package capsules

import (
	"context"
	"time"

	"github.com/dmitrijs2005/timecapsule/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, c *models.Capsule) (*models.Capsule, error)
	GetByIDForUser(ctx context.Context, id, userID string) (*models.Capsule, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Capsule, error)
	ListDueUnnotified(ctx context.Context, now time.Time) ([]*models.Capsule, error)
	MarkNotified(ctx context.Context, id string) (bool, error)
	DeleteForUser(ctx context.Context, id, userID string) error
}

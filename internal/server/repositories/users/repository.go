package users

import (
	"context"

	"github.com/dmitrijs2005/timecapsule/internal/server/models"
)

// Repository reads account records. Accounts are created by the
// authentication service, never by this server.
type Repository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

package services

import (
	"context"

	"github.com/dmitrijs2005/timecapsule/internal/dbx"
	"github.com/dmitrijs2005/timecapsule/internal/server/models"
	"github.com/dmitrijs2005/timecapsule/internal/server/repositories/repomanager"
)

// AccountService exposes the caller's own account record.
type AccountService struct {
	db    dbx.DBTX
	repos repomanager.RepositoryManager
}

func NewAccountService(db dbx.DBTX, repos repomanager.RepositoryManager) *AccountService {
	return &AccountService{db: db, repos: repos}
}

func (s *AccountService) Profile(ctx context.Context, userID string) (*models.User, error) {
	return s.repos.Users(s.db).GetByID(ctx, userID)
}

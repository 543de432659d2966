package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/timecapsule/internal/dbx"
	"github.com/dmitrijs2005/timecapsule/internal/server/repositories/capsules"
	"github.com/dmitrijs2005/timecapsule/internal/server/repositories/media"
	"github.com/dmitrijs2005/timecapsule/internal/server/repositories/users"
)

// RepositoryManager hands out repositories bound to a connection or a
// transaction, so that callers can compose them inside dbx.WithTx.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Capsules(db dbx.DBTX) capsules.Repository
	Media(db dbx.DBTX) media.Repository
	Users(db dbx.DBTX) users.Repository
}

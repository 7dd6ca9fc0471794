package repomanager

import (
	"context"
	"database/sql"

	"github.com/opensource-kemini/kemini-backend/internal/dbx"
	"github.com/opensource-kemini/kemini-backend/internal/server/repositories/envfiles"
	"github.com/opensource-kemini/kemini-backend/internal/server/repositories/environments"
	"github.com/opensource-kemini/kemini-backend/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to an arbitrary DBTX so that
// services can run the same repository code inside or outside a transaction.
type RepositoryManager interface {
	Users(db dbx.DBTX) users.Repository
	Environments(db dbx.DBTX) environments.Repository
	EnvironmentFiles(db dbx.DBTX) envfiles.Repository
	RunMigrations(ctx context.Context, db *sql.DB) error
}

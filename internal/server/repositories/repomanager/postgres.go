// Package repomanager provides a concrete RepositoryManager for PostgreSQL,
// wiring together repository constructors and database migrations (via goose).
package repomanager

import (
	"context"
	"database/sql"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/opensource-kemini/kemini-backend/internal/dbx"
	"github.com/opensource-kemini/kemini-backend/internal/server/migrations"
	"github.com/opensource-kemini/kemini-backend/internal/server/repositories/envfiles"
	"github.com/opensource-kemini/kemini-backend/internal/server/repositories/environments"
	"github.com/opensource-kemini/kemini-backend/internal/server/repositories/users"
)

// PostgresRepositoryManager vends PostgreSQL-backed repository implementations
// and exposes a schema migration hook.
type PostgresRepositoryManager struct{}

// NewPostgresRepositoryManager constructs a PostgreSQL-backed RepositoryManager.
func NewPostgresRepositoryManager() *PostgresRepositoryManager {
	return &PostgresRepositoryManager{}
}

// Users returns a users.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewPostgresRepository(db)
}

// Environments returns an environments.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Environments(db dbx.DBTX) environments.Repository {
	return environments.NewPostgresRepository(db)
}

// EnvironmentFiles returns an envfiles.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) EnvironmentFiles(db dbx.DBTX) envfiles.Repository {
	return envfiles.NewPostgresRepository(db)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations sets up goose with the embedded migrations and runs them
// against the provided database connection.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	goose.SetDialect("pgx")
	if err := gooseUpContext(ctx, db, "."); err != nil {
		return err
	}
	return nil
}

package environments

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/opensource-kemini/kemini-backend/internal/common"
	"github.com/opensource-kemini/kemini-backend/internal/dbx"
	"github.com/opensource-kemini/kemini-backend/internal/server/models"
)

// PostgresRepository implements environment storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, env *models.Environment) (*models.Environment, error) {

	query :=
		`INSERT INTO virtual_environments (name, user_id)
		 VALUES ($1, $2)
		 RETURNING id
		 `

	err := r.db.QueryRowContext(ctx, query, env.Name, env.UserID).Scan(&env.ID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return env, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.Environment, error) {
	query :=
		`SELECT id, name, user_id FROM virtual_environments
		 WHERE id = $1
		 `

	env := &models.Environment{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&env.ID, &env.Name, &env.UserID)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return env, nil
}

// ListByUserID returns the user's environments, newest first.
func (r *PostgresRepository) ListByUserID(ctx context.Context, userID int64) ([]*models.Environment, error) {
	query :=
		`SELECT id, name, user_id FROM virtual_environments
		 WHERE user_id = $1
		 ORDER BY id DESC
		 `

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Environment
	for rows.Next() {
		var item models.Environment
		if err := rows.Scan(&item.ID, &item.Name, &item.UserID); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) UpdateName(ctx context.Context, id int64, name string) error {
	query := `UPDATE virtual_environments SET name = $2 WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id, name)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM virtual_environments WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

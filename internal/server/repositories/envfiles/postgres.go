package envfiles

import (
	"context"
	"fmt"

	"github.com/opensource-kemini/kemini-backend/internal/dbx"
	"github.com/opensource-kemini/kemini-backend/internal/server/models"
)

// PostgresRepository implements environment-file storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create upserts the file row keyed by its object key. The key is derived
// deterministically from the owning chain, so re-requesting an upload URL for
// the same logical file refreshes the existing row instead of conflicting.
func (r *PostgresRepository) Create(ctx context.Context, file *models.EnvironmentFile) (*models.EnvironmentFile, error) {

	query :=
		`INSERT INTO environment_files (file_type, original_file_name, s3_object_key, virtual_environment_id)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (s3_object_key) DO UPDATE
		 SET file_type = EXCLUDED.file_type,
		     original_file_name = EXCLUDED.original_file_name
		 RETURNING id
		 `

	err := r.db.QueryRowContext(ctx, query,
		file.FileType, file.OriginalFileName, file.ObjectKey, file.EnvironmentID).Scan(&file.ID)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return file, nil
}

func (r *PostgresRepository) ListByEnvironmentID(ctx context.Context, environmentID int64) ([]*models.EnvironmentFile, error) {
	query :=
		`SELECT id, file_type, original_file_name, s3_object_key, virtual_environment_id
		 FROM environment_files
		 WHERE virtual_environment_id = $1
		 ORDER BY id
		 `

	rows, err := r.db.QueryContext(ctx, query, environmentID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.EnvironmentFile
	for rows.Next() {
		var item models.EnvironmentFile
		if err := rows.Scan(&item.ID, &item.FileType, &item.OriginalFileName, &item.ObjectKey, &item.EnvironmentID); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// DeleteByEnvironmentID removes all file rows of an environment. Zero rows
// affected is fine: an environment may have no files yet.
func (r *PostgresRepository) DeleteByEnvironmentID(ctx context.Context, environmentID int64) error {
	query := `DELETE FROM environment_files WHERE virtual_environment_id = $1`

	_, err := r.db.ExecContext(ctx, query, environmentID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

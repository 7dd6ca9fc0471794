package envfiles

import (
	"context"

	"github.com/opensource-kemini/kemini-backend/internal/server/models"
)

type Repository interface {
	// Create inserts the file row, or refreshes the existing one when a row
	// with the same object key is already present.
	Create(ctx context.Context, file *models.EnvironmentFile) (*models.EnvironmentFile, error)
	ListByEnvironmentID(ctx context.Context, environmentID int64) ([]*models.EnvironmentFile, error)
	DeleteByEnvironmentID(ctx context.Context, environmentID int64) error
}

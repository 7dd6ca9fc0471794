package environments

import (
	"context"

	"github.com/opensource-kemini/kemini-backend/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, env *models.Environment) (*models.Environment, error)
	GetByID(ctx context.Context, id int64) (*models.Environment, error)
	ListByUserID(ctx context.Context, userID int64) ([]*models.Environment, error)
	UpdateName(ctx context.Context, id int64, name string) error
	Delete(ctx context.Context, id int64) error
}

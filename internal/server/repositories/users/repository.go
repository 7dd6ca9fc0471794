package users

import (
	"context"

	"github.com/opensource-kemini/kemini-backend/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateDetails(ctx context.Context, email string, name string, phoneNumber string) error
	DeleteByEmail(ctx context.Context, email string) error
}

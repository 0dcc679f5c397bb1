package users

import (
	"context"

	"github.com/dmitrijs2005/thoughtboard/internal/server/models"
)

// Repository persists user accounts.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	FindUserByUsername(ctx context.Context, username string) (*models.User, error)
	FindUserByID(ctx context.Context, id int64) (*models.User, error)
	UpdatePassword(ctx context.Context, id int64, hashedPassword string) error
	SetAdmin(ctx context.Context, username string) error
}

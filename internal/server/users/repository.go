package users

import (
	"context"

	"github.com/dmitrijs2005/storekeeper/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// Update applies fn to the stored user under the repository lock and
	// returns the result.
	Update(ctx context.Context, id string, fn func(u *models.User) error) (*models.User, error)
}

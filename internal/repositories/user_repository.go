package repositories

import (
	"context"

	"github.com/SAP-F-2025/portal-auth-service/internal/models"
)

// UserFilters defines filters for user listing
type UserFilters struct {
	Role   *models.UserRole
	Limit  int // 0 means no limit
	Offset int
}

// UserRepository persists portal accounts.
//
// Lookups return (nil, nil) when no record matches. Any non-nil error is a
// storage fault and must not be read as "not found".
type UserRepository interface {
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)

	// Create inserts a user, assigning ID and CreatedAt when empty. Returns
	// ErrDuplicate when the username is taken.
	Create(ctx context.Context, user *models.User) error

	List(ctx context.Context, filters UserFilters) ([]*models.User, error)
	CountByRole(ctx context.Context, role models.UserRole) (int64, error)
}

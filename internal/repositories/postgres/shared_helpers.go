package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/portal-auth-service/internal/models"
	"github.com/SAP-F-2025/portal-auth-service/internal/repositories"
)

// handleDBError is a package-level helper for handling database errors.
// Unique-constraint violations become repositories.ErrDuplicate; everything
// else is wrapped with the failed operation.
func handleDBError(err error, operation string) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%s: %w", operation, repositories.ErrDuplicate)
	}

	return repositories.WrapError(err, operation)
}

// Migrate creates or updates the users and sessions tables, including the
// unique index on users.username and the expiry index on sessions.
func Migrate(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).AutoMigrate(&models.User{}, &models.Session{}); err != nil {
		return fmt.Errorf("auto migrate failed: %w", err)
	}
	return nil
}

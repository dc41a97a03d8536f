package repositories

import (
	"context"
	"time"

	"github.com/SAP-F-2025/portal-auth-service/internal/models"
)

// SessionRepository stores issued sessions keyed by token
type SessionRepository interface {
	// Create persists a new session. Returns ErrDuplicate if the token is
	// already in use; an existing session is never overwritten.
	Create(ctx context.Context, session *models.Session) error

	// GetByToken returns (nil, nil) when the token is unknown. Expiry is
	// not checked here.
	GetByToken(ctx context.Context, token string) (*models.Session, error)

	// Delete removes the session. Deleting an unknown token is not an error.
	Delete(ctx context.Context, token string) error

	// DeleteExpired purges sessions whose expiry is before now and returns
	// how many were removed. Stores with native TTLs may return 0.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

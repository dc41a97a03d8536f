package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/portal-auth-service/internal/models"
	"github.com/SAP-F-2025/portal-auth-service/internal/repositories"
)

// sessionPostgreSQL keeps sessions in the sessions table. Expired rows stay
// until they are read or purged by DeleteExpired.
type sessionPostgreSQL struct {
	db *gorm.DB
}

func NewSessionPostgreSQL(db *gorm.DB) repositories.SessionRepository {
	return &sessionPostgreSQL{db: db}
}

func (r *sessionPostgreSQL) Create(ctx context.Context, session *models.Session) error {
	if err := r.db.WithContext(ctx).Create(session).Error; err != nil {
		return handleDBError(err, "create session")
	}
	return nil
}

func (r *sessionPostgreSQL) GetByToken(ctx context.Context, token string) (*models.Session, error) {
	var session models.Session
	err := r.db.WithContext(ctx).
		Where("token = ?", token).
		Take(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, handleDBError(err, "get session by token")
	}
	return &session, nil
}

func (r *sessionPostgreSQL) Delete(ctx context.Context, token string) error {
	err := r.db.WithContext(ctx).
		Where("token = ?", token).
		Delete(&models.Session{}).Error
	return handleDBError(err, "delete session")
}

func (r *sessionPostgreSQL) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("expires_at < ?", now).
		Delete(&models.Session{})
	if result.Error != nil {
		return 0, handleDBError(result.Error, "delete expired sessions")
	}
	return result.RowsAffected, nil
}

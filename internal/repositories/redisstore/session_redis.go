package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SAP-F-2025/portal-auth-service/internal/cache"
	"github.com/SAP-F-2025/portal-auth-service/internal/models"
	"github.com/SAP-F-2025/portal-auth-service/internal/repositories"
)

// SessionRedis stores each session as JSON under session:<token> with a
// redis TTL of ExpiresAt - CreatedAt, so abandoned sessions are purged by
// redis itself. The store never reads the wall clock; the issuer's clock
// alone decides the lifetime.
type SessionRedis struct {
	cache *cache.CacheHelper
}

func NewSessionRedis(helper *cache.CacheHelper) *SessionRedis {
	return &SessionRedis{cache: helper}
}

func (r *SessionRedis) Create(ctx context.Context, session *models.Session) error {
	if session.Token == "" || session.UserID == "" {
		return fmt.Errorf("create session: missing token or user id")
	}

	if session.CreatedAt.IsZero() {
		return fmt.Errorf("create session: missing created_at")
	}
	ttl := session.ExpiresAt.Sub(session.CreatedAt)
	if ttl <= 0 {
		return fmt.Errorf("create session: expires_at must be after created_at")
	}

	ok, err := r.cache.SetIfAbsent(ctx, session.Token, session, ttl)
	if err != nil {
		return repositories.WrapError(err, "create session")
	}
	if !ok {
		return fmt.Errorf("create session: %w", repositories.ErrDuplicate)
	}
	return nil
}

func (r *SessionRedis) GetByToken(ctx context.Context, token string) (*models.Session, error) {
	var session models.Session
	err := r.cache.Get(ctx, token, &session)
	if err != nil {
		if errors.Is(err, cache.ErrCacheNotFound) {
			return nil, nil
		}
		if errors.Is(err, cache.ErrCacheCorrupt) {
			// an unreadable record can never validate
			cache.SafeDelete(ctx, r.cache, token)
			return nil, nil
		}
		return nil, repositories.WrapError(err, "get session by token")
	}
	return &session, nil
}

func (r *SessionRedis) Delete(ctx context.Context, token string) error {
	return repositories.WrapError(r.cache.Delete(ctx, token), "delete session")
}

// DeleteExpired is a no-op: redis expires the keys on its own.
func (r *SessionRedis) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}

package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/portal-auth-service/internal/events"
	"github.com/SAP-F-2025/portal-auth-service/internal/models"
	"github.com/SAP-F-2025/portal-auth-service/internal/repositories"
	"github.com/SAP-F-2025/portal-auth-service/internal/utils"
)

const (
	DefaultSessionTTL = 24 * time.Hour

	// fresh tokens tried when the store reports a duplicate
	maxTokenAttempts = 3
)

type sessionService struct {
	credentials CredentialService
	sessions    repositories.SessionRepository
	publisher   events.Publisher
	logger      *slog.Logger

	ttl      time.Duration
	now      func() time.Time
	newToken func() (string, error)
}

type SessionServiceOption func(*sessionService)

// WithClock replaces time.Now for issuance and expiry checks
func WithClock(now func() time.Time) SessionServiceOption {
	return func(s *sessionService) {
		s.now = now
	}
}

func WithTokenGenerator(gen func() (string, error)) SessionServiceOption {
	return func(s *sessionService) {
		s.newToken = gen
	}
}

func NewSessionService(
	credentials CredentialService,
	sessions repositories.SessionRepository,
	publisher events.Publisher,
	logger *slog.Logger,
	ttl time.Duration,
	opts ...SessionServiceOption,
) SessionService {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	s := &sessionService{
		credentials: credentials,
		sessions:    sessions,
		publisher:   publisher,
		logger:      logger,
		ttl:         ttl,
		now:         time.Now,
		newToken:    utils.GenerateSessionToken,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *sessionService) TTL() time.Duration {
	return s.ttl
}

func (s *sessionService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	clientIP := clientIPOf(input.ClientInfo)

	user, err := s.credentials.ResolveByUsername(ctx, input.Username)
	if err != nil {
		return nil, err
	}

	if user == nil || !s.credentials.VerifyPassword(user, input.Password) {
		s.loginFailed(ctx, input.Username, clientIP)
		return nil, ErrInvalidCredentials
	}

	if input.Role != "" && input.Role != user.Role {
		s.loginFailed(ctx, input.Username, clientIP)
		return nil, ErrInvalidCredentials
	}

	// the session snapshot is taken from the record resolved by id
	snapshot, err := s.credentials.ResolveByID(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if snapshot == nil {
		s.loginFailed(ctx, input.Username, clientIP)
		return nil, ErrInvalidCredentials
	}

	session, err := s.issue(ctx, snapshot, input.ClientInfo)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Login succeeded", "user_id", snapshot.ID, "role", snapshot.Role)
	s.publish(ctx, events.NewEvent(events.LoginSucceeded, events.LoginSucceededData{
		UserID:   snapshot.ID,
		Username: snapshot.Username,
		Role:     snapshot.Role,
		ClientIP: clientIP,
	}))

	return &LoginResult{
		Token:   session.Token,
		Session: session,
		User:    snapshot.Public(),
	}, nil
}

func (s *sessionService) issue(ctx context.Context, user *models.User, clientInfo map[string]interface{}) (*models.Session, error) {
	createdAt := s.now()

	for attempt := 1; attempt <= maxTokenAttempts; attempt++ {
		token, err := s.newToken()
		if err != nil {
			return nil, fmt.Errorf("generate session token: %w", err)
		}

		session := &models.Session{
			Token:      token,
			UserID:     user.ID,
			Role:       user.Role,
			Username:   user.Username,
			CreatedAt:  createdAt,
			ExpiresAt:  createdAt.Add(s.ttl),
			ClientInfo: clientInfo,
		}

		err = s.sessions.Create(ctx, session)
		if err == nil {
			return session, nil
		}
		if !repositories.IsDuplicateError(err) {
			s.logger.Error("Session store write failed", "user_id", user.ID, "error", err)
			return nil, NewStoreFaultError("create session", err)
		}
		s.logger.Warn("Session token collision, retrying", "attempt", attempt)
	}

	return nil, NewStoreFaultError("create session", ErrTokenCollision)
}

func (s *sessionService) Validate(ctx context.Context, token string) (*models.Session, error) {
	if token == "" {
		return nil, nil
	}

	session, err := s.sessions.GetByToken(ctx, token)
	if err != nil {
		s.logger.Error("Session store read failed", "error", err)
		return nil, NewStoreFaultError("get session", err)
	}
	if session == nil {
		return nil, nil
	}

	if session.ExpiredAt(s.now()) {
		if err := s.sessions.Delete(ctx, token); err != nil {
			s.logger.Error("Failed to delete expired session", "user_id", session.UserID, "error", err)
			return nil, NewStoreFaultError("delete expired session", err)
		}
		s.logger.Debug("Session expired", "user_id", session.UserID)
		s.publish(ctx, events.NewEvent(events.SessionExpired, events.SessionExpiredData{
			UserID:    session.UserID,
			Username:  session.Username,
			ExpiresAt: session.ExpiresAt,
		}))
		return nil, nil
	}

	return session, nil
}

func (s *sessionService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	session, err := s.sessions.GetByToken(ctx, token)
	if err != nil {
		s.logger.Error("Session store read failed", "error", err)
		return NewStoreFaultError("get session", err)
	}

	if err := s.sessions.Delete(ctx, token); err != nil {
		s.logger.Error("Session store delete failed", "error", err)
		return NewStoreFaultError("delete session", err)
	}

	if session != nil {
		s.logger.Info("Logged out", "user_id", session.UserID)
		s.publish(ctx, events.NewEvent(events.Logout, events.LogoutData{
			UserID:   session.UserID,
			Username: session.Username,
		}))
	}
	return nil
}

func (s *sessionService) loginFailed(ctx context.Context, username, clientIP string) {
	s.logger.Info("Login rejected", "username", username)
	s.publish(ctx, events.NewEvent(events.LoginFailed, events.LoginFailedData{
		Username: username,
		ClientIP: clientIP,
	}))
}

// publish never fails the caller
func (s *sessionService) publish(ctx context.Context, event *events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("Failed to publish auth event", "event_type", event.Type, "error", err)
	}
}

func clientIPOf(info map[string]interface{}) string {
	if info == nil {
		return ""
	}
	ip, _ := info["ip"].(string)
	return ip
}

package services

import (
	"context"
	"log/slog"

	"github.com/SAP-F-2025/portal-auth-service/internal/models"
	"github.com/SAP-F-2025/portal-auth-service/internal/repositories"
	"github.com/SAP-F-2025/portal-auth-service/internal/utils"
)

type credentialService struct {
	users  repositories.UserRepository
	logger *slog.Logger
}

func NewCredentialService(users repositories.UserRepository, logger *slog.Logger) CredentialService {
	return &credentialService{
		users:  users,
		logger: logger,
	}
}

func (s *credentialService) ResolveByUsername(ctx context.Context, username string) (*models.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		s.logger.Error("Credential store lookup failed", "op", "resolve_by_username", "error", err)
		return nil, NewStoreFaultError("resolve user by username", err)
	}
	return user, nil
}

func (s *credentialService) ResolveByID(ctx context.Context, id string) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("Credential store lookup failed", "op", "resolve_by_id", "user_id", id, "error", err)
		return nil, NewStoreFaultError("resolve user by id", err)
	}
	return user, nil
}

func (s *credentialService) VerifyPassword(user *models.User, password string) bool {
	if user == nil {
		return false
	}
	return utils.VerifyPassword(user.PasswordHash, password)
}

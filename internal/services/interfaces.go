package services

import (
	"context"
	"io"
	"time"

	"github.com/SAP-F-2025/portal-auth-service/internal/models"
	"github.com/SAP-F-2025/portal-auth-service/internal/repositories"
)

// ===== REQUEST / RESPONSE TYPES =====

type LoginInput struct {
	Username string
	Password string
	// Role is the portal the client is signing in to. Empty skips the check.
	Role       models.UserRole
	ClientInfo map[string]interface{}
}

type LoginResult struct {
	Token   string            `json:"-"`
	Session *models.Session   `json:"session"`
	User    models.PublicUser `json:"user"`
}

type CreateUserInput struct {
	Username string          `json:"username" validate:"required,username"`
	Password string          `json:"password" validate:"required,bcrypt_len"`
	Email    string          `json:"email" validate:"omitempty,email,max=255"`
	Role     models.UserRole `json:"role" validate:"required,user_role"`
}

type RosterRowError struct {
	Row      int    `json:"row"`
	Username string `json:"username,omitempty"`
	Reason   string `json:"reason"`
}

type RosterImportResult struct {
	Created []string         `json:"created"`
	Skipped []string         `json:"skipped"`
	Invalid []RosterRowError `json:"invalid"`
}

// ===== SERVICES =====

// CredentialService resolves portal users. Lookups return (nil, nil) for an
// unknown user and a *StoreFaultError when the store fails.
type CredentialService interface {
	ResolveByUsername(ctx context.Context, username string) (*models.User, error)
	ResolveByID(ctx context.Context, id string) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
}

type SessionService interface {
	Login(ctx context.Context, input LoginInput) (*LoginResult, error)

	// Validate returns the live session for token, or (nil, nil) when the
	// token is unknown or expired. Expired records are deleted.
	Validate(ctx context.Context, token string) (*models.Session, error)

	// Logout revokes the session. Unknown and empty tokens are not errors.
	Logout(ctx context.Context, token string) error

	TTL() time.Duration
}

type ProvisioningService interface {
	EnsureSchema(ctx context.Context) error

	// EnsureDefaultAdmin seeds the configured admin when no admin-role user
	// exists. It reports whether a user was created.
	EnsureDefaultAdmin(ctx context.Context) (bool, error)

	CreateUser(ctx context.Context, input CreateUserInput) (*models.User, error)
	ListUsers(ctx context.Context, filters repositories.UserFilters) ([]*models.User, error)

	ImportRoster(ctx context.Context, r io.Reader) (*RosterImportResult, error)
	ExportRoster(ctx context.Context, w io.Writer) error
}

// ServiceManager owns service construction and lifecycle
type ServiceManager interface {
	Credential() CredentialService
	Session() SessionService
	Provisioning() ProvisioningService

	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

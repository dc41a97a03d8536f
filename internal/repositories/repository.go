package repositories

import "context"

// Repository groups the stores the authentication core depends on
type Repository interface {
	// Credential store
	User() UserRepository

	// Session store
	Session() SessionRepository

	// Health check
	Ping(ctx context.Context) error

	// Close connections
	Close() error
}

// RepositoryManager interface for managing repository lifecycle
type RepositoryManager interface {
	// Initialize repositories with database connections
	Initialize() error

	// Get repository instance
	GetRepository() Repository

	// Health check for all repositories
	HealthCheck(ctx context.Context) error

	// Graceful shutdown
	Shutdown(ctx context.Context) error
}

// Migrator is implemented by repositories that own a schema
type Migrator interface {
	Migrate(ctx context.Context) error
}

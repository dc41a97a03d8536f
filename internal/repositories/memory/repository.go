package memory

import (
	"context"

	"github.com/SAP-F-2025/portal-auth-service/internal/repositories"
)

// Repository serves STORE_DRIVER=memory. Users live in the process;
// sessions do too unless another store is supplied.
type Repository struct {
	user    *UserMemory
	session repositories.SessionRepository
}

// Option customizes a Repository
type Option func(*Repository)

// WithSessionStore keeps sessions in the given store instead of the process
func WithSessionStore(sessions repositories.SessionRepository) Option {
	return func(r *Repository) {
		if sessions != nil {
			r.session = sessions
		}
	}
}

func NewRepository(opts ...Option) *Repository {
	r := &Repository{
		user:    NewUserMemory(),
		session: NewSessionMemory(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Repository) User() repositories.UserRepository {
	return r.user
}

func (r *Repository) Session() repositories.SessionRepository {
	return r.session
}

// Migrate is a no-op; the maps need no schema.
func (r *Repository) Migrate(ctx context.Context) error {
	return nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return nil
}

func (r *Repository) Close() error {
	return nil
}

// RepositoryManager hands out a single in-memory repository
type RepositoryManager struct {
	repo *Repository
	opts []Option
}

func NewRepositoryManager(opts ...Option) repositories.RepositoryManager {
	return &RepositoryManager{opts: opts}
}

func (rm *RepositoryManager) Initialize() error {
	if rm.repo == nil {
		rm.repo = NewRepository(rm.opts...)
	}
	return nil
}

func (rm *RepositoryManager) GetRepository() repositories.Repository {
	if rm.repo == nil {
		return nil
	}
	return rm.repo
}

func (rm *RepositoryManager) HealthCheck(ctx context.Context) error {
	if rm.repo == nil {
		return repositories.ErrNotInitialized
	}
	return nil
}

func (rm *RepositoryManager) Shutdown(ctx context.Context) error {
	return nil
}

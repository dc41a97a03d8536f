package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/SAP-F-2025/portal-auth-service/internal/cache"
	"github.com/SAP-F-2025/portal-auth-service/internal/repositories"
	"github.com/SAP-F-2025/portal-auth-service/internal/repositories/memory"
	"github.com/SAP-F-2025/portal-auth-service/internal/repositories/redisstore"
)

const (
	SessionStoreRedis    = "redis"
	SessionStorePostgres = "postgres"
	SessionStoreMemory   = "memory"
)

// PostgreSQLRepository implements the main Repository interface. Users always
// live in postgres; sessions live wherever SessionStore points.
type PostgreSQLRepository struct {
	db           *gorm.DB
	redisClient  *redis.Client
	cacheManager *cache.CacheManager

	user    repositories.UserRepository
	session repositories.SessionRepository
}

// RepositoryConfig holds configuration for repository initialization
type RepositoryConfig struct {
	DB           *gorm.DB
	RedisClient  *redis.Client
	SessionStore string
}

// NewPostgreSQLRepository creates a new repository with all sub-repositories
func NewPostgreSQLRepository(config RepositoryConfig) (repositories.Repository, error) {
	cacheManager := cache.NewCacheManager(config.RedisClient)

	repo := &PostgreSQLRepository{
		db:           config.DB,
		redisClient:  config.RedisClient,
		cacheManager: cacheManager,
		user:         NewUserPostgreSQL(config.DB),
	}

	switch config.SessionStore {
	case SessionStoreRedis:
		if config.RedisClient == nil {
			return nil, fmt.Errorf("redis session store requires a redis client")
		}
		repo.session = redisstore.NewSessionRedis(cacheManager.Session)
	case SessionStorePostgres, "":
		repo.session = NewSessionPostgreSQL(config.DB)
	case SessionStoreMemory:
		repo.session = memory.NewSessionMemory()
	default:
		return nil, fmt.Errorf("unsupported session store %q", config.SessionStore)
	}

	return repo, nil
}

// User returns the user repository
func (r *PostgreSQLRepository) User() repositories.UserRepository {
	return r.user
}

// Session returns the session repository
func (r *PostgreSQLRepository) Session() repositories.SessionRepository {
	return r.session
}

// Migrate creates or updates the users and sessions tables
func (r *PostgreSQLRepository) Migrate(ctx context.Context) error {
	return Migrate(ctx, r.db)
}

// Ping checks the health of database and cache connections
func (r *PostgreSQLRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	if r.redisClient != nil {
		if err := r.cacheManager.HealthCheck(ctx); err != nil {
			return fmt.Errorf("cache ping failed: %w", err)
		}
	}

	return nil
}

// Close closes all connections
func (r *PostgreSQLRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	if r.redisClient != nil {
		if err := r.redisClient.Close(); err != nil {
			return fmt.Errorf("failed to close Redis: %w", err)
		}
	}

	return nil
}

// RepositoryManager implements the RepositoryManager interface
type RepositoryManager struct {
	config RepositoryConfig
	repo   repositories.Repository
}

// NewRepositoryManager creates a new repository manager
func NewRepositoryManager(config RepositoryConfig) repositories.RepositoryManager {
	return &RepositoryManager{
		config: config,
	}
}

// Initialize verifies connections and builds the repository. Schema
// migration is left to the provisioning service.
func (rm *RepositoryManager) Initialize() error {
	if rm.config.DB == nil {
		return fmt.Errorf("database connection is required")
	}

	sqlDB, err := rm.config.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}

	if rm.config.RedisClient != nil {
		if _, err := rm.config.RedisClient.Ping(ctx).Result(); err != nil {
			return fmt.Errorf("Redis connection failed: %w", err)
		}
	}

	repo, err := NewPostgreSQLRepository(rm.config)
	if err != nil {
		return err
	}
	rm.repo = repo

	return nil
}

// GetRepository returns the repository instance
func (rm *RepositoryManager) GetRepository() repositories.Repository {
	return rm.repo
}

// HealthCheck checks the health of all repository connections
func (rm *RepositoryManager) HealthCheck(ctx context.Context) error {
	if rm.repo == nil {
		return repositories.ErrNotInitialized
	}

	return rm.repo.Ping(ctx)
}

// Shutdown gracefully shuts down all repository connections
func (rm *RepositoryManager) Shutdown(ctx context.Context) error {
	if rm.repo == nil {
		return nil
	}

	return rm.repo.Close()
}

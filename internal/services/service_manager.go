package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/SAP-F-2025/portal-auth-service/internal/config"
	"github.com/SAP-F-2025/portal-auth-service/internal/events"
	"github.com/SAP-F-2025/portal-auth-service/internal/repositories"
	"github.com/SAP-F-2025/portal-auth-service/internal/validator"
)

// ServiceManagerConfig holds configuration for the service manager
type ServiceManagerConfig struct {
	SessionTTL   time.Duration
	ReapInterval time.Duration

	// Provisioning run during Initialize
	EnsureSchema bool
	SeedAdmin    bool
	DefaultAdmin config.AdminSeedConfig

	SessionOptions []SessionServiceOption
}

// serviceManager implements ServiceManager interface
type serviceManager struct {
	// Dependencies
	repo      repositories.Repository
	publisher events.Publisher
	logger    *slog.Logger
	validator *validator.Validator
	config    ServiceManagerConfig

	// Service instances
	credentialService   CredentialService
	sessionService      SessionService
	provisioningService ProvisioningService
	reaper              *SessionReaper

	// Lifecycle management
	initialized bool
	shutdown    bool
	mu          sync.RWMutex
}

// NewServiceManager creates a new service manager with all dependencies
func NewServiceManager(repo repositories.Repository, publisher events.Publisher, logger *slog.Logger, validator *validator.Validator, config ServiceManagerConfig) ServiceManager {
	return &serviceManager{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		validator: validator,
		config:    config,
	}
}

// NewDefaultServiceManager creates a service manager with default configuration
func NewDefaultServiceManager(repo repositories.Repository, publisher events.Publisher, logger *slog.Logger, validator *validator.Validator) ServiceManager {
	cfg := ServiceManagerConfig{
		SessionTTL:   DefaultSessionTTL,
		ReapInterval: DefaultReapInterval,
		EnsureSchema: true,
		SeedAdmin:    true,
		DefaultAdmin: config.AdminSeedConfig{
			Username: config.DefaultAdminUsername,
			Password: config.DefaultAdminPassword,
			Email:    config.DefaultAdminEmail,
		},
	}

	return NewServiceManager(repo, publisher, logger, validator, cfg)
}

// Initialize builds the services, provisions the store and starts the reaper
func (sm *serviceManager) Initialize(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.initialized {
		return nil
	}

	sm.logger.Info("Initializing service manager")

	sm.initializeServices()

	if sm.config.EnsureSchema {
		if err := sm.provisioningService.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}

	if sm.config.SeedAdmin {
		if _, err := sm.provisioningService.EnsureDefaultAdmin(ctx); err != nil {
			return fmt.Errorf("failed to seed default admin: %w", err)
		}
	}

	// the reaper outlives the init context
	sm.reaper.Start(context.WithoutCancel(ctx))

	sm.initialized = true
	sm.logger.Info("Service manager initialized successfully")

	return nil
}

func (sm *serviceManager) initializeServices() {
	sm.credentialService = NewCredentialService(sm.repo.User(), sm.logger)
	sm.logger.Info("Credential service initialized")

	sm.sessionService = NewSessionService(
		sm.credentialService,
		sm.repo.Session(),
		sm.publisher,
		sm.logger,
		sm.config.SessionTTL,
		sm.config.SessionOptions...,
	)
	sm.logger.Info("Session service initialized", "ttl", sm.sessionService.TTL().String())

	sm.provisioningService = NewProvisioningService(sm.repo, sm.validator, sm.logger, sm.config.DefaultAdmin)
	sm.logger.Info("Provisioning service initialized")

	sm.reaper = NewSessionReaper(sm.repo.Session(), sm.config.ReapInterval, sm.logger)
}

// Service getters
func (sm *serviceManager) Credential() CredentialService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}

	return sm.credentialService
}

func (sm *serviceManager) Session() SessionService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}

	return sm.sessionService
}

func (sm *serviceManager) Provisioning() ProvisioningService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}

	return sm.provisioningService
}

// Health and lifecycle
func (sm *serviceManager) HealthCheck(ctx context.Context) error {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		return fmt.Errorf("service manager not initialized")
	}

	if sm.shutdown {
		return fmt.Errorf("service manager is shut down")
	}

	if err := sm.repo.Ping(ctx); err != nil {
		return fmt.Errorf("repository health check failed: %w", err)
	}

	return nil
}

func (sm *serviceManager) Shutdown(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.shutdown {
		return nil
	}

	sm.logger.Info("Shutting down service manager")

	if sm.reaper != nil {
		sm.reaper.Stop()
	}

	if sm.publisher != nil {
		if err := sm.publisher.Close(); err != nil {
			sm.logger.Error("Failed to close event publisher", "error", err)
		}
	}

	sm.shutdown = true
	sm.logger.Info("Service manager shut down completed")

	return nil
}

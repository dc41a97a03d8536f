package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/SAP-F-2025/portal-auth-service/internal/cache"
	"github.com/SAP-F-2025/portal-auth-service/internal/config"
	"github.com/SAP-F-2025/portal-auth-service/internal/events"
	"github.com/SAP-F-2025/portal-auth-service/internal/handlers"
	"github.com/SAP-F-2025/portal-auth-service/internal/repositories"
	"github.com/SAP-F-2025/portal-auth-service/internal/repositories/memory"
	"github.com/SAP-F-2025/portal-auth-service/internal/repositories/postgres"
	"github.com/SAP-F-2025/portal-auth-service/internal/repositories/redisstore"
	"github.com/SAP-F-2025/portal-auth-service/internal/services"
	"github.com/SAP-F-2025/portal-auth-service/internal/utils"
	"github.com/SAP-F-2025/portal-auth-service/internal/validator"
	"github.com/SAP-F-2025/portal-auth-service/pkg"
)

func main() {
	importRoster := flag.String("import-roster", "", "import students from an xlsx roster and exit")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	slogLogger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(slogLogger)
	logger := utils.NewSlogLogger(slogLogger)

	// Initialize Redis (if configured)
	var redisClient *redis.Client
	if cfg.Session.Store == postgres.SessionStoreRedis {
		redisClient, err = pkg.NewRedisClient(cfg)
		if err != nil {
			log.Fatalf("Failed to initialize Redis: %v", err)
		}
	}

	// Initialize repositories
	repoManager, err := newRepositoryManager(cfg, redisClient)
	if err != nil {
		log.Fatalf("Failed to configure repositories: %v", err)
	}
	if err := repoManager.Initialize(); err != nil {
		log.Fatalf("Failed to initialize repositories: %v", err)
	}

	// Initialize event publisher
	publisher, err := events.NewPublisher(cfg.Kafka, slogLogger)
	if err != nil {
		log.Fatalf("Failed to initialize event publisher: %v", err)
	}

	// Initialize validator
	validator := validator.New()

	// Initialize services
	serviceManager := services.NewServiceManager(repoManager.GetRepository(), publisher, slogLogger, validator, services.ServiceManagerConfig{
		SessionTTL:   cfg.Session.TTL,
		ReapInterval: cfg.Session.ReapInterval,
		EnsureSchema: true,
		SeedAdmin:    true,
		DefaultAdmin: cfg.DefaultAdmin,
	})
	if err := serviceManager.Initialize(context.Background()); err != nil {
		log.Fatalf("Failed to initialize services: %v", err)
	}

	// the memory repository does not own the redis client
	var extra []io.Closer
	if cfg.StoreDriver == "memory" && redisClient != nil {
		extra = append(extra, redisClient)
	}

	if *importRoster != "" {
		code := runRosterImport(serviceManager, *importRoster, logger)
		shutdown(context.Background(), nil, serviceManager, repoManager, logger, extra...)
		os.Exit(code)
	}

	// Initialize handlers
	cookie := handlers.NewSessionCookie(cfg.Session.CookieName, cfg.Session.TTL, cfg.IsProduction())
	handlerManager := handlers.NewHandlerManager(serviceManager, validator, logger, cookie)

	// Setup Gin router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Setup middleware
	handlers.SetupMiddleware(router, logger, cfg.AllowedOrigins)

	// Setup routes
	handlerManager.SetupRoutes(router)

	// Create HTTP server
	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Starting server",
			"port", cfg.Port,
			"environment", cfg.Environment,
			"store_driver", cfg.StoreDriver,
			"session_store", cfg.Session.Store)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	shutdown(ctx, server, serviceManager, repoManager, logger, extra...)

	logger.Info("Server exited")
}

// newRepositoryManager wires the credential store and the session store
// selected by STORE_DRIVER and SESSION_STORE.
func newRepositoryManager(cfg *config.Config, redisClient *redis.Client) (repositories.RepositoryManager, error) {
	if cfg.StoreDriver == "memory" {
		var opts []memory.Option
		if redisClient != nil {
			sessions := redisstore.NewSessionRedis(cache.NewCacheManager(redisClient).Session)
			opts = append(opts, memory.WithSessionStore(sessions))
		}
		return memory.NewRepositoryManager(opts...), nil
	}

	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		return nil, err
	}

	return postgres.NewRepositoryManager(postgres.RepositoryConfig{
		DB:           db,
		RedisClient:  redisClient,
		SessionStore: cfg.Session.Store,
	}), nil
}

func runRosterImport(sm services.ServiceManager, path string, logger utils.Logger) int {
	f, err := os.Open(path)
	if err != nil {
		logger.Error("Failed to open roster", "path", path, "error", err)
		return 1
	}
	defer f.Close()

	result, err := sm.Provisioning().ImportRoster(context.Background(), f)
	if result != nil {
		out, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(out))
	}
	if err != nil {
		logger.Error("Roster import failed", "path", path, "error", err)
		return 1
	}
	return 0
}

func shutdown(ctx context.Context, server *http.Server, sm services.ServiceManager, rm repositories.RepositoryManager, logger utils.Logger, closers ...io.Closer) {
	// Shutdown HTTP server
	if server != nil {
		if err := server.Shutdown(ctx); err != nil {
			logger.Error("Server forced to shutdown", "error", err)
		}
	}

	// Shutdown services
	if err := sm.Shutdown(ctx); err != nil {
		logger.Error("Failed to shutdown services", "error", err)
	}

	// Close database and Redis connections
	if err := rm.Shutdown(ctx); err != nil {
		logger.Error("Failed to close repositories", "error", err)
	}

	for _, c := range closers {
		if err := c.Close(); err != nil {
			logger.Error("Failed to close connection", "error", err)
		}
	}
}

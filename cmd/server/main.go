package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hugh/teamspace/internal/api"
	"github.com/hugh/teamspace/internal/auth"
	"github.com/hugh/teamspace/internal/database"
	"github.com/hugh/teamspace/internal/directory"
	"github.com/hugh/teamspace/internal/orgs"
	"github.com/hugh/teamspace/internal/session"
	"github.com/hugh/teamspace/internal/storage"
	"github.com/hugh/teamspace/pkg/config"
	"github.com/hugh/teamspace/pkg/queue"
	"github.com/hugh/teamspace/pkg/util"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Load .env file
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := util.NewLogger(cfg.Server.Env)
	slog.SetDefault(logger)

	logger.Info("starting Teamspace server",
		"env", cfg.Server.Env,
		"addr", cfg.Server.Addr(),
	)

	// Connect to database
	db, err := database.Connect(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	if err := database.AutoMigrate(db); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Connect to Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
	})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		logger.Warn("failed to connect to Redis", "error", err)
		redisClient = nil
	}

	// Session event bus: redis pub/sub when available, in-process otherwise
	var bus directory.EventBus
	if redisClient != nil {
		bus = directory.NewRedisBus(redisClient, logger)
	} else {
		bus = directory.NewChanBus()
	}

	// Asynq client for background job enqueuing
	asynqClient := queue.NewClient(&cfg.Redis)

	// Initialize services
	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Expiry())
	authService := auth.NewService(db, jwtService, cfg.Access, bus, asynqClient, logger)
	dir := directory.NewStore(db)
	orgService := orgs.NewService(dir, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Session manager tracks per-user state off the event bus
	sessionManager := session.NewManager(dir, orgService, cfg.Access, logger)
	go func() {
		if err := sessionManager.Run(ctx, bus); err != nil {
			logger.Error("session manager stopped", "error", err)
		}
	}()

	// Object storage for project files
	fileStore, err := storage.NewS3Store(ctx, cfg.Storage, logger)
	if err != nil {
		logger.Error("failed to create file store", "error", err)
		os.Exit(1)
	}

	// Create router
	router := api.NewRouter(api.RouterConfig{
		DB:            db,
		Redis:         redisClient,
		Logger:        logger,
		JWTService:    jwtService,
		AuthService:   authService,
		OrgService:    orgService,
		Directory:     dir,
		Sessions:      sessionManager,
		Files:         fileStore,
		RateLimitReqs: cfg.RateLimit.Requests,
		RateLimitSecs: cfg.RateLimit.WindowSeconds,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("server listening", "addr", cfg.Server.Addr())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	cancel()

	// Close Asynq client
	if asynqClient != nil {
		asynqClient.Close()
	}

	// Close Redis connection
	if redisClient != nil {
		redisClient.Close()
	}

	// Close database connection
	sqlDB, _ := db.DB()
	sqlDB.Close()

	logger.Info("server stopped")
}

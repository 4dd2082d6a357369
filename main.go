package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/OpenNotes-2025/notes-service/internal/config"
	"github.com/OpenNotes-2025/notes-service/internal/events"
	"github.com/OpenNotes-2025/notes-service/internal/handlers"
	"github.com/OpenNotes-2025/notes-service/internal/repositories/postgres"
	"github.com/OpenNotes-2025/notes-service/internal/services"
	"github.com/OpenNotes-2025/notes-service/internal/storage"
	"github.com/OpenNotes-2025/notes-service/internal/utils"
	"github.com/OpenNotes-2025/notes-service/internal/validator"
	"github.com/OpenNotes-2025/notes-service/pkg"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	slogLogger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	logger := utils.NewSlogLogger(slogLogger)

	// Initialize database
	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// Initialize Redis (if configured)
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = pkg.NewRedisClient(cfg)
		if err != nil {
			log.Printf("Warning: Failed to initialize Redis: %v", err)
		}
	}

	// Initialize repositories
	repoConfig := postgres.RepositoryConfig{
		DB:          db,
		RedisClient: redisClient,
	}
	repoManager := postgres.NewRepositoryManager(repoConfig)
	if err := repoManager.Initialize(); err != nil {
		log.Fatalf("Failed to initialize repositories: %v", err)
	}

	// Initialize object storage
	objectStorage, err := storage.NewS3ObjectStorage(storage.Config{
		Endpoint:          cfg.Storage.Endpoint,
		Region:            cfg.Storage.Region,
		Bucket:            cfg.Storage.Bucket,
		AccessKey:         cfg.Storage.AccessKey,
		SecretKey:         cfg.Storage.SecretKey,
		UseSSL:            cfg.Storage.UseSSL,
		UsePathStyle:      cfg.Storage.UsePathStyle,
		PresignExpiration: cfg.Storage.PresignExpiration,
	}, slogLogger)
	if err != nil {
		log.Fatalf("Failed to initialize object storage: %v", err)
	}

	bucketCtx, bucketCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := objectStorage.EnsureBucket(bucketCtx); err != nil {
		log.Printf("Warning: Failed to ensure storage bucket: %v", err)
	}
	bucketCancel()

	// Initialize event publisher. Kafka when brokers are configured,
	// otherwise an in-process channel publisher for local runs.
	var eventPublisher events.EventPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		eventPublisher, err = events.NewKafkaEventPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, slogLogger)
		if err != nil {
			log.Fatalf("Failed to initialize event publisher: %v", err)
		}
	} else {
		eventPublisher = events.NewChannelEventPublisher(cfg.Kafka.Topic, slogLogger)
	}

	// Initialize validator
	validator := validator.New()

	// Initialize services
	serviceManager := services.NewDefaultServiceManager(db, repoManager.GetRepository(), objectStorage, eventPublisher, slogLogger, validator)
	if err := serviceManager.Initialize(context.Background()); err != nil {
		log.Fatalf("Failed to initialize services: %v", err)
	}

	// Initialize handlers
	handlerManager := handlers.NewHandlerManager(serviceManager, validator, logger, cfg.Casdoor, repoManager.GetRepository())

	// Setup Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Setup middleware
	handlers.SetupMiddleware(router, logger)

	// Setup routes
	handlerManager.SetupRoutes(router)

	// Create HTTP server
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Starting server", "port", cfg.Port, "environment", cfg.Environment)
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

	// Shutdown HTTP server
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	// Shutdown services (closes the event publisher and repositories)
	if err := serviceManager.Shutdown(ctx); err != nil {
		log.Printf("Failed to shutdown services: %v", err)
	}

	logger.Info("Server exited")
}

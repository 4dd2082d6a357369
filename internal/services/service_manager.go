package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/OpenNotes-2025/notes-service/internal/events"
	"github.com/OpenNotes-2025/notes-service/internal/repositories"
	"github.com/OpenNotes-2025/notes-service/internal/storage"
	"github.com/OpenNotes-2025/notes-service/internal/validator"
)

// ServiceManagerConfig holds configuration for the service manager
type ServiceManagerConfig struct {
	EnableDebugLogging bool
	LogLevel           slog.Level

	// Global settings
	DefaultTimeout time.Duration
}

// serviceManager implements ServiceManager interface
type serviceManager struct {
	// Dependencies
	db             *gorm.DB
	repo           repositories.Repository
	storage        storage.ObjectStorage
	eventPublisher events.EventPublisher
	logger         *slog.Logger
	validator      *validator.Validator
	config         ServiceManagerConfig

	// Service instances
	noteService         NoteService
	uploadService       UploadService
	reviewService       ReviewService
	roleService         RoleService
	notificationService NotificationService
	exportService       ExportService

	// Lifecycle management
	initialized bool
	shutdown    bool
	mu          sync.RWMutex
}

// NewServiceManager creates a new service manager with all dependencies
func NewServiceManager(db *gorm.DB, repo repositories.Repository, store storage.ObjectStorage, publisher events.EventPublisher, logger *slog.Logger, validator *validator.Validator, config ServiceManagerConfig) ServiceManager {
	return &serviceManager{
		db:             db,
		repo:           repo,
		storage:        store,
		eventPublisher: publisher,
		logger:         logger,
		validator:      validator,
		config:         config,
	}
}

// NewDefaultServiceManager creates a service manager with default configuration
func NewDefaultServiceManager(db *gorm.DB, repo repositories.Repository, store storage.ObjectStorage, publisher events.EventPublisher, logger *slog.Logger, validator *validator.Validator) ServiceManager {
	config := ServiceManagerConfig{
		EnableDebugLogging: false,
		LogLevel:           slog.LevelInfo,
		DefaultTimeout:     30 * time.Second,
	}

	return NewServiceManager(db, repo, store, publisher, logger, validator, config)
}

// Initialize sets up all services and their dependencies
func (sm *serviceManager) Initialize(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.initialized {
		return nil
	}

	sm.logger.Info("Initializing service manager")

	sm.noteService = NewNoteService(sm.repo, sm.db, sm.storage, sm.eventPublisher, sm.logger, sm.validator)
	sm.logger.Info("Note service initialized")

	sm.uploadService = NewUploadService(sm.repo, sm.db, sm.storage, sm.eventPublisher, sm.logger, sm.validator)
	sm.logger.Info("Upload service initialized")

	sm.reviewService = NewReviewService(sm.repo, sm.db, sm.eventPublisher, sm.logger, sm.validator)
	sm.logger.Info("Review service initialized")

	sm.roleService = NewRoleService(sm.repo, sm.db, sm.eventPublisher, sm.logger, sm.validator)
	sm.logger.Info("Role service initialized")

	sm.notificationService = NewNotificationService(sm.repo, sm.db, sm.logger)
	sm.logger.Info("Notification service initialized")

	sm.exportService = NewExportService(sm.repo, sm.db, sm.logger)
	sm.logger.Info("Export service initialized")

	sm.initialized = true
	sm.logger.Info("Service manager initialized successfully")

	return nil
}

// Service getters
func (sm *serviceManager) Note() NoteService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}

	return sm.noteService
}

func (sm *serviceManager) Upload() UploadService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}

	return sm.uploadService
}

func (sm *serviceManager) Review() ReviewService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}

	return sm.reviewService
}

func (sm *serviceManager) Role() RoleService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}

	return sm.roleService
}

func (sm *serviceManager) Notification() NotificationService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}

	return sm.notificationService
}

func (sm *serviceManager) Export() ExportService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}

	return sm.exportService
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

	if sm.eventPublisher != nil {
		if err := sm.eventPublisher.Close(); err != nil {
			sm.logger.Error("Failed to close event publisher", "error", err)
		}
	}

	if repoManager, ok := sm.repo.(repositories.RepositoryManager); ok {
		if err := repoManager.Shutdown(ctx); err != nil {
			sm.logger.Error("Failed to shutdown repository manager", "error", err)
		}
	}

	sm.shutdown = true
	sm.logger.Info("Service manager shut down completed")

	return nil
}

// IsInitialized returns whether the service manager has been initialized
func (sm *serviceManager) IsInitialized() bool {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	return sm.initialized
}

// WithTimeout creates a context with the default timeout
func (sm *serviceManager) WithTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, sm.config.DefaultTimeout)
}

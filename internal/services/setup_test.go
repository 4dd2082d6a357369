package services

import (
	"io"
	"log/slog"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/OpenNotes-2025/notes-service/internal/events"
	"github.com/OpenNotes-2025/notes-service/internal/models"
	"github.com/OpenNotes-2025/notes-service/internal/repositories"
	"github.com/OpenNotes-2025/notes-service/internal/repositories/postgres"
	"github.com/OpenNotes-2025/notes-service/internal/storage"
	"github.com/OpenNotes-2025/notes-service/internal/validator"
)

// testEnv bundles the in-memory dependencies the service tests share
type testEnv struct {
	db        *gorm.DB
	repo      repositories.Repository
	storage   *storage.MockObjectStorage
	publisher *events.MockEventPublisher
	logger    *slog.Logger
	validator *validator.Validator
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := db.AutoMigrate(&models.User{}, &models.Note{}, &models.RoleAssignment{}, &models.Notification{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	return &testEnv{
		db:        db,
		repo:      postgres.NewPostgreSQLRepository(postgres.RepositoryConfig{DB: db}),
		storage:   storage.NewMockObjectStorage(),
		publisher: events.NewMockEventPublisher(log),
		logger:    log,
		validator: validator.New(),
	}
}

func (env *testEnv) noteService() NoteService {
	return NewNoteService(env.repo, env.db, env.storage, env.publisher, env.logger, env.validator)
}

func (env *testEnv) uploadService() UploadService {
	return NewUploadService(env.repo, env.db, env.storage, env.publisher, env.logger, env.validator)
}

func (env *testEnv) reviewService() ReviewService {
	return NewReviewService(env.repo, env.db, env.publisher, env.logger, env.validator)
}

func (env *testEnv) roleService() RoleService {
	return NewRoleService(env.repo, env.db, env.publisher, env.logger, env.validator)
}

func (env *testEnv) notificationService() NotificationService {
	return NewNotificationService(env.repo, env.db, env.logger)
}

func (env *testEnv) exportService() ExportService {
	return NewExportService(env.repo, env.db, env.logger)
}

// seedTestUser creates a profile row plus the authoritative role rows,
// with the mirror column set to the most privileged role
func seedTestUser(t *testing.T, env *testEnv, id string, roles ...models.UserRole) *models.User {
	t.Helper()

	user := &models.User{
		ID:       id,
		FullName: "Test User " + id,
		Email:    id + "@example.edu",
		Role:     models.HighestRole(roles),
	}
	if err := env.db.Create(user).Error; err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}

	for _, role := range roles {
		assignment := &models.RoleAssignment{UserID: id, Role: role}
		if err := env.db.Create(assignment).Error; err != nil {
			t.Fatalf("failed to seed role assignment: %v", err)
		}
	}

	return user
}

func seedTestNote(t *testing.T, env *testEnv, uploaderID string, status models.NoteStatus) *models.Note {
	t.Helper()

	note := &models.Note{
		Title:      "Computer Networks Unit 2",
		Category:   models.CategoryStudyMaterial,
		Subject:    "Computer Networks",
		FilePath:   uploaderID + "/1700000000.pdf",
		FileType:   "application/pdf",
		FileSize:   4096,
		Status:     status,
		UploadedBy: uploaderID,
	}
	if err := env.db.Create(note).Error; err != nil {
		t.Fatalf("failed to seed note: %v", err)
	}
	return note
}

// findEvent returns the first published event of the given type, or nil
func findEvent(published []*events.Event, eventType string) *events.Event {
	for _, event := range published {
		if event.Type == eventType {
			return event
		}
	}
	return nil
}

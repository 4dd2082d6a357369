package repositories

import (
	"context"

	"github.com/OpenNotes-2025/notes-service/internal/models"
	"gorm.io/gorm"
)

// NoteRepository handles note metadata persistence. Implementations take
// an optional transaction handle the way every repository here does: nil
// means "use the repository's own connection".
type NoteRepository interface {
	Create(ctx context.Context, tx *gorm.DB, note *models.Note) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Note, error)
	Update(ctx context.Context, tx *gorm.DB, note *models.Note) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error

	// List and search operations
	List(ctx context.Context, tx *gorm.DB, filters NoteFilters) ([]*models.Note, int64, error)
	Search(ctx context.Context, tx *gorm.DB, query string, filters NoteFilters) ([]*models.Note, int64, error)
	GetByStatus(ctx context.Context, tx *gorm.DB, status models.NoteStatus, filters NoteFilters) ([]*models.Note, int64, error)
	GetByUploader(ctx context.Context, tx *gorm.DB, uploaderID string, filters NoteFilters) ([]*models.Note, int64, error)

	// Lifecycle
	UpdateStatus(ctx context.Context, tx *gorm.DB, id uint, change StatusChange) error

	// Counters
	IncrementDownloadCount(ctx context.Context, tx *gorm.DB, id uint) error

	// Browse filter support
	DistinctDepartments(ctx context.Context, tx *gorm.DB) ([]string, error)

	// Statistics
	CountByStatus(ctx context.Context, tx *gorm.DB) (*NoteCounts, error)
	GetUploaderStats(ctx context.Context, tx *gorm.DB, uploaderID string) (*models.UploaderStats, error)

	// Permission checks
	IsUploader(ctx context.Context, tx *gorm.DB, noteID uint, userID string) (bool, error)
}

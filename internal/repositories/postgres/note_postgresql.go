package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/OpenNotes-2025/notes-service/internal/cache"
	"github.com/OpenNotes-2025/notes-service/internal/models"
	"github.com/OpenNotes-2025/notes-service/internal/repositories"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type NotePostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewNotePostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.NoteRepository {
	return &NotePostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

// getDB returns the transaction DB if provided, otherwise returns the default DB
func (n *NotePostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return n.db
}

// Create inserts a new note row and invalidates listing caches
func (n *NotePostgreSQL) Create(ctx context.Context, tx *gorm.DB, note *models.Note) error {
	db := n.getDB(tx)
	if err := db.WithContext(ctx).Create(note).Error; err != nil {
		return fmt.Errorf("failed to create note: %w", err)
	}
	cache.InvalidateNoteCache(ctx, n.cacheManager, note.ID, note.UploadedBy)

	return nil
}

// GetByID retrieves a note by ID with caching
func (n *NotePostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Note, error) {
	cacheKey := fmt.Sprintf("id:%d", id)
	var note models.Note

	err := n.cacheManager.Note.CacheOrExecute(ctx, cacheKey, &note, cache.NoteCacheConfig.TTL, func() (interface{}, error) {
		var dbNote models.Note
		err := n.getDB(tx).WithContext(ctx).
			Preload("Uploader").
			First(&dbNote, id).Error
		if err != nil {
			return nil, fmt.Errorf("failed to get note: %w", err)
		}
		return &dbNote, nil
	})

	if err != nil {
		return nil, err
	}

	return &note, nil
}

// Update updates mutable note metadata and invalidates cache
func (n *NotePostgreSQL) Update(ctx context.Context, tx *gorm.DB, note *models.Note) error {
	db := n.getDB(tx)
	if err := db.WithContext(ctx).Model(&models.Note{}).Where("id = ?", note.ID).Updates(map[string]interface{}{
		"title":               note.Title,
		"description":         note.Description,
		"category":            note.Category,
		"subject":             note.Subject,
		"unit":                note.Unit,
		"year":                note.Year,
		"semester":            note.Semester,
		"department":          note.Department,
		"question_paper_year": note.PaperYear,
		"tags":                note.Tags,
		"updated_at":          note.UpdatedAt,
	}).Error; err != nil {
		return fmt.Errorf("failed to update note: %w", err)
	}

	cache.InvalidateNoteCache(ctx, n.cacheManager, note.ID, note.UploadedBy)

	return nil
}

// Delete hard deletes a note row. Blob cleanup is the caller's job.
func (n *NotePostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	db := n.getDB(tx)

	// Get note info before deleting for cache invalidation
	var note models.Note
	if err := db.WithContext(ctx).Select("id, uploaded_by").First(&note, id).Error; err != nil {
		return fmt.Errorf("failed to get note before delete: %w", err)
	}

	if err := db.WithContext(ctx).Unscoped().Delete(&models.Note{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
	}

	cache.InvalidateNoteCache(ctx, n.cacheManager, id, note.UploadedBy)

	return nil
}

// List retrieves notes with filters and pagination
func (n *NotePostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.NoteFilters) ([]*models.Note, int64, error) {
	query := n.getDB(tx).WithContext(ctx).Model(&models.Note{})

	// Apply filters
	query = n.applyFilters(query, filters)

	// Count total
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// Apply pagination and ordering
	query = n.applyPaginationAndSort(query, filters)

	// Execute query
	var notes []*models.Note
	err := query.Preload("Uploader").Find(&notes).Error
	if err != nil {
		return nil, 0, err
	}

	return notes, total, nil
}

// Search performs a case-insensitive substring search across the
// browsable text columns, combined with the structured filters.
func (n *NotePostgreSQL) Search(ctx context.Context, tx *gorm.DB, query string, filters repositories.NoteFilters) ([]*models.Note, int64, error) {
	db := n.getDB(tx).WithContext(ctx).Model(&models.Note{})

	if query != "" {
		searchQuery := fmt.Sprintf("%%%s%%", strings.ToLower(query))
		db = db.Where(
			"LOWER(title) LIKE ? OR LOWER(description) LIKE ? OR LOWER(subject) LIKE ? OR LOWER(department) LIKE ? OR LOWER(unit) LIKE ? OR LOWER(question_paper_year) LIKE ? OR LOWER(file_type) LIKE ? OR LOWER(CAST(tags AS TEXT)) LIKE ?",
			searchQuery, searchQuery, searchQuery, searchQuery, searchQuery, searchQuery, searchQuery, searchQuery)
	}

	// Apply other filters
	db = n.applyFilters(db, filters)

	// Count total
	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// Apply pagination and ordering
	db = n.applyPaginationAndSort(db, filters)

	// Execute query
	var notes []*models.Note
	err := db.Preload("Uploader").Find(&notes).Error
	if err != nil {
		return nil, 0, err
	}

	return notes, total, nil
}

// GetByStatus retrieves notes in a given lifecycle state with pagination
func (n *NotePostgreSQL) GetByStatus(ctx context.Context, tx *gorm.DB, status models.NoteStatus, filters repositories.NoteFilters) ([]*models.Note, int64, error) {
	filters.Status = &status
	return n.List(ctx, tx, filters)
}

// GetByUploader retrieves notes uploaded by a specific user
func (n *NotePostgreSQL) GetByUploader(ctx context.Context, tx *gorm.DB, uploaderID string, filters repositories.NoteFilters) ([]*models.Note, int64, error) {
	filters.UploadedBy = &uploaderID
	return n.List(ctx, tx, filters)
}

// UpdateStatus applies a lifecycle transition. Approve stamps the
// reviewer and timestamp, reject stamps the reason; columns not named by
// the change are cleared so a re-review starts clean.
func (n *NotePostgreSQL) UpdateStatus(ctx context.Context, tx *gorm.DB, id uint, change repositories.StatusChange) error {
	db := n.getDB(tx)

	// Get note info for cache invalidation
	var note models.Note
	if err := db.WithContext(ctx).Select("id, uploaded_by").First(&note, id).Error; err != nil {
		return fmt.Errorf("failed to get note: %w", err)
	}

	if err := db.WithContext(ctx).
		Model(&models.Note{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":           change.Status,
			"approved_by":      change.ApprovedBy,
			"approved_at":      change.ApprovedAt,
			"rejection_reason": change.Reason,
		}).Error; err != nil {
		return err
	}

	cache.InvalidateNoteCache(ctx, n.cacheManager, id, note.UploadedBy)

	return nil
}

// IncrementDownloadCount bumps the counter atomically in SQL so
// concurrent downloads never lose increments.
func (n *NotePostgreSQL) IncrementDownloadCount(ctx context.Context, tx *gorm.DB, id uint) error {
	db := n.getDB(tx)

	result := db.WithContext(ctx).
		Model(&models.Note{}).
		Where("id = ?", id).
		UpdateColumn("download_count", gorm.Expr("download_count + ?", 1))
	if result.Error != nil {
		return fmt.Errorf("failed to increment download count: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	cache.SafeDelete(ctx, n.cacheManager.Note, fmt.Sprintf("id:%d", id))

	return nil
}

// DistinctDepartments lists the departments present on approved notes,
// cached for the browse filter dropdown.
func (n *NotePostgreSQL) DistinctDepartments(ctx context.Context, tx *gorm.DB) ([]string, error) {
	var departments []string

	err := n.cacheManager.Note.CacheOrExecute(ctx, "departments", &departments, cache.NoteCacheConfig.TTL, func() (interface{}, error) {
		var dbDepartments []string
		err := n.getDB(tx).WithContext(ctx).
			Model(&models.Note{}).
			Where("status = ? AND department IS NOT NULL AND department != ''", models.StatusApproved).
			Distinct("department").
			Order("department ASC").
			Pluck("department", &dbDepartments).Error
		if err != nil {
			return nil, fmt.Errorf("failed to list departments: %w", err)
		}
		return dbDepartments, nil
	})

	return departments, err
}

// CountByStatus returns note totals per lifecycle state in a single query
func (n *NotePostgreSQL) CountByStatus(ctx context.Context, tx *gorm.DB) (*repositories.NoteCounts, error) {
	db := n.getDB(tx)
	counts := &repositories.NoteCounts{}

	err := db.WithContext(ctx).
		Model(&models.Note{}).
		Select(
			"COUNT(*), "+
				"SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), "+
				"SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), "+
				"SUM(CASE WHEN status = ? THEN 1 ELSE 0 END)",
			models.StatusPending, models.StatusApproved, models.StatusRejected).
		Row().
		Scan(&counts.Total, &counts.Pending, &counts.Approved, &counts.Rejected)
	if err != nil {
		return nil, fmt.Errorf("failed to count notes by status: %w", err)
	}

	return counts, nil
}

// GetUploaderStats retrieves dashboard statistics for an uploader
func (n *NotePostgreSQL) GetUploaderStats(ctx context.Context, tx *gorm.DB, uploaderID string) (*models.UploaderStats, error) {
	db := n.getDB(tx)
	stats := &models.UploaderStats{}

	err := db.WithContext(ctx).
		Model(&models.Note{}).
		Select(
			"COUNT(*), "+
				"SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), "+
				"SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), "+
				"SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), "+
				"COALESCE(SUM(download_count), 0)",
			models.StatusPending, models.StatusApproved, models.StatusRejected).
		Where("uploaded_by = ?", uploaderID).
		Row().
		Scan(&stats.TotalNotes, &stats.PendingNotes, &stats.ApprovedNotes, &stats.RejectedNotes, &stats.TotalDownloads)
	if err != nil {
		return nil, fmt.Errorf("failed to get uploader stats: %w", err)
	}

	return stats, nil
}

// IsUploader checks if a user owns a note
func (n *NotePostgreSQL) IsUploader(ctx context.Context, tx *gorm.DB, noteID uint, userID string) (bool, error) {
	db := n.getDB(tx)
	var count int64
	err := db.WithContext(ctx).
		Model(&models.Note{}).
		Where("id = ? AND uploaded_by = ?", noteID, userID).
		Count(&count).Error

	return count > 0, err
}

// Helper methods

// applyFilters applies common filters to a query
func (n *NotePostgreSQL) applyFilters(query *gorm.DB, filters repositories.NoteFilters) *gorm.DB {
	return n.helpers.ApplyNoteFilters(query, filters)
}

// applyPaginationAndSort applies pagination and sorting to a query
func (n *NotePostgreSQL) applyPaginationAndSort(query *gorm.DB, filters repositories.NoteFilters) *gorm.DB {
	return n.helpers.ApplyPaginationAndSort(query, filters.SortBy, filters.SortOrder, filters.Limit, filters.Offset)
}

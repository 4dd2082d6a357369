package services

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"time"

	"gorm.io/gorm"

	"github.com/OpenNotes-2025/notes-service/internal/events"
	"github.com/OpenNotes-2025/notes-service/internal/models"
	"github.com/OpenNotes-2025/notes-service/internal/repositories"
	"github.com/OpenNotes-2025/notes-service/internal/storage"
	"github.com/OpenNotes-2025/notes-service/internal/validator"
)

// downloadURLTTL is how long a presigned download link stays valid
const downloadURLTTL = 15 * time.Minute

type noteService struct {
	repo           repositories.Repository
	db             *gorm.DB
	storage        storage.ObjectStorage
	eventPublisher events.EventPublisher
	logger         *slog.Logger
	validator      *validator.Validator
	roles          roleChecker
}

func NewNoteService(repo repositories.Repository, db *gorm.DB, store storage.ObjectStorage, publisher events.EventPublisher, logger *slog.Logger, v *validator.Validator) NoteService {
	return &noteService{
		repo:           repo,
		db:             db,
		storage:        store,
		eventPublisher: publisher,
		logger:         logger,
		validator:      v,
		roles:          roleChecker{repo: repo},
	}
}

// List returns approved notes only. The status filter from the caller
// is ignored: anonymous browsing never sees pending or rejected rows.
func (s *noteService) List(ctx context.Context, params models.ListNotesParams) (*models.PaginatedResponse, error) {
	page, size := normalizePaging(params.Page, params.Size)

	filters := toNoteFilters(params)
	approved := models.StatusApproved
	filters.Status = &approved

	var notes []*models.Note
	var total int64
	var err error

	if params.Search != "" {
		notes, total, err = s.repo.Note().Search(ctx, nil, params.Search, filters)
	} else {
		notes, total, err = s.repo.Note().List(ctx, nil, filters)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}

	responses := make([]*NoteResponse, 0, len(notes))
	for _, note := range notes {
		responses = append(responses, &NoteResponse{Note: note})
	}

	return newPaginatedResponse(responses, total, page, size, len(responses)), nil
}

func (s *noteService) GetByID(ctx context.Context, id uint, userID string) (*NoteResponse, error) {
	note, err := s.repo.Note().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrNoteNotFound
		}
		return nil, fmt.Errorf("failed to get note: %w", err)
	}

	isAdmin, err := s.roles.isAdmin(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("role check failed: %w", err)
	}
	isOwner := userID != "" && note.UploadedBy == userID

	// Non-approved notes are visible to their uploader and admins only
	if note.Status != models.StatusApproved && !isOwner && !isAdmin {
		return nil, ErrNoteNotFound
	}

	return &NoteResponse{
		Note:      note,
		CanEdit:   isOwner || isAdmin,
		CanDelete: isAdmin,
	}, nil
}

// Download hands out a presigned URL and bumps the counter. The counter
// update is a single SQL increment so concurrent downloads all count.
func (s *noteService) Download(ctx context.Context, id uint, userID string) (*DownloadResponse, error) {
	note, err := s.repo.Note().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrNoteNotFound
		}
		return nil, fmt.Errorf("failed to get note: %w", err)
	}

	if note.Status != models.StatusApproved {
		isAdmin, err := s.roles.isAdmin(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("role check failed: %w", err)
		}
		isOwner := userID != "" && note.UploadedBy == userID
		if !isOwner && !isAdmin {
			return nil, ErrNoteNotApproved
		}
	}

	url, expiresAt, err := s.storage.DownloadURL(ctx, note.FilePath, downloadURLTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to generate download URL: %w", err)
	}

	if err := s.repo.Note().IncrementDownloadCount(ctx, nil, id); err != nil {
		// The user already has their link; losing one count beats
		// failing the download
		s.logger.ErrorContext(ctx, "Failed to increment download count",
			"note_id", id, "error", err)
	}

	return &DownloadResponse{
		URL:       url,
		ExpiresAt: expiresAt,
		FileType:  note.FileType,
		FileName:  path.Base(note.FilePath),
	}, nil
}

func (s *noteService) Departments(ctx context.Context) ([]string, error) {
	departments, err := s.repo.Note().DistinctDepartments(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list departments: %w", err)
	}
	return departments, nil
}

func (s *noteService) GetMine(ctx context.Context, uploaderID string, params models.ListNotesParams) (*models.PaginatedResponse, error) {
	page, size := normalizePaging(params.Page, params.Size)

	filters := toNoteFilters(params)
	notes, total, err := s.repo.Note().GetByUploader(ctx, nil, uploaderID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list own notes: %w", err)
	}

	responses := make([]*NoteResponse, 0, len(notes))
	for _, note := range notes {
		responses = append(responses, &NoteResponse{
			Note:    note,
			CanEdit: true,
		})
	}

	return newPaginatedResponse(responses, total, page, size, len(responses)), nil
}

func (s *noteService) UploaderStats(ctx context.Context, uploaderID string) (*models.UploaderStats, error) {
	stats, err := s.repo.Note().GetUploaderStats(ctx, nil, uploaderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get uploader stats: %w", err)
	}
	return stats, nil
}

func (s *noteService) Update(ctx context.Context, id uint, req *UpdateNoteRequest, userID string) (*NoteResponse, error) {
	s.logger.InfoContext(ctx, "Updating note", "note_id", id, "user_id", userID)

	if errors := s.validator.GetBusinessValidator().ValidateNoteUpdate(req); len(errors) > 0 {
		return nil, errors
	}

	note, err := s.repo.Note().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrNoteNotFound
		}
		return nil, fmt.Errorf("failed to get note: %w", err)
	}

	isAdmin, err := s.roles.isAdmin(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("role check failed: %w", err)
	}
	if note.UploadedBy != userID && !isAdmin {
		return nil, NewPermissionError(userID, id, "note", "update", "not uploader or admin")
	}

	applyNoteUpdate(note, req)
	note.UpdatedAt = time.Now()

	if err := s.repo.Note().Update(ctx, nil, note); err != nil {
		return nil, fmt.Errorf("failed to update note: %w", err)
	}

	return &NoteResponse{
		Note:      note,
		CanEdit:   true,
		CanDelete: isAdmin,
	}, nil
}

// Delete removes the metadata row first, then the blob. A dangling blob
// is invisible to users and recoverable; a dangling row is a broken
// listing entry.
func (s *noteService) Delete(ctx context.Context, id uint, userID string, confirm bool) error {
	s.logger.InfoContext(ctx, "Deleting note", "note_id", id, "user_id", userID)

	isAdmin, err := s.roles.isAdmin(ctx, userID)
	if err != nil {
		return fmt.Errorf("role check failed: %w", err)
	}
	if !isAdmin {
		return NewPermissionError(userID, id, "note", "delete", "admin role required")
	}

	if !confirm {
		return ErrDeleteNotConfirmed
	}

	note, err := s.repo.Note().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrNoteNotFound
		}
		return fmt.Errorf("failed to get note: %w", err)
	}

	if err := s.repo.Note().Delete(ctx, nil, id); err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
	}

	if err := s.storage.Delete(ctx, note.FilePath); err != nil {
		s.logger.ErrorContext(ctx, "Failed to delete note file, blob orphaned",
			"note_id", id, "file_path", note.FilePath, "error", err)
	}

	s.publishNoteEvent(ctx, events.EventNoteDeleted, note, userID, "")

	return nil
}

// publishNoteEvent publishes best effort; failures are logged only
func (s *noteService) publishNoteEvent(ctx context.Context, eventType string, note *models.Note, actorID, reason string) {
	if s.eventPublisher == nil {
		return
	}

	event := events.NewEvent(eventType, &events.NoteEvent{
		NoteID:     note.ID,
		Title:      note.Title,
		Category:   string(note.Category),
		Status:     note.Status,
		UploadedBy: note.UploadedBy,
		ReviewedBy: actorID,
		Reason:     reason,
	})

	if err := s.eventPublisher.Publish(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish note event",
			"event_type", eventType, "note_id", note.ID, "error", err)
	}
}

// applyNoteUpdate copies the set fields of an update request onto the note
func applyNoteUpdate(note *models.Note, req *UpdateNoteRequest) {
	if req.Title != nil {
		note.Title = *req.Title
	}
	if req.Description != nil {
		note.Description = req.Description
	}
	if req.Category != nil {
		note.Category = models.NormalizeCategory(*req.Category)
	}
	if req.Subject != nil {
		note.Subject = *req.Subject
	}
	if req.Unit != nil {
		note.Unit = req.Unit
	}
	if req.Year != nil {
		note.Year = req.Year
	}
	if req.Semester != nil {
		note.Semester = req.Semester
	}
	if req.Department != nil {
		note.Department = req.Department
	}
	if req.PaperYear != nil {
		note.PaperYear = req.PaperYear
	}
	if req.Tags != nil {
		note.Tags = marshalTags(validator.ParseTags(*req.Tags))
	}
}

package services

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/OpenNotes-2025/notes-service/internal/events"
	"github.com/OpenNotes-2025/notes-service/internal/models"
	"github.com/OpenNotes-2025/notes-service/internal/repositories"
	"github.com/OpenNotes-2025/notes-service/internal/storage"
	"github.com/OpenNotes-2025/notes-service/internal/validator"
)

type uploadService struct {
	repo           repositories.Repository
	db             *gorm.DB
	storage        storage.ObjectStorage
	eventPublisher events.EventPublisher
	logger         *slog.Logger
	validator      *validator.Validator
	roles          roleChecker
}

func NewUploadService(repo repositories.Repository, db *gorm.DB, store storage.ObjectStorage, publisher events.EventPublisher, logger *slog.Logger, v *validator.Validator) UploadService {
	return &uploadService{
		repo:           repo,
		db:             db,
		storage:        store,
		eventPublisher: publisher,
		logger:         logger,
		validator:      v,
		roles:          roleChecker{repo: repo},
	}
}

// Upload validates the request, stores the blob, then inserts the
// metadata row as pending. If the insert fails the blob is deleted so
// no orphan survives the failed upload. Status is always forced to
// pending regardless of what the client sent.
func (s *uploadService) Upload(ctx context.Context, req *UploadNoteRequest, file *UploadedFile, uploaderID string) (*NoteResponse, error) {
	s.logger.InfoContext(ctx, "Uploading note", "uploader_id", uploaderID, "title", req.Title)

	canUpload, err := s.roles.canUpload(ctx, uploaderID)
	if err != nil {
		return nil, fmt.Errorf("permission check failed: %w", err)
	}
	if !canUpload {
		return nil, NewPermissionError(uploaderID, 0, "note", "upload", "staff or admin role required")
	}

	if errors := s.validator.GetBusinessValidator().ValidateNoteUpload(req, file.Size, file.ContentType); len(errors) > 0 {
		return nil, errors
	}

	// Store the blob first so the row never points at a missing file
	key := buildStorageKey(uploaderID, file.Name)
	if err := s.storage.Upload(ctx, key, file.Reader, file.Size, file.ContentType); err != nil {
		return nil, fmt.Errorf("failed to store file: %w", err)
	}

	note := &models.Note{
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Category:    models.NormalizeCategory(req.Category),
		Subject:     strings.TrimSpace(req.Subject),
		Unit:        req.Unit,
		Year:        req.Year,
		Semester:    req.Semester,
		PaperYear:   req.PaperYear,
		Tags:        marshalTags(validator.ParseTags(req.Tags)),
		FilePath:    key,
		FileType:    file.ContentType,
		FileSize:    file.Size,
		Status:      models.StatusPending,
		UploadedBy:  uploaderID,
	}
	if dept := strings.TrimSpace(req.Department); dept != "" {
		note.Department = &dept
	}

	if err := s.repo.Note().Create(ctx, nil, note); err != nil {
		// Compensate: remove the blob so the failed upload leaves nothing
		if delErr := s.storage.Delete(ctx, key); delErr != nil {
			s.logger.ErrorContext(ctx, "Failed to clean up blob after insert failure, blob orphaned",
				"file_path", key, "error", delErr)
		}
		return nil, fmt.Errorf("failed to create note: %w", err)
	}

	s.notifyAdmins(ctx, note)
	s.publishUploadEvent(ctx, note)

	s.logger.InfoContext(ctx, "Note uploaded", "note_id", note.ID, "uploader_id", uploaderID)

	return &NoteResponse{
		Note:    note,
		CanEdit: true,
	}, nil
}

// notifyAdmins writes the review notification. Best effort: the upload
// already succeeded, so a failed insert is only logged.
func (s *uploadService) notifyAdmins(ctx context.Context, note *models.Note) {
	noteID := note.ID
	notification := &models.Notification{
		Message: fmt.Sprintf("New note awaiting review: %s", note.Title),
		NoteID:  &noteID,
	}

	if err := s.repo.Notification().Create(ctx, nil, notification); err != nil {
		s.logger.ErrorContext(ctx, "Failed to create review notification",
			"note_id", note.ID, "error", err)
	}
}

func (s *uploadService) publishUploadEvent(ctx context.Context, note *models.Note) {
	if s.eventPublisher == nil {
		return
	}

	event := events.NewEvent(events.EventNoteUploaded, &events.NoteEvent{
		NoteID:     note.ID,
		Title:      note.Title,
		Category:   string(note.Category),
		Status:     note.Status,
		UploadedBy: note.UploadedBy,
	})

	if err := s.eventPublisher.Publish(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish upload event",
			"note_id", note.ID, "error", err)
	}
}

// buildStorageKey namespaces blobs per uploader with a timestamp name so
// concurrent uploads never collide
func buildStorageKey(uploaderID, fileName string) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	return fmt.Sprintf("%s/%d%s", uploaderID, time.Now().UnixNano(), ext)
}

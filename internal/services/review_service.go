package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/OpenNotes-2025/notes-service/internal/events"
	"github.com/OpenNotes-2025/notes-service/internal/models"
	"github.com/OpenNotes-2025/notes-service/internal/repositories"
	"github.com/OpenNotes-2025/notes-service/internal/validator"
)

type reviewService struct {
	repo           repositories.Repository
	db             *gorm.DB
	eventPublisher events.EventPublisher
	logger         *slog.Logger
	validator      *validator.Validator
	roles          roleChecker
}

func NewReviewService(repo repositories.Repository, db *gorm.DB, publisher events.EventPublisher, logger *slog.Logger, v *validator.Validator) ReviewService {
	return &reviewService{
		repo:           repo,
		db:             db,
		eventPublisher: publisher,
		logger:         logger,
		validator:      v,
		roles:          roleChecker{repo: repo},
	}
}

// PendingQueue lists pending notes oldest first so the queue drains in
// upload order. Uploader profiles come preloaded for the review UI.
func (s *reviewService) PendingQueue(ctx context.Context, adminID string, params models.ListNotesParams) (*models.PaginatedResponse, error) {
	if err := s.requireAdmin(ctx, adminID, 0, "list_pending"); err != nil {
		return nil, err
	}

	page, size := normalizePaging(params.Page, params.Size)

	filters := toNoteFilters(params)
	if filters.SortBy == "" {
		filters.SortBy = "created_at"
		filters.SortOrder = "asc"
	}

	notes, total, err := s.repo.Note().GetByStatus(ctx, nil, models.StatusPending, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending notes: %w", err)
	}

	responses := make([]*NoteResponse, 0, len(notes))
	for _, note := range notes {
		responses = append(responses, &NoteResponse{
			Note:      note,
			CanEdit:   true,
			CanDelete: true,
		})
	}

	return newPaginatedResponse(responses, total, page, size, len(responses)), nil
}

// Approve moves a pending note to approved, stamping who approved it
// and when
func (s *reviewService) Approve(ctx context.Context, noteID uint, adminID string) (*NoteResponse, error) {
	s.logger.InfoContext(ctx, "Approving note", "note_id", noteID, "admin_id", adminID)

	if err := s.requireAdmin(ctx, adminID, noteID, "approve"); err != nil {
		return nil, err
	}

	note, err := s.getPendingNote(ctx, noteID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	change := repositories.StatusChange{
		Status:     models.StatusApproved,
		ApprovedBy: &adminID,
		ApprovedAt: &now,
	}
	if err := s.repo.Note().UpdateStatus(ctx, nil, noteID, change); err != nil {
		return nil, fmt.Errorf("failed to approve note: %w", err)
	}

	note.Status = models.StatusApproved
	note.ApprovedBy = &adminID
	note.ApprovedAt = &now
	note.RejectionReason = nil

	s.publishReviewEvent(ctx, events.EventNoteApproved, note, adminID, "")

	return &NoteResponse{
		Note:      note,
		CanEdit:   true,
		CanDelete: true,
	}, nil
}

// Reject moves a pending note to rejected. The reason is mandatory and
// the stored file stays put so the uploader can still retrieve it.
func (s *reviewService) Reject(ctx context.Context, noteID uint, req *RejectNoteRequest, adminID string) (*NoteResponse, error) {
	s.logger.InfoContext(ctx, "Rejecting note", "note_id", noteID, "admin_id", adminID)

	if err := s.requireAdmin(ctx, adminID, noteID, "reject"); err != nil {
		return nil, err
	}

	if errors := s.validator.GetBusinessValidator().ValidateReject(req); len(errors) > 0 {
		return nil, errors
	}

	note, err := s.getPendingNote(ctx, noteID)
	if err != nil {
		return nil, err
	}

	reason := strings.TrimSpace(req.Reason)
	change := repositories.StatusChange{
		Status: models.StatusRejected,
		Reason: &reason,
	}
	if err := s.repo.Note().UpdateStatus(ctx, nil, noteID, change); err != nil {
		return nil, fmt.Errorf("failed to reject note: %w", err)
	}

	note.Status = models.StatusRejected
	note.RejectionReason = &reason
	note.ApprovedBy = nil
	note.ApprovedAt = nil

	s.publishReviewEvent(ctx, events.EventNoteRejected, note, adminID, reason)

	return &NoteResponse{
		Note:      note,
		CanEdit:   true,
		CanDelete: true,
	}, nil
}

// Counts summarizes the moderation workload
func (s *reviewService) Counts(ctx context.Context, adminID string) (*ReviewCountsResponse, error) {
	if err := s.requireAdmin(ctx, adminID, 0, "view_counts"); err != nil {
		return nil, err
	}

	counts, err := s.repo.Note().CountByStatus(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to count notes: %w", err)
	}

	unread, err := s.repo.Notification().UnreadCount(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to count notifications: %w", err)
	}

	return &ReviewCountsResponse{
		Counts:             counts,
		UnreadNotification: unread,
	}, nil
}

func (s *reviewService) requireAdmin(ctx context.Context, adminID string, noteID uint, action string) error {
	isAdmin, err := s.roles.isAdmin(ctx, adminID)
	if err != nil {
		return fmt.Errorf("role check failed: %w", err)
	}
	if !isAdmin {
		return NewPermissionError(adminID, noteID, "note", action, "admin role required")
	}
	return nil
}

// getPendingNote loads a note and verifies it is still pending. Reviews
// of already-reviewed notes are rejected rather than silently re-applied.
func (s *reviewService) getPendingNote(ctx context.Context, noteID uint) (*models.Note, error) {
	note, err := s.repo.Note().GetByID(ctx, nil, noteID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrNoteNotFound
		}
		return nil, fmt.Errorf("failed to get note: %w", err)
	}

	if note.Status != models.StatusPending {
		return nil, ErrNoteNotPending
	}

	return note, nil
}

func (s *reviewService) publishReviewEvent(ctx context.Context, eventType string, note *models.Note, adminID, reason string) {
	if s.eventPublisher == nil {
		return
	}

	event := events.NewEvent(eventType, &events.NoteEvent{
		NoteID:     note.ID,
		Title:      note.Title,
		Category:   string(note.Category),
		Status:     note.Status,
		UploadedBy: note.UploadedBy,
		ReviewedBy: adminID,
		Reason:     reason,
	})

	if err := s.eventPublisher.Publish(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish review event",
			"event_type", eventType, "note_id", note.ID, "error", err)
	}
}

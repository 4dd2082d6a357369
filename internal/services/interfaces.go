package services

import (
	"context"
	"io"
	"time"

	"github.com/OpenNotes-2025/notes-service/internal/models"
	"github.com/OpenNotes-2025/notes-service/internal/repositories"
	"github.com/OpenNotes-2025/notes-service/internal/validator"
)

// ===== REQUEST/RESPONSE DTOs =====

// Use business validator types
type UploadNoteRequest = validator.UploadNoteRequest
type UpdateNoteRequest = validator.UpdateNoteRequest
type RejectNoteRequest = validator.RejectNoteRequest
type RoleToggleRequest = validator.RoleToggleRequest

// NoteResponse decorates a note with what the caller may do with it
type NoteResponse struct {
	*models.Note
	CanEdit   bool `json:"can_edit"`
	CanDelete bool `json:"can_delete"`
}

// DownloadResponse carries a presigned URL for a note file
type DownloadResponse struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
	FileType  string    `json:"file_type"`
	FileName  string    `json:"file_name"`
}

// UploadedFile carries the file part of a multipart upload into the
// upload service
type UploadedFile struct {
	Reader      io.Reader
	Size        int64
	ContentType string
	Name        string
}

// UserRolesResponse lists a user's roles alongside the primary mirror
type UserRolesResponse struct {
	User  *models.User      `json:"user"`
	Roles []models.UserRole `json:"roles"`
}

// ReviewCountsResponse summarizes the admin review queue
type ReviewCountsResponse struct {
	Counts             *repositories.NoteCounts `json:"counts"`
	UnreadNotification int64                    `json:"unread_notifications"`
}

// ===== SERVICE INTERFACES =====

// NoteService covers the public browse surface plus uploader and admin
// note operations
type NoteService interface {
	// List returns approved notes for anonymous browsing. Non-approved
	// states are never visible here regardless of the caller.
	List(ctx context.Context, params models.ListNotesParams) (*models.PaginatedResponse, error)

	// GetByID returns a single note. Anonymous callers and callers
	// without a claim on the note only see approved notes.
	GetByID(ctx context.Context, id uint, userID string) (*NoteResponse, error)

	// Download returns a presigned URL and bumps the download counter
	Download(ctx context.Context, id uint, userID string) (*DownloadResponse, error)

	// Departments lists distinct departments across approved notes
	Departments(ctx context.Context) ([]string, error)

	// GetMine lists the caller's own uploads in any state
	GetMine(ctx context.Context, uploaderID string, params models.ListNotesParams) (*models.PaginatedResponse, error)

	// UploaderStats returns dashboard counters for an uploader
	UploaderStats(ctx context.Context, uploaderID string) (*models.UploaderStats, error)

	// Update edits note metadata; uploader or admin only
	Update(ctx context.Context, id uint, req *UpdateNoteRequest, userID string) (*NoteResponse, error)

	// Delete removes a note and its file; admin only, and the caller
	// must pass confirm=true
	Delete(ctx context.Context, id uint, userID string, confirm bool) error
}

// UploadService handles the staff upload flow
type UploadService interface {
	Upload(ctx context.Context, req *UploadNoteRequest, file *UploadedFile, uploaderID string) (*NoteResponse, error)
}

// ReviewService is the admin moderation surface
type ReviewService interface {
	PendingQueue(ctx context.Context, adminID string, params models.ListNotesParams) (*models.PaginatedResponse, error)
	Approve(ctx context.Context, noteID uint, adminID string) (*NoteResponse, error)
	Reject(ctx context.Context, noteID uint, req *RejectNoteRequest, adminID string) (*NoteResponse, error)
	Counts(ctx context.Context, adminID string) (*ReviewCountsResponse, error)
}

// RoleService manages role assignments and the primary-role mirror
type RoleService interface {
	Toggle(ctx context.Context, req *RoleToggleRequest, adminID string) (*UserRolesResponse, error)
	ListUsers(ctx context.Context, adminID string, query string, page, size int) (*models.PaginatedResponse, error)
	GetUserRoles(ctx context.Context, userID string) (*UserRolesResponse, error)
}

// NotificationService serves the admin notification feed
type NotificationService interface {
	ListRecent(ctx context.Context, adminID string, unreadOnly bool, page, size int) (*models.PaginatedResponse, error)
	UnreadCount(ctx context.Context, adminID string) (int64, error)
	MarkRead(ctx context.Context, adminID string, id uint) error
	MarkAllRead(ctx context.Context, adminID string) error
}

// ExportService produces spreadsheet exports for admins
type ExportService interface {
	// ExportNotes renders the notes matching the filters as an XLSX
	// workbook
	ExportNotes(ctx context.Context, adminID string, filters repositories.NoteFilters) ([]byte, error)
}

// ServiceManager wires all services together and manages their lifecycle
type ServiceManager interface {
	Initialize(ctx context.Context) error

	Note() NoteService
	Upload() UploadService
	Review() ReviewService
	Role() RoleService
	Notification() NotificationService
	Export() ExportService

	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

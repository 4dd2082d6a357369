package repositories

import (
	"time"

	"github.com/OpenNotes-2025/notes-service/internal/models"
)

// ===== SHARED FILTER STRUCTS =====

type NoteFilters struct {
	Status     *models.NoteStatus   `json:"status"`
	Category   *models.NoteCategory `json:"category"`
	Department *string              `json:"department"`
	Year       *int                 `json:"year"`
	Semester   *int                 `json:"semester"`
	UploadedBy *string              `json:"uploaded_by"`
	DateFrom   *time.Time           `json:"date_from"`
	DateTo     *time.Time           `json:"date_to"`
	Limit      int                  `json:"limit"`
	Offset     int                  `json:"offset"`
	SortBy     string               `json:"sort_by"`    // "created_at", "approved_at", "title", "download_count"
	SortOrder  string               `json:"sort_order"` // "asc", "desc"
}

type NotificationFilters struct {
	IsRead *bool `json:"is_read"`
	NoteID *uint `json:"note_id"`
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
}

// ===== SHARED HELPER STRUCTS =====

// StatusChange carries everything a lifecycle transition may stamp on a
// note. Approve fills ApprovedBy/ApprovedAt, reject fills Reason.
type StatusChange struct {
	Status     models.NoteStatus `json:"status"`
	ApprovedBy *string           `json:"approved_by"`
	ApprovedAt *time.Time        `json:"approved_at"`
	Reason     *string           `json:"reason"`
}

// ===== SHARED STATISTICS STRUCTS =====

type NoteCounts struct {
	Total    int64 `json:"total"`
	Pending  int64 `json:"pending"`
	Approved int64 `json:"approved"`
	Rejected int64 `json:"rejected"`
}

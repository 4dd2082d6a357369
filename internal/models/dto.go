package models


// ===== PAGINATION & FILTERING =====

type ListNotesParams struct {
	Page       int          `json:"page" validate:"min=0"`
	Size       int          `json:"size" validate:"min=1,max=100"`
	Status     NoteStatus   `json:"status"`
	Category   NoteCategory `json:"category"`
	Department string       `json:"department"`
	Year       *int         `json:"year"`
	Semester   *int         `json:"semester"`
	Search     string       `json:"search"`
	SortBy     string       `json:"sort_by"`
	SortDir    string       `json:"sort_dir" validate:"omitempty,oneof=asc desc"`
}

type PaginatedResponse struct {
	Content          interface{} `json:"content"`
	TotalElements    int64       `json:"total_elements"`
	TotalPages       int         `json:"total_pages"`
	Size             int         `json:"size"`
	Page             int         `json:"page"`
	First            bool        `json:"first"`
	Last             bool        `json:"last"`
	NumberOfElements int         `json:"number_of_elements"`
	Empty            bool        `json:"empty"`
}

// ===== STATISTICS DTOs =====

type UploaderStats struct {
	TotalNotes     int   `json:"total_notes"`
	PendingNotes   int   `json:"pending_notes"`
	ApprovedNotes  int   `json:"approved_notes"`
	RejectedNotes  int   `json:"rejected_notes"`
	TotalDownloads int64 `json:"total_downloads"`
}

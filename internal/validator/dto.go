package validator

// UploadNoteRequest carries the metadata fields of a multipart upload.
// The file itself arrives separately and is validated against the MIME
// allow-list and size cap.
type UploadNoteRequest struct {
	Title       string  `json:"title" form:"title" validate:"required,note_title"`
	Description *string `json:"description" form:"description" validate:"omitempty,max=1000"`
	Category    string  `json:"category" form:"category" validate:"required"`
	Subject     string  `json:"subject" form:"subject" validate:"required,max=100"`
	Unit        *string `json:"unit" form:"unit" validate:"omitempty,max=50"`
	Year        *int    `json:"year" form:"year" validate:"omitempty,study_year"`
	Semester    *int    `json:"semester" form:"semester" validate:"omitempty,study_semester"`
	Department  string  `json:"department" form:"department" validate:"required,max=100"`
	PaperYear   *string `json:"question_paper_year" form:"question_paper_year" validate:"omitempty,max=50"`
	Tags        string  `json:"tags" form:"tags"` // comma separated, split server-side
}

// UpdateNoteRequest carries metadata edits by the uploader or an admin
type UpdateNoteRequest struct {
	Title       *string `json:"title" validate:"omitempty,note_title"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
	Category    *string `json:"category"`
	Subject     *string `json:"subject" validate:"omitempty,max=100"`
	Unit        *string `json:"unit" validate:"omitempty,max=50"`
	Year        *int    `json:"year" validate:"omitempty,study_year"`
	Semester    *int    `json:"semester" validate:"omitempty,study_semester"`
	Department  *string `json:"department" validate:"omitempty,max=100"`
	PaperYear   *string `json:"question_paper_year" validate:"omitempty,max=50"`
	Tags        *string `json:"tags"`
}

// RejectNoteRequest carries the mandatory rejection reason
type RejectNoteRequest struct {
	Reason string `json:"reason" validate:"required,min=3,max=500"`
}

// RoleToggleRequest grants or revokes a role for a user
type RoleToggleRequest struct {
	UserID string `json:"user_id" validate:"required"`
	Role   string `json:"role" validate:"required,user_role"`
	Grant  bool   `json:"grant"`
}

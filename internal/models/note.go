package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type NoteStatus string

const (
	StatusPending  NoteStatus = "pending"
	StatusApproved NoteStatus = "approved"
	StatusRejected NoteStatus = "rejected"
)

type NoteCategory string

const (
	CategoryStudyMaterial NoteCategory = "study_material"
	CategoryQuestionPaper NoteCategory = "question_paper"
	CategoryLabManual     NoteCategory = "lab_manual"
)

// NormalizeCategory maps the legacy display labels still sent by older
// clients onto the canonical category values.
func NormalizeCategory(raw string) NoteCategory {
	switch raw {
	case "Lecture Notes", "Reference Books", "Assignments", "Other":
		return CategoryStudyMaterial
	case "Question Papers":
		return CategoryQuestionPaper
	case "Lab Manuals":
		return CategoryLabManual
	default:
		return NoteCategory(raw)
	}
}

type Note struct {
	ID          uint         `json:"id" gorm:"primaryKey"`
	Title       string       `json:"title" gorm:"not null;size:200;index" validate:"required,min=3,max=200"`
	Description *string      `json:"description" gorm:"type:text" validate:"omitempty,max=1000"`
	Category    NoteCategory `json:"category" gorm:"not null;size:50;index" validate:"required,oneof=study_material question_paper lab_manual"`
	Subject     string       `json:"subject" gorm:"not null;size:100" validate:"required,max=100"`
	Unit        *string      `json:"unit" gorm:"size:50" validate:"omitempty,max=50"`
	Year        *int         `json:"year" gorm:"index" validate:"omitempty,min=1,max=4"`
	Semester    *int         `json:"semester" gorm:"index" validate:"omitempty,min=1,max=8"`
	Department  *string      `json:"department" gorm:"size:100;index" validate:"omitempty,max=100"`
	PaperYear   *string      `json:"question_paper_year" gorm:"size:50" validate:"omitempty,max=50"`
	Tags        datatypes.JSON `json:"tags" gorm:"type:jsonb"`

	// Stored file reference
	FilePath string `json:"file_path" gorm:"not null;size:500"`
	FileType string `json:"file_type" gorm:"not null;size:100"`
	FileSize int64  `json:"file_size" gorm:"not null"`

	// Lifecycle
	Status          NoteStatus `json:"status" gorm:"default:pending;index"`
	RejectionReason *string    `json:"rejection_reason" gorm:"size:500"`
	ApprovedBy      *string    `json:"approved_by" gorm:"size:255;index"`
	ApprovedAt      *time.Time `json:"approved_at" gorm:"index"`

	DownloadCount int64 `json:"download_count" gorm:"not null;default:0"`

	// Metadata
	UploadedBy string         `json:"uploaded_by" gorm:"not null;index;size:255"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Uploader User `json:"uploader" gorm:"foreignKey:UploadedBy"`
}

func (Note) TableName() string {
	return "notes"
}

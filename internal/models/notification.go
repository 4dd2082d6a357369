package models

import "time"

// Notification alerts admins about events that need review, currently
// only new uploads. Creation is best-effort: a failed insert never fails
// the operation that produced it.
type Notification struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Message   string    `json:"message" gorm:"not null;size:500"`
	NoteID    *uint     `json:"note_id" gorm:"index"`
	IsRead    bool      `json:"is_read" gorm:"not null;default:false;index"`
	CreatedAt time.Time `json:"created_at"`
}

func (Notification) TableName() string {
	return "notifications"
}

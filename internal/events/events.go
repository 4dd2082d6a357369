// Package events publishes domain events for the note lifecycle so
// downstream consumers (search indexers, mailers) can react without
// coupling to this service.
package events

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/OpenNotes-2025/notes-service/internal/models"
)

// Event types published by this service
const (
	EventNoteUploaded = "note.uploaded"
	EventNoteApproved = "note.approved"
	EventNoteRejected = "note.rejected"
	EventNoteDeleted  = "note.deleted"
	EventRoleChanged  = "user.role_changed"
)

const (
	eventSource  = "notes-service"
	eventVersion = "1.0"
)

// Event is the envelope every published message shares
type Event struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	Source    string      `json:"source"`
	Version   string      `json:"version"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// NewEvent builds an envelope around a payload
func NewEvent(eventType string, data interface{}) *Event {
	return &Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Source:    eventSource,
		Version:   eventVersion,
		Timestamp: time.Now(),
		Data:      data,
	}
}

// NoteEvent is the payload for note lifecycle events
type NoteEvent struct {
	NoteID     uint              `json:"note_id"`
	Title      string            `json:"title"`
	Category   string            `json:"category"`
	Status     models.NoteStatus `json:"status"`
	UploadedBy string            `json:"uploaded_by"`
	ReviewedBy string            `json:"reviewed_by,omitempty"`
	Reason     string            `json:"reason,omitempty"`
}

// RoleChangedEvent is the payload for role grant/revoke events
type RoleChangedEvent struct {
	UserID      string          `json:"user_id"`
	Role        models.UserRole `json:"role"`
	Granted     bool            `json:"granted"`
	PrimaryRole models.UserRole `json:"primary_role"`
	ChangedBy   string          `json:"changed_by"`
}

// ErrPublishFailed reports a publish that could not be delivered
var ErrPublishFailed = errors.New("event publish failed")

// EventPublisher publishes domain events. Publishing is best effort at
// call sites: a failed publish is logged, never propagated to the user.
type EventPublisher interface {
	Publish(ctx context.Context, event *Event) error
	Close() error
}

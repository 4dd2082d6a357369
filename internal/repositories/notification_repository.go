package repositories

import (
	"context"

	"github.com/OpenNotes-2025/notes-service/internal/models"
	"gorm.io/gorm"
)

// NotificationRepository stores review notifications for the admin feed.
// Writes are best effort: a failed insert never fails the triggering upload.
type NotificationRepository interface {
	Create(ctx context.Context, tx *gorm.DB, notification *models.Notification) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Notification, error)
	ListRecent(ctx context.Context, tx *gorm.DB, filters NotificationFilters) ([]*models.Notification, int64, error)
	UnreadCount(ctx context.Context, tx *gorm.DB) (int64, error)
	MarkRead(ctx context.Context, tx *gorm.DB, id uint) error
	MarkAllRead(ctx context.Context, tx *gorm.DB) error
}

package postgres

import (
	"context"
	"fmt"

	"github.com/OpenNotes-2025/notes-service/internal/models"
	"github.com/OpenNotes-2025/notes-service/internal/repositories"
	"gorm.io/gorm"
)

type NotificationPostgreSQL struct {
	db *gorm.DB
}

func NewNotificationPostgreSQL(db *gorm.DB) repositories.NotificationRepository {
	return &NotificationPostgreSQL{db: db}
}

// getDB returns the transaction DB if provided, otherwise returns the default DB
func (n *NotificationPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return n.db
}

// Create inserts a notification row
func (n *NotificationPostgreSQL) Create(ctx context.Context, tx *gorm.DB, notification *models.Notification) error {
	db := n.getDB(tx)
	if err := db.WithContext(ctx).Create(notification).Error; err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}

	return nil
}

// GetByID retrieves a notification by ID
func (n *NotificationPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Notification, error) {
	db := n.getDB(tx)
	var notification models.Notification
	err := db.WithContext(ctx).First(&notification, id).Error
	if err != nil {
		return nil, err
	}

	return &notification, nil
}

// ListRecent retrieves notifications newest first with pagination
func (n *NotificationPostgreSQL) ListRecent(ctx context.Context, tx *gorm.DB, filters repositories.NotificationFilters) ([]*models.Notification, int64, error) {
	query := n.getDB(tx).WithContext(ctx).Model(&models.Notification{})

	if filters.IsRead != nil {
		query = query.Where("is_read = ?", *filters.IsRead)
	}
	if filters.NoteID != nil {
		query = query.Where("note_id = ?", *filters.NoteID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order("created_at DESC")
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	var notifications []*models.Notification
	err := query.Find(&notifications).Error
	if err != nil {
		return nil, 0, err
	}

	return notifications, total, nil
}

// UnreadCount counts unread notifications
func (n *NotificationPostgreSQL) UnreadCount(ctx context.Context, tx *gorm.DB) (int64, error) {
	db := n.getDB(tx)
	var count int64
	err := db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("is_read = ?", false).
		Count(&count).Error

	return count, err
}

// MarkRead marks a single notification as read
func (n *NotificationPostgreSQL) MarkRead(ctx context.Context, tx *gorm.DB, id uint) error {
	db := n.getDB(tx)

	result := db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ?", id).
		Update("is_read", true)
	if result.Error != nil {
		return fmt.Errorf("failed to mark notification read: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

// MarkAllRead marks every unread notification as read
func (n *NotificationPostgreSQL) MarkAllRead(ctx context.Context, tx *gorm.DB) error {
	db := n.getDB(tx)

	err := db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("is_read = ?", false).
		Update("is_read", true).Error
	if err != nil {
		return fmt.Errorf("failed to mark all notifications read: %w", err)
	}

	return nil
}

package services

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/OpenNotes-2025/notes-service/internal/models"
	"github.com/OpenNotes-2025/notes-service/internal/repositories"
)

type notificationService struct {
	repo   repositories.Repository
	db     *gorm.DB
	logger *slog.Logger
	roles  roleChecker
}

func NewNotificationService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger) NotificationService {
	return &notificationService{
		repo:   repo,
		db:     db,
		logger: logger,
		roles:  roleChecker{repo: repo},
	}
}

func (s *notificationService) ListRecent(ctx context.Context, adminID string, unreadOnly bool, page, size int) (*models.PaginatedResponse, error) {
	if err := s.requireAdmin(ctx, adminID, "list"); err != nil {
		return nil, err
	}

	page, size = normalizePaging(page, size)

	filters := repositories.NotificationFilters{
		Limit:  size,
		Offset: page * size,
	}
	if unreadOnly {
		unread := false
		filters.IsRead = &unread
	}

	notifications, total, err := s.repo.Notification().ListRecent(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}

	return newPaginatedResponse(notifications, total, page, size, len(notifications)), nil
}

func (s *notificationService) UnreadCount(ctx context.Context, adminID string) (int64, error) {
	if err := s.requireAdmin(ctx, adminID, "count"); err != nil {
		return 0, err
	}

	count, err := s.repo.Notification().UnreadCount(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count notifications: %w", err)
	}
	return count, nil
}

func (s *notificationService) MarkRead(ctx context.Context, adminID string, id uint) error {
	if err := s.requireAdmin(ctx, adminID, "mark_read"); err != nil {
		return err
	}

	if err := s.repo.Notification().MarkRead(ctx, nil, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrNotificationNotFound
		}
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	return nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, adminID string) error {
	if err := s.requireAdmin(ctx, adminID, "mark_all_read"); err != nil {
		return err
	}

	if err := s.repo.Notification().MarkAllRead(ctx, nil); err != nil {
		return fmt.Errorf("failed to mark notifications read: %w", err)
	}

	s.logger.InfoContext(ctx, "Marked all notifications read", "admin_id", adminID)
	return nil
}

func (s *notificationService) requireAdmin(ctx context.Context, adminID, action string) error {
	isAdmin, err := s.roles.isAdmin(ctx, adminID)
	if err != nil {
		return fmt.Errorf("role check failed: %w", err)
	}
	if !isAdmin {
		return NewPermissionError(adminID, 0, "notification", action, "admin role required")
	}
	return nil
}

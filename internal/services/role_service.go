package services

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/OpenNotes-2025/notes-service/internal/events"
	"github.com/OpenNotes-2025/notes-service/internal/models"
	"github.com/OpenNotes-2025/notes-service/internal/repositories"
	"github.com/OpenNotes-2025/notes-service/internal/validator"
)

type roleService struct {
	repo           repositories.Repository
	db             *gorm.DB
	eventPublisher events.EventPublisher
	logger         *slog.Logger
	validator      *validator.Validator
	roles          roleChecker
}

func NewRoleService(repo repositories.Repository, db *gorm.DB, publisher events.EventPublisher, logger *slog.Logger, v *validator.Validator) RoleService {
	return &roleService{
		repo:           repo,
		db:             db,
		eventPublisher: publisher,
		logger:         logger,
		validator:      v,
		roles:          roleChecker{repo: repo},
	}
}

// Toggle grants or revokes a role and recomputes the primary-role mirror
// from the remaining assignments, all inside one transaction so the
// mirror can never drift from the assignment rows.
func (s *roleService) Toggle(ctx context.Context, req *RoleToggleRequest, adminID string) (*UserRolesResponse, error) {
	s.logger.InfoContext(ctx, "Toggling role",
		"target_user_id", req.UserID, "role", req.Role, "grant", req.Grant, "admin_id", adminID)

	isAdmin, err := s.roles.isAdmin(ctx, adminID)
	if err != nil {
		return nil, fmt.Errorf("role check failed: %w", err)
	}
	if !isAdmin {
		return nil, NewPermissionError(adminID, 0, "role", "toggle", "admin role required")
	}

	if errors := s.validator.GetBusinessValidator().ValidateRoleToggle(req); len(errors) > 0 {
		return nil, errors
	}

	role := models.UserRole(req.Role)

	// An admin revoking their own admin role would lock them out of
	// this very endpoint
	if !req.Grant && role == models.RoleAdmin && req.UserID == adminID {
		return nil, ErrSelfDemotion
	}

	var user *models.User
	var userRoles []models.UserRole

	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		exists, err := txRepo.User().ExistsByID(ctx, nil, req.UserID)
		if err != nil {
			return fmt.Errorf("failed to check user: %w", err)
		}
		if !exists {
			return ErrUserNotFound
		}

		if req.Grant {
			if err := txRepo.Role().Add(ctx, nil, req.UserID, role); err != nil {
				return err
			}
		} else {
			if err := txRepo.Role().Remove(ctx, nil, req.UserID, role); err != nil {
				return err
			}
		}

		userRoles, err = txRepo.Role().ListByUser(ctx, nil, req.UserID)
		if err != nil {
			return fmt.Errorf("failed to list roles: %w", err)
		}

		// The mirror is the most privileged remaining role
		primary := models.HighestRole(userRoles)
		if err := txRepo.User().SetPrimaryRole(ctx, nil, req.UserID, primary); err != nil {
			return err
		}

		user, err = txRepo.User().GetByID(ctx, nil, req.UserID)
		if err != nil {
			return fmt.Errorf("failed to reload user: %w", err)
		}
		user.Role = primary

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishRoleEvent(ctx, req, user.Role, adminID)

	return &UserRolesResponse{
		User:  user,
		Roles: userRoles,
	}, nil
}

func (s *roleService) ListUsers(ctx context.Context, adminID string, query string, page, size int) (*models.PaginatedResponse, error) {
	isAdmin, err := s.roles.isAdmin(ctx, adminID)
	if err != nil {
		return nil, fmt.Errorf("role check failed: %w", err)
	}
	if !isAdmin {
		return nil, NewPermissionError(adminID, 0, "user", "list", "admin role required")
	}

	page, size = normalizePaging(page, size)

	users, total, err := s.repo.User().List(ctx, nil, repositories.UserFilters{
		Query:  query,
		Limit:  size,
		Offset: page * size,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	// One pass over the assignment table instead of a lookup per user
	assignments, err := s.repo.Role().ListAll(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list role assignments: %w", err)
	}
	rolesByUser := make(map[string][]models.UserRole, len(users))
	for _, assignment := range assignments {
		rolesByUser[assignment.UserID] = append(rolesByUser[assignment.UserID], assignment.Role)
	}

	responses := make([]*UserRolesResponse, 0, len(users))
	for _, user := range users {
		responses = append(responses, &UserRolesResponse{
			User:  user,
			Roles: rolesByUser[user.ID],
		})
	}

	return newPaginatedResponse(responses, total, page, size, len(responses)), nil
}

func (s *roleService) GetUserRoles(ctx context.Context, userID string) (*UserRolesResponse, error) {
	user, err := s.repo.User().GetByID(ctx, nil, userID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	userRoles, err := s.repo.Role().ListByUser(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}

	return &UserRolesResponse{
		User:  user,
		Roles: userRoles,
	}, nil
}

func (s *roleService) publishRoleEvent(ctx context.Context, req *RoleToggleRequest, primary models.UserRole, adminID string) {
	if s.eventPublisher == nil {
		return
	}

	event := events.NewEvent(events.EventRoleChanged, &events.RoleChangedEvent{
		UserID:      req.UserID,
		Role:        models.UserRole(req.Role),
		Granted:     req.Grant,
		PrimaryRole: primary,
		ChangedBy:   adminID,
	})

	if err := s.eventPublisher.Publish(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish role event",
			"user_id", req.UserID, "error", err)
	}
}

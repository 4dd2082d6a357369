package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/OpenNotes-2025/notes-service/internal/services"
	"github.com/OpenNotes-2025/notes-service/internal/utils"
)

// UserHandler serves profile and role-management endpoints
type UserHandler struct {
	BaseHandler
	roleService services.RoleService
}

func NewUserHandler(roleService services.RoleService, logger utils.Logger) *UserHandler {
	return &UserHandler{
		BaseHandler: NewBaseHandler(logger),
		roleService: roleService,
	}
}

// GetMe returns the caller's profile with their role assignments
// @Summary Current user
// @Tags users
// @Produce json
// @Success 200 {object} services.UserRolesResponse
// @Failure 401 {object} ErrorResponse
// @Router /users/me [get]
func (h *UserHandler) GetMe(c *gin.Context) {
	userID := GetUserIDFromContext(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "User not authenticated",
		})
		return
	}

	user, err := h.roleService.GetUserRoles(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// ListUsers lists users with their roles for the admin console
// @Summary List users
// @Tags admin
// @Produce json
// @Param query query string false "Name or email filter"
// @Success 200 {object} models.PaginatedResponse
// @Failure 403 {object} ErrorResponse
// @Router /admin/users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	h.LogRequest(c, "Listing users")

	page := 0
	size := 0
	if parsed, err := strconv.Atoi(c.Query("page")); err == nil {
		page = parsed
	}
	if parsed, err := strconv.Atoi(c.Query("size")); err == nil {
		size = parsed
	}

	users, err := h.roleService.ListUsers(c.Request.Context(), GetUserIDFromContext(c), c.Query("query"), page, size)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, users)
}

// GetUserRoles returns one user's profile and role assignments
// @Summary Get user roles
// @Tags admin
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} services.UserRolesResponse
// @Failure 404 {object} ErrorResponse
// @Router /admin/users/{id} [get]
func (h *UserHandler) GetUserRoles(c *gin.Context) {
	userID := c.Param("id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "bad_request",
			Message: "Invalid id parameter",
		})
		return
	}

	user, err := h.roleService.GetUserRoles(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// ToggleRole grants or revokes a role and returns the recomputed
// assignment set
// @Summary Toggle role
// @Tags admin
// @Accept json
// @Produce json
// @Param toggle body services.RoleToggleRequest true "Role toggle"
// @Success 200 {object} services.UserRolesResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /admin/users/roles [post]
func (h *UserHandler) ToggleRole(c *gin.Context) {
	var req services.RoleToggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "bad_request",
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Toggling role", "target_user_id", req.UserID, "role", req.Role, "grant", req.Grant)

	user, err := h.roleService.Toggle(c.Request.Context(), &req, GetUserIDFromContext(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

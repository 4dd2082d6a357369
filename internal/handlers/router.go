package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/OpenNotes-2025/notes-service/internal/config"
	"github.com/OpenNotes-2025/notes-service/internal/models"
	"github.com/OpenNotes-2025/notes-service/internal/repositories"
	"github.com/OpenNotes-2025/notes-service/internal/services"
	"github.com/OpenNotes-2025/notes-service/internal/utils"
	"github.com/OpenNotes-2025/notes-service/internal/validator"
)

type HandlerManager struct {
	noteHandler    *NoteHandler
	uploadHandler  *UploadHandler
	adminHandler   *AdminHandler
	userHandler    *UserHandler
	authMiddleware *CasdoorAuthMiddleware
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	validator *validator.Validator,
	logger utils.Logger,
	casdoorConfig config.CasdoorConfig,
	repo repositories.Repository,
) *HandlerManager {
	authMiddleware := NewCasdoorAuthMiddleware(casdoorConfig, repo)

	return &HandlerManager{
		noteHandler:    NewNoteHandler(serviceManager.Note(), validator, logger),
		uploadHandler:  NewUploadHandler(serviceManager.Upload(), validator, logger),
		adminHandler:   NewAdminHandler(serviceManager.Review(), serviceManager.Notification(), serviceManager.Export(), validator, logger),
		userHandler:    NewUserHandler(serviceManager.Role(), logger),
		authMiddleware: authMiddleware,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	v1 := router.Group("/api/v1")
	{
		// Public browse surface. Optional auth lets uploaders and admins
		// see their own non-approved notes.
		public := v1.Group("")
		public.Use(hm.authMiddleware.OptionalAuthMiddleware())
		{
			public.GET("/notes", hm.noteHandler.ListNotes)
			public.GET("/notes/:id", hm.noteHandler.GetNote)
			public.GET("/notes/:id/download", hm.noteHandler.DownloadNote)
			public.GET("/departments", hm.noteHandler.ListDepartments)
		}

		// Authenticated routes
		authed := v1.Group("")
		authed.Use(hm.authMiddleware.AuthMiddleware())
		{
			authed.GET("/users/me", hm.userHandler.GetMe)
			authed.GET("/my/notes", hm.noteHandler.GetMyNotes)
			authed.GET("/my/stats", hm.noteHandler.GetMyStats)

			// Upload and edit - Staff and Admins only
			authed.POST("/notes", hm.authMiddleware.RequireRoleMiddleware(models.RoleStaff, models.RoleAdmin), hm.uploadHandler.UploadNote)
			authed.PUT("/notes/:id", hm.authMiddleware.RequireRoleMiddleware(models.RoleStaff, models.RoleAdmin), hm.noteHandler.UpdateNote)

			// Admin routes
			admin := authed.Group("/admin")
			admin.Use(hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin))
			{
				admin.GET("/notes/pending", hm.adminHandler.GetPendingNotes)
				admin.GET("/notes/counts", hm.adminHandler.GetReviewCounts)
				admin.POST("/notes/:id/approve", hm.adminHandler.ApproveNote)
				admin.POST("/notes/:id/reject", hm.adminHandler.RejectNote)
				admin.GET("/export", hm.adminHandler.ExportNotes)

				admin.GET("/users", hm.userHandler.ListUsers)
				admin.GET("/users/:id", hm.userHandler.GetUserRoles)
				admin.POST("/users/roles", hm.userHandler.ToggleRole)

				admin.GET("/notifications", hm.adminHandler.ListNotifications)
				admin.GET("/notifications/unread-count", hm.adminHandler.GetUnreadNotificationCount)
				admin.POST("/notifications/:id/read", hm.adminHandler.MarkNotificationRead)
				admin.POST("/notifications/read-all", hm.adminHandler.MarkAllNotificationsRead)
			}

			// Deletion is admin-gated in the service layer too
			authed.DELETE("/notes/:id", hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin), hm.noteHandler.DeleteNote)
		}
	}

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "notes-service",
		})
	})
}

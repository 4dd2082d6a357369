package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/gin-gonic/gin"

	"github.com/OpenNotes-2025/notes-service/internal/config"
	"github.com/OpenNotes-2025/notes-service/internal/models"
	"github.com/OpenNotes-2025/notes-service/internal/repositories"
)

// CasdoorAuthMiddleware provides authentication using Casdoor SDK.
// Identity lives in Casdoor; a local profile row is upserted the first
// time a token for that user is seen, and the authoritative role
// assignments live in the local role table.
type CasdoorAuthMiddleware struct {
	client *casdoorsdk.Client
	repo   repositories.Repository
	config config.CasdoorConfig
}

// NewCasdoorAuthMiddleware creates a new Casdoor authentication middleware
func NewCasdoorAuthMiddleware(cfg config.CasdoorConfig, repo repositories.Repository) *CasdoorAuthMiddleware {
	client := casdoorsdk.NewClient(
		cfg.Endpoint,
		cfg.ClientID,
		cfg.ClientSecret,
		cfg.Cert,
		cfg.Organization,
		cfg.Application,
	)

	return &CasdoorAuthMiddleware{
		client: client,
		repo:   repo,
		config: cfg,
	}
}

// AuthMiddleware returns a Gin middleware function for Casdoor authentication
func (cam *CasdoorAuthMiddleware) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, ErrorResponse{
				Error:   "unauthorized",
				Message: "missing or malformed authorization header",
			})
			c.Abort()
			return
		}

		claims, err := cam.client.ParseJwtToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, ErrorResponse{
				Error:   "unauthorized",
				Message: fmt.Sprintf("invalid token: %v", err),
			})
			c.Abort()
			return
		}

		user, err := cam.resolveUser(c.Request.Context(), claims)
		if err != nil {
			c.JSON(http.StatusUnauthorized, ErrorResponse{
				Error:   "unauthorized",
				Message: "failed to resolve user",
			})
			c.Abort()
			return
		}

		c.Set("user_id", user.ID)
		c.Set("user", user)
		c.Set("user_role", user.Role)
		c.Set("user_email", user.Email)

		c.Next()
	}
}

// OptionalAuthMiddleware resolves the user when a valid token is present
// and otherwise continues anonymously. Used on the public browse and
// download routes so uploaders keep access to their own pending notes.
func (cam *CasdoorAuthMiddleware) OptionalAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.Next()
			return
		}

		claims, err := cam.client.ParseJwtToken(token)
		if err != nil {
			c.Next()
			return
		}

		if user, err := cam.resolveUser(c.Request.Context(), claims); err == nil {
			c.Set("user_id", user.ID)
			c.Set("user", user)
			c.Set("user_role", user.Role)
			c.Set("user_email", user.Email)
		}

		c.Next()
	}
}

// RequireRoleMiddleware checks the authoritative role assignments, not
// the token or the mirror column, so a revocation takes effect on the
// next request
func (cam *CasdoorAuthMiddleware) RequireRoleMiddleware(requiredRoles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("user_id")
		if userID == "" {
			c.JSON(http.StatusForbidden, ErrorResponse{
				Error:   "forbidden",
				Message: "user not found in context",
			})
			c.Abort()
			return
		}

		for _, role := range requiredRoles {
			has, err := cam.repo.Role().Has(c.Request.Context(), nil, userID, role)
			if err != nil {
				c.JSON(http.StatusInternalServerError, ErrorResponse{
					Error:   "internal_error",
					Message: "failed to check role",
				})
				c.Abort()
				return
			}
			if has {
				c.Next()
				return
			}
		}

		c.JSON(http.StatusForbidden, ErrorResponse{
			Error:   "forbidden",
			Message: fmt.Sprintf("insufficient permissions, required role: %v", requiredRoles),
		})
		c.Abort()
	}
}

// resolveUser upserts the local profile from the token claims and loads
// the primary-role mirror
func (cam *CasdoorAuthMiddleware) resolveUser(ctx context.Context, claims *casdoorsdk.Claims) (*models.User, error) {
	userID := claims.Id
	if userID == "" {
		return nil, fmt.Errorf("invalid user ID in token")
	}

	profile := &models.User{
		ID:       userID,
		FullName: claims.User.DisplayName,
		Email:    claims.User.Email,
	}
	if claims.User.Avatar != "" {
		avatar := claims.User.Avatar
		profile.AvatarURL = &avatar
	}

	if err := cam.repo.User().Upsert(ctx, nil, profile); err != nil {
		return nil, fmt.Errorf("failed to upsert user profile: %w", err)
	}

	// Reload so the role mirror comes from our database, never the token
	user, err := cam.repo.User().GetByID(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	return user, nil
}

func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", false
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return "", false
	}

	return parts[1], true
}

// GetUserFromContext extracts user from Gin context
func GetUserFromContext(c *gin.Context) (*models.User, error) {
	user, exists := c.Get("user")
	if !exists {
		return nil, fmt.Errorf("user not found in context")
	}

	userModel, ok := user.(*models.User)
	if !ok {
		return nil, fmt.Errorf("invalid user type in context")
	}

	return userModel, nil
}

// GetUserIDFromContext extracts user ID from Gin context. Returns the
// empty string for anonymous requests.
func GetUserIDFromContext(c *gin.Context) string {
	return c.GetString("user_id")
}

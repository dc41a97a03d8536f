package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/portal-auth-service/internal/models"
	"github.com/SAP-F-2025/portal-auth-service/internal/services"
	"github.com/SAP-F-2025/portal-auth-service/internal/utils"
)

const (
	ctxSession  = "session"
	ctxUserID   = "user_id"
	ctxUserRole = "user_role"
	ctxUsername = "username"
)

// SessionAuthMiddleware authenticates requests from the session cookie
type SessionAuthMiddleware struct {
	sessions services.SessionService
	cookie   *SessionCookie
	logger   utils.Logger
}

func NewSessionAuthMiddleware(sessions services.SessionService, cookie *SessionCookie, logger utils.Logger) *SessionAuthMiddleware {
	return &SessionAuthMiddleware{
		sessions: sessions,
		cookie:   cookie,
		logger:   logger,
	}
}

// AuthMiddleware rejects requests without a live session
func (m *SessionAuthMiddleware) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := m.cookie.Get(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "Not authenticated"})
			return
		}

		session, err := m.sessions.Validate(c.Request.Context(), token)
		if err != nil {
			_ = c.Error(err)
			utils.GetLogger(c, m.logger).Error("Session validation failed", "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
			return
		}
		if session == nil {
			m.cookie.Clear(c)
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "Not authenticated"})
			return
		}

		c.Set(ctxSession, session)
		c.Set(ctxUserID, session.UserID)
		c.Set(ctxUserRole, session.Role)
		c.Set(ctxUsername, session.Username)

		c.Next()
	}
}

// RequireRoleMiddleware admits only sessions holding one of roles. It must
// run after AuthMiddleware.
func (m *SessionAuthMiddleware) RequireRoleMiddleware(roles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, err := GetUserRoleFromContext(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "Not authenticated"})
			return
		}

		for _, r := range roles {
			if role == r {
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{
			Error: fmt.Sprintf("insufficient permissions, required role: %v", roles),
		})
	}
}

// GetSessionFromContext extracts the session set by AuthMiddleware
func GetSessionFromContext(c *gin.Context) (*models.Session, error) {
	v, exists := c.Get(ctxSession)
	if !exists {
		return nil, fmt.Errorf("session not found in context")
	}

	session, ok := v.(*models.Session)
	if !ok {
		return nil, fmt.Errorf("invalid session type in context")
	}

	return session, nil
}

// GetUserIDFromContext extracts user ID from Gin context
func GetUserIDFromContext(c *gin.Context) (string, error) {
	userID, exists := c.Get(ctxUserID)
	if !exists {
		return "", fmt.Errorf("user ID not found in context")
	}

	id, ok := userID.(string)
	if !ok {
		return "", fmt.Errorf("invalid user ID type in context")
	}

	return id, nil
}

// GetUserRoleFromContext extracts user role from Gin context
func GetUserRoleFromContext(c *gin.Context) (models.UserRole, error) {
	userRole, exists := c.Get(ctxUserRole)
	if !exists {
		return "", fmt.Errorf("user role not found in context")
	}

	role, ok := userRole.(models.UserRole)
	if !ok {
		return "", fmt.Errorf("invalid user role type in context")
	}

	return role, nil
}

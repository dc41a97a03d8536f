package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/portal-auth-service/internal/models"
	"github.com/SAP-F-2025/portal-auth-service/internal/services"
	"github.com/SAP-F-2025/portal-auth-service/internal/utils"
	"github.com/SAP-F-2025/portal-auth-service/internal/validator"
)

type HandlerManager struct {
	authHandler    *AuthHandler
	adminHandler   *AdminHandler
	studentHandler *StudentHandler
	authMiddleware *SessionAuthMiddleware
	healthCheck    func(ctx context.Context) error
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	validator *validator.Validator,
	logger utils.Logger,
	cookie *SessionCookie,
) *HandlerManager {
	authMiddleware := NewSessionAuthMiddleware(serviceManager.Session(), cookie, logger)

	return &HandlerManager{
		authHandler:    NewAuthHandler(serviceManager.Session(), validator, cookie, logger),
		adminHandler:   NewAdminHandler(serviceManager.Provisioning(), validator, logger),
		studentHandler: NewStudentHandler(serviceManager.Credential(), logger),
		authMiddleware: authMiddleware,
		healthCheck:    serviceManager.HealthCheck,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	// Login, session lookup and logout are open; they read the cookie themselves
	auth := router.Group("/api/auth")
	{
		auth.POST("/login", hm.authHandler.Login)
		auth.GET("/session", hm.authHandler.GetSession)
		auth.POST("/logout", hm.authHandler.Logout)
	}

	// API v1 routes with session authentication
	v1 := router.Group("/api/v1")
	v1.Use(hm.authMiddleware.AuthMiddleware())
	{
		// Admin routes - Admins only
		admin := v1.Group("/admin")
		admin.Use(hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin))
		{
			admin.GET("/users", hm.adminHandler.ListUsers)
			admin.GET("/students", hm.adminHandler.ListStudents)
			admin.POST("/students", hm.adminHandler.CreateStudent)
			admin.POST("/students/import", hm.adminHandler.ImportStudents)
			admin.GET("/students/export", hm.adminHandler.ExportStudents)
		}

		// Student routes - Students only
		student := v1.Group("/student")
		student.Use(hm.authMiddleware.RequireRoleMiddleware(models.RoleStudent))
		{
			student.GET("/me", hm.studentHandler.GetMe)
		}
	}

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		if err := hm.healthCheck(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "unhealthy",
				"service": "portal-auth-service",
				"error":   err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "portal-auth-service",
		})
	})
}

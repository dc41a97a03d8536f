package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/portal-auth-service/internal/models"
	"github.com/SAP-F-2025/portal-auth-service/internal/services"
	"github.com/SAP-F-2025/portal-auth-service/internal/utils"
	"github.com/SAP-F-2025/portal-auth-service/internal/validator"
)

// SessionView is the session as exposed to the browser. The token itself
// stays in the HttpOnly cookie.
type SessionView struct {
	UserID    string          `json:"user_id"`
	Username  string          `json:"username"`
	Role      models.UserRole `json:"role"`
	CreatedAt time.Time       `json:"created_at"`
	ExpiresAt time.Time       `json:"expires_at"`
}

func NewSessionView(s *models.Session) *SessionView {
	if s == nil {
		return nil
	}
	return &SessionView{
		UserID:    s.UserID,
		Username:  s.Username,
		Role:      s.Role,
		CreatedAt: s.CreatedAt,
		ExpiresAt: s.ExpiresAt,
	}
}

type LoginResponse struct {
	Success bool              `json:"success"`
	User    models.PublicUser `json:"user"`
}

type SessionResponse struct {
	Session *SessionView `json:"session"`
}

type LogoutResponse struct {
	Success bool `json:"success"`
}

type AuthHandler struct {
	BaseHandler
	sessions  services.SessionService
	validator *validator.Validator
	cookie    *SessionCookie
}

func NewAuthHandler(sessions services.SessionService, validator *validator.Validator, cookie *SessionCookie, logger utils.Logger) *AuthHandler {
	return &AuthHandler{
		BaseHandler: NewBaseHandler(logger),
		sessions:    sessions,
		validator:   validator,
		cookie:      cookie,
	}
}

// Login verifies credentials and sets the session cookie
// @Summary Log in
// @Tags auth
// @Accept json
// @Produce json
// @Param request body validator.LoginRequest true "Credentials"
// @Success 200 {object} LoginResponse
// @Failure 400 {object} ErrorResponse "Missing fields"
// @Failure 401 {object} ErrorResponse "Invalid credentials"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /api/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req validator.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request body",
			Details: err.Error(),
		})
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "Username, password and role are required",
				Details: ve,
			})
			return
		}
		h.handleServiceError(c, err)
		return
	}

	h.LogRequest(c, "Login attempt", "username", req.Username, "role", req.Role)

	result, err := h.sessions.Login(c.Request.Context(), services.LoginInput{
		Username: req.Username,
		Password: req.Password,
		Role:     models.UserRole(req.Role),
		ClientInfo: map[string]interface{}{
			"ip":         c.ClientIP(),
			"user_agent": c.Request.UserAgent(),
		},
	})
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.cookie.Set(c, result.Token)
	c.JSON(http.StatusOK, LoginResponse{
		Success: true,
		User:    result.User,
	})
}

// GetSession returns the caller's live session, or null
// @Summary Current session
// @Tags auth
// @Produce json
// @Success 200 {object} SessionResponse
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /api/auth/session [get]
func (h *AuthHandler) GetSession(c *gin.Context) {
	token := h.cookie.Get(c)

	session, err := h.sessions.Validate(c.Request.Context(), token)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	if session == nil && token != "" {
		h.cookie.Clear(c)
	}

	c.JSON(http.StatusOK, SessionResponse{Session: NewSessionView(session)})
}

// Logout revokes the session and clears the cookie
// @Summary Log out
// @Tags auth
// @Produce json
// @Success 200 {object} LogoutResponse
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /api/auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	err := h.sessions.Logout(c.Request.Context(), h.cookie.Get(c))

	// the browser forgets the cookie even if the store did not
	h.cookie.Clear(c)

	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, LogoutResponse{Success: true})
}

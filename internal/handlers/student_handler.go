package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/portal-auth-service/internal/models"
	"github.com/SAP-F-2025/portal-auth-service/internal/services"
	"github.com/SAP-F-2025/portal-auth-service/internal/utils"
)

type StudentProfileResponse struct {
	User    models.PublicUser `json:"user"`
	Session *SessionView      `json:"session"`
}

type StudentHandler struct {
	BaseHandler
	credentials services.CredentialService
}

func NewStudentHandler(credentials services.CredentialService, logger utils.Logger) *StudentHandler {
	return &StudentHandler{
		BaseHandler: NewBaseHandler(logger),
		credentials: credentials,
	}
}

// GetMe returns the signed-in student's account
// @Summary Current student
// @Tags students
// @Produce json
// @Success 200 {object} StudentProfileResponse
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Failure 403 {object} ErrorResponse "Forbidden"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /api/v1/student/me [get]
func (h *StudentHandler) GetMe(c *gin.Context) {
	session, err := GetSessionFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Not authenticated"})
		return
	}

	h.LogRequest(c, "Getting student profile", "user_id", session.UserID)

	user, err := h.credentials.ResolveByID(c.Request.Context(), session.UserID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	if user == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "User not found"})
		return
	}

	c.JSON(http.StatusOK, StudentProfileResponse{
		User:    user.Public(),
		Session: NewSessionView(session),
	})
}

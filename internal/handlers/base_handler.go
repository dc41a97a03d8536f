package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/portal-auth-service/internal/services"
	"github.com/SAP-F-2025/portal-auth-service/internal/utils"
	"github.com/SAP-F-2025/portal-auth-service/internal/validator"
)

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Error   string      `json:"error"`
	Details interface{} `json:"details,omitempty"`
}

// BaseHandler carries the logger shared by all handlers
type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

// LogRequest logs an incoming request with the request-scoped logger
func (h *BaseHandler) LogRequest(c *gin.Context, msg string, args ...any) {
	utils.GetLogger(c, h.logger).Debug(msg, args...)
}

// LogError logs a failed request and records the error on the gin context
func (h *BaseHandler) LogError(c *gin.Context, err error, msg string) {
	_ = c.Error(err)
	utils.GetLogger(c, h.logger).Error(msg, "error", err, "path", c.FullPath())
}

// handleServiceError maps service errors to HTTP responses. Store faults
// and anything unrecognised become a generic 500.
func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Validation failed",
			Details: validationErrors,
		})
		return
	}

	switch {
	case errors.Is(err, utils.ErrPasswordTooLong):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Validation failed",
			Details: validator.ValidationErrors{{
				Field:   "password",
				Message: fmt.Sprintf("must be at most %d bytes", utils.MaxPasswordBytes),
				Rule:    "bcrypt_len",
			}},
		})
	case errors.Is(err, services.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error: "Invalid credentials",
		})
	case errors.Is(err, services.ErrUsernameTaken):
		c.JSON(http.StatusConflict, ErrorResponse{
			Error: "Username already taken",
		})
	default:
		h.LogError(c, err, "Request failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "Internal server error",
		})
	}
}

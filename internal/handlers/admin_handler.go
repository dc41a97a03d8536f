package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/portal-auth-service/internal/models"
	"github.com/SAP-F-2025/portal-auth-service/internal/repositories"
	"github.com/SAP-F-2025/portal-auth-service/internal/services"
	"github.com/SAP-F-2025/portal-auth-service/internal/utils"
	"github.com/SAP-F-2025/portal-auth-service/internal/validator"
)

const maxRosterUploadBytes = 10 << 20

type UserListResponse struct {
	Users []models.PublicUser `json:"users"`
	Total int                 `json:"total"`
}

type AdminHandler struct {
	BaseHandler
	provisioning services.ProvisioningService
	validator    *validator.Validator
}

func NewAdminHandler(provisioning services.ProvisioningService, validator *validator.Validator, logger utils.Logger) *AdminHandler {
	return &AdminHandler{
		BaseHandler:  NewBaseHandler(logger),
		provisioning: provisioning,
		validator:    validator,
	}
}

// ListUsers lists portal accounts, optionally filtered by role
// @Summary List users
// @Tags admin
// @Produce json
// @Param role query string false "admin or student"
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} UserListResponse
// @Failure 400 {object} ErrorResponse "Bad request"
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Failure 403 {object} ErrorResponse "Forbidden"
// @Router /api/v1/admin/users [get]
func (h *AdminHandler) ListUsers(c *gin.Context) {
	var query validator.ListUsersQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid query parameters",
			Details: err.Error(),
		})
		return
	}
	if err := h.validator.Validate(&query); err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.LogRequest(c, "Listing users", "role", query.Role)

	h.respondUsers(c, repositories.UserFilters{
		Role:   query.RoleFilter(),
		Limit:  query.Limit,
		Offset: query.Offset,
	})
}

// ListStudents lists student accounts
// @Summary List students
// @Tags admin
// @Produce json
// @Success 200 {object} UserListResponse
// @Router /api/v1/admin/students [get]
func (h *AdminHandler) ListStudents(c *gin.Context) {
	h.LogRequest(c, "Listing students")

	role := models.RoleStudent
	h.respondUsers(c, repositories.UserFilters{Role: &role})
}

func (h *AdminHandler) respondUsers(c *gin.Context, filters repositories.UserFilters) {
	users, err := h.provisioning.ListUsers(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	out := make([]models.PublicUser, 0, len(users))
	for _, u := range users {
		out = append(out, u.Public())
	}

	c.JSON(http.StatusOK, UserListResponse{
		Users: out,
		Total: len(out),
	})
}

// CreateStudent provisions a single student account
// @Summary Create student
// @Tags admin
// @Accept json
// @Produce json
// @Param request body validator.CreateStudentRequest true "Student"
// @Success 201 {object} models.PublicUser
// @Failure 400 {object} ErrorResponse "Validation failed"
// @Failure 409 {object} ErrorResponse "Username already taken"
// @Router /api/v1/admin/students [post]
func (h *AdminHandler) CreateStudent(c *gin.Context) {
	var req validator.CreateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request body",
			Details: err.Error(),
		})
		return
	}
	if err := h.validator.Validate(&req); err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.LogRequest(c, "Creating student", "username", req.Username)

	user, err := h.provisioning.CreateUser(c.Request.Context(), services.CreateUserInput{
		Username: req.Username,
		Password: req.Password,
		Email:    req.Email,
		Role:     models.RoleStudent,
	})
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, user.Public())
}

// ImportStudents creates students from an uploaded xlsx roster
// @Summary Import student roster
// @Tags admin
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Roster workbook (username, password, email)"
// @Success 200 {object} services.RosterImportResult
// @Failure 400 {object} ErrorResponse "Bad request"
// @Router /api/v1/admin/students/import [post]
func (h *AdminHandler) ImportStudents(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxRosterUploadBytes)

	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Roster file is required",
			Details: err.Error(),
		})
		return
	}

	file, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Could not read roster file"})
		return
	}
	defer file.Close()

	h.LogRequest(c, "Importing roster", "filename", header.Filename, "size", header.Size)

	result, err := h.provisioning.ImportRoster(c.Request.Context(), file)
	if err != nil {
		if services.IsStoreFault(err) {
			h.handleServiceError(c, err)
			return
		}
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid roster workbook",
			Details: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, result)
}

// ExportStudents downloads the student roster as xlsx
// @Summary Export student roster
// @Tags admin
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Router /api/v1/admin/students/export [get]
func (h *AdminHandler) ExportStudents(c *gin.Context) {
	h.LogRequest(c, "Exporting roster")

	var buf bytes.Buffer
	if err := h.provisioning.ExportRoster(c.Request.Context(), &buf); err != nil {
		h.handleServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("students-%s.xlsx", time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

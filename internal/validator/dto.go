package validator

import (
	"github.com/SAP-F-2025/portal-auth-service/internal/models"
)

// LoginRequest is the body of POST /api/auth/login. Role is checked against
// the stored role by the session service, so any non-empty value passes here.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role" validate:"required"`
}

// CreateStudentRequest is the body of POST /api/v1/admin/students
type CreateStudentRequest struct {
	Username string `json:"username" validate:"required,username"`
	Password string `json:"password" validate:"required,min=1,bcrypt_len"`
	Email    string `json:"email" validate:"omitempty,email,max=255"`
}

// ListUsersQuery binds the optional role filter of GET /api/v1/admin/users
type ListUsersQuery struct {
	Role   string `form:"role" json:"role" validate:"omitempty,user_role"`
	Limit  int    `form:"limit" json:"limit" validate:"omitempty,min=1,max=500"`
	Offset int    `form:"offset" json:"offset" validate:"omitempty,min=0"`
}

// RoleFilter returns nil when no role was requested
func (q ListUsersQuery) RoleFilter() *models.UserRole {
	if q.Role == "" {
		return nil
	}
	role := models.UserRole(q.Role)
	return &role
}

// RosterRow is one line of a student roster workbook
type RosterRow struct {
	Username string `json:"username" validate:"required,username"`
	Password string `json:"password" validate:"required,bcrypt_len"`
	Email    string `json:"email" validate:"omitempty,email,max=255"`
}

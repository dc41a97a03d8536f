package models

import (
	"time"
)

type UserRole string

const (
	RoleStudent UserRole = "student"
	RoleAdmin   UserRole = "admin"
)

// Valid reports whether r is one of the portal roles
func (r UserRole) Valid() bool {
	return r == RoleStudent || r == RoleAdmin
}

type User struct {
	ID           string   `json:"id" gorm:"primaryKey;size:36"`
	Username     string   `json:"username" gorm:"uniqueIndex;not null;size:100"`
	PasswordHash string   `json:"-" gorm:"not null;size:255"`
	Role         UserRole `json:"role" gorm:"index;not null;size:20"`
	Email        string   `json:"email" gorm:"size:255"`

	CreatedAt time.Time `json:"created_at"`
}

func (User) TableName() string {
	return "users"
}

// PublicUser is the user view handed to clients. It never carries the
// password hash.
type PublicUser struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Role      UserRole  `json:"role"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

func (u *User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		Username:  u.Username,
		Role:      u.Role,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}

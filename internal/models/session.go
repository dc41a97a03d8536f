package models

import (
	"time"

	"gorm.io/datatypes"
)

// Session is a server-held proof of authentication. Role and Username are
// copied from the user at issuance and are not refreshed afterwards.
type Session struct {
	Token     string    `json:"token" gorm:"primaryKey;size:64"`
	UserID    string    `json:"user_id" gorm:"index;not null;size:36"`
	Role      UserRole  `json:"role" gorm:"not null;size:20"`
	Username  string    `json:"username" gorm:"not null;size:100"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at" gorm:"index;not null"`

	ClientInfo datatypes.JSONMap `json:"client_info,omitempty" gorm:"type:jsonb"` // ip, user agent
}

func (Session) TableName() string {
	return "sessions"
}

// ExpiredAt reports whether the session is no longer live at t. A session
// is live up to and including its expiry instant.
func (s *Session) ExpiredAt(t time.Time) bool {
	return t.After(s.ExpiresAt)
}

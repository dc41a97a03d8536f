package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/SAP-F-2025/portal-auth-service/internal/models"
)

const (
	EventSource  = "portal-auth-service"
	EventVersion = "1.0"
)

type EventType string

const (
	LoginSucceeded EventType = "auth.login_succeeded"
	LoginFailed    EventType = "auth.login_failed"
	Logout         EventType = "auth.logout"
	SessionExpired EventType = "auth.session_expired"
)

// Event is the envelope written to the auth event topic
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Source    string      `json:"source"`
	Version   string      `json:"version"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

func NewEvent(eventType EventType, data interface{}) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Source:    EventSource,
		Version:   EventVersion,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

type LoginSucceededData struct {
	UserID   string          `json:"user_id"`
	Username string          `json:"username"`
	Role     models.UserRole `json:"role"`
	ClientIP string          `json:"client_ip,omitempty"`
}

// LoginFailedData deliberately has no reason field: an unknown user and a
// wrong password must look the same to consumers.
type LoginFailedData struct {
	Username string `json:"username"`
	ClientIP string `json:"client_ip,omitempty"`
}

type LogoutData struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

type SessionExpiredData struct {
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	ExpiresAt time.Time `json:"expires_at"`
}

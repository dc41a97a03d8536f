package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/SAP-F-2025/portal-auth-service/internal/models"
	"github.com/SAP-F-2025/portal-auth-service/internal/repositories"
)

// SessionMemory keeps sessions in a process-local map. Sessions do not
// survive a restart.
type SessionMemory struct {
	mu       sync.RWMutex
	sessions map[string]models.Session
}

func NewSessionMemory() *SessionMemory {
	return &SessionMemory{
		sessions: make(map[string]models.Session),
	}
}

func (m *SessionMemory) Create(ctx context.Context, session *models.Session) error {
	if session.Token == "" || session.UserID == "" {
		return fmt.Errorf("create session: missing token or user id")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sessions[session.Token]; exists {
		return fmt.Errorf("create session: %w", repositories.ErrDuplicate)
	}
	m.sessions[session.Token] = cloneSession(session)
	return nil
}

func (m *SessionMemory) GetByToken(ctx context.Context, token string) (*models.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, ok := m.sessions[token]
	if !ok {
		return nil, nil
	}
	out := cloneSession(&session)
	return &out, nil
}

func (m *SessionMemory) Delete(ctx context.Context, token string) error {
	m.mu.Lock()
	delete(m.sessions, token)
	m.mu.Unlock()
	return nil
}

func (m *SessionMemory) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var removed int64
	for token, session := range m.sessions {
		if session.ExpiresAt.Before(now) {
			delete(m.sessions, token)
			removed++
		}
	}
	return removed, nil
}

// Len reports how many sessions are held, expired ones included.
func (m *SessionMemory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// callers must not share the ClientInfo map with the store
func cloneSession(s *models.Session) models.Session {
	out := *s
	if s.ClientInfo != nil {
		out.ClientInfo = make(map[string]interface{}, len(s.ClientInfo))
		for k, v := range s.ClientInfo {
			out.ClientInfo[k] = v
		}
	}
	return out
}

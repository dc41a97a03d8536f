package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/SAP-F-2025/portal-auth-service/internal/models"
	"github.com/SAP-F-2025/portal-auth-service/internal/repositories"
)

// UserMemory is an in-process credential store with a unique username
// index.
type UserMemory struct {
	mu         sync.RWMutex
	byID       map[string]models.User
	byUsername map[string]string
}

func NewUserMemory() *UserMemory {
	return &UserMemory{
		byID:       make(map[string]models.User),
		byUsername: make(map[string]string),
	}
}

func (m *UserMemory) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byUsername[username]
	if !ok {
		return nil, nil
	}
	user := m.byID[id]
	return &user, nil
}

func (m *UserMemory) GetByID(ctx context.Context, id string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	user, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	return &user, nil
}

func (m *UserMemory) Create(ctx context.Context, user *models.User) error {
	if user.Username == "" {
		return fmt.Errorf("create user: empty username")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, taken := m.byUsername[user.Username]; taken {
		return fmt.Errorf("create user: %w", repositories.ErrDuplicate)
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if _, taken := m.byID[user.ID]; taken {
		return fmt.Errorf("create user: %w", repositories.ErrDuplicate)
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	m.byID[user.ID] = *user
	m.byUsername[user.Username] = user.ID
	return nil
}

func (m *UserMemory) List(ctx context.Context, filters repositories.UserFilters) ([]*models.User, error) {
	m.mu.RLock()
	users := make([]*models.User, 0, len(m.byID))
	for _, u := range m.byID {
		if filters.Role != nil && u.Role != *filters.Role {
			continue
		}
		user := u
		users = append(users, &user)
	}
	m.mu.RUnlock()

	// same ordering as the postgres store
	sort.Slice(users, func(i, j int) bool {
		if users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].Username < users[j].Username
		}
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})

	if filters.Offset > 0 {
		if filters.Offset >= len(users) {
			return []*models.User{}, nil
		}
		users = users[filters.Offset:]
	}
	if filters.Limit > 0 && filters.Limit < len(users) {
		users = users[:filters.Limit]
	}
	return users, nil
}

func (m *UserMemory) CountByRole(ctx context.Context, role models.UserRole) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var n int64
	for _, u := range m.byID {
		if u.Role == role {
			n++
		}
	}
	return n, nil
}

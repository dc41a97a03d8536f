package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/portal-auth-service/internal/models"
	"github.com/SAP-F-2025/portal-auth-service/internal/repositories"
)

func TestUserMemory_UniqueUsername(t *testing.T) {
	ctx := context.Background()
	users := NewUserMemory()

	first := &models.User{Username: "alice", PasswordHash: "h", Role: models.RoleStudent}
	require.NoError(t, users.Create(ctx, first))
	assert.NotEmpty(t, first.ID)
	assert.False(t, first.CreatedAt.IsZero())

	err := users.Create(ctx, &models.User{Username: "alice", PasswordHash: "h2", Role: models.RoleAdmin})
	assert.True(t, repositories.IsDuplicateError(err))

	got, err := users.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, first.ID, got.ID)
	assert.Equal(t, models.RoleStudent, got.Role)

	byID, err := users.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", byID.Username)
}

func TestUserMemory_MissingIsNilNil(t *testing.T) {
	users := NewUserMemory()

	got, err := users.GetByUsername(context.Background(), "nobody")
	assert.NoError(t, err)
	assert.Nil(t, got)

	got, err = users.GetByID(context.Background(), "missing")
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestUserMemory_ListAndCount(t *testing.T) {
	ctx := context.Background()
	users := NewUserMemory()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, name := range []string{"s1", "s2", "s3"} {
		require.NoError(t, users.Create(ctx, &models.User{
			Username:  name,
			Role:      models.RoleStudent,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}
	require.NoError(t, users.Create(ctx, &models.User{Username: "root", Role: models.RoleAdmin, CreatedAt: base}))

	n, err := users.CountByRole(ctx, models.RoleStudent)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	role := models.RoleStudent
	list, err := users.List(ctx, repositories.UserFilters{Role: &role, Offset: 1, Limit: 1})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "s2", list[0].Username)

	all, err := users.List(ctx, repositories.UserFilters{})
	require.NoError(t, err)
	assert.Len(t, all, 4)

	none, err := users.List(ctx, repositories.UserFilters{Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSessionMemory_Lifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewSessionMemory()
	now := time.Now()

	s := &models.Session{
		Token:      "tok",
		UserID:     "u1",
		Role:       models.RoleAdmin,
		Username:   "admin",
		CreatedAt:  now,
		ExpiresAt:  now.Add(time.Hour),
		ClientInfo: map[string]interface{}{"ip": "127.0.0.1"},
	}
	require.NoError(t, store.Create(ctx, s))

	err := store.Create(ctx, &models.Session{Token: "tok", UserID: "u2", ExpiresAt: now.Add(time.Hour)})
	assert.True(t, repositories.IsDuplicateError(err))

	got, err := store.GetByToken(ctx, "tok")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "u1", got.UserID)

	// mutating the returned copy leaves the stored session alone
	got.ClientInfo["ip"] = "changed"
	again, _ := store.GetByToken(ctx, "tok")
	assert.Equal(t, "127.0.0.1", again.ClientInfo["ip"])

	require.NoError(t, store.Delete(ctx, "tok"))
	require.NoError(t, store.Delete(ctx, "tok"))

	got, err = store.GetByToken(ctx, "tok")
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestSessionMemory_DeleteExpired(t *testing.T) {
	ctx := context.Background()
	store := NewSessionMemory()
	now := time.Now()

	require.NoError(t, store.Create(ctx, &models.Session{Token: "old", UserID: "u", ExpiresAt: now.Add(-time.Second)}))
	require.NoError(t, store.Create(ctx, &models.Session{Token: "edge", UserID: "u", ExpiresAt: now}))
	require.NoError(t, store.Create(ctx, &models.Session{Token: "new", UserID: "u", ExpiresAt: now.Add(time.Hour)}))

	removed, err := store.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.EqualValues(t, 1, removed)
	assert.Equal(t, 2, store.Len())
}

func TestRepositoryManager(t *testing.T) {
	rm := NewRepositoryManager()
	assert.ErrorIs(t, rm.HealthCheck(context.Background()), repositories.ErrNotInitialized)

	require.NoError(t, rm.Initialize())
	repo := rm.GetRepository()
	require.NotNil(t, repo)
	assert.NotNil(t, repo.User())
	assert.NotNil(t, repo.Session())
	assert.NoError(t, rm.HealthCheck(context.Background()))
	assert.NoError(t, rm.Shutdown(context.Background()))
}

func TestRepository_WithSessionStore(t *testing.T) {
	sessions := NewSessionMemory()
	repo := NewRepository(WithSessionStore(sessions))
	assert.Same(t, sessions, repo.Session())

	// nil keeps the default
	repo = NewRepository(WithSessionStore(nil))
	assert.NotNil(t, repo.Session())
}

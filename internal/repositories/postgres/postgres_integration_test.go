package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/SAP-F-2025/portal-auth-service/internal/models"
	"github.com/SAP-F-2025/portal-auth-service/internal/repositories"
)

// openTestDB connects to TEST_DATABASE_URL and skips when it is unset.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	db, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, Migrate(context.Background(), db))
	return db
}

func TestUserPostgreSQL_Integration(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	users := NewUserPostgreSQL(db)

	name := "it-" + uuid.NewString()[:8]
	u := &models.User{Username: name, PasswordHash: "hash", Role: models.RoleStudent}
	require.NoError(t, users.Create(ctx, u))
	t.Cleanup(func() { db.Delete(&models.User{}, "id = ?", u.ID) })

	err := users.Create(ctx, &models.User{Username: name, PasswordHash: "x", Role: models.RoleAdmin})
	assert.ErrorIs(t, err, repositories.ErrDuplicate)

	got, err := users.GetByUsername(ctx, name)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, u.ID, got.ID)

	missing, err := users.GetByUsername(ctx, name+"-missing")
	assert.NoError(t, err)
	assert.Nil(t, missing)
}

func TestSessionPostgreSQL_Integration(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	sessions := NewSessionPostgreSQL(db)
	now := time.Now().UTC()

	live := &models.Session{
		Token:      uuid.NewString(),
		UserID:     uuid.NewString(),
		Role:       models.RoleAdmin,
		Username:   "admin",
		CreatedAt:  now,
		ExpiresAt:  now.Add(time.Hour),
		ClientInfo: map[string]interface{}{"ip": "10.0.0.1"},
	}
	stale := &models.Session{
		Token:     uuid.NewString(),
		UserID:    live.UserID,
		Role:      models.RoleAdmin,
		Username:  "admin",
		CreatedAt: now.Add(-2 * time.Hour),
		ExpiresAt: now.Add(-time.Hour),
	}
	require.NoError(t, sessions.Create(ctx, live))
	require.NoError(t, sessions.Create(ctx, stale))
	t.Cleanup(func() { _ = sessions.Delete(ctx, live.Token) })

	assert.ErrorIs(t, sessions.Create(ctx, live), repositories.ErrDuplicate)

	got, err := sessions.GetByToken(ctx, live.Token)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "10.0.0.1", got.ClientInfo["ip"])

	removed, err := sessions.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, removed, int64(1))

	gone, err := sessions.GetByToken(ctx, stale.Token)
	assert.NoError(t, err)
	assert.Nil(t, gone)
}

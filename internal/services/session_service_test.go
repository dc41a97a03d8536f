package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/portal-auth-service/internal/events"
	"github.com/SAP-F-2025/portal-auth-service/internal/models"
)

func TestSessionService_LoginSnapshotsUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.addUser(t, "admin", "12345", models.RoleAdmin)

	res, err := f.svc.Login(ctx, LoginInput{
		Username:   "admin",
		Password:   "12345",
		Role:       models.RoleAdmin,
		ClientInfo: map[string]interface{}{"ip": "10.1.1.1"},
	})
	require.NoError(t, err)

	assert.NotEmpty(t, res.Token)
	assert.Equal(t, res.Token, res.Session.Token)
	assert.Equal(t, admin.ID, res.Session.UserID)
	assert.Equal(t, models.RoleAdmin, res.Session.Role)
	assert.Equal(t, "admin", res.Session.Username)
	assert.Equal(t, f.clock.Now(), res.Session.CreatedAt)
	assert.Equal(t, f.clock.Now().Add(DefaultSessionTTL), res.Session.ExpiresAt)
	assert.Equal(t, admin.Public(), res.User)

	stored, err := f.sessions.GetByToken(ctx, res.Token)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "10.1.1.1", stored.ClientInfo["ip"])

	succeeded := f.publisher.EventsOfType(events.LoginSucceeded)
	require.Len(t, succeeded, 1)
	data := succeeded[0].Data.(events.LoginSucceededData)
	assert.Equal(t, admin.ID, data.UserID)
	assert.Equal(t, "10.1.1.1", data.ClientIP)
}

func TestSessionService_RejectionsAreIndistinguishable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addUser(t, "s01", "right", models.RoleStudent)

	tests := []struct {
		name  string
		input LoginInput
	}{
		{name: "unknown user", input: LoginInput{Username: "ghost", Password: "right", Role: models.RoleStudent}},
		{name: "wrong password", input: LoginInput{Username: "s01", Password: "wrong", Role: models.RoleStudent}},
		{name: "role mismatch", input: LoginInput{Username: "s01", Password: "right", Role: models.RoleAdmin}},
		{name: "unknown role", input: LoginInput{Username: "s01", Password: "right", Role: "proctor"}},
		{name: "username case differs", input: LoginInput{Username: "S01", Password: "right", Role: models.RoleStudent}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f.publisher.ClearEvents()

			res, err := f.svc.Login(ctx, tt.input)
			assert.Nil(t, res)
			assert.Equal(t, ErrInvalidCredentials, err)
			assert.False(t, IsStoreFault(err))

			failed := f.publisher.EventsOfType(events.LoginFailed)
			require.Len(t, failed, 1)
			assert.Equal(t, events.LoginFailedData{Username: tt.input.Username}, failed[0].Data)
		})
	}

	assert.Zero(t, f.sessions.SessionRepository.(interface{ Len() int }).Len())
}

func TestSessionService_EmptyRoleSkipsCheck(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "s01", "pw", models.RoleStudent)

	res, err := f.svc.Login(context.Background(), LoginInput{Username: "s01", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleStudent, res.Session.Role)
}

func TestSessionService_LoginValidateRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addUser(t, "s01", "pw", models.RoleStudent)

	res, err := f.svc.Login(ctx, LoginInput{Username: "s01", Password: "pw", Role: models.RoleStudent})
	require.NoError(t, err)

	got, err := f.svc.Validate(ctx, res.Token)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, res.Session.UserID, got.UserID)
	assert.Equal(t, res.Session.Role, got.Role)
	assert.Equal(t, res.Session.ExpiresAt, got.ExpiresAt)
}

func TestSessionService_ValidateUnknownOrEmpty(t *testing.T) {
	f := newFixture(t)

	for _, token := range []string{"", "never-issued"} {
		got, err := f.svc.Validate(context.Background(), token)
		assert.NoError(t, err)
		assert.Nil(t, got)
	}
}

func TestSessionService_ExpiryBoundary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addUser(t, "s01", "pw", models.RoleStudent)

	res, err := f.svc.Login(ctx, LoginInput{Username: "s01", Password: "pw", Role: models.RoleStudent})
	require.NoError(t, err)
	expiresAt := res.Session.ExpiresAt

	f.clock.Set(expiresAt.Add(-time.Millisecond))
	got, err := f.svc.Validate(ctx, res.Token)
	require.NoError(t, err)
	assert.NotNil(t, got, "live one millisecond before expiry")

	f.clock.Set(expiresAt)
	got, err = f.svc.Validate(ctx, res.Token)
	require.NoError(t, err)
	assert.NotNil(t, got, "live at the expiry instant")

	f.clock.Set(expiresAt.Add(time.Millisecond))
	got, err = f.svc.Validate(ctx, res.Token)
	require.NoError(t, err)
	assert.Nil(t, got, "expired one millisecond after")

	// lazy expiry removed the record
	stored, err := f.sessions.GetByToken(ctx, res.Token)
	require.NoError(t, err)
	assert.Nil(t, stored)
	assert.Len(t, f.publisher.EventsOfType(events.SessionExpired), 1)

	// once expired, never live again
	f.clock.Set(expiresAt.Add(-time.Hour))
	got, err = f.svc.Validate(ctx, res.Token)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSessionService_LogoutIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addUser(t, "s01", "pw", models.RoleStudent)

	res, err := f.svc.Login(ctx, LoginInput{Username: "s01", Password: "pw", Role: models.RoleStudent})
	require.NoError(t, err)

	require.NoError(t, f.svc.Logout(ctx, res.Token))
	require.NoError(t, f.svc.Logout(ctx, res.Token))
	require.NoError(t, f.svc.Logout(ctx, ""))
	require.NoError(t, f.svc.Logout(ctx, "unknown"))

	got, err := f.svc.Validate(ctx, res.Token)
	require.NoError(t, err)
	assert.Nil(t, got)

	assert.Len(t, f.publisher.EventsOfType(events.Logout), 1)
}

func TestSessionService_ConcurrentLoginsAreIndependent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addUser(t, "admin", "12345", models.RoleAdmin)

	const n = 8
	tokens := make([]string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := f.svc.Login(ctx, LoginInput{Username: "admin", Password: "12345", Role: models.RoleAdmin})
			if assert.NoError(t, err) {
				tokens[i] = res.Token
			}
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool)
	for _, tok := range tokens {
		require.NotEmpty(t, tok)
		assert.False(t, seen[tok], "duplicate token issued")
		seen[tok] = true

		got, err := f.svc.Validate(ctx, tok)
		require.NoError(t, err)
		assert.NotNil(t, got)
	}

	// revoking one leaves the others live
	require.NoError(t, f.svc.Logout(ctx, tokens[0]))
	got, err := f.svc.Validate(ctx, tokens[1])
	require.NoError(t, err)
	assert.NotNil(t, got)
}

func TestSessionService_StoreFaultsAreNotInvalidCredentials(t *testing.T) {
	ctx := context.Background()

	t.Run("credential store down", func(t *testing.T) {
		f := newFixture(t)
		f.addUser(t, "admin", "12345", models.RoleAdmin)
		f.users.down = true

		_, err := f.svc.Login(ctx, LoginInput{Username: "admin", Password: "12345", Role: models.RoleAdmin})
		require.Error(t, err)
		assert.True(t, IsStoreFault(err))
		assert.False(t, errors.Is(err, ErrInvalidCredentials))
		assert.ErrorIs(t, err, errBackendDown)
		assert.Empty(t, f.publisher.EventsOfType(events.LoginFailed))
	})

	t.Run("session write fails", func(t *testing.T) {
		f := newFixture(t)
		f.addUser(t, "admin", "12345", models.RoleAdmin)
		f.sessions.failCreate = true

		_, err := f.svc.Login(ctx, LoginInput{Username: "admin", Password: "12345", Role: models.RoleAdmin})
		assert.True(t, IsStoreFault(err))
		assert.Empty(t, f.publisher.EventsOfType(events.LoginSucceeded))
	})

	t.Run("session read fails", func(t *testing.T) {
		f := newFixture(t)
		f.sessions.failGet = true

		got, err := f.svc.Validate(ctx, "tok")
		assert.Nil(t, got)
		assert.True(t, IsStoreFault(err))

		assert.True(t, IsStoreFault(f.svc.Logout(ctx, "tok")))
	})

	t.Run("expired delete fails", func(t *testing.T) {
		f := newFixture(t)
		f.addUser(t, "s01", "pw", models.RoleStudent)
		res, err := f.svc.Login(ctx, LoginInput{Username: "s01", Password: "pw", Role: models.RoleStudent})
		require.NoError(t, err)

		f.sessions.failDelete = true
		f.clock.Set(res.Session.ExpiresAt.Add(time.Second))

		got, err := f.svc.Validate(ctx, res.Token)
		assert.Nil(t, got)
		assert.True(t, IsStoreFault(err))
	})
}

func TestSessionService_TokenCollisionRetries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addUser(t, "s01", "pw", models.RoleStudent)

	f.sessions.duplicates = 2
	res, err := f.svc.Login(ctx, LoginInput{Username: "s01", Password: "pw", Role: models.RoleStudent})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)

	f.sessions.duplicates = maxTokenAttempts
	_, err = f.svc.Login(ctx, LoginInput{Username: "s01", Password: "pw", Role: models.RoleStudent})
	assert.True(t, IsStoreFault(err))
	assert.ErrorIs(t, err, ErrTokenCollision)
}

func TestSessionService_PublishFailureDoesNotFailLogin(t *testing.T) {
	f := newFixture(t)
	f.addUser(t, "s01", "pw", models.RoleStudent)
	f.publisher.Err = errors.New("broker unavailable")

	res, err := f.svc.Login(context.Background(), LoginInput{Username: "s01", Password: "pw", Role: models.RoleStudent})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
}

func TestSessionService_CustomTokenGenerator(t *testing.T) {
	f := newFixture(t, WithTokenGenerator(func() (string, error) { return "fixed-token", nil }))
	f.addUser(t, "s01", "pw", models.RoleStudent)

	res, err := f.svc.Login(context.Background(), LoginInput{Username: "s01", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "fixed-token", res.Token)
}

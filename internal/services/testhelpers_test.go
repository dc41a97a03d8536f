package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/portal-auth-service/internal/events"
	"github.com/SAP-F-2025/portal-auth-service/internal/models"
	"github.com/SAP-F-2025/portal-auth-service/internal/repositories"
	"github.com/SAP-F-2025/portal-auth-service/internal/repositories/memory"
	"github.com/SAP-F-2025/portal-auth-service/internal/utils"
	"github.com/SAP-F-2025/portal-auth-service/internal/validator"
)

var errBackendDown = errors.New("connection refused")

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeClock is a settable clock for expiry tests
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.t = t
	c.mu.Unlock()
}

// faultyUsers fails every call while down is set
type faultyUsers struct {
	repositories.UserRepository
	down bool
}

func (f *faultyUsers) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	if f.down {
		return nil, errBackendDown
	}
	return f.UserRepository.GetByUsername(ctx, username)
}

func (f *faultyUsers) GetByID(ctx context.Context, id string) (*models.User, error) {
	if f.down {
		return nil, errBackendDown
	}
	return f.UserRepository.GetByID(ctx, id)
}

func (f *faultyUsers) Create(ctx context.Context, user *models.User) error {
	if f.down {
		return errBackendDown
	}
	return f.UserRepository.Create(ctx, user)
}

// faultySessions can fail reads, writes or deletes independently
type faultySessions struct {
	repositories.SessionRepository
	failGet    bool
	failCreate bool
	failDelete bool
	duplicates int
}

func (f *faultySessions) Create(ctx context.Context, s *models.Session) error {
	if f.failCreate {
		return errBackendDown
	}
	if f.duplicates > 0 {
		f.duplicates--
		return repositories.ErrDuplicate
	}
	return f.SessionRepository.Create(ctx, s)
}

func (f *faultySessions) GetByToken(ctx context.Context, token string) (*models.Session, error) {
	if f.failGet {
		return nil, errBackendDown
	}
	return f.SessionRepository.GetByToken(ctx, token)
}

func (f *faultySessions) Delete(ctx context.Context, token string) error {
	if f.failDelete {
		return errBackendDown
	}
	return f.SessionRepository.Delete(ctx, token)
}

func (f *faultySessions) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	if f.failDelete {
		return 0, errBackendDown
	}
	return f.SessionRepository.DeleteExpired(ctx, now)
}

type fixture struct {
	users     *faultyUsers
	sessions  *faultySessions
	publisher *events.MockEventPublisher
	clock     *fakeClock
	svc       SessionService
}

func newFixture(t *testing.T, opts ...SessionServiceOption) *fixture {
	t.Helper()

	f := &fixture{
		users:     &faultyUsers{UserRepository: memory.NewUserMemory()},
		sessions:  &faultySessions{SessionRepository: memory.NewSessionMemory()},
		publisher: events.NewMockEventPublisher(testLogger()),
		clock:     newFakeClock(),
	}

	opts = append([]SessionServiceOption{WithClock(f.clock.Now)}, opts...)
	f.svc = NewSessionService(
		NewCredentialService(f.users, testLogger()),
		f.sessions,
		f.publisher,
		testLogger(),
		DefaultSessionTTL,
		opts...,
	)
	return f
}

func (f *fixture) addUser(t *testing.T, username, password string, role models.UserRole) *models.User {
	t.Helper()
	hash, err := utils.HashPassword(password)
	require.NoError(t, err)

	u := &models.User{Username: username, PasswordHash: hash, Role: role, Email: username + "@portal.test"}
	require.NoError(t, f.users.Create(context.Background(), u))
	return u
}

// memRepo adapts separate user and session stores to repositories.Repository
type memRepo struct {
	users    repositories.UserRepository
	sessions repositories.SessionRepository
}

func (r *memRepo) User() repositories.UserRepository       { return r.users }
func (r *memRepo) Session() repositories.SessionRepository { return r.sessions }
func (r *memRepo) Ping(ctx context.Context) error          { return nil }
func (r *memRepo) Close() error                            { return nil }

func newProvisioning(t *testing.T, users repositories.UserRepository) ProvisioningService {
	t.Helper()
	repo := &memRepo{users: users, sessions: memory.NewSessionMemory()}
	return NewProvisioningService(repo, validator.New(), testLogger(), defaultAdminSeed())
}

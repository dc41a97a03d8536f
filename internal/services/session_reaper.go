package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/SAP-F-2025/portal-auth-service/internal/repositories"
)

const DefaultReapInterval = 15 * time.Minute

// SessionReaper periodically purges expired sessions from stores without
// native TTLs. Validate still enforces expiry on its own.
type SessionReaper struct {
	sessions repositories.SessionRepository
	interval time.Duration
	logger   *slog.Logger
	now      func() time.Time

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewSessionReaper(sessions repositories.SessionRepository, interval time.Duration, logger *slog.Logger) *SessionReaper {
	return &SessionReaper{
		sessions: sessions,
		interval: interval,
		logger:   logger,
		now:      time.Now,
	}
}

// Start launches the reaper loop. A non-positive interval disables it.
// Calling Start on a running reaper does nothing.
func (r *SessionReaper) Start(ctx context.Context) {
	if r.interval <= 0 {
		r.logger.Info("Session reaper disabled")
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.done = make(chan struct{})

	go r.loop(ctx, r.done)
	r.logger.Info("Session reaper started", "interval", r.interval.String())
}

// Stop halts the loop and waits for an in-flight sweep to finish
func (r *SessionReaper) Stop() {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.cancel, r.done = nil, nil
	r.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// RunOnce performs a single sweep
func (r *SessionReaper) RunOnce(ctx context.Context) (int64, error) {
	removed, err := r.sessions.DeleteExpired(ctx, r.now())
	if err != nil {
		r.logger.Error("Expired session sweep failed", "error", err)
		return 0, NewStoreFaultError("delete expired sessions", err)
	}
	if removed > 0 {
		r.logger.Info("Expired sessions removed", "count", removed)
	}
	return removed, nil
}

func (r *SessionReaper) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = r.RunOnce(ctx)
		}
	}
}

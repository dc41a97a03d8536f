package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stalledPublisher blocks every Publish until release is closed
type stalledPublisher struct {
	release chan struct{}
	started chan struct{}
	once    sync.Once

	mu        sync.Mutex
	delivered []*Event
	closed    bool
}

func newStalledPublisher() *stalledPublisher {
	return &stalledPublisher{
		release: make(chan struct{}),
		started: make(chan struct{}),
	}
}

func (s *stalledPublisher) Publish(ctx context.Context, event *Event) error {
	s.once.Do(func() { close(s.started) })
	<-s.release

	s.mu.Lock()
	defer s.mu.Unlock()
	s.delivered = append(s.delivered, event)
	return nil
}

func (s *stalledPublisher) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func TestAsyncPublisher_DoesNotWaitForBroker(t *testing.T) {
	next := newStalledPublisher()
	pub := NewAsyncPublisher(next, 4, testLogger())

	done := make(chan error, 1)
	go func() {
		done <- pub.Publish(context.Background(), NewEvent(LoginSucceeded, nil))
	}()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a stalled broker")
	}

	close(next.release)
	require.NoError(t, pub.Close())
	assert.Len(t, next.delivered, 1)
	assert.True(t, next.closed)
}

func TestAsyncPublisher_DropsWhenQueueFull(t *testing.T) {
	next := newStalledPublisher()
	pub := NewAsyncPublisher(next, 1, testLogger())
	ctx := context.Background()

	// first event is taken by the worker, which then stalls
	require.NoError(t, pub.Publish(ctx, NewEvent(LoginSucceeded, nil)))
	<-next.started

	require.NoError(t, pub.Publish(ctx, NewEvent(Logout, nil)))
	err := pub.Publish(ctx, NewEvent(LoginFailed, nil))
	assert.True(t, errors.Is(err, ErrPublishQueueFull))

	close(next.release)
	require.NoError(t, pub.Close())
	require.Len(t, next.delivered, 2)
	assert.Equal(t, Logout, next.delivered[1].Type)
}

func TestAsyncPublisher_CloseDrainsAndRejectsLateEvents(t *testing.T) {
	mock := NewMockEventPublisher(testLogger())
	pub := NewAsyncPublisher(mock, 0, testLogger())
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		require.NoError(t, pub.Publish(ctx, NewEvent(LoginSucceeded, nil)))
	}
	require.NoError(t, pub.Close())
	assert.Len(t, mock.GetPublishedEvents(), 10)

	assert.ErrorIs(t, pub.Publish(ctx, NewEvent(Logout, nil)), ErrPublisherClosed)
	assert.NoError(t, pub.Close())
}

func TestAsyncPublisher_DeliveryFailureIsLoggedOnly(t *testing.T) {
	mock := NewMockEventPublisher(testLogger())
	mock.Err = errors.New("broker down")
	pub := NewAsyncPublisher(mock, 2, testLogger())

	assert.NoError(t, pub.Publish(context.Background(), NewEvent(LoginSucceeded, nil)))
	assert.NoError(t, pub.Close())
	assert.Empty(t, mock.GetPublishedEvents())
}

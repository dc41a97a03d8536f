package events

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// DefaultPublishBuffer is how many events may wait for the broker before
// new ones are dropped.
const DefaultPublishBuffer = 1024

var (
	ErrPublishQueueFull = errors.New("event publish queue full")
	ErrPublisherClosed  = errors.New("event publisher closed")
)

// AsyncPublisher queues events and hands them to the wrapped publisher from
// a single background goroutine, so a slow broker never delays the request
// that raised the event. When the queue is full the event is dropped and
// Publish reports ErrPublishQueueFull.
type AsyncPublisher struct {
	next   Publisher
	queue  chan *Event
	logger *slog.Logger

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

func NewAsyncPublisher(next Publisher, buffer int, logger *slog.Logger) *AsyncPublisher {
	if buffer <= 0 {
		buffer = DefaultPublishBuffer
	}

	p := &AsyncPublisher{
		next:   next,
		queue:  make(chan *Event, buffer),
		logger: logger,
		done:   make(chan struct{}),
	}
	go p.run()
	return p
}

func (p *AsyncPublisher) run() {
	defer close(p.done)

	for event := range p.queue {
		// the request that raised the event may be long gone
		if err := p.next.Publish(context.Background(), event); err != nil {
			p.logger.Warn("Failed to deliver auth event",
				"event_id", event.ID,
				"event_type", event.Type,
				"error", err)
		}
	}
}

// Publish enqueues the event without waiting for delivery
func (p *AsyncPublisher) Publish(ctx context.Context, event *Event) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrPublisherClosed
	}

	select {
	case p.queue <- event:
		return nil
	default:
		return ErrPublishQueueFull
	}
}

// Close stops accepting events, delivers what is already queued and then
// closes the wrapped publisher.
func (p *AsyncPublisher) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	<-p.done
	return p.next.Close()
}

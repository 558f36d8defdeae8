package notify

import (
	"context"
	"errors"
	"sync"
	"time"

	"travel-booking/internal/metrics"

	"go.uber.org/zap"
)

var (
	ErrQueueFull = errors.New("notification queue is full")
	ErrClosed    = errors.New("notifier is closed")
)

const publishTimeout = 5 * time.Second

// Async hands events to next from a single background goroutine. Notify never
// blocks: when the buffer is full the event is dropped.
type Async struct {
	next   Notifier
	events chan Event
	log    *zap.Logger

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

func NewAsync(next Notifier, buffer int, log *zap.Logger) *Async {
	if buffer <= 0 {
		buffer = 1
	}
	a := &Async{
		next:   next,
		events: make(chan Event, buffer),
		log:    log.With(zap.String("notifier", "async")),
		done:   make(chan struct{}),
	}
	go a.loop()
	return a
}

func (a *Async) Notify(_ context.Context, event Event) error {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.closed {
		return ErrClosed
	}

	select {
	case a.events <- event:
		return nil
	default:
		metrics.Notifications.WithLabelValues(event.Name, "dropped").Inc()
		a.log.Warn("Notification dropped",
			zap.String("event", event.Name),
			zap.String("reference", event.Reference),
		)
		return ErrQueueFull
	}
}

func (a *Async) loop() {
	defer close(a.done)

	for event := range a.events {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		err := a.next.Notify(ctx, event)
		cancel()

		if err != nil {
			metrics.Notifications.WithLabelValues(event.Name, "failed").Inc()
			a.log.Error("Failed to deliver notification",
				zap.String("event", event.Name),
				zap.String("reference", event.Reference),
				zap.Error(err),
			)
			continue
		}
		metrics.Notifications.WithLabelValues(event.Name, "sent").Inc()
	}
}

// Close stops accepting events and waits until the buffered ones are delivered.
func (a *Async) Close() {
	a.mu.Lock()
	if !a.closed {
		a.closed = true
		close(a.events)
	}
	a.mu.Unlock()

	<-a.done
}

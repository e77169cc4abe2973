package pipeline

import (
	"context"
	"sync/atomic"

	"faceworker/internal/domain"
)

// FindfaceQueue connects TrackManager to Forwarder. Its overflow policy is a
// non-blocking try-put: a full queue drops the Event immediately rather than
// stalling the TrackManager's single worker.
type FindfaceQueue struct {
	ch      chan *domain.Event
	dropped int64
}

// NewFindfaceQueue creates a FindfaceQueue with the given capacity.
func NewFindfaceQueue(capacity int) *FindfaceQueue {
	return &FindfaceQueue{ch: make(chan *domain.Event, capacity)}
}

// TryPut attempts to enqueue event without blocking. Returns false (and
// releases event's Frame reference) if the queue is full.
func (q *FindfaceQueue) TryPut(event *domain.Event) bool {
	select {
	case q.ch <- event:
		return true
	default:
		atomic.AddInt64(&q.dropped, 1)
		event.Release()
		return false
	}
}

// Get blocks until an Event is available, the queue is closed and drained
// (ok=false), or ctx is done.
func (q *FindfaceQueue) Get(ctx context.Context) (*domain.Event, bool) {
	select {
	case e, ok := <-q.ch:
		return e, ok
	case <-ctx.Done():
		return nil, false
	}
}

// Close closes the underlying channel. Callers must stop producing first.
func (q *FindfaceQueue) Close() { close(q.ch) }

// Len reports the number of Events currently buffered.
func (q *FindfaceQueue) Len() int { return len(q.ch) }

// Dropped reports how many Events have been dropped by the try-put policy.
func (q *FindfaceQueue) Dropped() int64 { return atomic.LoadInt64(&q.dropped) }

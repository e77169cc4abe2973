package pipeline

import (
	"context"
	"sync/atomic"
	"time"

	"faceworker/internal/domain"
)

// EventQueue connects Detector to TrackManager. Its overflow policy is
// block-with-timeout: a producer blocks for up to putTimeout waiting for
// room, then drops the Event. Drops are aggregated into a counter rather
// than logged individually, per spec.md §4.2 ("log a single aggregated
// warning per 100 drops").
type EventQueue struct {
	ch         chan *domain.Event
	putTimeout time.Duration
	dropped    int64
}

// NewEventQueue creates an EventQueue with the given capacity and
// block-with-timeout duration.
func NewEventQueue(capacity int, putTimeout time.Duration) *EventQueue {
	return &EventQueue{ch: make(chan *domain.Event, capacity), putTimeout: putTimeout}
}

// Put attempts to enqueue event, blocking up to q.putTimeout for room. If the
// timeout elapses the Event is dropped (and its Frame reference released)
// and Put returns false.
func (q *EventQueue) Put(event *domain.Event) bool {
	timer := time.NewTimer(q.putTimeout)
	defer timer.Stop()

	select {
	case q.ch <- event:
		return true
	case <-timer.C:
		atomic.AddInt64(&q.dropped, 1)
		event.Release()
		return false
	}
}

// Get blocks until an Event is available, the queue is closed and drained
// (returns ok=false), or ctx is done.
func (q *EventQueue) Get(ctx context.Context) (*domain.Event, bool) {
	select {
	case e, ok := <-q.ch:
		return e, ok
	case <-ctx.Done():
		return nil, false
	}
}

// TryGet performs a non-blocking receive, used during shutdown drain once no
// producer remains. Returns ok=false immediately if the queue is empty.
func (q *EventQueue) TryGet() (*domain.Event, bool) {
	select {
	case e, ok := <-q.ch:
		return e, ok
	default:
		return nil, false
	}
}

// Close closes the underlying channel; in-flight Puts racing with Close may
// panic per normal Go channel semantics, so callers must stop producing
// before calling Close — the Orchestrator enforces that ordering.
func (q *EventQueue) Close() { close(q.ch) }

// Len reports the number of Events currently buffered.
func (q *EventQueue) Len() int { return len(q.ch) }

// Dropped reports how many Events have been dropped by the block-timeout policy.
func (q *EventQueue) Dropped() int64 { return atomic.LoadInt64(&q.dropped) }

package domain

import (
	"sync/atomic"
	"time"
)

// Track is a temporal sequence of Events believed to belong to the same
// face. FirstEvent, BestEvent, and LastEvent are never nil while the Track
// is non-finalized — see the design notes on why that invariant is load-
// bearing. All three are stored as atomic pointers so a reader never needs
// the registry lock to observe a consistent, non-partial value, and so
// AddEvent is safe to call concurrently without external synchronization
// (the TrackManager happens to serialize calls under the registry lock, but
// the type itself does not depend on that).
type Track struct {
	TrackID  int64
	CameraID int

	first atomic.Pointer[Event]
	best  atomic.Pointer[Event]
	last  atomic.Pointer[Event]

	frameCount             int64
	framesWithoutDetection int32

	finalized   atomic.Bool
	finalizedAt atomic.Pointer[time.Time]
}

// NewTrack creates a Track and seeds FirstEvent/BestEvent/LastEvent with
// seed, exactly as the spec's "insert a new Track...seeded with this Event"
// step requires.
func NewTrack(trackID int64, cameraID int, seed *Event) *Track {
	t := &Track{TrackID: trackID, CameraID: cameraID}
	t.AddEvent(seed)
	return t
}

// FirstEvent returns the Event this Track was created from. Its identity
// never changes after the first call to AddEvent.
func (t *Track) FirstEvent() *Event { return t.first.Load() }

// BestEvent returns the highest-quality Event observed on this Track so far.
func (t *Track) BestEvent() *Event { return t.best.Load() }

// LastEvent returns the most recently associated Event.
func (t *Track) LastEvent() *Event { return t.last.Load() }

// FrameCount returns how many Events have been associated to this Track.
func (t *Track) FrameCount() int64 { return atomic.LoadInt64(&t.frameCount) }

// FramesWithoutDetection returns how many per-frame sweeps have passed since
// this Track was last associated with an Event.
func (t *Track) FramesWithoutDetection() int32 {
	return atomic.LoadInt32(&t.framesWithoutDetection)
}

// Finalized reports whether this Track has transitioned to its read-only
// terminal state.
func (t *Track) Finalized() bool { return t.finalized.Load() }

// FinalizedAt returns the finalization timestamp and true, or the zero time
// and false if the Track is still active.
func (t *Track) FinalizedAt() (time.Time, bool) {
	p := t.finalizedAt.Load()
	if p == nil {
		return time.Time{}, false
	}
	return *p, true
}

// AddEvent associates event with this Track: increments FrameCount, always
// replaces LastEvent, replaces BestEvent only on a strictly higher
// QualityScore, and resets FramesWithoutDetection to zero. Idempotent with
// respect to BestEvent when event's score does not exceed the current best.
func (t *Track) AddEvent(event *Event) {
	atomic.AddInt64(&t.frameCount, 1)
	t.first.CompareAndSwap(nil, event)
	t.last.Store(event)
	for {
		cur := t.best.Load()
		if cur != nil && event.QualityScore <= cur.QualityScore {
			break
		}
		if t.best.CompareAndSwap(cur, event) {
			break
		}
	}
	atomic.StoreInt32(&t.framesWithoutDetection, 0)
}

// IncrementFramesWithoutDetection is called by the per-frame sweep for every
// non-finalized Track that received no Event this frame.
func (t *Track) IncrementFramesWithoutDetection() int32 {
	return atomic.AddInt32(&t.framesWithoutDetection, 1)
}

// Finalize transitions the Track to its read-only terminal state. Returns
// false if the Track was already finalized (finalization is one-way and
// idempotent). first/best/last are deliberately left untouched: a finalized
// Track keeps serving reads of all three until the registry's GC pass drops
// it, which is what lets a best_event copy already sitting in a queue
// survive independently of the Track's own lifetime.
func (t *Track) Finalize(at time.Time) bool {
	if !t.finalized.CompareAndSwap(false, true) {
		return false
	}
	t.finalizedAt.Store(&at)
	return true
}

// HasMoved reports whether the displacement between FirstEvent's and
// LastEvent's bbox centers meets or exceeds threshold pixels.
func (t *Track) HasMoved(thresholdPixels float64) bool {
	first := t.FirstEvent()
	last := t.LastEvent()
	if first == nil || last == nil {
		return false
	}
	return CenterDistance(first.Bbox, last.Bbox) >= thresholdPixels
}

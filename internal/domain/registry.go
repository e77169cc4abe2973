package domain

import (
	"sync"
	"time"
)

// TrackRegistry is the authoritative catalog of live tracks, keyed by
// camera id. It is protected by a single mutex; the association algorithm
// that consumes it is expected to copy references out and release the lock
// before doing any matching math (see internal/tracking).
type TrackRegistry struct {
	mu       sync.Mutex
	byCamera map[int][]*Track
}

// NewTrackRegistry returns an empty registry.
func NewTrackRegistry() *TrackRegistry {
	return &TrackRegistry{byCamera: make(map[int][]*Track)}
}

// Snapshot returns a copy of the slice of Track pointers for cameraID. The
// Tracks themselves are shared, not copied — callers read through atomic
// accessors on Track, never holding the registry lock while doing so.
func (r *TrackRegistry) Snapshot(cameraID int) []*Track {
	r.mu.Lock()
	defer r.mu.Unlock()
	tracks := r.byCamera[cameraID]
	out := make([]*Track, len(tracks))
	copy(out, tracks)
	return out
}

// Insert adds a newly created Track to the registry.
func (r *TrackRegistry) Insert(t *Track) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byCamera[t.CameraID] = append(r.byCamera[t.CameraID], t)
}

// Cameras returns every camera id currently tracked by the registry.
func (r *TrackRegistry) Cameras() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]int, 0, len(r.byCamera))
	for cam := range r.byCamera {
		out = append(out, cam)
	}
	return out
}

// GCFinalized drops every finalized Track whose FinalizedAt age exceeds ttl.
// Returns the number of Tracks removed. Any reference to a removed Track
// held elsewhere (e.g. a best_event copy already sitting in a queue) keeps
// the data it needs alive independently — the registry only forgets its own
// pointer.
func (r *TrackRegistry) GCFinalized(ttl time.Duration, now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for cam, tracks := range r.byCamera {
		kept := tracks[:0:0]
		for _, t := range tracks {
			if at, ok := t.FinalizedAt(); ok && now.Sub(at) > ttl {
				removed++
				continue
			}
			kept = append(kept, t)
		}
		if len(kept) == 0 {
			delete(r.byCamera, cam)
		} else {
			r.byCamera[cam] = kept
		}
	}
	return removed
}

// ActiveCounts returns the number of non-finalized Tracks per camera, for
// observability snapshots.
func (r *TrackRegistry) ActiveCounts() map[int]int {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[int]int, len(r.byCamera))
	for cam, tracks := range r.byCamera {
		n := 0
		for _, t := range tracks {
			if !t.Finalized() {
				n++
			}
		}
		out[cam] = n
	}
	return out
}

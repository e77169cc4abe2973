package domain

import (
	"testing"
	"time"
)

func TestRegistryInsertAndSnapshot(t *testing.T) {
	reg := NewTrackRegistry()
	now := time.Now()
	seed := newTestEvent(t, "e1", NewBoundingBox(0, 0, 10, 10), 0.5, now)
	track := NewTrack(1, 42, seed)

	reg.Insert(track)

	got := reg.Snapshot(42)
	if len(got) != 1 || got[0] != track {
		t.Fatalf("expected snapshot to contain the inserted track, got %v", got)
	}

	if other := reg.Snapshot(99); len(other) != 0 {
		t.Errorf("expected empty snapshot for unknown camera, got %d tracks", len(other))
	}
}

func TestRegistrySnapshotIsACopy(t *testing.T) {
	reg := NewTrackRegistry()
	now := time.Now()
	seed := newTestEvent(t, "e1", NewBoundingBox(0, 0, 10, 10), 0.5, now)
	reg.Insert(NewTrack(1, 1, seed))

	snap := reg.Snapshot(1)
	snap[0] = nil // mutating the returned slice must not affect the registry

	again := reg.Snapshot(1)
	if again[0] == nil {
		t.Fatal("Snapshot must return an independent copy of the backing slice")
	}
}

func TestGCFinalizedRemovesOnlyExpiredTracks(t *testing.T) {
	reg := NewTrackRegistry()
	now := time.Now()

	fresh := NewTrack(1, 1, newTestEvent(t, "e1", NewBoundingBox(0, 0, 10, 10), 0.5, now))
	fresh.Finalize(now)

	stale := NewTrack(2, 1, newTestEvent(t, "e2", NewBoundingBox(0, 0, 10, 10), 0.5, now))
	stale.Finalize(now.Add(-time.Hour))

	active := NewTrack(3, 1, newTestEvent(t, "e3", NewBoundingBox(0, 0, 10, 10), 0.5, now))

	reg.Insert(fresh)
	reg.Insert(stale)
	reg.Insert(active)

	removed := reg.GCFinalized(time.Minute, now)
	if removed != 1 {
		t.Fatalf("expected 1 track removed, got %d", removed)
	}

	remaining := reg.Snapshot(1)
	if len(remaining) != 2 {
		t.Fatalf("expected 2 tracks remaining, got %d", len(remaining))
	}
	for _, tr := range remaining {
		if tr.TrackID == 2 {
			t.Error("stale finalized track should have been garbage collected")
		}
	}
}

func TestActiveCountsExcludesFinalized(t *testing.T) {
	reg := NewTrackRegistry()
	now := time.Now()

	active := NewTrack(1, 7, newTestEvent(t, "e1", NewBoundingBox(0, 0, 10, 10), 0.5, now))
	finalized := NewTrack(2, 7, newTestEvent(t, "e2", NewBoundingBox(0, 0, 10, 10), 0.5, now))
	finalized.Finalize(now)

	reg.Insert(active)
	reg.Insert(finalized)

	counts := reg.ActiveCounts()
	if counts[7] != 1 {
		t.Errorf("expected 1 active track for camera 7, got %d", counts[7])
	}
}

func TestCamerasListsEveryKey(t *testing.T) {
	reg := NewTrackRegistry()
	now := time.Now()
	reg.Insert(NewTrack(1, 1, newTestEvent(t, "e1", NewBoundingBox(0, 0, 10, 10), 0.5, now)))
	reg.Insert(NewTrack(2, 2, newTestEvent(t, "e2", NewBoundingBox(0, 0, 10, 10), 0.5, now)))

	cams := reg.Cameras()
	if len(cams) != 2 {
		t.Fatalf("expected 2 cameras, got %d", len(cams))
	}
}

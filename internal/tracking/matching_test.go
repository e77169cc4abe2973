package tracking

import (
	"testing"
	"time"

	"faceworker/internal/domain"
)

func TestAdaptiveIoUThresholdByResolutionBand(t *testing.T) {
	cases := []struct {
		width int
		want  float64
	}{
		{640, 0.20},
		{1280, 0.15},
		{1920, 0.12},
		{3840, 0.10},
	}
	for _, c := range cases {
		if got := AdaptiveIoUThreshold(c.width); got != c.want {
			t.Errorf("width %d: expected %f, got %f", c.width, c.want, got)
		}
	}
}

func TestMovementThresholdPicksTheLargerFloor(t *testing.T) {
	// diagonal of 100x100 is ~141.4; 0.5*141.4 ~= 70.7, above minPixels=50.
	got := MovementThreshold(100, 100, 50, 0.5)
	if got < 70 || got > 72 {
		t.Errorf("expected percentage-based floor near 70.7, got %f", got)
	}

	// with a tiny percentage, the pixel floor should win.
	got = MovementThreshold(100, 100, 50, 0.01)
	if got != 50 {
		t.Errorf("expected pixel floor of 50, got %f", got)
	}
}

func TestPickBestCandidatePrefersOverlapOverDistance(t *testing.T) {
	now := time.Now()
	strongOverlap := trackWithLast(t, 1, domain.NewBoundingBox(0, 0, 100, 100), now)
	closeButNoOverlap := trackWithLast(t, 2, domain.NewBoundingBox(1000, 1000, 1010, 1010), now)

	candidates := []candidate{
		{track: strongOverlap, overlap: 0.9, distance: 500},
		{track: closeButNoOverlap, overlap: 0, distance: 1},
	}

	got := pickBestCandidate(candidates, 0.2, 10)
	if got != strongOverlap {
		t.Error("expected the overlap-qualifying candidate to win even though the other is closer")
	}
}

func TestPickBestCandidateFallsBackToDistance(t *testing.T) {
	now := time.Now()
	tr := trackWithLast(t, 1, domain.NewBoundingBox(0, 0, 100, 100), now)

	candidates := []candidate{
		{track: tr, overlap: 0.05, distance: 5},
	}

	got := pickBestCandidate(candidates, 0.2, 10)
	if got != tr {
		t.Error("expected distance fallback to match when overlap is below threshold")
	}
}

func TestPickBestCandidateReturnsNilWhenNothingQualifies(t *testing.T) {
	now := time.Now()
	tr := trackWithLast(t, 1, domain.NewBoundingBox(0, 0, 100, 100), now)

	candidates := []candidate{
		{track: tr, overlap: 0.01, distance: 5000},
	}

	if got := pickBestCandidate(candidates, 0.2, 10); got != nil {
		t.Errorf("expected nil when no candidate meets either threshold, got track %d", got.TrackID)
	}
}

func TestPickBestCandidateBreaksOverlapTiesByLowerTrackID(t *testing.T) {
	now := time.Now()
	earlier := trackWithLast(t, 1, domain.NewBoundingBox(0, 0, 100, 100), now)
	later := trackWithLast(t, 2, domain.NewBoundingBox(0, 0, 100, 100), now)

	candidates := []candidate{
		{track: later, overlap: 0.5, distance: 1},
		{track: earlier, overlap: 0.5, distance: 1},
	}

	got := pickBestCandidate(candidates, 0.2, 10)
	if got != earlier {
		t.Error("expected tie to be broken in favor of the lower track id")
	}
}

func trackWithLast(t *testing.T, id int64, bbox domain.BoundingBox, ts time.Time) *domain.Track {
	t.Helper()
	seed := newFixtureEvent(t, bbox, ts)
	return domain.NewTrack(id, 1, seed)
}

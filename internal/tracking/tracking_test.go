package tracking

import (
	"testing"
	"time"

	"gocv.io/x/gocv"

	"faceworker/internal/domain"
)

// newFixtureEvent builds a minimal Event for matching/manager tests: a
// small in-memory Mat, no real image content needed since the association
// algorithm only reads bbox/timestamp/quality.
func newFixtureEvent(t *testing.T, bbox domain.BoundingBox, ts time.Time) *domain.Event {
	t.Helper()
	mat := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	frame := domain.NewFrame(1, 640, 480, mat, ts)
	defer frame.Release()
	return domain.NewEvent("fixture", frame, bbox, 0.9, 0.5, ts)
}

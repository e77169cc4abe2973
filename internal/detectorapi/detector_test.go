package detectorapi

import (
	"image"
	"testing"
)

// Detect itself needs a real cascade classifier loaded from an XML file, so
// it isn't exercised here; these tests cover the post-filter logic that
// rejects likely false positives regardless of which classifier produced
// the candidate rectangle.

func TestPassesFaceFiltersAcceptsSquareFaceAwayFromEdges(t *testing.T) {
	face := image.Rect(100, 100, 160, 160) // 60x60, aspect 1.0, area 3600
	if !passesFaceFilters(face, 640, 480) {
		t.Error("expected a square, well-placed face to pass")
	}
}

func TestPassesFaceFiltersRejectsExtremeAspectRatio(t *testing.T) {
	face := image.Rect(100, 100, 300, 160) // 200x60, aspect ~3.3
	if passesFaceFilters(face, 640, 480) {
		t.Error("expected an elongated rectangle to be rejected")
	}
}

func TestPassesFaceFiltersRejectsUndersizedArea(t *testing.T) {
	face := image.Rect(100, 100, 130, 130) // 30x30 = 900 area
	if passesFaceFilters(face, 640, 480) {
		t.Error("expected a too-small face to be rejected")
	}
}

func TestPassesFaceFiltersRejectsOversizedArea(t *testing.T) {
	face := image.Rect(0, 0, 500, 500) // 250000 area
	if passesFaceFilters(face, 640, 480) {
		t.Error("expected an oversized face to be rejected")
	}
}

func TestPassesFaceFiltersRejectsFaceTouchingEdge(t *testing.T) {
	face := image.Rect(0, 100, 60, 160) // Min.X=0 < margin
	if passesFaceFilters(face, 640, 480) {
		t.Error("expected a face touching the frame edge to be rejected")
	}
}

func TestPassesFaceFiltersRejectsFaceNearBottomRightEdge(t *testing.T) {
	face := image.Rect(575, 410, 635, 470) // 60x60, area 3600, but Max.X=635 > 640-margin
	if passesFaceFilters(face, 640, 480) {
		t.Error("expected a face touching the bottom-right edge to be rejected")
	}
}

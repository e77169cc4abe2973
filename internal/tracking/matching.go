// Package tracking implements the association algorithm and TrackManager —
// the heart of the system per spec.md §4.3: matching incoming Events to
// existing Tracks (or creating new ones), maintaining each Track's
// best-quality Event, and driving finalization.
package tracking

import (
	"math"

	"faceworker/internal/domain"
)

// AdaptiveIoUThreshold returns the overlap threshold for a frame of the
// given width, per the resolution bands in spec.md §4.3.
func AdaptiveIoUThreshold(frameWidth int) float64 {
	switch {
	case frameWidth <= 640:
		return 0.20
	case frameWidth <= 1280:
		return 0.15
	case frameWidth <= 1920:
		return 0.12
	default:
		return 0.10
	}
}

// DistanceThreshold returns sqrt(w^2+h^2) * fraction, the maximum center
// distance a candidate Track may be from an incoming Event and still match
// by the distance fallback strategy.
func DistanceThreshold(frameWidth, frameHeight int, fraction float64) float64 {
	return math.Hypot(float64(frameWidth), float64(frameHeight)) * fraction
}

// MovementThreshold returns max(minPixels, minPercentage*diagonal): the
// minimum first-to-last bbox-center displacement a Track must show before
// its best_event is eligible for forwarding on finalization.
func MovementThreshold(frameWidth, frameHeight int, minPixels, minPercentage float64) float64 {
	diag := math.Hypot(float64(frameWidth), float64(frameHeight))
	pct := diag * minPercentage
	if pct > minPixels {
		return pct
	}
	return minPixels
}

// candidate captures the per-track outcome of matching one incoming Event
// against one Track's last Event, for selection in pickBestCandidate.
type candidate struct {
	track    *domain.Track
	overlap  float64
	distance float64
}

// pickBestCandidate implements the two-strategy selection from spec.md
// §4.3: prefer the Track with the greatest overlap >= iouThreshold; failing
// that, fall back to the Track with the smallest center distance <=
// distanceThreshold. Ties are broken by lower TrackID (earlier track wins).
func pickBestCandidate(candidates []candidate, iouThreshold, distanceThreshold float64) *domain.Track {
	var byOverlap *domain.Track
	bestOverlap := -1.0

	var byDistance *domain.Track
	bestDistance := math.Inf(1)

	for _, c := range candidates {
		if c.overlap >= iouThreshold {
			if c.overlap > bestOverlap || (c.overlap == bestOverlap && byOverlap != nil && c.track.TrackID < byOverlap.TrackID) {
				bestOverlap = c.overlap
				byOverlap = c.track
			}
		}
		if c.distance <= distanceThreshold {
			if c.distance < bestDistance || (c.distance == bestDistance && byDistance != nil && c.track.TrackID < byDistance.TrackID) {
				bestDistance = c.distance
				byDistance = c.track
			}
		}
	}

	if byOverlap != nil {
		return byOverlap
	}
	return byDistance
}

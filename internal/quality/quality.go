// Package quality implements FaceQualityService: a pure, side-effect-free
// scoring function over a detected face's bounding box and detector
// confidence. Higher is better; the scale is otherwise arbitrary so long as
// it is self-consistent across detections from the same stream.
package quality

import "faceworker/internal/domain"

// Score computes quality_score for a detection. It rewards detector
// confidence, larger faces (as a fraction of the frame, capped so a face
// that fills the frame does not dominate the score), and centering (faces
// near the frame's edges are penalized, since they are more likely to be
// partially occluded by the frame boundary).
func Score(bbox domain.BoundingBox, confidence float64, frameWidth, frameHeight int) float64 {
	if frameWidth <= 0 || frameHeight <= 0 {
		return confidence
	}

	frameArea := float64(frameWidth) * float64(frameHeight)
	sizeFraction := bbox.Area() / frameArea
	if sizeFraction > 0.25 {
		sizeFraction = 0.25
	}
	sizeScore := sizeFraction / 0.25 // normalize to [0,1]

	cx, cy := bbox.Center()
	halfW, halfH := float64(frameWidth)/2.0, float64(frameHeight)/2.0
	dx := (cx - halfW) / halfW
	dy := (cy - halfH) / halfH
	offCenter := dx*dx + dy*dy // 0 at center, grows toward corners
	centerScore := 1.0 / (1.0 + offCenter)

	return 0.6*confidence + 0.3*sizeScore + 0.1*centerScore
}

package domain

import "math"

// BoundingBox is a pixel-space rectangle with X1<=X2 and Y1<=Y2. Immutable.
type BoundingBox struct {
	X1, Y1, X2, Y2 int
}

// NewBoundingBox clamps its inputs so X1<=X2 and Y1<=Y2 hold.
func NewBoundingBox(x1, y1, x2, y2 int) BoundingBox {
	if x2 < x1 {
		x1, x2 = x2, x1
	}
	if y2 < y1 {
		y1, y2 = y2, y1
	}
	return BoundingBox{X1: x1, Y1: y1, X2: x2, Y2: y2}
}

// Area returns the rectangle's pixel area.
func (b BoundingBox) Area() float64 {
	return float64(b.X2-b.X1) * float64(b.Y2-b.Y1)
}

// Center returns the box's center point.
func (b BoundingBox) Center() (float64, float64) {
	return float64(b.X1+b.X2) / 2.0, float64(b.Y1+b.Y2) / 2.0
}

// Width reports the box's pixel width.
func (b BoundingBox) Width() int { return b.X2 - b.X1 }

// Overlap computes intersection_area / mean(area1, area2) — deliberately NOT
// standard IoU (which divides by the union). The legacy system this was
// ported from calibrated its thresholds against the mean-area ratio, so that
// behavior is preserved even though callers and config keys still say "iou".
func Overlap(a, b BoundingBox) float64 {
	x1 := math.Max(float64(a.X1), float64(b.X1))
	y1 := math.Max(float64(a.Y1), float64(b.Y1))
	x2 := math.Min(float64(a.X2), float64(b.X2))
	y2 := math.Min(float64(a.Y2), float64(b.Y2))

	if x2 < x1 || y2 < y1 {
		return 0
	}

	intersection := (x2 - x1) * (y2 - y1)
	areaA, areaB := a.Area(), b.Area()
	if areaA == 0 || areaB == 0 {
		return 0
	}

	meanArea := (areaA + areaB) / 2.0
	return intersection / meanArea
}

// CenterDistance returns the Euclidean distance between the centers of a and b.
func CenterDistance(a, b BoundingBox) float64 {
	ax, ay := a.Center()
	bx, by := b.Center()
	return math.Hypot(ax-bx, ay-by)
}

func diagonal(w, h float64) float64 {
	return math.Hypot(w, h)
}

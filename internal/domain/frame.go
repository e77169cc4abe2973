package domain

import (
	"sync/atomic"
	"time"

	"gocv.io/x/gocv"
)

// Frame is a single decoded image pulled from a camera. It is immutable
// after construction: CameraID, Width, Height, and CapturedAt never change.
// The pixel buffer is reference-counted because several Events derived from
// one Frame may outlive each other; the underlying gocv.Mat is released only
// when the last referencing Event is gone.
type Frame struct {
	CameraID   int
	Width      int
	Height     int
	CapturedAt time.Time

	mat    gocv.Mat
	refs   *int32
	closed *int32
}

// NewFrame takes ownership of mat. The returned Frame starts with a refcount
// of one, representing the caller's own reference.
func NewFrame(cameraID, width, height int, mat gocv.Mat, capturedAt time.Time) *Frame {
	refs := int32(1)
	closed := int32(0)
	return &Frame{
		CameraID:   cameraID,
		Width:      width,
		Height:     height,
		CapturedAt: capturedAt,
		mat:        mat,
		refs:       &refs,
		closed:     &closed,
	}
}

// Mat exposes the underlying pixel buffer. Callers must not call Close on it
// directly; use Retain/Release to manage its lifetime.
func (f *Frame) Mat() gocv.Mat { return f.mat }

// Retain increments the reference count and returns a Frame handle sharing
// the same underlying buffer. Call Release exactly once for every Retain.
func (f *Frame) Retain() *Frame {
	atomic.AddInt32(f.refs, 1)
	return &Frame{
		CameraID:   f.CameraID,
		Width:      f.Width,
		Height:     f.Height,
		CapturedAt: f.CapturedAt,
		mat:        f.mat,
		refs:       f.refs,
		closed:     f.closed,
	}
}

// Release decrements the reference count, closing the underlying buffer when
// it reaches zero. Safe to call more than once per handle only if the caller
// never calls it twice for the same Retain — double-release on the same
// handle would double-decrement, so callers must track ownership precisely.
func (f *Frame) Release() {
	if atomic.AddInt32(f.refs, -1) > 0 {
		return
	}
	if atomic.CompareAndSwapInt32(f.closed, 0, 1) {
		f.mat.Close()
	}
}

// Diagonal returns sqrt(width^2 + height^2) in pixels.
func (f *Frame) Diagonal() float64 {
	return diagonal(float64(f.Width), float64(f.Height))
}

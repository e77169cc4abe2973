package domain

import (
	"time"

	"gocv.io/x/gocv"
)

// Event is a single face detection tied to one Frame. No attribute may be
// mutated after construction; Frame is never cleared while the Event is
// reachable (the immutability invariant from the spec this codifies).
type Event struct {
	EventID      string
	Frame        *Frame
	Bbox         BoundingBox
	Confidence   float64
	QualityScore float64
	Timestamp    time.Time
}

// NewEvent constructs an Event that holds its own reference to frame. The
// caller retains ownership of its own frame handle; NewEvent calls
// frame.Retain() internally.
func NewEvent(id string, frame *Frame, bbox BoundingBox, confidence, quality float64, ts time.Time) *Event {
	return &Event{
		EventID:      id,
		Frame:        frame.Retain(),
		Bbox:         bbox,
		Confidence:   confidence,
		QualityScore: quality,
		Timestamp:    ts,
	}
}

// Release drops this Event's reference to its Frame. Call exactly once, when
// the Event is no longer reachable from any Track or queue.
func (e *Event) Release() {
	if e.Frame != nil {
		e.Frame.Release()
	}
}

// Copy produces a new Event with an independently-owned pixel buffer: the
// source Frame's Mat is cloned rather than shared, so mutating or releasing
// the original Frame never affects the copy. This is what makes it safe to
// hand an Event across into the Forwarder stage while the originating Track
// keeps running.
func (e *Event) Copy() *Event {
	cloned := e.Frame.Mat().Clone()
	clonedFrame := NewFrame(e.Frame.CameraID, e.Frame.Width, e.Frame.Height, cloned, e.Frame.CapturedAt)
	defer clonedFrame.Release()

	return NewEvent(e.EventID, clonedFrame, e.Bbox, e.Confidence, e.QualityScore, e.Timestamp)
}

// Crop returns a JPEG encoding of the face bounding box cropped from the
// Event's frame, for submission to the face-recognition service.
func (e *Event) Crop() ([]byte, error) {
	mat := e.Frame.Mat()
	rect := gocv.NewRect(e.Bbox.X1, e.Bbox.Y1, e.Bbox.Width(), e.Bbox.Y2-e.Bbox.Y1)
	region := mat.Region(rect)
	defer region.Close()

	buf, err := gocv.IMEncode(".jpg", region)
	if err != nil {
		return nil, err
	}
	defer buf.Close()

	out := make([]byte, len(buf.GetBytes()))
	copy(out, buf.GetBytes())
	return out, nil
}

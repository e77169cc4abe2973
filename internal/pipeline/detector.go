package pipeline

import (
	"context"
	"sync/atomic"

	"github.com/google/uuid"
	"gocv.io/x/gocv"

	"faceworker/internal/asynclog"
	"faceworker/internal/detectorapi"
	"faceworker/internal/domain"
	"faceworker/internal/quality"
)

// Detector drains a FrameQueue, runs a detectorapi.Detector against each
// surviving Frame honoring detection_skip_frames, constructs an Event per
// box that passes the min_bbox_width/min_confidence filters from spec.md
// §4.2, and pushes the result onto an EventQueue. One Detector instance is
// thread-confined to a single model/device, matching spec.md §6's "one
// instance per device".
type Detector struct {
	frames *FrameQueue
	events *EventQueue
	model  detectorapi.Detector
	log    *asynclog.Logger

	skipFrames    int
	minBboxWidth  int
	minConfidence float64

	frameCounter  int64
	dropsSinceLog int64
}

// NewDetector creates a Detector bound to one FrameQueue/EventQueue pair and
// one model instance.
func NewDetector(frames *FrameQueue, events *EventQueue, model detectorapi.Detector, log *asynclog.Logger, skipFrames, minBboxWidth int, minConfidence float64) *Detector {
	return &Detector{
		frames:        frames,
		events:        events,
		model:         model,
		log:           log,
		skipFrames:    skipFrames,
		minBboxWidth:  minBboxWidth,
		minConfidence: minConfidence,
	}
}

// Run drains frames until the queue is closed or ctx is cancelled.
func (d *Detector) Run(ctx context.Context) {
	for {
		frame, ok := d.frames.Pop(ctx)
		if !ok {
			return
		}
		d.process(frame)
	}
}

func (d *Detector) process(frame *domain.Frame) {
	defer frame.Release()

	n := atomic.AddInt64(&d.frameCounter, 1)
	if d.skipFrames > 0 && (n-1)%int64(d.skipFrames+1) != 0 {
		return
	}

	results := d.model.Detect([]gocv.Mat{frame.Mat()})
	if len(results) == 0 {
		return
	}

	for _, det := range results[0] {
		if det.Bbox.Width() < d.minBboxWidth || det.Confidence < d.minConfidence {
			continue
		}

		score := quality.Score(det.Bbox, det.Confidence, frame.Width, frame.Height)
		event := domain.NewEvent(uuid.NewString(), frame, det.Bbox, det.Confidence, score, frame.CapturedAt)

		if !d.events.Put(event) {
			d.reportDrop()
		}
	}
}

// reportDrop aggregates EventQueue drop warnings into one log line per 100
// drops, per spec.md §4.2 ("log a single aggregated warning per 100 drops").
func (d *Detector) reportDrop() {
	n := atomic.AddInt64(&d.dropsSinceLog, 1)
	if n%100 == 0 {
		d.log.Warnf("detector: event queue dropped %d events (cumulative)", n)
	}
}

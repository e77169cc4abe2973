package pipeline

import (
	"context"
	"testing"
	"time"

	"gocv.io/x/gocv"

	"faceworker/internal/asynclog"
	"faceworker/internal/detectorapi"
	"faceworker/internal/domain"
)

type fakeDetector struct {
	detections [][]detectorapi.Detection
	calls      int
}

func (f *fakeDetector) Detect(images []gocv.Mat) [][]detectorapi.Detection {
	f.calls++
	return f.detections
}

func (f *fakeDetector) Close() error { return nil }

func testDetectorLogger() *asynclog.Logger {
	return asynclog.New(discardWriter{}, asynclog.LevelError, 100)
}

func TestDetectorEmitsEventsPassingFilters(t *testing.T) {
	frames := NewFrameQueue(10)
	events := NewEventQueue(10, time.Second)
	model := &fakeDetector{detections: [][]detectorapi.Detection{
		{{Bbox: domain.NewBoundingBox(0, 0, 100, 100), Confidence: 0.9}},
	}}

	d := NewDetector(frames, events, model, testDetectorLogger(), 0, 30, 0.5)
	frames.Push(newTestFrame(t, 1))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() { d.Run(ctx); close(done) }()

	ctxGet, cancelGet := context.WithTimeout(context.Background(), time.Second)
	defer cancelGet()
	event, ok := events.Get(ctxGet)
	if !ok {
		t.Fatal("expected an event to be produced")
	}
	if event.Confidence != 0.9 {
		t.Errorf("unexpected confidence %f", event.Confidence)
	}

	cancel()
	frames.Close()
	<-done
}

func TestDetectorDropsDetectionsBelowConfidence(t *testing.T) {
	frames := NewFrameQueue(10)
	events := NewEventQueue(10, time.Second)
	model := &fakeDetector{detections: [][]detectorapi.Detection{
		{{Bbox: domain.NewBoundingBox(0, 0, 100, 100), Confidence: 0.1}},
	}}

	d := NewDetector(frames, events, model, testDetectorLogger(), 0, 30, 0.5)
	frames.Push(newTestFrame(t, 1))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() { d.Run(ctx); close(done) }()

	time.Sleep(20 * time.Millisecond)
	if events.Len() != 0 {
		t.Errorf("expected low-confidence detections to be filtered out, got %d events", events.Len())
	}

	cancel()
	frames.Close()
	<-done
}

func TestDetectorHonorsSkipFrames(t *testing.T) {
	frames := NewFrameQueue(10)
	events := NewEventQueue(10, time.Second)
	model := &fakeDetector{detections: [][]detectorapi.Detection{
		{{Bbox: domain.NewBoundingBox(0, 0, 100, 100), Confidence: 0.9}},
	}}

	// skipFrames=1 means only every other frame is processed.
	d := NewDetector(frames, events, model, testDetectorLogger(), 1, 30, 0.5)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() { d.Run(ctx); close(done) }()

	for i := 0; i < 4; i++ {
		frames.Push(newTestFrame(t, 1))
	}
	time.Sleep(30 * time.Millisecond)

	cancel()
	frames.Close()
	<-done

	if model.calls != 2 {
		t.Errorf("expected exactly 2 of 4 frames to be run through the model, got %d", model.calls)
	}
}

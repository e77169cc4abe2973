package pipeline

import (
	"context"
	"sync"
	"testing"
	"time"

	"faceworker/internal/asynclog"
	"faceworker/internal/domain"
)

type fakeSubmitter struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeSubmitter) Submit(ctx context.Context, event *domain.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.err
}

func (f *fakeSubmitter) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeAuditSink struct {
	mu      sync.Mutex
	records []AuditRecord
}

func (f *fakeAuditSink) Publish(record AuditRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, record)
}

func (f *fakeAuditSink) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records)
}

func testForwarderLogger() *asynclog.Logger {
	return asynclog.New(discardWriter{}, asynclog.LevelError, 100)
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

func TestForwarderPublishesAuditOnSuccess(t *testing.T) {
	queue := NewFindfaceQueue(10)
	submitter := &fakeSubmitter{}
	audit := &fakeAuditSink{}
	f := NewForwarder(queue, submitter, audit, testForwarderLogger(), 1, time.Second)

	queue.TryPut(newTestEvent(t))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() { f.Run(ctx); close(done) }()

	waitUntil(t, func() bool { return audit.count() == 1 })
	cancel()
	queue.Close()
	<-done

	if submitter.callCount() != 1 {
		t.Errorf("expected exactly 1 submit call, got %d", submitter.callCount())
	}
}

func TestForwarderDropsPermanentErrorWithoutRetry(t *testing.T) {
	queue := NewFindfaceQueue(10)
	submitter := &fakeSubmitter{err: &domain.PermanentUpstreamError{StatusCode: 400, Body: "bad request"}}
	audit := &fakeAuditSink{}
	f := NewForwarder(queue, submitter, audit, testForwarderLogger(), 1, time.Second)

	queue.TryPut(newTestEvent(t))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() { f.Run(ctx); close(done) }()

	waitUntil(t, func() bool { return submitter.callCount() >= 1 })
	time.Sleep(20 * time.Millisecond) // give a buggy retry loop a chance to fire again
	cancel()
	queue.Close()
	<-done

	if submitter.callCount() != 1 {
		t.Errorf("expected a permanent error to stop after 1 attempt, got %d calls", submitter.callCount())
	}
	if audit.count() != 0 {
		t.Error("a dropped event must not be audited")
	}
}

func waitUntil(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition was not met within the deadline")
}

package pipeline

import (
	"context"
	"errors"
	"time"

	"faceworker/internal/asynclog"
	"faceworker/internal/domain"
	"faceworker/internal/retry"
)

// Submitter is the face-recognition wire client contract the Forwarder
// depends on; *findface.Client satisfies it.
type Submitter interface {
	Submit(ctx context.Context, event *domain.Event) error
}

// AuditSink receives a best-effort notification for every successfully
// forwarded Event; *audit.Publisher satisfies it. A nil AuditSink is valid
// and simply skips the tap.
type AuditSink interface {
	Publish(record AuditRecord)
}

// AuditRecord is the compact fact the Forwarder hands to AuditSink on
// success: enough to correlate with the face-recognition service's own
// records without re-shipping the image.
type AuditRecord struct {
	EventID     string
	CameraID    int
	Timestamp   time.Time
	ForwardedAt time.Time
}

// Forwarder runs N workers (spec.md §4.4's default 2) draining a
// FindfaceQueue and submitting each Event to the face-recognition service,
// retrying transient failures with exponential backoff and dropping
// permanent ones.
type Forwarder struct {
	queue     *FindfaceQueue
	submitter Submitter
	audit     AuditSink
	log       *asynclog.Logger
	workers   int
	timeout   time.Duration
	retryCfg  retry.Config
}

// NewForwarder creates a Forwarder. audit may be nil.
func NewForwarder(queue *FindfaceQueue, submitter Submitter, audit AuditSink, log *asynclog.Logger, workers int, submitTimeout time.Duration) *Forwarder {
	return &Forwarder{
		queue:     queue,
		submitter: submitter,
		audit:     audit,
		log:       log,
		workers:   workers,
		timeout:   submitTimeout,
		retryCfg:  retry.Config{MaxAttempts: 3, BaseDelay: 500 * time.Millisecond, MaxDelay: 5 * time.Second},
	}
}

// Run starts f.workers goroutines draining the FindfaceQueue and blocks
// until ctx is cancelled and every worker has exited.
func (f *Forwarder) Run(ctx context.Context) {
	done := make(chan struct{}, f.workers)
	for i := 0; i < f.workers; i++ {
		go func() {
			f.worker(ctx)
			done <- struct{}{}
		}()
	}
	for i := 0; i < f.workers; i++ {
		<-done
	}
}

func (f *Forwarder) worker(ctx context.Context) {
	for {
		event, ok := f.queue.Get(ctx)
		if !ok {
			return
		}
		f.handle(ctx, event)
	}
}

func (f *Forwarder) handle(ctx context.Context, event *domain.Event) {
	defer event.Release()

	submitCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	err := retry.Do(submitCtx, func() error {
		err := f.submitter.Submit(submitCtx, event)
		var permanent *domain.PermanentUpstreamError
		if errors.As(err, &permanent) {
			return nonRetryableErr{permanent}
		}
		return err
	}, f.retryCfg, "findface submit", f.log)

	var aborted nonRetryableErr
	if errors.As(err, &aborted) {
		f.log.Warnf("forwarder: permanent failure for event %s: %v", event.EventID, aborted.err)
		return
	}
	if err != nil {
		f.log.Errorf("forwarder: giving up on event %s after retries: %v", event.EventID, err)
		return
	}

	f.log.Infof("forwarder: event %s submitted (camera %d)", event.EventID, event.Frame.CameraID)
	if f.audit != nil {
		f.audit.Publish(AuditRecord{
			EventID:     event.EventID,
			CameraID:    event.Frame.CameraID,
			Timestamp:   event.Timestamp,
			ForwardedAt: time.Now(),
		})
	}
}

// nonRetryableErr wraps a permanent error so retry.Do's generic error-retry
// loop stops immediately instead of burning through its backoff schedule on
// an error class that will never succeed.
type nonRetryableErr struct{ err error }

func (r nonRetryableErr) Error() string      { return r.err.Error() }
func (r nonRetryableErr) Unwrap() error      { return r.err }
func (r nonRetryableErr) NonRetryable() bool { return true }

// Package domain holds the core entities of the face pipeline: frames,
// events, tracks, and the registry that groups tracks by camera.
package domain

import "fmt"

// ConfigError is fatal at startup: a malformed or missing configuration value.
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error: %s: %v", e.Field, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// IngestorFatalError means a single camera's ingestor cannot continue; the
// camera is dropped, other ingestors are unaffected.
type IngestorFatalError struct {
	CameraID int
	Err      error
}

func (e *IngestorFatalError) Error() string {
	return fmt.Sprintf("ingestor fatal for camera %d: %v", e.CameraID, e.Err)
}

func (e *IngestorFatalError) Unwrap() error { return e.Err }

// TransientDecodeError is a recoverable RTSP read/decode failure, retried
// internally by the ingestor.
type TransientDecodeError struct {
	CameraID int
	Err      error
}

func (e *TransientDecodeError) Error() string {
	return fmt.Sprintf("transient decode error for camera %d: %v", e.CameraID, e.Err)
}

func (e *TransientDecodeError) Unwrap() error { return e.Err }

// TransientNetworkError is a recoverable network failure talking to an
// external service (face-recognition submission, camera probe).
type TransientNetworkError struct {
	Err error
}

func (e *TransientNetworkError) Error() string {
	return fmt.Sprintf("transient network error: %v", e.Err)
}

func (e *TransientNetworkError) Unwrap() error { return e.Err }

// PermanentUpstreamError is a 4xx-class failure from the face-recognition
// service; the event is dropped, never retried.
type PermanentUpstreamError struct {
	StatusCode int
	Body       string
}

func (e *PermanentUpstreamError) Error() string {
	return fmt.Sprintf("permanent upstream error: status %d: %s", e.StatusCode, e.Body)
}

// QueueOverflow records a producer-side drop. Category distinguishes the
// overflow policy that triggered it, for aggregated reporting.
type QueueOverflow struct {
	Queue  string
	Policy string
}

func (e *QueueOverflow) Error() string {
	return fmt.Sprintf("queue overflow: %s (%s)", e.Queue, e.Policy)
}

// InvariantViolation marks an unexpected nil where a non-finalized Track or a
// live Event should have a value. The offending Track/Event is discarded;
// the process keeps running.
type InvariantViolation struct {
	TrackID int64
	EventID string
	Detail  string
}

func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("invariant violation: track=%d event=%s: %s", e.TrackID, e.EventID, e.Detail)
}

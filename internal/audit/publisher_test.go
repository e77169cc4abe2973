package audit

import (
	"testing"
	"time"

	"faceworker/internal/asynclog"
	"faceworker/internal/pipeline"
)

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

func testLogger() *asynclog.Logger {
	return asynclog.New(discardWriter{}, asynclog.LevelError, 10)
}

// Publish against a real broker isn't exercised here: New with no brokers
// returns a no-op sink, which is the only path testable without Kafka.
func TestPublishWithNoBrokersIsANoOp(t *testing.T) {
	p := New(nil, "audit-topic", testLogger())
	if p.writer != nil {
		t.Fatal("expected a nil writer when no brokers are configured")
	}

	// Must not panic or block.
	p.Publish(pipeline.AuditRecord{EventID: "evt-1", ForwardedAt: time.Now()})

	if err := p.Close(); err != nil {
		t.Errorf("expected Close on a no-op publisher to succeed, got %v", err)
	}
}

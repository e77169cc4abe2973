// Package audit implements AuditPublisher, a best-effort Kafka fan-out of
// successfully forwarded events. Grounded on the teacher's KafkaProducer in
// main.go/kafka_producer.go: the same kafka.Writer configuration (LeastBytes
// balancer, small synchronous batches, RequireOne acks), repurposed from
// publishing face-detection alerts to publishing forwarding audit records.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"faceworker/internal/asynclog"
	"faceworker/internal/pipeline"
)

// Publisher wraps a kafka.Writer. A Publisher constructed with no brokers is
// a no-op: Publish returns immediately without touching the network, per
// spec.md §4.9 (disabled entirely when no brokers are configured).
type Publisher struct {
	writer *kafka.Writer
	log    *asynclog.Logger
}

// New creates a Publisher. If brokers is empty, the returned Publisher is a
// no-op sink.
func New(brokers []string, topic string, log *asynclog.Logger) *Publisher {
	if len(brokers) == 0 {
		return &Publisher{log: log}
	}
	return &Publisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			BatchSize:    1,
			BatchTimeout: 10 * time.Millisecond,
			RequiredAcks: kafka.RequireOne,
			Async:        false,
			Compression:  kafka.Gzip,
		},
		log: log,
	}
}

// Publish marshals record to JSON and writes it with a short timeout.
// Errors are logged and dropped — audit is observability, not a delivery
// guarantee, and must never block or fail the Forwarder's hot path.
func (p *Publisher) Publish(record pipeline.AuditRecord) {
	if p.writer == nil {
		return
	}

	payload, err := json.Marshal(record)
	if err != nil {
		p.log.Warnf("audit: marshal record for event %s: %v", record.EventID, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	msg := kafka.Message{
		Key:   []byte(record.EventID),
		Value: payload,
		Time:  record.ForwardedAt,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.log.Warnf("audit: publish event %s: %v", record.EventID, err)
	}
}

// Close releases the underlying writer's connections.
func (p *Publisher) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}

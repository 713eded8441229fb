package kafka

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	appcmp "github.com/planlens/PlanLens-Compare/internal/application/comparison"
	"github.com/planlens/PlanLens-Compare/internal/config"
	"github.com/planlens/PlanLens-Compare/internal/infrastructure/monitoring/logging"
	"github.com/planlens/PlanLens-Compare/pkg/errors"
)

// WriterInterface abstracts kafka.Writer for testing.
type WriterInterface interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// ProducerMetrics holds producer counters.
type ProducerMetrics struct {
	MessagesSent   atomic.Int64
	MessagesFailed atomic.Int64
}

// Producer publishes events.  It implements the application layer's
// StatusPublisher port.
type Producer struct {
	writer  WriterInterface
	logger  logging.Logger
	closed  atomic.Bool
	metrics ProducerMetrics
}

// NewProducer creates a Producer from the bus configuration.  Messages are
// keyed so every event for one job lands on the same partition, keeping
// per-job ordering.
func NewProducer(cfg config.KafkaConfig, log logging.Logger) (*Producer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.Validation("kafka brokers required")
	}
	if log == nil {
		log = logging.NewNopLogger()
	}

	batchTimeout := cfg.BatchTimeout
	if batchTimeout == 0 {
		batchTimeout = time.Second
	}
	writeTimeout := cfg.WriteTimeout
	if writeTimeout == 0 {
		writeTimeout = 10 * time.Second
	}
	maxAttempts := cfg.ProducerRetries + 1
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     &kafka.Hash{},
		MaxAttempts:  maxAttempts,
		BatchTimeout: batchTimeout,
		WriteTimeout: writeTimeout,
		RequiredAcks: kafka.RequireOne,
	}

	return &Producer{writer: writer, logger: log.Named("kafka-producer")}, nil
}

// NewProducerWithWriter wraps an existing writer; used by tests.
func NewProducerWithWriter(w WriterInterface, log logging.Logger) *Producer {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Producer{writer: w, logger: log.Named("kafka-producer")}
}

// PublishStatus publishes a lifecycle transition on the status topic.
func (p *Producer) PublishStatus(ctx context.Context, ev appcmp.StatusEvent) error {
	return p.publish(ctx, TopicComparisonStatus, string(ev.JobID), ev)
}

// PublishRequested enqueues a comparison request for the worker.
func (p *Producer) PublishRequested(ctx context.Context, ev RequestedEvent) error {
	return p.publish(ctx, TopicComparisonRequested, ev.SourceBlockRef+"|"+ev.TargetBlockRef, ev)
}

// Enqueue implements the HTTP layer's RequestQueue port for queued submits.
func (p *Producer) Enqueue(ctx context.Context, sourceBlockRef, targetBlockRef string) error {
	return p.PublishRequested(ctx, RequestedEvent{
		SourceBlockRef: sourceBlockRef,
		TargetBlockRef: targetBlockRef,
		RequestedAt:    time.Now().UTC(),
	})
}

func (p *Producer) publish(ctx context.Context, topic, key string, payload interface{}) error {
	if p.closed.Load() {
		return errors.Internal("producer closed")
	}

	value, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "encoding event")
	}

	msg := kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: value,
		Time:  time.Now(),
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.metrics.MessagesFailed.Add(1)
		return errors.Wrap(err, errors.ErrCodeInternal, "publishing event").WithDetail(topic)
	}

	p.metrics.MessagesSent.Add(1)
	p.logger.Debug("event published",
		logging.String("topic", topic),
		logging.String("key", key))
	return nil
}

// Sent returns the number of successfully published messages.
func (p *Producer) Sent() int64 { return p.metrics.MessagesSent.Load() }

// Failed returns the number of failed publishes.
func (p *Producer) Failed() int64 { return p.metrics.MessagesFailed.Load() }

// Close flushes and closes the underlying writer.
func (p *Producer) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	err := p.writer.Close()
	p.logger.Info("kafka producer closed",
		logging.Int64("sent", p.metrics.MessagesSent.Load()),
		logging.Int64("failed", p.metrics.MessagesFailed.Load()))
	return err
}

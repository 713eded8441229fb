package kafka

import (
	"context"
	"encoding/json"
	"sync/atomic"

	"github.com/segmentio/kafka-go"

	"github.com/planlens/PlanLens-Compare/internal/config"
	"github.com/planlens/PlanLens-Compare/internal/infrastructure/monitoring/logging"
	"github.com/planlens/PlanLens-Compare/pkg/errors"
)

// ReaderInterface abstracts kafka.Reader for testing.
type ReaderInterface interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// RequestedHandler processes one comparison request.  A returned error marks
// the message as failed; it is still committed so a poison message cannot
// wedge the partition.
type RequestedHandler func(ctx context.Context, ev RequestedEvent) error

// RequestedConsumer consumes TopicComparisonRequested for the worker.
type RequestedConsumer struct {
	reader  ReaderInterface
	handler RequestedHandler
	logger  logging.Logger

	processed atomic.Int64
	failed    atomic.Int64
}

// NewRequestedConsumer creates a consumer in the configured group.
func NewRequestedConsumer(cfg config.KafkaConfig, handler RequestedHandler, log logging.Logger) (*RequestedConsumer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.Validation("kafka brokers required")
	}
	if cfg.GroupID == "" {
		return nil, errors.Validation("kafka group_id required")
	}
	if handler == nil {
		return nil, errors.Internal("nil requested handler")
	}
	if log == nil {
		log = logging.NewNopLogger()
	}

	startOffset := kafka.LastOffset
	if cfg.AutoOffsetReset == "earliest" {
		startOffset = kafka.FirstOffset
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		GroupID:     cfg.GroupID,
		Topic:       TopicComparisonRequested,
		StartOffset: startOffset,
	})

	return &RequestedConsumer{
		reader:  reader,
		handler: handler,
		logger:  log.Named("kafka-consumer"),
	}, nil
}

// NewRequestedConsumerWithReader wraps an existing reader; used by tests.
func NewRequestedConsumerWithReader(r ReaderInterface, handler RequestedHandler, log logging.Logger) *RequestedConsumer {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &RequestedConsumer{reader: r, handler: handler, logger: log.Named("kafka-consumer")}
}

// Run consumes until ctx is cancelled.  Each message is decoded, handled,
// and committed; decode failures and handler errors are logged and counted
// but never stop the loop.
func (c *RequestedConsumer) Run(ctx context.Context) error {
	defer c.reader.Close()

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Info("consumer stopping",
					logging.Int64("processed", c.processed.Load()),
					logging.Int64("failed", c.failed.Load()))
				return nil
			}
			return errors.Wrap(err, errors.ErrCodeInternal, "fetching message")
		}

		var ev RequestedEvent
		if err := json.Unmarshal(msg.Value, &ev); err != nil {
			c.failed.Add(1)
			c.logger.Error("undecodable comparison request",
				logging.Int64("offset", msg.Offset), logging.Err(err))
		} else if err := c.handler(ctx, ev); err != nil {
			c.failed.Add(1)
			c.logger.Error("comparison request failed",
				logging.String("source", ev.SourceBlockRef),
				logging.String("target", ev.TargetBlockRef),
				logging.Err(err))
		} else {
			c.processed.Add(1)
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return errors.Wrap(err, errors.ErrCodeInternal, "committing offset")
		}
	}
}

// Processed returns the number of successfully handled requests.
func (c *RequestedConsumer) Processed() int64 { return c.processed.Load() }

// Failed returns the number of failed requests.
func (c *RequestedConsumer) Failed() int64 { return c.failed.Load() }

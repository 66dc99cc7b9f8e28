package kafka

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

// maxHandlerRetries is how many times a handler runs before the message is
// dead-lettered (when a DLQ is configured) and committed.
const maxHandlerRetries = 3

// Handler processes one decoded event.
type Handler func(ctx context.Context, event *Event) error

// MessageReader is the part of *kafka.Reader the consumer drives.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// DeadLetterer receives messages whose handler kept failing.
type DeadLetterer interface {
	Publish(ctx context.Context, msg kafka.Message, lastErr error, consumerGroup string) error
}

// ConsumerConfig holds Kafka consumer settings.
type ConsumerConfig struct {
	Brokers []string
	GroupID string
	Topics  []string
	// RetryBackoff is the base delay between handler attempts.
	RetryBackoff time.Duration
}

// Consumer reads events from one or more topics in a consumer group and
// commits each message after its handler succeeds or retries are exhausted.
type Consumer struct {
	reader    MessageReader
	group     string
	handler   Handler
	dlq       DeadLetterer
	backoff   time.Duration
	logger    *slog.Logger
	closeOnce sync.Once
}

// NewConsumer creates a group consumer over cfg.Topics.
func NewConsumer(cfg ConsumerConfig, handler Handler, logger *slog.Logger) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		GroupID:     cfg.GroupID,
		GroupTopics: cfg.Topics,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafka.FirstOffset,
	})
	return NewConsumerWithReader(r, cfg.GroupID, handler, cfg.RetryBackoff, logger)
}

// NewConsumerWithReader wires a consumer around an existing reader.
func NewConsumerWithReader(r MessageReader, group string, handler Handler, backoff time.Duration, logger *slog.Logger) *Consumer {
	if backoff <= 0 {
		backoff = 100 * time.Millisecond
	}
	return &Consumer{
		reader:  r,
		group:   group,
		handler: handler,
		backoff: backoff,
		logger:  logger,
	}
}

// WithDeadLetter routes exhausted messages to dlq before committing them.
func (c *Consumer) WithDeadLetter(dlq DeadLetterer) *Consumer {
	c.dlq = dlq
	return c
}

// Start consumes until ctx is canceled, then closes the reader.
func (c *Consumer) Start(ctx context.Context) error {
	c.logger.Info("consumer started", slog.String("group", c.group))
	defer func() { _ = c.Close() }()

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Info("consumer stopping", slog.String("group", c.group))
				return nil
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			c.logger.Error("failed to fetch message", slog.String("error", err.Error()))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(c.backoff):
			}
			continue
		}

		ConsumerMessagesReceived.WithLabelValues(msg.Topic, c.group).Inc()
		if stop := c.process(ctx, msg); stop {
			return nil
		}
	}
}

// process handles one message and reports whether the consumer must stop.
func (c *Consumer) process(ctx context.Context, msg kafka.Message) bool {
	start := time.Now()
	defer func() {
		ConsumerProcessingDuration.WithLabelValues(msg.Topic, c.group).Observe(time.Since(start).Seconds())
	}()

	event, err := UnmarshalEvent(msg.Value)
	if err != nil {
		c.logger.Error("failed to unmarshal event",
			slog.String("error", err.Error()),
			slog.String("topic", msg.Topic),
			slog.Int64("offset", msg.Offset),
		)
		c.giveUp(ctx, msg, err)
		return false
	}

	var lastErr error
	for attempt := 1; attempt <= maxHandlerRetries; attempt++ {
		if lastErr = c.handler(ctx, event); lastErr == nil {
			break
		}
		c.logger.Warn("handler failed",
			slog.String("event_type", event.EventType),
			slog.String("aggregate_id", event.AggregateID),
			slog.String("topic", msg.Topic),
			slog.Int64("offset", msg.Offset),
			slog.Int("attempt", attempt),
			slog.String("error", lastErr.Error()),
		)
		if attempt < maxHandlerRetries {
			select {
			case <-ctx.Done():
				return true
			case <-time.After(time.Duration(attempt) * c.backoff):
			}
		}
	}

	if lastErr != nil {
		c.giveUp(ctx, msg, lastErr)
		return false
	}

	ConsumerMessagesProcessed.WithLabelValues(msg.Topic, c.group).Inc()
	c.commit(ctx, msg)
	return false
}

func (c *Consumer) giveUp(ctx context.Context, msg kafka.Message, cause error) {
	ConsumerMessagesFailed.WithLabelValues(msg.Topic, c.group).Inc()
	if c.dlq != nil {
		if err := c.dlq.Publish(ctx, msg, cause, c.group); err != nil {
			// Leave it uncommitted so it is redelivered after a restart.
			return
		}
		ConsumerDLQPublished.WithLabelValues(msg.Topic, c.group).Inc()
	} else {
		c.logger.Error("skipping poison message",
			slog.String("topic", msg.Topic),
			slog.Int64("offset", msg.Offset),
			slog.String("error", cause.Error()),
		)
	}
	c.commit(ctx, msg)
}

func (c *Consumer) commit(ctx context.Context, msg kafka.Message) {
	if err := c.reader.CommitMessages(ctx, msg); err != nil {
		c.logger.Error("failed to commit message",
			slog.String("topic", msg.Topic),
			slog.Int64("offset", msg.Offset),
			slog.String("error", err.Error()),
		)
	}
}

// Close closes the reader. It is safe to call more than once.
func (c *Consumer) Close() error {
	var err error
	c.closeOnce.Do(func() {
		err = c.reader.Close()
	})
	return err
}

// TopicPrefix is the prefix shared by all EcommerceGo topics.
const TopicPrefix = "ecommerce"

// Topic builds a fully-qualified topic name, e.g. ecommerce.product.upserted.
func Topic(domain, action string) string {
	return fmt.Sprintf("%s.%s.%s", TopicPrefix, domain, action)
}

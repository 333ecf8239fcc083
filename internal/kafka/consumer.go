package kafka

import (
	"context"
	"errors"
	"io"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/rzzdr/option-pricing-engine/pkg/utils/logger"
)

// MessageHandler processes consumed messages. A handler error is logged and
// the consumer moves on; it does not stop the loop.
type MessageHandler func(*Message) error

// Consumer reads messages from a topic within a consumer group
type Consumer struct {
	reader *kafkago.Reader
	log    *logger.Logger
}

// NewConsumer creates a consumer for the given topic
func (c *Client) NewConsumer(topic string) *Consumer {
	startOffset := kafkago.FirstOffset
	if c.config.AutoOffsetReset == "latest" {
		startOffset = kafkago.LastOffset
	}

	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:        c.config.Brokers,
		GroupID:        c.config.GroupID,
		Topic:          topic,
		StartOffset:    startOffset,
		SessionTimeout: c.config.SessionTimeout,
	})

	return &Consumer{
		reader: reader,
		log:    logger.GetLogger("kafka.consumer").With("topic", topic),
	}
}

// Consume reads messages and passes them to the handler until ctx is
// canceled or the reader is closed
func (c *Consumer) Consume(ctx context.Context, handler MessageHandler) error {
	c.log.Info("Starting consumer loop")

	for {
		m, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
				c.log.Info("Consumer loop stopped")
				return nil
			}
			c.log.Errorf("Failed to read message: %v", err)
			return err
		}

		msg := &Message{
			Key:       m.Key,
			Value:     m.Value,
			Topic:     m.Topic,
			Partition: m.Partition,
			Offset:    m.Offset,
			Timestamp: m.Time,
		}
		if err := handler(msg); err != nil {
			c.log.Errorf("Handler failed for offset %d: %v", m.Offset, err)
		}
	}
}

// Close closes the underlying reader
func (c *Consumer) Close() error {
	return c.reader.Close()
}

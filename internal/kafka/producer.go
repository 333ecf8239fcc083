package kafka

import (
	"context"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/rzzdr/option-pricing-engine/pkg/utils/logger"
)

// Producer writes messages to a single topic
type Producer struct {
	writer *kafkago.Writer
	log    *logger.Logger
}

// NewProducer creates a producer for the given topic
func (c *Client) NewProducer(topic string) *Producer {
	requiredAcks := kafkago.RequireAll
	if c.config.ProducerAcks == "1" || c.config.ProducerAcks == "leader" {
		requiredAcks = kafkago.RequireOne
	}

	writer := &kafkago.Writer{
		Addr:         kafkago.TCP(c.config.Brokers...),
		Topic:        topic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: requiredAcks,
		BatchBytes:   int64(c.config.BatchSize),
		MaxAttempts:  c.config.MaxRetries,
	}

	return &Producer{
		writer: writer,
		log:    logger.GetLogger("kafka.producer").With("topic", topic),
	}
}

// Produce writes a single keyed message
func (p *Producer) Produce(ctx context.Context, key, value []byte) error {
	err := p.writer.WriteMessages(ctx, kafkago.Message{Key: key, Value: value})
	if err != nil {
		p.log.Errorf("Failed to produce message: %v", err)
	}
	return err
}

// Close flushes and closes the underlying writer
func (p *Producer) Close() error {
	return p.writer.Close()
}

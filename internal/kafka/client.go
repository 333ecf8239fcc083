// Package kafka wraps segmentio/kafka-go readers and writers behind the
// small producer/consumer surface the quote processor needs.
package kafka

import (
	"time"

	"github.com/rzzdr/option-pricing-engine/pkg/utils/logger"
)

// Config holds connection-level Kafka settings
type Config struct {
	Brokers         []string
	GroupID         string
	AutoOffsetReset string
	SessionTimeout  time.Duration
	ProducerAcks    string
	BatchSize       int
	RetryBackoff    time.Duration
	MaxRetries      int
}

// DefaultConfig returns a local single-broker configuration
func DefaultConfig() *Config {
	return &Config{
		Brokers:         []string{"localhost:9092"},
		GroupID:         "option-pricing-group",
		AutoOffsetReset: "earliest",
		SessionTimeout:  30 * time.Second,
		ProducerAcks:    "all",
		BatchSize:       16384,
		RetryBackoff:    100 * time.Millisecond,
		MaxRetries:      3,
	}
}

// Message is a consumed Kafka record
type Message struct {
	Key       []byte
	Value     []byte
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
}

// Client builds producers and consumers that share connection settings
type Client struct {
	config *Config
	log    *logger.Logger
}

// NewClient creates a new Kafka client
func NewClient(config *Config) *Client {
	if config == nil {
		config = DefaultConfig()
	}
	return &Client{
		config: config,
		log:    logger.GetLogger("kafka.client"),
	}
}

// Package mq wraps kafka-go with the small producer/consumer surface the
// submission pipeline needs.
package mq

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

// ProducerConfig describes how to connect to a Kafka topic for publishing events.
type ProducerConfig struct {
	Brokers []string
	Topic   string
	Timeout time.Duration
}

// ConsumerConfig defines how to consume events from Kafka.
type ConsumerConfig struct {
	Brokers []string
	Topic   string
	GroupID string
}

// Validate ensures the producer configuration is usable.
func (cfg ProducerConfig) Validate() error {
	if len(trimAll(cfg.Brokers)) == 0 {
		return errors.New("mq: at least one broker must be configured")
	}
	if strings.TrimSpace(cfg.Topic) == "" {
		return errors.New("mq: topic must be provided")
	}
	return nil
}

// Validate ensures the consumer configuration is usable.
func (cfg ConsumerConfig) Validate() error {
	if len(trimAll(cfg.Brokers)) == 0 {
		return errors.New("mq: at least one broker must be configured")
	}
	if strings.TrimSpace(cfg.Topic) == "" {
		return errors.New("mq: topic must be provided")
	}
	if strings.TrimSpace(cfg.GroupID) == "" {
		return errors.New("mq: group id must be provided")
	}
	return nil
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}

// Event is an already-encoded message bound for or read from a topic.
type Event struct {
	Key     string
	Value   []byte
	Headers map[string]string
	Time    time.Time
}

// Handler processes events delivered to a consumer.
type Handler func(context.Context, Event) error

// Producer wraps a Kafka writer.
type Producer struct {
	writer *kafka.Writer
}

// NewProducer constructs a Kafka producer using the provided configuration.
func NewProducer(cfg ProducerConfig) (*Producer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(trimAll(cfg.Brokers)...),
		Topic:                  strings.TrimSpace(cfg.Topic),
		AllowAutoTopicCreation: true,
		RequiredAcks:           kafka.RequireAll,
		Balancer:               &kafka.LeastBytes{},
		BatchTimeout:           timeout,
		BatchSize:              1,
	}

	log.Printf("mq: producer ready for topic %s", cfg.Topic)
	return &Producer{writer: writer}, nil
}

// Publish sends an event to the configured topic.
func (p *Producer) Publish(ctx context.Context, event Event) error {
	if p == nil || p.writer == nil {
		return nil
	}

	msg := kafka.Message{
		Key:   []byte(event.Key),
		Value: event.Value,
	}
	for k, v := range event.Headers {
		msg.Headers = append(msg.Headers, kafka.Header{Key: k, Value: []byte(v)})
	}
	return p.writer.WriteMessages(ctx, msg)
}

// Close flushes and closes the underlying writer.
func (p *Producer) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}

// Consumer wraps a Kafka reader and invokes a handler for each event.
type Consumer struct {
	reader  *kafka.Reader
	handler Handler
}

// NewConsumer constructs a Kafka consumer bound to a handler.
func NewConsumer(cfg ConsumerConfig, handler Handler) (*Consumer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if handler == nil {
		return nil, errors.New("mq: handler must be provided")
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  trimAll(cfg.Brokers),
		Topic:    strings.TrimSpace(cfg.Topic),
		GroupID:  strings.TrimSpace(cfg.GroupID),
		MinBytes: 1e3,
		MaxBytes: 10e6,
	})

	log.Printf("mq: consumer ready for topic %s group %s", cfg.Topic, cfg.GroupID)
	return &Consumer{reader: reader, handler: handler}, nil
}

// Run consumes events until the context is cancelled or the reader fails.
func (c *Consumer) Run(ctx context.Context) error {
	if c == nil || c.reader == nil {
		return nil
	}

	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return ctx.Err()
			}
			return fmt.Errorf("mq: read message: %w", err)
		}

		event := Event{
			Key:     string(msg.Key),
			Value:   msg.Value,
			Headers: make(map[string]string, len(msg.Headers)),
			Time:    msg.Time,
		}
		for _, header := range msg.Headers {
			event.Headers[header.Key] = string(header.Value)
		}

		if err := c.handler(ctx, event); err != nil {
			log.Printf("mq: handler error on topic %s: %v", msg.Topic, err)
		}
	}
}

// Close shuts down the reader.
func (c *Consumer) Close() error {
	if c == nil || c.reader == nil {
		return nil
	}
	return c.reader.Close()
}

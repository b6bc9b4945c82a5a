package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/fuzzy-search-platform/pkg/config"
	"github.com/segmentio/kafka-go"
)

// messageWriter is the part of *kafka.Writer the producer uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes values of T to one topic as JSON. Every message is keyed
// by key(value), so all messages with the same key land on one partition and
// are consumed in publish order.
type Producer[T any] struct {
	writer messageWriter
	key    func(T) string
	logger *slog.Logger
}

// NewProducer creates a Producer for topic. key must not be nil.
func NewProducer[T any](cfg config.KafkaConfig, topic string, key func(T) string) *Producer[T] {
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchSize:    100,
		BatchTimeout: 10 * time.Millisecond,
		MaxAttempts:  3,
		RequiredAcks: kafka.RequireAll,
	}
	return newProducer(w, topic, key)
}

func newProducer[T any](w messageWriter, topic string, key func(T) string) *Producer[T] {
	return &Producer[T]{
		writer: w,
		key:    key,
		logger: slog.Default().With("component", "kafka-producer", "topic", topic),
	}
}

// Publish encodes values and writes them in a single synchronous call. Nothing
// is written when any value fails to encode.
func (p *Producer[T]) Publish(ctx context.Context, values ...T) error {
	if len(values) == 0 {
		return nil
	}
	msgs := make([]kafka.Message, len(values))
	for i, v := range values {
		body, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encoding message %d: %w", i, err)
		}
		msgs[i] = kafka.Message{Key: []byte(p.key(v)), Value: body}
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		p.logger.Error("failed to publish", "count", len(msgs), "first_key", string(msgs[0].Key), "error", err)
		return fmt.Errorf("publishing to kafka: %w", err)
	}
	p.logger.Debug("published", "count", len(msgs), "first_key", string(msgs[0].Key))
	return nil
}

// Close flushes pending writes and closes the underlying writer.
func (p *Producer[T]) Close() error {
	return p.writer.Close()
}

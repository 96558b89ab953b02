package mirror

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/chadmayfield/wxlogd/internal/weather"
)

// DefaultTopic is the Kafka topic readings are published to.
const DefaultTopic = "weather-readings"

// messageWriter is the part of *kafka.Writer the sink uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink publishes readings as JSON, keyed by their UTC timestamp.
type KafkaSink struct {
	writer messageWriter
}

// NewKafkaSink creates a synchronous producer for topic.
func NewKafkaSink(brokers []string, topic string) *KafkaSink {
	if topic == "" {
		topic = DefaultTopic
	}
	return &KafkaSink{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			Async:        false,
		},
	}
}

func (s *KafkaSink) Name() string { return "kafka" }

func (s *KafkaSink) Send(ctx context.Context, r weather.Reading) error {
	value, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encoding reading: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(r.Timestamp.UTC().Format(time.RFC3339)),
		Value: value,
	}
	if err := s.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	return nil
}

func (s *KafkaSink) Close() error {
	return s.writer.Close()
}

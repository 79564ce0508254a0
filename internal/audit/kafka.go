package audit

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"
)

// KafkaSink publishes audit lines to a Kafka topic.
type KafkaSink struct {
	writer *kafka.Writer
}

// NewKafkaSink creates a sink producing to topic on the given brokers.
func NewKafkaSink(brokers []string, topic string) *KafkaSink {
	return &KafkaSink{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireOne,
			BatchTimeout: 10 * time.Millisecond,
		},
	}
}

// Append publishes one line.
func (s *KafkaSink) Append(ctx context.Context, line string) error {
	return s.writer.WriteMessages(ctx, kafka.Message{
		Value: []byte(line),
		Time:  time.Now(),
	})
}

// Close flushes pending messages and closes the writer.
func (s *KafkaSink) Close() error {
	return s.writer.Close()
}

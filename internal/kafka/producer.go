package kafka

import (
	"context"
	"fmt"

	"github.com/segmentio/kafka-go"

	"resort-booking/internal/logger"
)

// Producer is a thin topic-agnostic writer. Typed event publishers wrap
// it per domain (see internal/booking/kafka).
type Producer struct {
	writer *kafka.Writer
	log    *logger.Logger
}

func NewProducer(brokers []string) *Producer {
	writer := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Balancer: &kafka.LeastBytes{},
	}
	return &Producer{writer: writer}
}

// NewMockProducer returns a producer that logs messages instead of
// writing them, for running without a broker (KAFKA_MOCK_MODE).
func NewMockProducer(log *logger.Logger) *Producer {
	return &Producer{log: log}
}

// Publish writes one message to the given topic.
func (p *Producer) Publish(topic string, key string, value []byte) error {
	if p.writer == nil {
		if p.log != nil {
			p.log.Info("KAFKA", fmt.Sprintf("mock publish to %s key=%s (%d bytes)", topic, key, len(value)))
		}
		return nil
	}
	return p.writer.WriteMessages(context.Background(),
		kafka.Message{
			Topic: topic,
			Key:   []byte(key),
			Value: value,
		},
	)
}

func (p *Producer) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}

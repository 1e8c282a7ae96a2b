// Package kafka publishes trade events to a kafka topic
package kafka

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"
)

// Publisher writes JSON-encoded events
type Publisher struct {
	writer *kafka.Writer
}

// NewPublisher is constructor
func NewPublisher(brokers []string, topic string) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.LeastBytes{},
		},
	}
}

// Publish writes one event. The key routes events of one owner to one
// partition so per-account ordering survives the bus.
func (p *Publisher) Publish(key string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(
		context.Background(),
		kafka.Message{
			Key:   []byte(key),
			Value: data,
		},
	)
}

// Close flushes and closes the writer
func (p *Publisher) Close() error {
	return p.writer.Close()
}

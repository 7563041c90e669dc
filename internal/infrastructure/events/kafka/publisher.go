package kafka

import (
	"context"
	"fmt"

	"github.com/IBM/sarama"

	"github.com/narwhalmedia/fantasycards/internal/infrastructure/events"
)

// Publisher is the events.Broker backed by a Kafka sync producer. The
// broker topic argument becomes the event_type header; every message goes
// to the configured Kafka topic keyed by aggregate id.
type Publisher struct {
	producer sarama.SyncProducer
	topic    string
}

// NewPublisher creates a new Kafka broker publisher.
func NewPublisher(brokers []string, topic string) (*Publisher, error) {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Return.Successes = true

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("creating producer: %w", err)
	}
	return NewPublisherWithProducer(producer, topic), nil
}

// NewPublisherWithProducer wraps an existing producer.
func NewPublisherWithProducer(producer sarama.SyncProducer, topic string) *Publisher {
	return &Publisher{producer: producer, topic: topic}
}

func (p *Publisher) Publish(ctx context.Context, subject string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var key sarama.Encoder
	if env, err := events.DecodeEnvelope(data); err == nil {
		key = sarama.StringEncoder(env.AggregateID)
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   key,
		Value: sarama.ByteEncoder(data),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event_type"), Value: []byte(subject)},
		},
	}
	if _, _, err := p.producer.SendMessage(msg); err != nil {
		return fmt.Errorf("sending message: %w", err)
	}
	return nil
}

// Close closes the publisher
func (p *Publisher) Close() error {
	return p.producer.Close()
}

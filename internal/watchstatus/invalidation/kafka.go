package invalidation

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"

	"github.com/narwhalmedia/watchstate/internal/watchstatus/domain"
)

// KafkaPublisher publishes invalidations keyed by profile and show so every
// pair stays ordered within its partition.
type KafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
	now      func() time.Time
}

// NewKafkaProducer creates a sync producer that waits for all replicas.
func NewKafkaProducer(brokers []string) (sarama.SyncProducer, error) {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Return.Successes = true

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("creating producer: %w", err)
	}
	return producer, nil
}

// NewKafkaPublisher creates a new Kafka invalidation publisher
func NewKafkaPublisher(producer sarama.SyncProducer, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		producer: producer,
		topic:    topic,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Publish implements Publisher.
func (p *KafkaPublisher) Publish(ctx context.Context, operation string, keys []domain.ShowKey) error {
	if len(keys) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msgs := messages(operation, keys, p.now())
	kafkaMsgs := make([]*sarama.ProducerMessage, 0, len(msgs))
	for i, msg := range msgs {
		data, err := json.Marshal(msg)
		if err != nil {
			return fmt.Errorf("marshaling message: %w", err)
		}
		kafkaMsgs = append(kafkaMsgs, &sarama.ProducerMessage{
			Topic: p.topic,
			Key:   sarama.StringEncoder(keys[i].String()),
			Value: sarama.ByteEncoder(data),
			Headers: []sarama.RecordHeader{
				{
					Key:   []byte("operation"),
					Value: []byte(operation),
				},
			},
		})
	}

	if err := p.producer.SendMessages(kafkaMsgs); err != nil {
		return fmt.Errorf("sending messages: %w", err)
	}
	return nil
}

// Close closes the producer
func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}

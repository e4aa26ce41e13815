package notifications

import (
	"context"
	"fmt"
	"time"

	"busline/pkg/logger"

	"github.com/IBM/sarama"
)

// Publisher puts a notification envelope on a transport.
type Publisher interface {
	Publish(ctx context.Context, msg *Message) error
	Close() error
}

// KafkaConfig contains configuration for the Kafka notification producer
type KafkaConfig struct {
	Brokers          []string
	Topic            string
	RetryMax         int
	Timeout          time.Duration
	RequiredAcks     sarama.RequiredAcks
	Compression      sarama.CompressionCodec
	IdempotentWrites bool
}

// DefaultKafkaConfig returns a default producer configuration
func DefaultKafkaConfig(brokers []string, topic string) KafkaConfig {
	return KafkaConfig{
		Brokers:          brokers,
		Topic:            topic,
		RetryMax:         3,
		Timeout:          10 * time.Second,
		RequiredAcks:     sarama.WaitForAll,
		Compression:      sarama.CompressionSnappy,
		IdempotentWrites: true,
	}
}

// KafkaPublisher publishes envelopes keyed by booking ID so one booking's messages stay ordered.
type KafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
	log      *logger.Logger
}

// NewKafkaPublisher dials the brokers and returns a publisher backed by a SyncProducer.
func NewKafkaPublisher(cfg KafkaConfig) (*KafkaPublisher, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Producer.Return.Successes = true
	saramaConfig.Producer.Return.Errors = true
	saramaConfig.Producer.RequiredAcks = cfg.RequiredAcks
	saramaConfig.Producer.Compression = cfg.Compression
	saramaConfig.Producer.Retry.Max = cfg.RetryMax
	saramaConfig.Producer.Timeout = cfg.Timeout
	saramaConfig.Producer.Idempotent = cfg.IdempotentWrites
	if cfg.IdempotentWrites {
		saramaConfig.Net.MaxOpenRequests = 1
	}
	saramaConfig.Producer.Partitioner = sarama.NewHashPartitioner

	producer, err := sarama.NewSyncProducer(cfg.Brokers, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}
	return NewKafkaPublisherWithProducer(producer, cfg.Topic), nil
}

// NewKafkaPublisherWithProducer wraps an existing producer.
func NewKafkaPublisherWithProducer(producer sarama.SyncProducer, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		producer: producer,
		topic:    topic,
		log:      logger.GetDefault().WithComponent("kafka-publisher"),
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, msg *Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	partition, offset, err := p.producer.SendMessage(&sarama.ProducerMessage{
		Topic:     p.topic,
		Key:       sarama.StringEncoder(msg.PartitionKey()),
		Value:     sarama.ByteEncoder(body),
		Headers:   headers(msg),
		Timestamp: msg.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to send notification to Kafka: %w", err)
	}

	p.log.Debug("notification published",
		"topic", p.topic,
		"partition", partition,
		"offset", offset,
		"kind", string(msg.Kind),
		"booking_id", msg.BookingID.String(),
	)
	return nil
}

func (p *KafkaPublisher) Close() error {
	if err := p.producer.Close(); err != nil {
		return fmt.Errorf("failed to close Kafka producer: %w", err)
	}
	return nil
}

func headers(msg *Message) []sarama.RecordHeader {
	return []sarama.RecordHeader{
		{Key: []byte("notification_id"), Value: []byte(msg.ID.String())},
		{Key: []byte("kind"), Value: []byte(msg.Kind)},
		{Key: []byte("priority"), Value: []byte(msg.Priority)},
		{Key: []byte("booking_ref"), Value: []byte(msg.BookingRef)},
		{Key: []byte("producer"), Value: []byte("busline")},
		{Key: []byte("created_at"), Value: []byte(msg.CreatedAt.Format(time.RFC3339))},
	}
}

package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"busline/pkg/logger"

	"github.com/IBM/sarama"
)

// Deliverer hands one notification to the passenger.
type Deliverer interface {
	Deliver(ctx context.Context, msg *Message) error
}

type ConsumerConfig struct {
	Brokers           []string
	GroupID           string
	Topics            []string
	SessionTimeout    time.Duration
	Heartbeat         time.Duration
	MaxProcessingTime time.Duration
	OffsetOldest      bool
	MaxRetries        int
	RetryBackoff      time.Duration
}

func DefaultConsumerConfig(brokers []string, topic string) ConsumerConfig {
	return ConsumerConfig{
		Brokers:           brokers,
		GroupID:           "busline-notification-workers",
		Topics:            []string{topic},
		SessionTimeout:    30 * time.Second,
		Heartbeat:         3 * time.Second,
		MaxProcessingTime: time.Minute,
		MaxRetries:        3,
		RetryBackoff:      time.Second,
	}
}

// Consumer reads published envelopes and delivers them with retries.
type Consumer struct {
	group   sarama.ConsumerGroup
	config  ConsumerConfig
	handler *groupHandler
	log     *logger.Logger
	wg      sync.WaitGroup
}

func NewConsumer(cfg ConsumerConfig, deliverer Deliverer) (*Consumer, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Consumer.Group.Session.Timeout = cfg.SessionTimeout
	saramaConfig.Consumer.Group.Heartbeat.Interval = cfg.Heartbeat
	saramaConfig.Consumer.MaxProcessingTime = cfg.MaxProcessingTime
	saramaConfig.Consumer.Return.Errors = true
	saramaConfig.Consumer.Offsets.Initial = sarama.OffsetNewest
	if cfg.OffsetOldest {
		saramaConfig.Consumer.Offsets.Initial = sarama.OffsetOldest
	}
	saramaConfig.Consumer.Offsets.AutoCommit.Enable = true
	saramaConfig.Consumer.Offsets.AutoCommit.Interval = time.Second

	group, err := sarama.NewConsumerGroup(cfg.Brokers, cfg.GroupID, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer group: %w", err)
	}

	log := logger.GetDefault().WithComponent("notification-consumer")
	return &Consumer{
		group:   group,
		config:  cfg,
		handler: newGroupHandler(deliverer, cfg.MaxRetries, cfg.RetryBackoff, log),
		log:     log,
	}, nil
}

// Start consumes until ctx is cancelled.
func (c *Consumer) Start(ctx context.Context) {
	c.wg.Add(2)
	go func() {
		defer c.wg.Done()
		for err := range c.group.Errors() {
			c.log.Error("consumer group error", "error", err.Error())
		}
	}()
	go func() {
		defer c.wg.Done()
		for ctx.Err() == nil {
			if err := c.group.Consume(ctx, c.config.Topics, c.handler); err != nil {
				c.log.Error("error consuming notifications", "error", err.Error())
				select {
				case <-time.After(time.Second):
				case <-ctx.Done():
				}
			}
		}
	}()
	c.log.Info("notification consumer started", "topics", c.config.Topics, "group", c.config.GroupID)
}

// Stop closes the group and waits for the loops to exit. Cancel Start's context first.
func (c *Consumer) Stop() error {
	err := c.group.Close()
	c.wg.Wait()
	if err != nil {
		return fmt.Errorf("failed to close consumer group: %w", err)
	}
	return nil
}

type groupHandler struct {
	deliverer  Deliverer
	maxRetries int
	backoff    time.Duration
	log        *logger.Logger
}

func newGroupHandler(deliverer Deliverer, maxRetries int, backoff time.Duration, log *logger.Logger) *groupHandler {
	return &groupHandler{deliverer: deliverer, maxRetries: maxRetries, backoff: backoff, log: log}
}

func (h *groupHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h *groupHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h *groupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case message, ok := <-claim.Messages():
			if !ok {
				return nil
			}
			// undeliverable messages are logged and skipped so the partition keeps moving
			if err := h.process(session.Context(), message.Value); err != nil {
				h.log.Warn("notification dropped",
					"topic", message.Topic,
					"partition", message.Partition,
					"offset", message.Offset,
					"error", err.Error(),
				)
			}
			session.MarkMessage(message, "")
		case <-session.Context().Done():
			return nil
		}
	}
}

func (h *groupHandler) process(ctx context.Context, value []byte) error {
	var msg Message
	if err := json.Unmarshal(value, &msg); err != nil {
		return fmt.Errorf("failed to unmarshal notification: %w", err)
	}

	for attempt := 0; ; attempt++ {
		err := h.deliverer.Deliver(ctx, &msg)
		if err == nil {
			return nil
		}
		if attempt >= h.maxRetries {
			return fmt.Errorf("giving up on %s after %d attempts: %w", msg.ID, attempt+1, err)
		}

		delay := h.backoff * time.Duration(1<<attempt)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

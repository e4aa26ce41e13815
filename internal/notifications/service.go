package notifications

import (
	"context"
	"fmt"
	"time"

	"busline/internal/shared/config"
	"busline/pkg/logger"
)

// Service stamps passenger notifications and hands them to a Publisher. Callers run it
// after their transaction commits; a failure here never undoes a booking change.
type Service struct {
	publisher Publisher
	timeout   time.Duration
	log       *logger.Logger
	now       func() time.Time
}

func NewService(publisher Publisher, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Service{
		publisher: publisher,
		timeout:   timeout,
		log:       logger.GetDefault().WithComponent("notifications"),
		now:       time.Now,
	}
}

func (s *Service) SendTicket(ctx context.Context, msg Message) error {
	return s.send(ctx, KindTicket, msg)
}

func (s *Service) SendReservationHold(ctx context.Context, msg Message) error {
	return s.send(ctx, KindReservationHold, msg)
}

func (s *Service) SendBookingCancelled(ctx context.Context, msg Message) error {
	return s.send(ctx, KindBookingCancelled, msg)
}

func (s *Service) SendTripCancelled(ctx context.Context, msg Message) error {
	return s.send(ctx, KindTripCancelled, msg)
}

func (s *Service) send(ctx context.Context, kind Kind, msg Message) error {
	msg.stamp(kind, s.now())

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.publisher.Publish(ctx, &msg); err != nil {
		return fmt.Errorf("publish %s for booking %s: %w", kind, msg.BookingRef, err)
	}
	return nil
}

func (s *Service) Close() error {
	return s.publisher.Close()
}

// LogPublisher writes envelopes to the log. It is the transport when no broker is configured.
type LogPublisher struct {
	log *logger.Logger
}

func NewLogPublisher() *LogPublisher {
	return &LogPublisher{log: logger.GetDefault().WithComponent("notifications")}
}

func (p *LogPublisher) Publish(ctx context.Context, msg *Message) error {
	p.log.Info("notification",
		"kind", string(msg.Kind),
		"priority", string(msg.Priority),
		"booking_ref", msg.BookingRef,
		"phone", msg.PassengerPhone,
		"amount_due", msg.AmountDue,
	)
	return nil
}

func (p *LogPublisher) Close() error { return nil }

// NewPublisher builds the transport named by cfg.Transport.
func NewPublisher(cfg config.MessagingConfig) (Publisher, error) {
	switch cfg.Transport {
	case "kafka":
		return NewKafkaPublisher(DefaultKafkaConfig(cfg.KafkaBrokers, cfg.KafkaTopic))
	case "rabbitmq", "amqp":
		return DialAMQP(cfg.AMQPURL, cfg.AMQPExchange)
	case "log", "":
		return NewLogPublisher(), nil
	}
	return nil, fmt.Errorf("unknown notification transport %q", cfg.Transport)
}

package notifications

import (
	"context"
	"fmt"
	"strings"

	amqp "github.com/rabbitmq/amqp091-go"
)

// amqpChannel is the part of *amqp.Channel the publisher uses.
type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPPublisher publishes envelopes to a topic exchange with routing key
// "booking.<kind>", e.g. booking.ticket_issued.
type AMQPPublisher struct {
	conn     *amqp.Connection
	channel  amqpChannel
	exchange string
}

// DialAMQP connects and declares the durable topic exchange.
func DialAMQP(url, exchange string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}
	return &AMQPPublisher{conn: conn, channel: ch, exchange: exchange}, nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, msg *Message) error {
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	err = p.channel.PublishWithContext(ctx, p.exchange, RoutingKey(msg.Kind), false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    msg.ID.String(),
		Timestamp:    msg.CreatedAt,
		Priority:     amqpPriority(msg.Priority),
		Headers: amqp.Table{
			"booking_id": msg.BookingID.String(),
			"priority":   string(msg.Priority),
		},
		Body: body,
	})
	if err != nil {
		return fmt.Errorf("failed to send notification to RabbitMQ: %w", err)
	}
	return nil
}

func (p *AMQPPublisher) Close() error {
	if err := p.channel.Close(); err != nil {
		return err
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// RoutingKey maps a kind to its topic routing key.
func RoutingKey(kind Kind) string {
	return "booking." + strings.ToLower(string(kind))
}

func amqpPriority(p Priority) uint8 {
	switch p {
	case PriorityHigh:
		return 9
	case PriorityMedium:
		return 5
	default:
		return 1
	}
}

package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

// AMQPSink publishes audit lines to a RabbitMQ fanout exchange.
type AMQPSink struct {
	conn     *amqp091.Connection
	ch       *amqp091.Channel
	exchange string
}

// NewAMQPSink dials url and declares a durable fanout exchange.
func NewAMQPSink(url, exchange string) (*AMQPSink, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		exchange, // name
		"fanout", // kind
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}

	return &AMQPSink{conn: conn, ch: ch, exchange: exchange}, nil
}

// Append publishes one line as a persistent message.
func (s *AMQPSink) Append(ctx context.Context, line string) error {
	err := s.ch.PublishWithContext(ctx,
		s.exchange, // exchange
		"",         // routing key
		false,      // mandatory
		false,      // immediate
		amqp091.Publishing{
			ContentType:  "text/plain",
			Body:         []byte(line),
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
		})
	if err != nil {
		return fmt.Errorf("failed to publish audit line: %w", err)
	}
	return nil
}

// Close closes the channel and the connection.
func (s *AMQPSink) Close() error {
	if err := s.ch.Close(); err != nil {
		s.conn.Close()
		return err
	}
	return s.conn.Close()
}

package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"hearth/internal/logger"

	"github.com/rabbitmq/amqp091-go"
)

// AMQPSink publishes events as persistent JSON messages to a topic exchange.
// The routing key is "<prefix>.<kind>", e.g. "budget.budget.exceeded".
type AMQPSink struct {
	conn         *amqp091.Connection
	channel      *amqp091.Channel
	exchangeName string
	routingKey   string

	// amqp091 channels are not safe for concurrent publishing.
	mu sync.Mutex
}

// NewAMQPSink dials url and declares the exchange.
func NewAMQPSink(url, exchangeName, routingKey string) (*AMQPSink, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		exchangeName, // name
		"topic",      // type
		true,         // durable
		false,        // auto-deleted
		false,        // internal
		false,        // no-wait
		nil,          // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	return &AMQPSink{
		conn:         conn,
		channel:      channel,
		exchangeName: exchangeName,
		routingKey:   routingKey,
	}, nil
}

// Name implements Sink.
func (s *AMQPSink) Name() string { return "amqp" }

// RoutingKey returns the key an event of kind is published with.
func (s *AMQPSink) RoutingKey(kind Kind) string {
	return routingKey(s.routingKey, kind)
}

func routingKey(prefix string, kind Kind) string {
	if prefix == "" {
		return string(kind)
	}
	return prefix + "." + string(kind)
}

// Deliver implements Sink.
func (s *AMQPSink) Deliver(ctx context.Context, event Event) error {
	body, err := event.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err = s.channel.PublishWithContext(
		ctx,
		s.exchangeName,           // exchange
		s.RoutingKey(event.Kind), // routing key
		false,                    // mandatory
		false,                    // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			MessageId:    event.ID,
			Type:         string(event.Kind),
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish event: %w", err)
	}

	logger.Get().Debugw("Published event",
		"event_id", event.ID,
		"kind", event.Kind,
		"exchange", s.exchangeName,
	)
	return nil
}

// Close releases the channel and connection.
func (s *AMQPSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.channel != nil {
		if err := s.channel.Close(); err != nil {
			return err
		}
	}
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

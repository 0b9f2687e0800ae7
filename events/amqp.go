package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"orderclient/types"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// DefaultExchange is the fanout exchange order notifications go to
const DefaultExchange = "order_notifications_fanout"

// AMQPConfig holds the broker URL and exchange name
type AMQPConfig struct {
	URL      string
	Exchange string
}

// amqpChannel is the part of *amqp.Channel the publisher uses
type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPPublisher fans order events out to every bound queue
type AMQPPublisher struct {
	conn     *amqp.Connection
	ch       amqpChannel
	exchange string
}

// DialAMQP connects and declares the fanout exchange
func DialAMQP(cfg AMQPConfig) (*AMQPPublisher, error) {
	if cfg.Exchange == "" {
		cfg.Exchange = DefaultExchange
	}
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(cfg.Exchange, "fanout", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", cfg.Exchange, err)
	}
	return &AMQPPublisher{conn: conn, ch: ch, exchange: cfg.Exchange}, nil
}

// Publish sends ev as a persistent JSON message
func (p *AMQPPublisher) Publish(ctx context.Context, ev types.OrderEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to encode order event: %w", err)
	}
	return p.ch.PublishWithContext(ctx, p.exchange, "", false, false, amqp.Publishing{
		DeliveryMode:  amqp.Persistent,
		ContentType:   "application/json",
		CorrelationId: ev.OrderID,
		Timestamp:     time.Now().UTC(),
		Type:          string(ev.Kind),
		Body:          body,
	})
}

func (p *AMQPPublisher) Close() error {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// SubscribeAMQP binds a private queue to the exchange and hands every
// delivery to handler until ctx is done.
func SubscribeAMQP(ctx context.Context, cfg AMQPConfig, handler MessageHandler, logger logrus.FieldLogger) error {
	if cfg.Exchange == "" {
		cfg.Exchange = DefaultExchange
	}
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	if err := ch.ExchangeDeclare(cfg.Exchange, "fanout", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange %s: %w", cfg.Exchange, err)
	}
	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}
	if err := ch.QueueBind(q.Name, "", cfg.Exchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue: %w", err)
	}
	deliveries, err := ch.Consume(q.Name, "", false, true, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to consume: %w", err)
	}

	logger.WithFields(logrus.Fields{"exchange": cfg.Exchange, "queue": q.Name}).Info("amqp subscriber started")
	return consumeDeliveries(ctx, deliveries, handler, logger)
}

func consumeDeliveries(ctx context.Context, deliveries <-chan amqp.Delivery, handler MessageHandler, logger logrus.FieldLogger) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("amqp delivery channel closed")
			}
			shouldMark, err := handler.HandleMessage(ctx, d.Body)
			if err != nil {
				logger.WithError(err).Warn("failed to handle message")
			}
			if shouldMark {
				_ = d.Ack(false)
			} else {
				_ = d.Nack(false, false)
			}
		}
	}
}

package events

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/IBM/sarama"
	"github.com/sirupsen/logrus"
)

// MessageHandler processes one consumed message.
// Returning shouldMark=false or an error leaves the message for redelivery.
type MessageHandler interface {
	HandleMessage(ctx context.Context, message []byte) (shouldMark bool, err error)
}

// Consumer reads order events from a Kafka consumer group
type Consumer struct {
	group   sarama.ConsumerGroup
	handler MessageHandler
	topic   string
	groupID string
	logger  logrus.FieldLogger
	ready   chan bool
}

// ConsumerConfig holds Kafka consumer configuration
type ConsumerConfig struct {
	Brokers []string
	Topic   string
	GroupID string
	Handler MessageHandler
}

// NewConsumer creates a consumer group client
func NewConsumer(config ConsumerConfig, logger logrus.FieldLogger) (*Consumer, error) {
	sc := sarama.NewConfig()
	sc.Version = sarama.V3_6_0_0
	sc.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRoundRobin()}
	sc.Consumer.Offsets.Initial = sarama.OffsetNewest
	sc.Consumer.Return.Errors = true

	group, err := sarama.NewConsumerGroup(config.Brokers, config.GroupID, sc)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return &Consumer{
		group:   group,
		handler: config.Handler,
		topic:   config.Topic,
		groupID: config.GroupID,
		logger:  logger,
		ready:   make(chan bool),
	}, nil
}

// Start begins consuming and returns once the first session is set up
func (c *Consumer) Start(ctx context.Context) error {
	handler := &groupHandler{handler: c.handler, logger: c.logger, ready: c.ready}

	go func() {
		for {
			if err := c.group.Consume(ctx, []string{c.topic}, handler); err != nil {
				if errors.Is(err, context.Canceled) {
					c.logger.Info("kafka consumer context canceled")
					return
				}
				c.logger.WithError(err).Error("kafka consumer error")
			}
			if ctx.Err() != nil {
				return
			}
			handler.ready = make(chan bool)
		}
	}()

	select {
	case <-c.ready:
	case <-ctx.Done():
		return ctx.Err()
	}
	c.logger.WithFields(logrus.Fields{"group": c.groupID, "topic": c.topic}).Info("kafka consumer started")

	go func() {
		for err := range c.group.Errors() {
			c.logger.WithError(err).Error("kafka consumer error")
		}
	}()
	return nil
}

// Close shuts the consumer group down
func (c *Consumer) Close() error {
	c.logger.Info("closing kafka consumer")
	return c.group.Close()
}

// groupHandler implements sarama.ConsumerGroupHandler
type groupHandler struct {
	handler MessageHandler
	logger  logrus.FieldLogger
	ready   chan bool
}

func (h *groupHandler) Setup(sarama.ConsumerGroupSession) error {
	close(h.ready)
	return nil
}

func (h *groupHandler) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

func (h *groupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case message := <-claim.Messages():
			if message == nil {
				return nil
			}
			h.logger.WithFields(logrus.Fields{
				"partition": message.Partition,
				"offset":    message.Offset,
				"key":       string(message.Key),
			}).Debug("received kafka message")

			shouldMark, err := h.handler.HandleMessage(session.Context(), message.Value)
			if err != nil {
				h.logger.WithError(err).Warn("failed to handle message")
			}
			if shouldMark {
				session.MarkMessage(message, "")
			}

		case <-session.Context().Done():
			return nil
		}
	}
}

// TypedMessageHandler decodes JSON messages into T before processing
type TypedMessageHandler[T any] struct {
	// Validate filters messages; nil accepts everything
	Validate func(msg *T) bool
	Process  func(ctx context.Context, msg *T) error
	// AlwaysMark marks undecodable and rejected messages so they are skipped
	AlwaysMark bool
}

// HandleMessage implements MessageHandler
func (h *TypedMessageHandler[T]) HandleMessage(ctx context.Context, message []byte) (bool, error) {
	var msg T
	if err := json.Unmarshal(message, &msg); err != nil {
		return h.AlwaysMark, nil
	}
	if h.Validate != nil && !h.Validate(&msg) {
		return h.AlwaysMark, nil
	}
	if err := h.Process(ctx, &msg); err != nil {
		return false, err
	}
	return true, nil
}

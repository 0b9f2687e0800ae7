package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"orderclient/config"
	"orderclient/events"
	"orderclient/logging"
	"orderclient/types"

	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	flag.StringVar(&cfg.Events.Backend, "events", cfg.Events.Backend, "Order event backend: kafka or amqp")
	orderID := flag.String("order", "", "Only show events of this order id")
	flag.Parse()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger, closeLog, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set up logging: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	handler := &events.TypedMessageHandler[types.OrderEvent]{
		Validate: func(ev *types.OrderEvent) bool {
			return *orderID == "" || ev.OrderID == *orderID
		},
		Process: func(_ context.Context, ev *types.OrderEvent) error {
			fmt.Println(formatEvent(ev))
			return nil
		},
		AlwaysMark: true,
	}

	switch cfg.Events.Backend {
	case config.BackendKafka:
		err = tailKafka(ctx, cfg.Events, handler, logger)
	case config.BackendAMQP:
		err = events.SubscribeAMQP(ctx, events.AMQPConfig{URL: cfg.Events.AMQPURL, Exchange: cfg.Events.AMQPExchange}, handler, logger)
	default:
		err = fmt.Errorf("events backend %q cannot be tailed; use kafka or amqp", cfg.Events.Backend)
	}
	if err != nil {
		logger.WithError(err).Error("ordertail stopped")
		os.Exit(1)
	}
}

func tailKafka(ctx context.Context, cfg config.EventsConfig, handler events.MessageHandler, logger logrus.FieldLogger) error {
	consumer, err := events.NewConsumer(events.ConsumerConfig{
		Brokers: cfg.KafkaBrokers,
		Topic:   cfg.KafkaTopic,
		GroupID: cfg.KafkaGroupID,
		Handler: handler,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to create kafka consumer: %w", err)
	}
	defer consumer.Close()

	if err := consumer.Start(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}
	<-ctx.Done()
	return nil
}

func formatEvent(ev *types.OrderEvent) string {
	ts := ev.Timestamp.Local().Format("15:04:05.000")
	id := ev.OrderID
	if len(id) > 8 {
		id = id[:8]
	}
	switch ev.Kind {
	case types.OrderEventTrace:
		return fmt.Sprintf("%s  %s  %-12s %s", ts, id, ev.Customer, ev.Line)
	default:
		state := "busy"
		if !ev.Busy {
			state = "idle (" + ev.Outcome + ")"
		}
		return fmt.Sprintf("%s  %s  %-12s -- %s", ts, id, ev.Customer, state)
	}
}

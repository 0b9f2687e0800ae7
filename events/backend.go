package events

import (
	"fmt"

	"orderclient/config"
)

// NewPublisher connects the backend selected in cfg. It returns nil, nil
// when events are disabled.
func NewPublisher(cfg config.EventsConfig) (Publisher, error) {
	switch cfg.Backend {
	case config.BackendNone, "":
		return nil, nil
	case config.BackendKafka:
		pub, err := NewKafkaPublisher(KafkaConfig{Brokers: cfg.KafkaBrokers, Topic: cfg.KafkaTopic})
		if err != nil {
			return nil, err
		}
		return pub, nil
	case config.BackendAMQP:
		pub, err := DialAMQP(AMQPConfig{URL: cfg.AMQPURL, Exchange: cfg.AMQPExchange})
		if err != nil {
			return nil, err
		}
		return pub, nil
	default:
		return nil, fmt.Errorf("unknown events backend %q", cfg.Backend)
	}
}

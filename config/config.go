package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the configuration shared by every binary
type Config struct {
	TargetAddress string
	HTTPPort      string
	PlotterPort   string
	GinMode       string
	ProbeSchedule string
	ProbeTimeout  time.Duration
	Events        EventsConfig
	Logging       LoggingConfig
	Plotter       PlotterConfig
}

// EventsConfig selects and configures the order event relay
type EventsConfig struct {
	Backend      string
	KafkaBrokers []string
	KafkaTopic   string
	KafkaGroupID string
	AMQPURL      string
	AMQPExchange string
	QueueSize    int
}

// LoggingConfig configures the process logger
type LoggingConfig struct {
	Level  string
	Format string
	File   string
}

// PlotterConfig tunes the simulated plotting line
type PlotterConfig struct {
	StepDelay   time.Duration
	Paper       int
	MaxPathUses int
}

// Load reads .env (if present) and the environment
func Load() (*Config, error) {
	_ = godotenv.Load()

	e := &env{}
	cfg := &Config{
		TargetAddress: e.str("PLOTTER_ADDR", DefaultTargetAddress),
		HTTPPort:      e.str("ORDER_API_PORT", DefaultHTTPPort),
		PlotterPort:   e.str("PLOTTER_PORT", DefaultPlotterPort),
		GinMode:       e.str("GIN_MODE", "release"),
		ProbeSchedule: e.str("PROBE_CRON", ""),
		ProbeTimeout:  e.duration("PROBE_TIMEOUT", DefaultProbeTimeout),
		Events: EventsConfig{
			Backend:      strings.ToLower(e.str("EVENTS_BACKEND", BackendNone)),
			KafkaBrokers: splitList(e.str("KAFKA_BROKERS", DefaultKafkaBrokers)),
			KafkaTopic:   e.str("KAFKA_TOPIC", DefaultKafkaTopic),
			KafkaGroupID: e.str("KAFKA_GROUP_ID", DefaultKafkaGroupID),
			AMQPURL:      e.str("AMQP_URL", DefaultAMQPURL),
			AMQPExchange: e.str("AMQP_EXCHANGE", DefaultAMQPExchange),
			QueueSize:    e.integer("EVENTS_QUEUE_SIZE", DefaultQueueSize),
		},
		Logging: LoggingConfig{
			Level:  e.str("LOG_LEVEL", "info"),
			Format: e.str("LOG_FORMAT", "text"),
			File:   e.str("LOG_FILE", ""),
		},
		Plotter: PlotterConfig{
			StepDelay:   e.duration("PLOTTER_STEP_DELAY", DefaultStepDelay),
			Paper:       e.integer("PLOTTER_PAPER", DefaultPaper),
			MaxPathUses: e.integer("PLOTTER_MAX_PATH_USES", DefaultMaxPathUses),
		},
	}

	if err := errors.Join(e.errs...); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that flags may have overridden
func (c *Config) Validate() error {
	switch c.Events.Backend {
	case BackendNone, BackendKafka, BackendAMQP:
	default:
		return fmt.Errorf("unknown events backend %q (want none, kafka or amqp)", c.Events.Backend)
	}
	if c.Events.Backend == BackendKafka && len(c.Events.KafkaBrokers) == 0 {
		return errors.New("kafka backend needs at least one broker")
	}
	if c.Events.QueueSize <= 0 {
		return fmt.Errorf("events queue size must be positive, got %d", c.Events.QueueSize)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q (want text or json)", c.Logging.Format)
	}
	if c.Plotter.Paper < 0 {
		return fmt.Errorf("plotter paper must not be negative, got %d", c.Plotter.Paper)
	}
	return nil
}

// env reads typed values and collects parse errors
type env struct {
	errs []error
}

func (e *env) str(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func (e *env) integer(key string, fallback int) int {
	value := e.str(key, "")
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return n
}

func (e *env) duration(key string, fallback time.Duration) time.Duration {
	value := e.str(key, "")
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return d
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

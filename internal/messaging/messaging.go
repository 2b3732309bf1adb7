package messaging

import (
	"fmt"
	"log/slog"

	"student-manager/internal/config"
	"student-manager/internal/metrics"
)

const (
	DriverNone  = "none"
	DriverNATS  = "nats"
	DriverKafka = "kafka"
)

// New returns the publisher selected by cfg.Driver. An empty driver
// disables publishing.
func New(cfg config.MessagingConfig, logger *slog.Logger, m *metrics.Metrics) (Publisher, error) {
	switch cfg.Driver {
	case "", DriverNone:
		logger.Info("event publishing disabled")
		return Noop{}, nil
	case DriverNATS:
		p, err := NewNATSPublisher(cfg.NATS.URL, cfg.NATS.Subject, logger, m)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to NATS: %w", err)
		}
		return p, nil
	case DriverKafka:
		p, err := NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger, m)
		if err != nil {
			return nil, fmt.Errorf("failed to create kafka producer: %w", err)
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unsupported messaging driver %q", cfg.Driver)
	}
}

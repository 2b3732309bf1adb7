package messaging

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"student-manager/internal/metrics"

	"github.com/nats-io/nats.go"
)

type NATSPublisher struct {
	conn    *nats.Conn
	subject string
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewNATSPublisher(url string, subject string, logger *slog.Logger, m *metrics.Metrics) (*NATSPublisher, error) {
	nc, err := nats.Connect(url, nats.Name("student-manager"))
	if err != nil {
		return nil, err
	}

	logger.Info("NATS publisher initialized", "url", url, "subject", subject)

	return &NATSPublisher{
		conn:    nc,
		subject: subject,
		logger:  logger,
		metrics: m,
	}, nil
}

func (p *NATSPublisher) Publish(ctx context.Context, event Event) error {
	start := time.Now()
	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.ErrorContext(ctx, "failed to marshal event", "error", err)
		return err
	}

	err = p.conn.Publish(p.subject, payload)
	p.metrics.RecordPublish(ctx, "nats", p.subject, time.Since(start), err)
	if err != nil {
		p.logger.ErrorContext(ctx, "failed to publish event to NATS", "error", err, "type", event.Type)
		return err
	}

	p.logger.DebugContext(ctx, "event published to NATS", "subject", p.subject, "type", event.Type)
	return nil
}

func (p *NATSPublisher) Close() error {
	return p.conn.Drain()
}

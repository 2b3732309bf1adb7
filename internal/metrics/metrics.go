package metrics

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type Metrics struct {
	Database  *DatabaseMetrics
	Messaging *MessagingMetrics
	Health    *HealthMetrics

	studentsCreated    metric.Int64Counter
	studentsUpdated    metric.Int64Counter
	studentsDeleted    metric.Int64Counter
	validationFailures metric.Int64Counter
	exports            metric.Int64Counter
}

// New registers the collectors on the global meter provider.
func New(serviceName string, logger *slog.Logger) (*Metrics, error) {
	return NewWithMeter(otel.Meter(serviceName), logger)
}

func NewWithMeter(meter metric.Meter, logger *slog.Logger) (*Metrics, error) {
	database, err := NewDatabaseMetrics(meter)
	if err != nil {
		return nil, err
	}

	messaging, err := NewMessagingMetrics(meter)
	if err != nil {
		return nil, err
	}

	health, err := NewHealthMetrics(meter)
	if err != nil {
		return nil, err
	}

	m := &Metrics{
		Database:  database,
		Messaging: messaging,
		Health:    health,
	}

	m.studentsCreated, err = meter.Int64Counter(
		"student_manager.students.created",
		metric.WithDescription("Total number of students created"),
		metric.WithUnit("{student}"),
	)
	if err != nil {
		return nil, err
	}

	m.studentsUpdated, err = meter.Int64Counter(
		"student_manager.students.updated",
		metric.WithDescription("Total number of students updated"),
		metric.WithUnit("{student}"),
	)
	if err != nil {
		return nil, err
	}

	m.studentsDeleted, err = meter.Int64Counter(
		"student_manager.students.deleted",
		metric.WithDescription("Total number of students deleted"),
		metric.WithUnit("{student}"),
	)
	if err != nil {
		return nil, err
	}

	m.validationFailures, err = meter.Int64Counter(
		"student_manager.validation.failures",
		metric.WithDescription("Field validation failures by field and code"),
		metric.WithUnit("{failure}"),
	)
	if err != nil {
		return nil, err
	}

	m.exports, err = meter.Int64Counter(
		"student_manager.exports",
		metric.WithDescription("Total number of exports by format"),
		metric.WithUnit("{export}"),
	)
	if err != nil {
		return nil, err
	}

	logger.Info("metrics collectors initialized successfully")

	return m, nil
}

func (m *Metrics) RecordStudentCreated(ctx context.Context) {
	if m != nil && m.studentsCreated != nil {
		m.studentsCreated.Add(ctx, 1)
	}
}

func (m *Metrics) RecordStudentUpdated(ctx context.Context) {
	if m != nil && m.studentsUpdated != nil {
		m.studentsUpdated.Add(ctx, 1)
	}
}

func (m *Metrics) RecordStudentDeleted(ctx context.Context) {
	if m != nil && m.studentsDeleted != nil {
		m.studentsDeleted.Add(ctx, 1)
	}
}

func (m *Metrics) RecordValidationFailure(ctx context.Context, field, code string) {
	if m != nil && m.validationFailures != nil {
		m.validationFailures.Add(ctx, 1, metric.WithAttributes(
			attribute.String("field", field),
			attribute.String("code", code),
		))
	}
}

func (m *Metrics) RecordExport(ctx context.Context, format string) {
	if m != nil && m.exports != nil {
		m.exports.Add(ctx, 1, metric.WithAttributes(attribute.String("format", format)))
	}
}

// RecordQuery forwards to the database collector.
func (m *Metrics) RecordQuery(ctx context.Context, operation, table string, duration time.Duration, err error) {
	if m != nil {
		m.Database.RecordQuery(ctx, operation, table, duration, err)
	}
}

// RecordPublish forwards to the messaging collector.
func (m *Metrics) RecordPublish(ctx context.Context, system, destination string, duration time.Duration, err error) {
	if m != nil {
		m.Messaging.RecordPublish(ctx, system, destination, duration, err)
	}
}

// RecordDependencyCheck forwards to the health collector.
func (m *Metrics) RecordDependencyCheck(ctx context.Context, dependency string, duration time.Duration, err error) {
	if m != nil {
		m.Health.RecordDependencyCheck(ctx, dependency, duration, err)
	}
}

// NewMock creates a no-op Metrics instance for testing
// The returned Metrics will safely ignore all Record* calls
func NewMock() *Metrics {
	return &Metrics{
		Database:  &DatabaseMetrics{},
		Messaging: &MessagingMetrics{},
		Health:    &HealthMetrics{},
	}
}

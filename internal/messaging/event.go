package messaging

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	EventStudentCreated = "student.created"
	EventStudentUpdated = "student.updated"
	EventStudentDeleted = "student.deleted"
)

// Event describes a committed change to a student record. ID is unique
// per event so consumers can drop redeliveries.
type Event struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	StudentID  int       `json:"studentId"`
	Email      string    `json:"email,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

func NewEvent(eventType string, studentID int, email string, at time.Time) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		StudentID:  studentID,
		Email:      email,
		OccurredAt: at.UTC(),
	}
}

// Publisher delivers events to a broker.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// Noop drops every event. It is used when no broker is configured.
type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }

func (Noop) Close() error { return nil }

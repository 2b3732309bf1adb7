package messaging_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"student-manager/internal/logger"
	"student-manager/internal/messaging"
	"student-manager/internal/metrics"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKafkaPublisher_Publish(t *testing.T) {
	producer := mocks.NewSyncProducer(t, messaging.NewKafkaConfig())
	publisher := messaging.NewKafkaPublisherWithProducer(producer, "students.events", logger.Discard(), metrics.NewMock())

	occurred := time.Date(2025, time.June, 15, 10, 30, 0, 0, time.UTC)
	producer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		if msg.Topic != "students.events" {
			return fmt.Errorf("unexpected topic %q", msg.Topic)
		}
		key, err := msg.Key.Encode()
		if err != nil {
			return err
		}
		if string(key) != "42" {
			return fmt.Errorf("unexpected key %q", key)
		}

		value, err := msg.Value.Encode()
		if err != nil {
			return err
		}
		var event messaging.Event
		if err := json.Unmarshal(value, &event); err != nil {
			return err
		}
		if event.Type != messaging.EventStudentCreated || event.Email != "ada@university.edu" || !event.OccurredAt.Equal(occurred) {
			return fmt.Errorf("unexpected event %+v", event)
		}
		if len(msg.Headers) != 2 || string(msg.Headers[0].Value) != event.ID {
			return fmt.Errorf("unexpected headers %v", msg.Headers)
		}
		return nil
	})

	err := publisher.Publish(context.Background(), messaging.NewEvent(messaging.EventStudentCreated, 42, "ada@university.edu", occurred))
	require.NoError(t, err)
	require.NoError(t, publisher.Close())
}

func TestKafkaPublisher_PublishFailure(t *testing.T) {
	producer := mocks.NewSyncProducer(t, messaging.NewKafkaConfig())
	publisher := messaging.NewKafkaPublisherWithProducer(producer, "students.events", logger.Discard(), metrics.NewMock())

	brokerDown := errors.New("kafka: client has run out of available brokers")
	producer.ExpectSendMessageAndFail(brokerDown)

	err := publisher.Publish(context.Background(), messaging.Event{Type: messaging.EventStudentDeleted, StudentID: 7})
	assert.ErrorIs(t, err, brokerDown)
	require.NoError(t, publisher.Close())
}

func TestNewEvent(t *testing.T) {
	at := time.Date(2025, time.June, 15, 12, 0, 0, 0, time.FixedZone("CEST", 2*60*60))
	a := messaging.NewEvent(messaging.EventStudentUpdated, 1, "a@b.c", at)
	b := messaging.NewEvent(messaging.EventStudentUpdated, 1, "a@b.c", at)

	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, time.UTC, a.OccurredAt.Location())
	assert.True(t, a.OccurredAt.Equal(at))
}

func TestNewKafkaConfig(t *testing.T) {
	cfg := messaging.NewKafkaConfig()
	assert.Equal(t, sarama.WaitForAll, cfg.Producer.RequiredAcks)
	assert.True(t, cfg.Producer.Return.Successes)
	assert.Equal(t, 3, cfg.Producer.Retry.Max)
	require.NoError(t, cfg.Validate())
}

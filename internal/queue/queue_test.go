package queue

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/spacehire/internal/config"
)

func sampleEvent() ReservationEvent {
	return ReservationEvent{
		Type:           EventReservationStatusChanged,
		ReservationID:  5,
		Reference:      "ref-5",
		SpaceID:        3,
		ActorID:        10,
		Status:         "confirmed",
		PreviousStatus: "pending",
		StartsAt:       "2024-06-01T08:00:00Z",
		EndsAt:         "2024-06-01T10:00:00Z",
		TotalPrice:     110000,
		OccurredAt:     time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}
}

func discardLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestEventJSONShape(t *testing.T) {
	b, err := json.Marshal(sampleEvent())
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	assert.Equal(t, "reservation.status_changed", m["type"])
	assert.EqualValues(t, 110000, m["total_price"])
	assert.Equal(t, "pending", m["previous_status"])
	assert.NotContains(t, m, "account_id")
	assert.NotContains(t, m, "reason")
}

func TestNewPublisherSelection(t *testing.T) {
	log := discardLogger()
	assert.IsType(t, NopPublisher{}, NewPublisher(config.Config{EventBroker: "none"}, log))
	assert.IsType(t, NopPublisher{}, NewPublisher(config.Config{EventBroker: "carrier-pigeon"}, log))
	assert.IsType(t, &AMQPPublisher{}, NewPublisher(config.Config{EventBroker: "amqp", EventQueue: "q"}, log))

	p := NewPublisher(config.Config{EventBroker: "kafka", EventQueue: "t", KafkaBrokers: []string{"localhost:9092"}}, log)
	assert.IsType(t, &KafkaPublisher{}, p)
	require.NoError(t, p.Close())
}

func TestNopPublisher(t *testing.T) {
	var p Publisher = NopPublisher{}
	assert.NoError(t, p.Publish(context.Background(), sampleEvent()))
	assert.NoError(t, p.Close())
}

func TestKafkaMessageKeyedBySpace(t *testing.T) {
	msg, err := kafkaMessage(sampleEvent())
	require.NoError(t, err)
	assert.Equal(t, "3", string(msg.Key))
	assert.Equal(t, "type", msg.Headers[0].Key)
	assert.Equal(t, EventReservationStatusChanged, string(msg.Headers[0].Value))

	var back ReservationEvent
	require.NoError(t, json.Unmarshal(msg.Value, &back))
	assert.Equal(t, uint64(5), back.ReservationID)
}

func TestAuditLoggerHandle(t *testing.T) {
	var buf bytes.Buffer
	log := logrus.New()
	log.SetOutput(&buf)
	log.SetFormatter(&logrus.JSONFormatter{})
	audit := NewAuditLogger(log)

	body, err := json.Marshal(sampleEvent())
	require.NoError(t, err)
	require.NoError(t, audit.Handle(body))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "reservation event", line["msg"])
	assert.Equal(t, "reservation-audit", line["component"])
	assert.Equal(t, "pending", line["previous_status"])
	assert.NotContains(t, line, "account_id")

	assert.Error(t, audit.Handle([]byte("{")))
	assert.Error(t, audit.Handle([]byte(`{"type":""}`)))
}

func TestSleepCtx(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.False(t, sleepCtx(ctx, time.Hour))
	assert.True(t, sleepCtx(context.Background(), time.Millisecond))
}

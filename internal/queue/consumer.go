package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

// AuditLogger writes one structured log line per reservation event.  It is
// the handler used by both broker consumers.
type AuditLogger struct {
	log logrus.FieldLogger
}

func NewAuditLogger(log logrus.FieldLogger) *AuditLogger {
	return &AuditLogger{log: log.WithField("component", "reservation-audit")}
}

// Handle decodes body and logs it.  Undecodable bodies are returned as
// errors so the caller can reject the message.
func (a *AuditLogger) Handle(body []byte) error {
	var ev ReservationEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.Type == "" || ev.ReservationID == 0 {
		return errors.New("event without type or reservation id")
	}
	fields := logrus.Fields{
		"event":          ev.Type,
		"reservation_id": ev.ReservationID,
		"reference":      ev.Reference,
		"space_id":       ev.SpaceID,
		"status":         ev.Status,
		"starts_at":      ev.StartsAt,
		"ends_at":        ev.EndsAt,
		"total_price":    ev.TotalPrice,
		"occurred_at":    ev.OccurredAt.Format(time.RFC3339),
	}
	if ev.AccountID != 0 {
		fields["account_id"] = ev.AccountID
	}
	if ev.ActorID != 0 {
		fields["actor_id"] = ev.ActorID
	}
	if ev.PreviousStatus != "" {
		fields["previous_status"] = ev.PreviousStatus
	}
	if ev.Reason != "" {
		fields["reason"] = ev.Reason
	}
	a.log.WithFields(fields).Info("reservation event")
	return nil
}

// RunAMQPConsumer consumes queue until ctx is cancelled, reconnecting with
// exponential backoff when the broker goes away.  Messages that fail to
// decode are rejected without requeue to avoid tight redelivery loops.
func RunAMQPConsumer(ctx context.Context, url, queue string, audit *AuditLogger) {
	backoff := time.Second
	for ctx.Err() == nil {
		conn, err := amqp.Dial(url)
		if err != nil {
			audit.log.WithError(err).WithField("retry_in", backoff.String()).Warn("audit consumer: dial failed")
			if !sleepCtx(ctx, backoff) {
				return
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second
		if err := consumeAMQP(ctx, conn, queue, audit); err != nil && ctx.Err() == nil {
			audit.log.WithError(err).Warn("audit consumer: loop ended, reconnecting")
			sleepCtx(ctx, 2*time.Second)
		}
		_ = conn.Close()
	}
}

func consumeAMQP(ctx context.Context, conn *amqp.Connection, queue string, audit *AuditLogger) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		audit.log.WithError(err).Warn("audit consumer: set QoS failed")
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.ConsumeWithContext(ctx, queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := audit.Handle(d.Body); err != nil {
				audit.log.WithError(err).Warn("audit consumer: rejecting message")
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// RunKafkaConsumer reads topic as consumer group groupID until ctx is
// cancelled.
func RunKafkaConsumer(ctx context.Context, brokers []string, groupID, topic string, audit *AuditLogger) {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: brokers,
		GroupID: groupID,
		Topic:   topic,
	})
	defer func() { _ = reader.Close() }()
	for {
		m, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			audit.log.WithError(err).Warn("audit consumer: kafka read failed")
			if !sleepCtx(ctx, time.Second) {
				return
			}
			continue
		}
		if err := audit.Handle(m.Value); err != nil {
			audit.log.WithError(err).WithFields(logrus.Fields{
				"partition": m.Partition,
				"offset":    m.Offset,
			}).Warn("audit consumer: skipping message")
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

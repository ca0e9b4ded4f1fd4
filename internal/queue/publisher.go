package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/spacehire/internal/config"
)

// Publisher delivers reservation events to a broker.  Implementations are
// safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, ev ReservationEvent) error
	Close() error
}

// NewPublisher builds the publisher selected by cfg.EventBroker.  Unknown
// values and "none" yield a NopPublisher.
func NewPublisher(cfg config.Config, log logrus.FieldLogger) Publisher {
	switch cfg.EventBroker {
	case "amqp", "rabbitmq":
		log.WithField("queue", cfg.EventQueue).Info("publishing reservation events to rabbitmq")
		return NewAMQPPublisher(cfg.RabbitMQURL, cfg.EventQueue, log)
	case "kafka":
		log.WithFields(logrus.Fields{"topic": cfg.EventQueue, "brokers": cfg.KafkaBrokers}).
			Info("publishing reservation events to kafka")
		return NewKafkaPublisher(cfg.KafkaBrokers, cfg.EventQueue)
	case "", "none":
	default:
		log.WithField("broker", cfg.EventBroker).Warn("unknown EVENT_BROKER, reservation events disabled")
	}
	return NopPublisher{}
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, ReservationEvent) error { return nil }
func (NopPublisher) Close() error                                    { return nil }

// AMQPPublisher publishes JSON events to a durable queue via the default
// exchange.  The connection is opened lazily and reopened after the broker
// drops it.
type AMQPPublisher struct {
	url   string
	queue string
	log   logrus.FieldLogger

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewAMQPPublisher(url, queue string, log logrus.FieldLogger) *AMQPPublisher {
	return &AMQPPublisher{url: url, queue: queue, log: log}
}

// channel returns an open channel, dialing and declaring the queue when
// needed.  Callers hold p.mu.
func (p *AMQPPublisher) channel() (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	p.closeLocked()
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}
	// durable so messages survive broker restarts
	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq queue declare: %w", err)
	}
	p.conn, p.ch = conn, ch
	return ch, nil
}

// Publish marshals ev and sends it as a persistent message.
func (p *AMQPPublisher) Publish(ctx context.Context, ev ReservationEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	ch, err := p.channel()
	if err != nil {
		return err
	}
	err = ch.PublishWithContext(ctx, "", p.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Type:         ev.Type,
		Body:         body,
	})
	if err != nil {
		// force a redial on the next publish
		p.closeLocked()
		return fmt.Errorf("rabbitmq publish: %w", err)
	}
	return nil
}

func (p *AMQPPublisher) closeLocked() {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
	p.ch, p.conn = nil, nil
}

func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closeLocked()
	return nil
}

// KafkaPublisher writes events to a topic, keyed by space id so that all
// events of one space land on the same partition in order.
type KafkaPublisher struct {
	w *kafka.Writer
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{w: &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		WriteTimeout:           5 * time.Second,
	}}
}

func (p *KafkaPublisher) Publish(ctx context.Context, ev ReservationEvent) error {
	msg, err := kafkaMessage(ev)
	if err != nil {
		return err
	}
	if err := p.w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka write: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error { return p.w.Close() }

func kafkaMessage(ev ReservationEvent) (kafka.Message, error) {
	body, err := json.Marshal(ev)
	if err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{
		Key:     []byte(strconv.FormatUint(ev.SpaceID, 10)),
		Value:   body,
		Headers: []kafka.Header{{Key: "type", Value: []byte(ev.Type)}},
		Time:    ev.OccurredAt,
	}, nil
}

// Package bus publishes inbox events to the external automation layer over a
// RabbitMQ topic exchange. Delivery is the broker's concern; a publish failure
// is surfaced to the caller and never conflated with inbound processing.
package bus

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// Envelope is the versioned wire contract consumed by downstream automations.
type Envelope struct {
	Meta Meta `json:"meta"`
	Data any  `json:"data"`
}

type Meta struct {
	// Unique event ID
	ID string `json:"id"`
	// Event name and version, e.g. inbox.message.received.v1
	Type string `json:"type"`
	// Tenant the event belongs to
	TenantID string `json:"tenant_id"`
	// Timestamp when the event was emitted
	Time time.Time `json:"time"`
	// Trace / request correlation ID
	CorrelationID string `json:"correlation_id,omitempty"`
}

type Publisher interface {
	Publish(ctx context.Context, key string, msg Envelope) error
	Close() error
}

type rmqClient struct {
	conn     *amqp091.Connection
	exchange string
	log      *logrus.Logger
}

// New dials RabbitMQ and declares a durable topic exchange for inbox events.
func New(url, exchange string, log *logrus.Logger) (Publisher, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	defer ch.Close()
	if err := ch.ExchangeDeclare(
		exchange, "topic", true, false, false, false, nil,
	); err != nil {
		conn.Close()
		return nil, err
	}

	return &rmqClient{
		conn:     conn,
		exchange: exchange,
		log:      log,
	}, nil
}

func (r *rmqClient) Publish(ctx context.Context, key string, msg Envelope) error {
	ch, err := r.conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	if msg.Meta.ID == "" {
		msg.Meta.ID = uuid.NewString()
	}
	if msg.Meta.Time.IsZero() {
		msg.Meta.Time = time.Now().UTC()
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	err = ch.PublishWithContext(
		ctx, r.exchange, key, false, false,
		amqp091.Publishing{
			ContentType:   "application/json",
			DeliveryMode:  amqp091.Persistent,
			MessageId:     msg.Meta.ID,
			CorrelationId: msg.Meta.CorrelationID,
			Timestamp:     time.Now(),
			Body:          body,
		},
	)
	if err == nil {
		r.log.WithFields(logrus.Fields{"key": key, "exchange": r.exchange}).Debug("published")
	}
	return err
}

func (r *rmqClient) Close() error {
	return r.conn.Close()
}

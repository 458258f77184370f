package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Publisher sends ActivityEvents to RabbitMQ.  Each Publish dials its own
// connection, so a broker outage never outlives one call.
type Publisher struct {
	url         string
	queue       string
	dialTimeout time.Duration
	log         *zap.Logger
}

// NewPublisher returns a Publisher for the broker at url.
func NewPublisher(url, queue string, dialTimeout time.Duration, log *zap.Logger) *Publisher {
	if queue == "" {
		queue = ActivityQueueName
	}
	if dialTimeout <= 0 {
		dialTimeout = 2 * time.Second
	}
	return &Publisher{url: url, queue: queue, dialTimeout: dialTimeout, log: log}
}

// Publish marshals ev and publishes it as a persistent message.  An empty
// OccurredAt is filled with the current UTC time.
func (p *Publisher) Publish(ctx context.Context, ev ActivityEvent) error {
	if ev.OccurredAt == "" {
		ev.OccurredAt = time.Now().UTC().Format(time.RFC3339)
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal activity: %w", err)
	}

	conn, err := amqp.DialConfig(p.url, amqp.Config{Dial: amqp.DefaultDial(p.dialTimeout)})
	if err != nil {
		return fmt.Errorf("rabbitmq dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("rabbitmq channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("rabbitmq queue declare: %w", err)
	}

	err = ch.PublishWithContext(ctx, "", p.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Type:         ev.Type,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("rabbitmq publish: %w", err)
	}
	p.log.Debug("activity published", zap.String("type", ev.Type), zap.Uint64("actor_id", ev.ActorID))
	return nil
}

package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher sends events to RabbitMQ.  Runs are rare, so it dials for each
// publish and holds no connection that would need repairing after a broker
// restart.
type Publisher struct {
	URL string
}

// NewPublisher returns a publisher for the broker at url.
func NewPublisher(url string) *Publisher { return &Publisher{URL: url} }

// PublishAllocationCompleted publishes ev as a persistent JSON message on
// the allocation.completed queue.  The run id doubles as the message id so
// consumers can drop redeliveries.
func (p *Publisher) PublishAllocationCompleted(ctx context.Context, ev AllocationCompletedEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", AllocationCompletedQueue, err)
	}
	return p.publish(ctx, AllocationCompletedQueue, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    ev.RunID,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
}

func (p *Publisher) publish(ctx context.Context, queue string, msg amqp.Publishing) error {
	conn, err := amqp.Dial(p.URL)
	if err != nil {
		return fmt.Errorf("rabbitmq dial: %w", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("rabbitmq channel: %w", err)
	}
	defer ch.Close()

	if _, err := declare(ch, queue); err != nil {
		return err
	}
	if err := ch.PublishWithContext(ctx, "", queue, false, false, msg); err != nil {
		return fmt.Errorf("rabbitmq publish %s: %w", queue, err)
	}
	return nil
}

// declare creates the durable queue if it is missing.  Publisher and
// consumer must agree on these arguments or the broker refuses the second
// declaration.
func declare(ch *amqp.Channel, queue string) (amqp.Queue, error) {
	q, err := ch.QueueDeclare(queue, true, false, false, false, nil)
	if err != nil {
		return q, fmt.Errorf("rabbitmq declare %s: %w", queue, err)
	}
	return q, nil
}

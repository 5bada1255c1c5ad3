package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	q "github.com/forkline/table-reservation/internal/queue"
)

// EventPublisher is what the booking and waitlist services need to
// announce lifecycle events. Publishing is best effort: callers log
// failures and carry on, since the booking itself has already
// committed.
type EventPublisher interface {
	BookingConfirmed(ctx context.Context, ev q.BookingConfirmedEvent) error
	BookingCancelled(ctx context.Context, ev q.BookingCancelledEvent) error
	WaitlistPromoted(ctx context.Context, ev q.WaitlistPromotedEvent) error
}

// AMQPPublisher publishes booking events to RabbitMQ. Each publish
// dials its own short-lived connection so a broker outage never pins
// resources inside the request path; messages are durable and queues
// are declared idempotently.
type AMQPPublisher struct {
	url string
}

// NewAMQPPublisher returns a publisher bound to the given broker URL.
func NewAMQPPublisher(url string) *AMQPPublisher { return &AMQPPublisher{url: url} }

func (p *AMQPPublisher) publish(ctx context.Context, queueName string, payload interface{}) error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		log.Printf("rabbitmq: dial failed: %v", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Printf("rabbitmq: channel open failed: %v", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	// Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		log.Printf("rabbitmq: queue declare failed: %v", err)
		return err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("rabbitmq: marshal event failed: %v", err)
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	if err := ch.PublishWithContext(ctx, "", queueName, false, false, pub); err != nil {
		log.Printf("rabbitmq: publish failed: %v", err)
		return err
	}
	return nil
}

// BookingConfirmed publishes to the booking.confirmed queue.
func (p *AMQPPublisher) BookingConfirmed(ctx context.Context, ev q.BookingConfirmedEvent) error {
	return p.publish(ctx, q.BookingConfirmedQueue, ev)
}

// BookingCancelled publishes to the booking.cancelled queue.
func (p *AMQPPublisher) BookingCancelled(ctx context.Context, ev q.BookingCancelledEvent) error {
	return p.publish(ctx, q.BookingCancelledQueue, ev)
}

// WaitlistPromoted publishes to the waitlist.promoted queue.
func (p *AMQPPublisher) WaitlistPromoted(ctx context.Context, ev q.WaitlistPromotedEvent) error {
	return p.publish(ctx, q.WaitlistPromotedQueue, ev)
}

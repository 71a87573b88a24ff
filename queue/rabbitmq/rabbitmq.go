// Package rabbitmq is a queue driver on RabbitMQ. Each queue is a durable
// queue bound to a topic exchange under its own name; publishes wait for
// broker confirmation and deliveries are acknowledged by hand.
//
//	import _ "github.com/ncobase/searchsync/queue/rabbitmq"
package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/ncobase/searchsync/data"
	"github.com/ncobase/searchsync/data/config"
	_ "github.com/ncobase/searchsync/data/rabbitmq"
	"github.com/ncobase/searchsync/logging/logger"
	"github.com/ncobase/searchsync/queue"
)

// Name is the driver name.
const Name = config.QueueRabbitMQ

const (
	// Exchange is the topic exchange every queue is bound to.
	Exchange       = "searchsync"
	publishTimeout = 30 * time.Second
	prefetch       = 1
)

// Connection publishes and consumes jobs on an AMQP connection.
type Connection struct {
	conn    *amqp.Connection
	logger  *logger.Logger
	timeout time.Duration
	mu      sync.Mutex
}

// New creates a connection on conn.
func New(conn *amqp.Connection, l *logger.Logger) *Connection {
	if l == nil {
		l = logger.StandardLogger()
	}
	return &Connection{conn: conn, logger: l, timeout: publishTimeout}
}

func (c *Connection) Name() string { return Name }

// FailedQueue returns the dead-letter queue of name.
func FailedQueue(name string) string { return name + ".failed" }

func (c *Connection) connected() bool {
	return c.conn != nil && !c.conn.IsClosed()
}

// declare ensures the exchange and queue exist and are bound.
func declare(ch *amqp.Channel, queueName string) error {
	if err := ch.ExchangeDeclare(Exchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}
	q, err := ch.QueueDeclare(queueName, true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}
	if err := ch.QueueBind(q.Name, queueName, Exchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue: %w", err)
	}
	return nil
}

// publishing builds the persistent message for job.
func publishing(job *queue.Job, body []byte) amqp.Publishing {
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    job.ID,
		Type:         job.Type,
		Timestamp:    job.EnqueuedAt,
		Body:         body,
	}
}

func (c *Connection) Push(ctx context.Context, job *queue.Job) error {
	body, err := job.Encode()
	if err != nil {
		return err
	}
	return c.publish(ctx, job.Queue, publishing(job, body))
}

func (c *Connection) publish(ctx context.Context, routingKey string, msg amqp.Publishing) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected() {
		return fmt.Errorf("rabbitmq: %w", queue.ErrClosed)
	}
	ch, err := c.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	if err := declare(ch, routingKey); err != nil {
		return err
	}
	if err := ch.Confirm(false); err != nil {
		return fmt.Errorf("failed to put channel in confirm mode: %w", err)
	}
	confirms := ch.NotifyPublish(make(chan amqp.Confirmation, 1))

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := ch.PublishWithContext(ctx, Exchange, routingKey, true, false, msg); err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}

	select {
	case confirmed, ok := <-confirms:
		if !ok {
			return errors.New("confirmation channel closed")
		}
		if !confirmed.Ack {
			return errors.New("broker refused the message")
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("publish confirmation: %w", ctx.Err())
	}
}

// Consume delivers jobs of name to h until ctx ends or the channel closes.
func (c *Connection) Consume(ctx context.Context, name string, h queue.Handler) error {
	if !c.connected() {
		return fmt.Errorf("rabbitmq: %w", queue.ErrClosed)
	}
	ch, err := c.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	if err := declare(ch, name); err != nil {
		return err
	}
	if err := ch.Qos(prefetch, 0, false); err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}
	msgs, err := ch.ConsumeWithContext(ctx, name, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return errors.New("rabbitmq: delivery channel closed")
			}
			c.deliver(ctx, name, d, h)
		}
	}
}

type acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

func (c *Connection) deliver(ctx context.Context, name string, d amqp.Delivery, h queue.Handler) {
	c.handleDelivery(ctx, name, d.Body, d, h)
}

// handleDelivery runs one message. Undecodable bodies are rejected without
// requeue, interrupted jobs are requeued, everything else is acknowledged
// once h returns.
func (c *Connection) handleDelivery(ctx context.Context, name string, body []byte, ack acknowledger, h queue.Handler) {
	job, err := queue.Decode(body)
	if err != nil {
		c.logger.Errorf(ctx, "rabbitmq queue %s: reject undecodable message: %v", name, err)
		if err := ack.Nack(false, false); err != nil {
			c.logger.Errorf(ctx, "rabbitmq queue %s: nack: %v", name, err)
		}
		return
	}
	if job.Queue == "" {
		job.Queue = name
	}
	if err := h.Handle(ctx, job); errors.Is(err, queue.ErrInterrupted) {
		if err := ack.Nack(false, true); err != nil {
			c.logger.Errorf(ctx, "rabbitmq queue %s: requeue job %s: %v", name, job.ID, err)
		}
		return
	}
	if err := ack.Ack(false); err != nil {
		c.logger.Errorf(ctx, "rabbitmq queue %s: ack job %s: %v", name, job.ID, err)
	}
}

// DeadLetter publishes the failure record to the .failed queue.
func (c *Connection) DeadLetter(ctx context.Context, job *queue.Job, cause error) error {
	rec, err := json.Marshal(queue.NewFailedRecord(job, cause))
	if err != nil {
		return err
	}
	return c.publish(ctx, FailedQueue(job.Queue), amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    job.ID,
		Type:         job.Type,
		Timestamp:    time.Now().UTC(),
		Body:         rec,
	})
}

// Close closes the AMQP connection.
func (c *Connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.connected() {
		return nil
	}
	if err := c.conn.Close(); err != nil {
		return fmt.Errorf("failed to close RabbitMQ connection: %w", err)
	}
	return nil
}

func init() {
	queue.Register(Name, func(ctx context.Context, opts *queue.Options) (queue.Connection, error) {
		if opts.Data == nil || opts.Data.RabbitMQ == nil {
			return nil, errors.New("rabbitmq queue: data.rabbitmq is not configured")
		}
		drv, err := data.GetMessageDriver("rabbitmq")
		if err != nil {
			return nil, err
		}
		conn, err := drv.Connect(ctx, opts.Data.RabbitMQ)
		if err != nil {
			return nil, err
		}
		amqpConn, ok := conn.(*amqp.Connection)
		if !ok {
			return nil, fmt.Errorf("rabbitmq queue: unexpected connection %T", conn)
		}
		return New(amqpConn, opts.Logger), nil
	})
}

var (
	_ queue.Connection   = (*Connection)(nil)
	_ queue.DeadLetterer = (*Connection)(nil)
)

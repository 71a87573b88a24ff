// Package kafka is a queue driver on Kafka. A queue is a topic; jobs are
// keyed by their entity so one record's jobs stay on one partition, and
// offsets are committed after the handler returns.
//
//	import _ "github.com/ncobase/searchsync/queue/kafka"
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/ncobase/searchsync/data"
	"github.com/ncobase/searchsync/data/config"
	kafkadriver "github.com/ncobase/searchsync/data/kafka"
	"github.com/ncobase/searchsync/logging/logger"
	"github.com/ncobase/searchsync/queue"
)

// Name is the driver name.
const Name = config.QueueKafka

const headerType = "job-type"

// Connection produces and consumes jobs on a Kafka cluster.
type Connection struct {
	cluster *kafkadriver.Cluster
	logger  *logger.Logger

	mu      sync.Mutex
	closed  bool
	writers map[string]*kafka.Writer
}

// New creates a connection on cluster.
func New(cluster *kafkadriver.Cluster, l *logger.Logger) *Connection {
	if l == nil {
		l = logger.StandardLogger()
	}
	return &Connection{cluster: cluster, logger: l, writers: make(map[string]*kafka.Writer)}
}

func (c *Connection) Name() string { return Name }

// FailedTopic returns the dead-letter topic of name.
func FailedTopic(name string) string { return name + ".failed" }

func (c *Connection) writer(topic string) (*kafka.Writer, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, queue.ErrClosed
	}
	w, ok := c.writers[topic]
	if !ok {
		w = c.cluster.Writer(topic)
		c.writers[topic] = w
	}
	return w, nil
}

// message builds the Kafka message of job. Jobs without a key fall back
// to their id.
func message(job *queue.Job) (kafka.Message, error) {
	body, err := job.Encode()
	if err != nil {
		return kafka.Message{}, err
	}
	key := job.Key
	if key == "" {
		key = job.ID
	}
	return kafka.Message{
		Key:     []byte(key),
		Value:   body,
		Time:    job.EnqueuedAt,
		Headers: []kafka.Header{{Key: headerType, Value: []byte(job.Type)}},
	}, nil
}

func (c *Connection) Push(ctx context.Context, job *queue.Job) error {
	msg, err := message(job)
	if err != nil {
		return err
	}
	w, err := c.writer(job.Queue)
	if err != nil {
		return err
	}
	if err := w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka queue push %s: %w", job.Queue, err)
	}
	return nil
}

// Consume reads topic name in the configured consumer group until ctx ends.
func (c *Connection) Consume(ctx context.Context, name string, h queue.Handler) error {
	r := c.cluster.Reader(name)
	defer r.Close()

	for {
		m, err := r.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("kafka queue fetch %s: %w", name, err)
		}

		job, err := queue.Decode(m.Value)
		if err != nil {
			c.logger.Errorf(ctx, "kafka queue %s: skip undecodable message at offset %d: %v", name, m.Offset, err)
		} else {
			if job.Queue == "" {
				job.Queue = name
			}
			if err := h.Handle(ctx, job); errors.Is(err, queue.ErrInterrupted) {
				// left uncommitted for the next member of the group
				return nil
			}
		}

		if err := r.CommitMessages(context.WithoutCancel(ctx), m); err != nil {
			c.logger.Errorf(ctx, "kafka queue %s: commit offset %d: %v", name, m.Offset, err)
		}
	}
}

// DeadLetter writes the failure record to the .failed topic.
func (c *Connection) DeadLetter(ctx context.Context, job *queue.Job, cause error) error {
	body, err := json.Marshal(queue.NewFailedRecord(job, cause))
	if err != nil {
		return err
	}
	w, err := c.writer(FailedTopic(job.Queue))
	if err != nil {
		return err
	}
	return w.WriteMessages(ctx, kafka.Message{Key: []byte(job.ID), Value: body, Time: time.Now().UTC()})
}

// Close flushes and closes every writer.
func (c *Connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	var errs []error
	for topic, w := range c.writers {
		if err := w.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close writer %s: %w", topic, err))
		}
	}
	return errors.Join(errs...)
}

func init() {
	queue.Register(Name, func(ctx context.Context, opts *queue.Options) (queue.Connection, error) {
		if opts.Data == nil || opts.Data.Kafka == nil {
			return nil, errors.New("kafka queue: data.kafka is not configured")
		}
		drv, err := data.GetMessageDriver(kafkadriver.Name)
		if err != nil {
			return nil, err
		}
		conn, err := drv.Connect(ctx, opts.Data.Kafka)
		if err != nil {
			return nil, err
		}
		cluster, ok := conn.(*kafkadriver.Cluster)
		if !ok {
			return nil, fmt.Errorf("kafka queue: unexpected connection %T", conn)
		}
		return New(cluster, opts.Logger), nil
	})
}

var (
	_ queue.Connection   = (*Connection)(nil)
	_ queue.DeadLetterer = (*Connection)(nil)
)

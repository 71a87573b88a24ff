// Package memory is an in-process queue driver. Jobs live in buffered
// channels and are run by a worker pool; nothing survives a restart.
//
//	import _ "github.com/ncobase/searchsync/queue/memory"
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ncobase/searchsync/concurrency/worker"
	"github.com/ncobase/searchsync/data/config"
	"github.com/ncobase/searchsync/queue"
)

// Name is the driver name.
const Name = config.QueueMemory

const (
	defaultBuffer = 1024
	drainTimeout  = 30 * time.Second
)

// Connection holds one channel per queue name.
type Connection struct {
	buffer  int
	workers int

	mu     sync.Mutex
	closed bool
	queues map[string]chan *queue.Job
	failed map[string][]queue.FailedRecord
}

// New creates a connection whose queues hold up to buffer jobs and are
// consumed by workers goroutines each.
func New(buffer, workers int) *Connection {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	if workers <= 0 {
		workers = 1
	}
	return &Connection{
		buffer:  buffer,
		workers: workers,
		queues:  make(map[string]chan *queue.Job),
		failed:  make(map[string][]queue.FailedRecord),
	}
}

func (c *Connection) Name() string { return Name }

func (c *Connection) channel(name string) (chan *queue.Job, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, queue.ErrClosed
	}
	ch, ok := c.queues[name]
	if !ok {
		ch = make(chan *queue.Job, c.buffer)
		c.queues[name] = ch
	}
	return ch, nil
}

// Push appends job, failing when the queue is full.
func (c *Connection) Push(ctx context.Context, job *queue.Job) error {
	ch, err := c.channel(job.Queue)
	if err != nil {
		return err
	}
	select {
	case ch <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return fmt.Errorf("memory queue %s: %w", job.Queue, worker.ErrQueueFull)
	}
}

// Len returns the number of jobs waiting on name.
func (c *Connection) Len(name string) int {
	ch, err := c.channel(name)
	if err != nil {
		return 0
	}
	return len(ch)
}

// Consume feeds jobs of name to a worker pool until ctx ends, then lets
// the pool finish what it already accepted.
func (c *Connection) Consume(ctx context.Context, name string, h queue.Handler) error {
	ch, err := c.channel(name)
	if err != nil {
		return err
	}
	pool, err := worker.NewPool(&worker.Config{MaxWorkers: c.workers, QueueSize: c.workers}, worker.ProcessorFunc(func(ctx context.Context, task any) error {
		job := task.(*queue.Job)
		err := h.Handle(ctx, job)
		if errors.Is(err, queue.ErrInterrupted) {
			select {
			case ch <- job:
			default:
			}
		}
		return err
	}))
	if err != nil {
		return err
	}
	pool.Start()

	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), drainTimeout)
		defer cancel()
		_ = pool.Stop(stopCtx)
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case job := <-ch:
			if err := pool.SubmitWait(ctx, job); err != nil {
				// Put it back for the next consumer.
				select {
				case ch <- job:
				default:
				}
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return nil
				}
				return err
			}
		}
	}
}

// DeadLetter keeps job in memory.
func (c *Connection) DeadLetter(_ context.Context, job *queue.Job, cause error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failed[job.Queue] = append(c.failed[job.Queue], queue.NewFailedRecord(job, cause))
	return nil
}

// Failed returns the dead-lettered jobs of name.
func (c *Connection) Failed(name string) []queue.FailedRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]queue.FailedRecord(nil), c.failed[name]...)
}

// Close rejects further pushes.
func (c *Connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func init() {
	queue.Register(Name, func(_ context.Context, opts *queue.Options) (queue.Connection, error) {
		workers := 0
		if opts.Queue != nil {
			workers = opts.Queue.Workers
		}
		return New(defaultBuffer, workers), nil
	})
}

var (
	_ queue.Connection   = (*Connection)(nil)
	_ queue.DeadLetterer = (*Connection)(nil)
)

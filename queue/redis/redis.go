// Package redis is a queue driver on Redis lists. Producers LPUSH and
// consumers BRPOP, so each queue is FIFO; jobs that run out of attempts go
// to the <queue>:failed list.
//
//	import _ "github.com/ncobase/searchsync/queue/redis"
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ncobase/searchsync/data"
	"github.com/ncobase/searchsync/data/config"
	_ "github.com/ncobase/searchsync/data/redis"
	"github.com/ncobase/searchsync/logging/logger"
	"github.com/ncobase/searchsync/queue"
)

// Name is the driver name.
const Name = config.QueueRedis

const (
	keyPrefix    = "searchsync:queue:"
	blockTimeout = 2 * time.Second
)

// Connection is a queue connection on a Redis client.
type Connection struct {
	client *redis.Client
	block  time.Duration
	logger *logger.Logger
	owned  bool
}

// New creates a connection on client. The client is not closed by Close.
func New(client *redis.Client, l *logger.Logger) *Connection {
	if l == nil {
		l = logger.StandardLogger()
	}
	return &Connection{client: client, block: blockTimeout, logger: l}
}

func (c *Connection) Name() string { return Name }

// Key returns the list holding queue name.
func Key(name string) string { return keyPrefix + name }

// FailedKey returns the dead-letter list of queue name.
func FailedKey(name string) string { return Key(name) + ":failed" }

func (c *Connection) Push(ctx context.Context, job *queue.Job) error {
	b, err := job.Encode()
	if err != nil {
		return err
	}
	if err := c.client.LPush(ctx, Key(job.Queue), b).Err(); err != nil {
		return fmt.Errorf("redis queue push %s: %w", job.Queue, err)
	}
	return nil
}

// Consume pops jobs of name one at a time until ctx ends.
func (c *Connection) Consume(ctx context.Context, name string, h queue.Handler) error {
	key := Key(name)
	for {
		if ctx.Err() != nil {
			return nil
		}
		res, err := c.client.BRPop(ctx, c.block, key).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("redis queue pop %s: %w", name, err)
		}
		// res is [key, value].
		if len(res) != 2 {
			continue
		}
		job, err := queue.Decode([]byte(res[1]))
		if err != nil {
			c.logger.Errorf(ctx, "redis queue %s: drop undecodable job: %v", name, err)
			continue
		}
		if job.Queue == "" {
			job.Queue = name
		}
		if err := h.Handle(ctx, job); errors.Is(err, queue.ErrInterrupted) {
			// back on the popping end, so it is the next job served
			if err := c.client.RPush(context.WithoutCancel(ctx), key, res[1]).Err(); err != nil {
				c.logger.Errorf(ctx, "redis queue %s: requeue job %s: %v", name, job.ID, err)
			}
		}
	}
}

// DeadLetter appends job to the failed list of its queue.
func (c *Connection) DeadLetter(ctx context.Context, job *queue.Job, cause error) error {
	b, err := json.Marshal(queue.NewFailedRecord(job, cause))
	if err != nil {
		return err
	}
	return c.client.LPush(ctx, FailedKey(job.Queue), b).Err()
}

// Len returns the number of waiting jobs of name.
func (c *Connection) Len(ctx context.Context, name string) (int64, error) {
	return c.client.LLen(ctx, Key(name)).Result()
}

// Failed returns the dead-lettered jobs of name, newest first.
func (c *Connection) Failed(ctx context.Context, name string) ([]queue.FailedRecord, error) {
	raw, err := c.client.LRange(ctx, FailedKey(name), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]queue.FailedRecord, 0, len(raw))
	for _, r := range raw {
		var rec queue.FailedRecord
		if err := json.Unmarshal([]byte(r), &rec); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// Close closes the client when the connection opened it.
func (c *Connection) Close() error {
	if c.owned {
		return c.client.Close()
	}
	return nil
}

func init() {
	queue.Register(Name, func(ctx context.Context, opts *queue.Options) (queue.Connection, error) {
		if opts.Data == nil || opts.Data.Redis == nil {
			return nil, errors.New("redis queue: data.redis is not configured")
		}
		drv, err := data.GetCacheDriver("redis")
		if err != nil {
			return nil, err
		}
		conn, err := drv.Connect(ctx, opts.Data.Redis)
		if err != nil {
			return nil, err
		}
		client, ok := conn.(*redis.Client)
		if !ok {
			return nil, fmt.Errorf("redis queue: unexpected connection %T", conn)
		}
		c := New(client, opts.Logger)
		c.owned = true
		return c, nil
	})
}

var (
	_ queue.Connection   = (*Connection)(nil)
	_ queue.DeadLetterer = (*Connection)(nil)
)

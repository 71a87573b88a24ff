package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ncobase/searchsync/data/config"
	"github.com/ncobase/searchsync/queue"
)

func newConn(t *testing.T) (*Connection, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	c := New(client, nil)
	c.block = 50 * time.Millisecond
	return c, mr
}

func TestPushConsumeFIFO(t *testing.T) {
	c, mr := newConn(t)
	ctx := context.Background()

	for _, id := range []string{"1", "2", "3"} {
		job, err := queue.NewJob("search", "t", id, map[string]string{"id": id})
		require.NoError(t, err)
		job.ID = id
		require.NoError(t, c.Push(ctx, job))
	}
	n, err := c.Len(ctx, "search")
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
	assert.True(t, mr.Exists(Key("search")))

	consumeCtx, cancel := context.WithCancel(ctx)
	var order []string
	err = c.Consume(consumeCtx, "search", queue.HandlerFunc(func(ctx context.Context, job *queue.Job) error {
		order = append(order, job.ID)
		if len(order) == 3 {
			cancel()
		}
		return nil
	}))
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "3"}, order)
}

func TestConsumeSkipsUndecodable(t *testing.T) {
	c, mr := newConn(t)
	_, err := mr.Lpush(Key("search"), "not json")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	calls := 0
	require.NoError(t, c.Consume(ctx, "search", queue.HandlerFunc(func(context.Context, *queue.Job) error {
		calls++
		return nil
	})))
	assert.Zero(t, calls)
}

func TestConsumeRequeuesInterrupted(t *testing.T) {
	c, _ := newConn(t)
	ctx := context.Background()
	for _, id := range []string{"1", "2"} {
		job, err := queue.NewJob("search", "t", id, nil)
		require.NoError(t, err)
		job.ID = id
		require.NoError(t, c.Push(ctx, job))
	}

	consumeCtx, cancel := context.WithCancel(ctx)
	w := queue.NewWorker(c, queue.HandlerFunc(func(ctx context.Context, job *queue.Job) error {
		cancel()
		return errors.New("engine down")
	}), queue.WithMaxAttempts(3), queue.WithRetryDelay(0))
	require.NoError(t, c.Consume(consumeCtx, "search", w))

	n, err := c.Len(ctx, "search")
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
	failed, err := c.Failed(ctx, "search")
	require.NoError(t, err)
	assert.Empty(t, failed)

	// the interrupted job is served first again
	res, err := c.client.RPop(ctx, Key("search")).Result()
	require.NoError(t, err)
	job, err := queue.Decode([]byte(res))
	require.NoError(t, err)
	assert.Equal(t, "1", job.ID)
}

func TestDeadLetter(t *testing.T) {
	c, _ := newConn(t)
	ctx := context.Background()

	w := queue.NewWorker(c, queue.HandlerFunc(func(context.Context, *queue.Job) error {
		return errors.New("engine down")
	}), queue.WithMaxAttempts(2), queue.WithRetryDelay(0))
	err := w.Handle(ctx, &queue.Job{ID: "x", Queue: "search", Type: "t"})
	assert.ErrorIs(t, err, queue.ErrDeadLettered)

	failed, err := c.Failed(ctx, "search")
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, "x", failed[0].Job.ID)
	assert.Equal(t, 2, failed[0].Job.Attempts)
	assert.Equal(t, "engine down", failed[0].Error)
	assert.Equal(t, "searchsync:queue:search:failed", FailedKey("search"))
}

func TestOpenerNeedsConfig(t *testing.T) {
	_, err := queue.Open(context.Background(), Name, &queue.Options{Data: &config.Config{}})
	assert.Error(t, err)

	mr := miniredis.RunT(t)
	conn, err := queue.Open(context.Background(), Name, &queue.Options{Data: &config.Config{Redis: &config.Redis{Addr: mr.Addr()}}})
	require.NoError(t, err)
	assert.Equal(t, Name, conn.Name())
	assert.NoError(t, conn.Close())
}

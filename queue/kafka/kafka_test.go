package kafka

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ncobase/searchsync/data/config"
	kafkadriver "github.com/ncobase/searchsync/data/kafka"
	"github.com/ncobase/searchsync/queue"
)

func TestMessage(t *testing.T) {
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	job := &queue.Job{ID: "j1", Queue: "search", Type: "search.sync", Key: "posts:7", EnqueuedAt: at}

	m, err := message(job)
	require.NoError(t, err)
	assert.Equal(t, "posts:7", string(m.Key))
	assert.Equal(t, at, m.Time)
	require.Len(t, m.Headers, 1)
	assert.Equal(t, "search.sync", string(m.Headers[0].Value))

	decoded, err := queue.Decode(m.Value)
	require.NoError(t, err)
	assert.Equal(t, "j1", decoded.ID)

	job.Key = ""
	m, err = message(job)
	require.NoError(t, err)
	assert.Equal(t, "j1", string(m.Key))
}

func TestWritersAreCached(t *testing.T) {
	cluster, err := kafkadriver.NewCluster(&config.Kafka{Brokers: []string{"localhost:9092"}})
	require.NoError(t, err)
	c := New(cluster, nil)

	w1, err := c.writer("search")
	require.NoError(t, err)
	w2, err := c.writer("search")
	require.NoError(t, err)
	assert.Same(t, w1, w2)
	assert.Equal(t, "search.failed", FailedTopic("search"))

	require.NoError(t, c.Close())
	_, err = c.writer("search")
	assert.ErrorIs(t, err, queue.ErrClosed)
	assert.ErrorIs(t, c.Push(context.Background(), &queue.Job{Queue: "search", Type: "t"}), queue.ErrClosed)
}

func TestOpenerNeedsConfig(t *testing.T) {
	_, err := queue.Open(context.Background(), Name, &queue.Options{Data: &config.Config{}})
	assert.Error(t, err)
}

package dispatch_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ncobase/searchsync/dispatch"
	"github.com/ncobase/searchsync/queue"
	"github.com/ncobase/searchsync/search"
	"github.com/ncobase/searchsync/search/searchtest"
)

func envelope(t *testing.T, action dispatch.Action, rec search.Searchable) *queue.Job {
	t.Helper()
	job, err := dispatch.NewSyncJob(action, rec).Envelope(dispatch.DefaultQueueName)
	require.NoError(t, err)
	return job
}

func TestHandlerIndexesCurrentRecord(t *testing.T) {
	backend, engine := newEngine(t)
	current := searchtest.NewRecord("posts", "slug", map[string]any{"slug": "a", "title": "current"})
	store := searchtest.NewStore(current)
	reg := dispatch.NewRegistry()
	reg.Register("posts", store, current)
	h := dispatch.NewHandler(engine, reg, nil)

	stale := searchtest.NewRecord("posts", "slug", map[string]any{"slug": "a", "title": "stale"})
	require.NoError(t, h.Handle(context.Background(), envelope(t, dispatch.ActionIndex, stale)))

	assert.Equal(t, 1, store.Lookups())
	assert.Equal(t, "slug", store.LastKeyField())
	docs := backend.Documents("posts")
	require.Len(t, docs, 1)
	assert.Equal(t, "current", docs[0]["title"])
}

func TestHandlerSkipsMissingRecord(t *testing.T) {
	backend, engine := newEngine(t)
	rec := post(9, "gone")
	store := searchtest.NewStore(rec)
	store.Delete(9)
	reg := dispatch.NewRegistry()
	reg.Register("posts", store, rec)
	h := dispatch.NewHandler(engine, reg, nil)

	require.NoError(t, h.Handle(context.Background(), envelope(t, dispatch.ActionIndex, rec)))
	assert.Empty(t, backend.CallsTo("AddDocuments"))
}

func TestHandlerRemovesByKeyWithoutLookup(t *testing.T) {
	backend, engine := newEngine(t)
	rec := post(5, "bye")
	require.NoError(t, engine.Index(context.Background(), rec))
	require.Len(t, backend.Documents("posts"), 1)

	store := searchtest.NewStore()
	reg := dispatch.NewRegistry()
	reg.Register("posts", store, rec)
	h := dispatch.NewHandler(engine, reg, nil)

	require.NoError(t, h.Handle(context.Background(), envelope(t, dispatch.ActionRemove, rec)))
	assert.Empty(t, backend.Documents("posts"))
	assert.Zero(t, store.Lookups())
}

func TestHandlerUnknownModelIsPermanent(t *testing.T) {
	_, engine := newEngine(t)
	h := dispatch.NewHandler(engine, dispatch.NewRegistry(), nil)

	err := h.Handle(context.Background(), envelope(t, dispatch.ActionIndex, post(1, "x")))
	require.Error(t, err)
	assert.True(t, queue.IsPermanent(err))
}

func TestDecodeSyncJobRejectsBadJobs(t *testing.T) {
	job, err := queue.NewJob("search", "other", "", map[string]any{})
	require.NoError(t, err)
	_, err = dispatch.DecodeSyncJob(job)
	assert.True(t, queue.IsPermanent(err))

	job, err = queue.NewJob("search", dispatch.JobType, "", map[string]any{"action": "upsert", "index": "posts", "key": 1})
	require.NoError(t, err)
	_, err = dispatch.DecodeSyncJob(job)
	assert.True(t, queue.IsPermanent(err))

	job, err = queue.NewJob("search", dispatch.JobType, "", map[string]any{"action": "index", "index": "posts"})
	require.NoError(t, err)
	_, err = dispatch.DecodeSyncJob(job)
	assert.True(t, queue.IsPermanent(err))
}

func TestSyncJobDescribesRecord(t *testing.T) {
	sj := dispatch.NewSyncJob(dispatch.ActionFor(dispatch.EventDeleted), post(3, "x"))
	assert.Equal(t, dispatch.ActionRemove, sj.Action)
	assert.Equal(t, "posts", sj.Model)
	assert.Equal(t, "posts", sj.Index)
	assert.Equal(t, search.DefaultKeyField, sj.KeyField)
	assert.Equal(t, "posts:3", sj.PartitionKey())
	assert.Equal(t, dispatch.ActionIndex, dispatch.ActionFor(dispatch.EventRestored))
}

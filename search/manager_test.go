package search_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ncobase/searchsync/logging/logger"
	"github.com/ncobase/searchsync/search"
	"github.com/ncobase/searchsync/search/searchtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManager(b *searchtest.Backend, opts ...search.ManagerOption) *search.IndexManager {
	opts = append([]search.ManagerOption{
		search.WithPollInterval(time.Millisecond),
		search.WithTaskTimeout(50 * time.Millisecond),
	}, opts...)
	return search.NewIndexManager(b, opts...)
}

func TestGetOrCreateIndexCreatesWithIDKey(t *testing.T) {
	b := searchtest.New()
	m := newManager(b, search.WithPrefix("app_"))
	ctx := context.Background()

	h, err := m.GetOrCreateIndex(ctx, "posts")
	require.NoError(t, err)
	assert.Equal(t, "app_posts", h.UID)

	creates := b.CallsTo("CreateIndex")
	require.Len(t, creates, 1)
	assert.Equal(t, "app_posts", creates[0].Index)

	pk, err := h.FetchPrimaryKey(ctx)
	require.NoError(t, err)
	assert.Equal(t, "id", pk)

	// Second access finds the index.
	_, err = m.GetOrCreateIndex(ctx, "posts")
	require.NoError(t, err)
	assert.Len(t, b.CallsTo("CreateIndex"), 1)
}

func TestGetOrCreateIndexWarnsOnPrimaryKeyDrift(t *testing.T) {
	b := searchtest.New()
	b.SeedIndex("posts", "uuid")

	var buf bytes.Buffer
	m := newManager(b, search.WithLogger(logger.New(&buf)))

	h, err := m.GetOrCreateIndex(context.Background(), "posts")
	require.NoError(t, err)
	assert.Equal(t, "uuid", h.PrimaryKey)
	assert.Contains(t, buf.String(), `"level":"warning"`)
	assert.Contains(t, buf.String(), "primary key")
}

func TestGetOrCreateIndexPropagatesErrors(t *testing.T) {
	b := searchtest.New()
	b.FailNext("GetIndex", search.ErrEngineUnavailable)

	_, err := newManager(b).GetOrCreateIndex(context.Background(), "posts")
	assert.ErrorIs(t, err, search.ErrEngineUnavailable)
	assert.Empty(t, b.CallsTo("CreateIndex"))
}

func TestWaitForTaskTimeoutIsDistinctFromFailure(t *testing.T) {
	ctx := context.Background()

	t.Run("timeout", func(t *testing.T) {
		b := searchtest.New()
		b.SeedIndex("posts", "id")
		b.SetTaskOutcome(search.TaskProcessing, "", "")
		m := newManager(b, search.WithTaskTimeout(10*time.Millisecond))

		_, err := m.Flush(ctx, "posts")
		assert.ErrorIs(t, err, search.ErrTaskTimeout)
		var tf *search.TaskFailedError
		assert.False(t, errors.As(err, &tf))
	})

	t.Run("failure", func(t *testing.T) {
		b := searchtest.New()
		b.SeedIndex("posts", "id")
		b.SetTaskOutcome(search.TaskFailed, "invalid_settings", "bad ranking rule")
		m := newManager(b)

		_, err := m.UpdateSettings(ctx, "posts", search.Settings{"rankingRules": []string{"nope"}})
		var tf *search.TaskFailedError
		require.True(t, errors.As(err, &tf), "err = %v", err)
		assert.Equal(t, "invalid_settings", tf.Code)
		assert.False(t, errors.Is(err, search.ErrTaskTimeout))
	})

	t.Run("context canceled", func(t *testing.T) {
		b := searchtest.New()
		b.SeedIndex("posts", "id")
		b.SetTaskOutcome(search.TaskEnqueued, "", "")
		m := newManager(b, search.WithTaskTimeout(time.Minute))

		cctx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
		defer cancel()
		_, err := m.Flush(cctx, "posts")
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestDeleteIndex(t *testing.T) {
	b := searchtest.New()
	b.SeedIndex("posts", "id")
	m := newManager(b)
	ctx := context.Background()

	task, err := m.DeleteIndex(ctx, "posts")
	require.NoError(t, err)
	assert.Equal(t, search.TaskSucceeded, task.Status)

	task, err = m.DeleteIndex(ctx, "posts")
	require.NoError(t, err, "deleting a missing index succeeds")
	assert.True(t, task.Skipped())
}

func TestGetAllIndexesFiltersPrefix(t *testing.T) {
	b := searchtest.New()
	b.SeedIndex("app_posts", "id")
	b.SeedIndex("app_users", "id")
	b.SeedIndex("other_posts", "id")

	all, err := newManager(b, search.WithPrefix("app_")).GetAllIndexes(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "app_posts", all[0].UID)
	assert.Equal(t, "app_users", all[1].UID)
}

func TestSyncSettingsForModel(t *testing.T) {
	ctx := context.Background()

	t.Run("empty settings skip the engine", func(t *testing.T) {
		b := searchtest.New()
		task, err := newManager(b).SyncSettingsForModel(ctx, post(1, "u1"))
		require.NoError(t, err)
		assert.True(t, task.Skipped())
		assert.Empty(t, b.Calls())
	})

	t.Run("defaults then declared then custom", func(t *testing.T) {
		b := searchtest.New()
		m := newManager(b, search.WithDefaultSettings(search.Settings{
			"pagination":                       map[string]any{"maxTotalHits": 1000},
			search.SettingFilterableAttributes: []string{"default"},
		}))
		rec := post(1, "u1")
		rec.Filterable = []string{"status"}
		rec.Sortable = []string{"published_at"}
		rec.Custom = search.Settings{"pagination": map[string]any{"maxTotalHits": 50}}

		task, err := m.SyncSettingsForModel(ctx, rec)
		require.NoError(t, err)
		assert.Equal(t, search.TaskSucceeded, task.Status)

		got, err := m.GetSettings(ctx, "posts")
		require.NoError(t, err)
		assert.Equal(t, []string{"status"}, got[search.SettingFilterableAttributes])
		assert.Equal(t, []string{"published_at"}, got[search.SettingSortableAttributes])
		assert.Equal(t, map[string]any{"maxTotalHits": 50}, got["pagination"])
	})
}

func TestManagerStats(t *testing.T) {
	b := searchtest.New()
	m := newManager(b)
	ctx := context.Background()

	h, err := m.GetOrCreateIndex(ctx, "posts")
	require.NoError(t, err)
	_, err = h.AddDocuments(ctx, []search.Document{{"id": 1, "title": "a"}, {"id": 2}})
	require.NoError(t, err)

	stats, err := m.GetStats(ctx, "posts")
	require.NoError(t, err)
	assert.EqualValues(t, 2, stats.NumberOfDocuments)
	assert.EqualValues(t, 1, stats.FieldDistribution["title"])
}

func TestManagerSearchDoesNotCreateIndex(t *testing.T) {
	b := searchtest.New()
	_, err := newManager(b).Search(context.Background(), "posts", &search.SearchParams{})
	assert.True(t, search.IsNotFound(err))
	assert.Empty(t, b.CallsTo("CreateIndex"))
}

func TestEmptyWritesSkipEngine(t *testing.T) {
	b := searchtest.New()
	b.SeedIndex("posts", "id")
	m := newManager(b)
	h, err := m.GetOrCreateIndex(context.Background(), "posts")
	require.NoError(t, err)
	b.ResetCalls()

	task, err := h.AddDocuments(context.Background(), nil)
	require.NoError(t, err)
	assert.True(t, task.Skipped())
	task, err = h.DeleteDocuments(context.Background(), nil)
	require.NoError(t, err)
	assert.True(t, task.Skipped())
	assert.Empty(t, b.Calls())
}

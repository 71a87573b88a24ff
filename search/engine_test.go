package search_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/ncobase/searchsync/search"
	"github.com/ncobase/searchsync/search/searchtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(b *searchtest.Backend, batch int, opts ...search.EngineOption) *search.SyncEngine {
	m := search.NewIndexManager(b,
		search.WithBatchSize(batch),
		search.WithPollInterval(time.Millisecond),
		search.WithTaskTimeout(50*time.Millisecond),
	)
	return search.NewSyncEngine(m, opts...)
}

func posts(n int) []search.Searchable {
	out := make([]search.Searchable, n)
	for i := range out {
		out[i] = post(int64(i+1), fmt.Sprintf("u%d", i+1))
	}
	return out
}

func TestIndexWritesDocumentKeyedByID(t *testing.T) {
	b := searchtest.New()
	e := newEngine(b, 500)

	require.NoError(t, e.Index(context.Background(), post(7, "abc")))

	docs := b.Documents("posts")
	require.Len(t, docs, 1)
	assert.Equal(t, "abc", docs[0]["id"])
	assert.Equal(t, "abc", docs[0]["uuid"])
}

func TestIndexRemovesUnsearchableRecord(t *testing.T) {
	b := searchtest.New()
	e := newEngine(b, 500)
	ctx := context.Background()

	rec := post(1, "u1")
	require.NoError(t, e.Index(ctx, rec))
	rec.Hidden = true
	require.NoError(t, e.Index(ctx, rec))

	assert.Empty(t, b.Documents("posts"))
}

func TestIndexManyBatchesWrites(t *testing.T) {
	tests := []struct {
		n, batch int
		want     []int
	}{
		{1200, 500, []int{500, 500, 200}},
		{1000, 500, []int{500, 500}},
		{3, 500, []int{3}},
		{7, 2, []int{2, 2, 2, 1}},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d/%d", tt.n, tt.batch), func(t *testing.T) {
			b := searchtest.New()
			e := newEngine(b, tt.batch)

			require.NoError(t, e.IndexMany(context.Background(), posts(tt.n)))

			var sizes []int
			for _, c := range b.CallsTo("AddDocuments") {
				sizes = append(sizes, c.Size)
			}
			assert.Equal(t, tt.want, sizes)
			assert.Len(t, b.Documents("posts"), tt.n)
			assert.Len(t, b.CallsTo("CreateIndex"), 1)
		})
	}
}

func TestIndexManyEmptyIsNoop(t *testing.T) {
	b := searchtest.New()
	require.NoError(t, newEngine(b, 10).IndexMany(context.Background(), nil))
	assert.Empty(t, b.Calls())
}

func TestIndexManyRejectsMixedIndexes(t *testing.T) {
	b := searchtest.New()
	records := []search.Searchable{
		post(1, "u1"),
		searchtest.NewRecord("users", "id", map[string]any{"id": 1}),
	}

	err := newEngine(b, 10).IndexMany(context.Background(), records)
	assert.ErrorIs(t, err, search.ErrMixedIndexes)
	assert.ErrorIs(t, err, search.ErrInvalidArgument)
	assert.Empty(t, b.Calls())
}

func TestIndexManyRemovesHiddenRecords(t *testing.T) {
	b := searchtest.New()
	e := newEngine(b, 10)
	ctx := context.Background()
	records := posts(3)
	require.NoError(t, e.IndexMany(ctx, records))

	records[1].(*searchtest.Record).Hidden = true
	require.NoError(t, e.IndexMany(ctx, records))

	docs := b.Documents("posts")
	require.Len(t, docs, 2)
	assert.Equal(t, "u1", docs[0]["id"])
	assert.Equal(t, "u3", docs[1]["id"])
}

func TestIndexManyWithoutBatching(t *testing.T) {
	b := searchtest.New()
	e := newEngine(b, 2, search.WithoutBatching())

	require.NoError(t, e.IndexMany(context.Background(), posts(5)))
	calls := b.CallsTo("AddDocuments")
	require.Len(t, calls, 1)
	assert.Equal(t, 5, calls[0].Size)
}

func TestRemoveIsIdempotent(t *testing.T) {
	b := searchtest.New()
	e := newEngine(b, 10)
	ctx := context.Background()
	rec := post(1, "u1")

	require.NoError(t, e.Remove(ctx, rec), "removing an absent document")
	require.NoError(t, e.Index(ctx, rec))
	require.NoError(t, e.Remove(ctx, rec))
	require.NoError(t, e.Remove(ctx, rec))
	assert.Empty(t, b.Documents("posts"))
}

func TestRemoveByKeyRef(t *testing.T) {
	b := searchtest.New()
	e := newEngine(b, 10)
	ctx := context.Background()
	require.NoError(t, e.Index(ctx, post(1, "u1")))

	require.NoError(t, e.Remove(ctx, search.KeyRef{Index: "posts", Key: "u1", KeyField: "uuid"}))
	assert.Empty(t, b.Documents("posts"))
}

func TestRemoveManyBatches(t *testing.T) {
	b := searchtest.New()
	e := newEngine(b, 2)
	ctx := context.Background()
	records := posts(5)
	require.NoError(t, e.IndexMany(ctx, records))
	b.ResetCalls()

	require.NoError(t, e.RemoveMany(ctx, records))
	var sizes []int
	for _, c := range b.CallsTo("DeleteDocuments") {
		sizes = append(sizes, c.Size)
	}
	assert.Equal(t, []int{2, 2, 1}, sizes)
	assert.Empty(t, b.Documents("posts"))
}

func TestFlush(t *testing.T) {
	b := searchtest.New()
	e := newEngine(b, 10)
	ctx := context.Background()
	require.NoError(t, e.IndexMany(ctx, posts(4)))

	require.NoError(t, e.Flush(ctx, "posts"))
	assert.Empty(t, b.Documents("posts"))
}

func TestSearchResolvesIndexAndNormalizes(t *testing.T) {
	b := searchtest.New()
	e := newEngine(b, 10, search.WithDefaultLimit(20), search.WithHighlightTags("<mark>", "</mark>"))
	ctx := context.Background()
	require.NoError(t, e.IndexMany(ctx, posts(3)))

	res, err := search.NewQuery(e, post(0, ""), "post").Highlight("title").Get(ctx)
	require.NoError(t, err)

	assert.Len(t, res.Hits, 3)
	assert.EqualValues(t, 3, res.EstimatedTotalHits)
	assert.NotNil(t, res.FacetDistribution)
	assert.NotNil(t, res.FacetStats)

	params := b.LastSearch()
	require.NotNil(t, params.Limit)
	assert.EqualValues(t, 20, *params.Limit)
	assert.Equal(t, "<mark>", params.HighlightPreTag)
	assert.Equal(t, "post", params.Query)
}

func TestSearchKeepsExplicitLimitAndSkipsTags(t *testing.T) {
	b := searchtest.New()
	b.SeedIndex("posts", "id")
	e := newEngine(b, 10)

	_, err := search.NewQuery(e, nil, "").Within("posts").Limit(5).Get(context.Background())
	require.NoError(t, err)
	params := b.LastSearch()
	assert.EqualValues(t, 5, *params.Limit)
	assert.Empty(t, params.HighlightPreTag)
}

func TestSearchMissingIndex(t *testing.T) {
	b := searchtest.New()
	_, err := search.NewQuery(newEngine(b, 10), nil, "x").Within("nope").Get(context.Background())
	assert.True(t, search.IsNotFound(err))
}

func TestSearchRequiresIndex(t *testing.T) {
	_, err := search.NewQuery(newEngine(searchtest.New(), 10), nil, "x").Get(context.Background())
	assert.ErrorIs(t, err, search.ErrInvalidArgument)
}

func TestPaginateScenario(t *testing.T) {
	b := searchtest.New()
	b.SeedIndex("posts", "id")
	b.SetHits("posts", 42, search.Document{"id": "u16"})
	e := newEngine(b, 10)

	res, err := search.NewQuery(e, post(0, ""), "").Paginate(context.Background(), 2, 15)
	require.NoError(t, err)
	assert.Equal(t, &search.Pagination{CurrentPage: 2, PerPage: 15, Total: 42, TotalPages: 3, HasMore: true}, res.Pagination())
	assert.EqualValues(t, 15, *b.LastSearch().Offset)
}

func TestEngineSettingsAndStats(t *testing.T) {
	b := searchtest.New()
	e := newEngine(b, 10)
	ctx := context.Background()

	task, err := e.UpdateSettings(ctx, "posts", search.Settings{"distinctAttribute": "slug"})
	require.NoError(t, err)
	assert.Equal(t, search.TaskSucceeded, task.Status)

	rec := post(1, "u1")
	rec.Filterable = []string{"status"}
	_, err = e.SyncSettings(ctx, rec)
	require.NoError(t, err)

	stats, err := e.IndexStats(ctx, "posts")
	require.NoError(t, err)
	assert.Zero(t, stats.NumberOfDocuments)
}

func TestNullEngine(t *testing.T) {
	var e search.Engine = search.NullEngine{}
	ctx := context.Background()

	assert.NoError(t, e.Index(ctx, post(1, "u1")))
	assert.NoError(t, e.IndexMany(ctx, posts(3)))
	assert.NoError(t, e.Remove(ctx, post(1, "u1")))
	assert.NoError(t, e.RemoveMany(ctx, posts(2)))
	assert.NoError(t, e.Flush(ctx, "posts"))

	res, err := search.NewQuery(e, post(0, ""), "anything").Get(ctx)
	require.NoError(t, err)
	assert.Empty(t, res.Hits)
	assert.NotNil(t, res.FacetDistribution)

	task, err := e.SyncSettings(ctx, post(1, "u1"))
	require.NoError(t, err)
	assert.True(t, task.Skipped())

	stats, err := e.IndexStats(ctx, "posts")
	require.NoError(t, err)
	assert.Zero(t, stats.NumberOfDocuments)

	_, err = search.NewQuery(e, nil, "").Where("a", "~", 1).Get(ctx)
	assert.ErrorIs(t, err, search.ErrInvalidOperator)
}

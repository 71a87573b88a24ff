package search

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ncobase/searchsync/metrics"
)

const tracerName = "github.com/ncobase/searchsync/search"

// DefaultSearchLimit is applied to queries that set no limit.
const DefaultSearchLimit = 20

// Engine is the sync facade used by the dispatcher, workers and surfaces.
type Engine interface {
	Index(ctx context.Context, rec Searchable) error
	IndexMany(ctx context.Context, records []Searchable) error
	Remove(ctx context.Context, rec Searchable) error
	RemoveMany(ctx context.Context, records []Searchable) error
	Flush(ctx context.Context, index string) error
	Search(ctx context.Context, q *Query) (*Result, error)
	UpdateSettings(ctx context.Context, index string, settings Settings) (*Task, error)
	IndexStats(ctx context.Context, index string) (*IndexStats, error)
	SyncSettings(ctx context.Context, rec Searchable) (*Task, error)
}

// SyncEngine mirrors records into the search engine through an IndexManager.
type SyncEngine struct {
	manager      *IndexManager
	batcher      *BatchIndexer
	defaultLimit int
	preTag       string
	postTag      string
	tracer       trace.Tracer
}

// EngineOption configures a SyncEngine.
type EngineOption func(*SyncEngine)

// WithDefaultLimit sets the limit used when a query sets none. Zero leaves
// the engine default in place.
func WithDefaultLimit(n int) EngineOption {
	return func(e *SyncEngine) {
		if n > 0 {
			e.defaultLimit = n
		}
	}
}

// WithHighlightTags sets the tags wrapped around highlighted matches.
func WithHighlightTags(pre, post string) EngineOption {
	return func(e *SyncEngine) { e.preTag, e.postTag = pre, post }
}

// WithoutBatching makes IndexMany and RemoveMany issue one bulk write.
func WithoutBatching() EngineOption {
	return func(e *SyncEngine) { e.batcher = nil }
}

// NewSyncEngine creates a SyncEngine.
func NewSyncEngine(manager *IndexManager, opts ...EngineOption) *SyncEngine {
	e := &SyncEngine{
		manager:      manager,
		batcher:      NewBatchIndexer(manager),
		defaultLimit: DefaultSearchLimit,
		preTag:       "<em>",
		postTag:      "</em>",
		tracer:       otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Manager returns the index manager.
func (e *SyncEngine) Manager() *IndexManager { return e.manager }

func (e *SyncEngine) start(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return e.tracer.Start(ctx, "search."+op, trace.WithAttributes(attrs...))
}

func finish(span trace.Span, op string, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
	metrics.RecordSyncOp(op, err)
}

// Index upserts rec, or removes it when it should not be searchable.
func (e *SyncEngine) Index(ctx context.Context, rec Searchable) (err error) {
	if !rec.ShouldBeSearchable() {
		return e.Remove(ctx, rec)
	}
	name := IndexNameOf(rec)
	ctx, span := e.start(ctx, "index", attribute.String("search.index", name))
	defer func() { finish(span, "index", err) }()

	doc, err := BuildDocument(rec)
	if err != nil {
		return err
	}
	h, err := e.manager.GetOrCreateIndex(ctx, name)
	if err != nil {
		return err
	}
	_, err = h.AddDocuments(ctx, []Document{doc})
	return err
}

// IndexMany upserts the records of one index.
func (e *SyncEngine) IndexMany(ctx context.Context, records []Searchable) (err error) {
	if len(records) == 0 {
		return nil
	}
	ctx, span := e.start(ctx, "index_many", attribute.Int("search.records", len(records)))
	defer func() { finish(span, "index_many", err) }()

	if e.batcher != nil {
		return e.batcher.IndexMany(ctx, records)
	}

	name, err := commonIndex(records)
	if err != nil {
		return err
	}
	docs := make([]Document, 0, len(records))
	var stale []string
	for _, rec := range records {
		if !rec.ShouldBeSearchable() {
			stale = append(stale, KeyString(rec.SearchKey()))
			continue
		}
		doc, err := BuildDocument(rec)
		if err != nil {
			return err
		}
		docs = append(docs, doc)
	}
	h, err := e.manager.GetOrCreateIndex(ctx, name)
	if err != nil {
		return err
	}
	if _, err := h.AddDocuments(ctx, docs); err != nil {
		return err
	}
	_, err = h.DeleteDocuments(ctx, stale)
	return err
}

// Remove deletes rec's document. Removing an absent document succeeds.
func (e *SyncEngine) Remove(ctx context.Context, rec Searchable) (err error) {
	name := IndexNameOf(rec)
	ctx, span := e.start(ctx, "remove", attribute.String("search.index", name))
	defer func() { finish(span, "remove", err) }()

	h, err := e.manager.GetOrCreateIndex(ctx, name)
	if err != nil {
		return err
	}
	_, err = h.DeleteDocuments(ctx, []string{KeyString(rec.SearchKey())})
	return err
}

// RemoveMany deletes the documents of records sharing one index.
func (e *SyncEngine) RemoveMany(ctx context.Context, records []Searchable) (err error) {
	if len(records) == 0 {
		return nil
	}
	ctx, span := e.start(ctx, "remove_many", attribute.Int("search.records", len(records)))
	defer func() { finish(span, "remove_many", err) }()

	if e.batcher != nil {
		return e.batcher.RemoveMany(ctx, records)
	}
	name, err := commonIndex(records)
	if err != nil {
		return err
	}
	ids := make([]string, 0, len(records))
	for _, rec := range records {
		ids = append(ids, KeyString(rec.SearchKey()))
	}
	h, err := e.manager.GetOrCreateIndex(ctx, name)
	if err != nil {
		return err
	}
	_, err = h.DeleteDocuments(ctx, ids)
	return err
}

// Flush deletes every document of the index.
func (e *SyncEngine) Flush(ctx context.Context, index string) (err error) {
	ctx, span := e.start(ctx, "flush", attribute.String("search.index", index))
	defer func() { finish(span, "flush", err) }()

	_, err = e.manager.Flush(ctx, index)
	return err
}

// Search runs q against its target index. The index is taken from
// Query.Within, falling back to the bound model.
func (e *SyncEngine) Search(ctx context.Context, q *Query) (res *Result, err error) {
	name := q.IndexName()
	ctx, span := e.start(ctx, "search", attribute.String("search.index", name))
	defer func() { finish(span, "search", err) }()

	if name == "" {
		return nil, fmt.Errorf("%w: query has no target index", ErrInvalidArgument)
	}
	params, err := q.ToSearchParams()
	if err != nil {
		return nil, err
	}
	if params.Limit == nil && e.defaultLimit > 0 {
		n := int64(e.defaultLimit)
		params.Limit = &n
	}
	if len(params.AttributesToHighlight) > 0 {
		params.HighlightPreTag, params.HighlightPostTag = e.preTag, e.postTag
	}

	resp, err := e.manager.Search(ctx, name, params)
	if err != nil {
		return nil, err
	}
	return NewResult(resp, q.Model()), nil
}

// UpdateSettings replaces settings on the index.
func (e *SyncEngine) UpdateSettings(ctx context.Context, index string, settings Settings) (*Task, error) {
	return e.manager.UpdateSettings(ctx, index, settings)
}

// IndexStats returns statistics of the index.
func (e *SyncEngine) IndexStats(ctx context.Context, index string) (*IndexStats, error) {
	return e.manager.GetStats(ctx, index)
}

// SyncSettings pushes the merged settings of rec's index.
func (e *SyncEngine) SyncSettings(ctx context.Context, rec Searchable) (*Task, error) {
	return e.manager.SyncSettingsForModel(ctx, rec)
}

// NullEngine satisfies Engine without an engine. Writes succeed without
// effect and searches return an empty result.
type NullEngine struct{}

// Index does nothing.
func (NullEngine) Index(context.Context, Searchable) error { return nil }

// IndexMany does nothing.
func (NullEngine) IndexMany(context.Context, []Searchable) error { return nil }

// Remove does nothing.
func (NullEngine) Remove(context.Context, Searchable) error { return nil }

// RemoveMany does nothing.
func (NullEngine) RemoveMany(context.Context, []Searchable) error { return nil }

// Flush does nothing.
func (NullEngine) Flush(context.Context, string) error { return nil }

// Search returns an empty result.
func (NullEngine) Search(_ context.Context, q *Query) (*Result, error) {
	if err := q.Err(); err != nil {
		return nil, err
	}
	return NewResult(nil, q.Model()), nil
}

// UpdateSettings returns a skipped task.
func (NullEngine) UpdateSettings(context.Context, string, Settings) (*Task, error) {
	return skippedTask(), nil
}

// IndexStats returns zeroed statistics.
func (NullEngine) IndexStats(context.Context, string) (*IndexStats, error) {
	return &IndexStats{FieldDistribution: map[string]int64{}}, nil
}

// SyncSettings returns a skipped task.
func (NullEngine) SyncSettings(context.Context, Searchable) (*Task, error) {
	return skippedTask(), nil
}

var (
	_ Engine = (*SyncEngine)(nil)
	_ Engine = NullEngine{}
)

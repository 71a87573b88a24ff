// Package searchtest provides an in-memory search.Backend for tests.
package searchtest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ncobase/searchsync/search"
)

// Call records one backend invocation.
type Call struct {
	Method string
	Index  string
	Size   int
}

type index struct {
	info     search.IndexInfo
	docs     map[string]search.Document
	order    []string
	settings search.Settings
}

// Backend is a thread-safe in-memory engine. Writes resolve to tasks with
// the configured outcome, succeeded by default.
type Backend struct {
	mu sync.Mutex

	indexes  map[string]*index
	tasks    map[int64]*search.Task
	nextTask int64

	calls  []Call
	errs   map[string]error
	status search.TaskStatus
	code   string
	msg    string

	hits       map[string][]search.Document
	totals     map[string]int64
	facets     map[string]map[string]map[string]int64
	lastSearch *search.SearchParams
}

// New returns an empty Backend.
func New() *Backend {
	return &Backend{
		indexes: map[string]*index{},
		tasks:   map[int64]*search.Task{},
		errs:    map[string]error{},
		status:  search.TaskSucceeded,
		hits:    map[string][]search.Document{},
		totals:  map[string]int64{},
		facets:  map[string]map[string]map[string]int64{},
	}
}

// SeedIndex creates an index directly, bypassing tasks and call records.
func (b *Backend) SeedIndex(uid, primaryKey string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ensure(uid, primaryKey)
}

// FailNext makes the next call to method return err.
func (b *Backend) FailNext(method string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.errs[method] = err
}

// SetTaskOutcome sets the status of tasks created from now on. Writes of
// tasks that do not succeed are not applied.
func (b *Backend) SetTaskOutcome(status search.TaskStatus, code, message string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.status, b.code, b.msg = status, code, message
}

// SetHits fixes the hits and total returned by searches of uid.
func (b *Backend) SetHits(uid string, total int64, hits ...search.Document) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.hits[uid] = hits
	b.totals[uid] = total
}

// SetFacets fixes the facet distribution returned by searches of uid.
func (b *Backend) SetFacets(uid string, dist map[string]map[string]int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.facets[uid] = dist
}

// Calls returns the recorded calls.
func (b *Backend) Calls() []Call {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Call(nil), b.calls...)
}

// CallsTo returns the recorded calls of one method.
func (b *Backend) CallsTo(method string) []Call {
	var out []Call
	for _, c := range b.Calls() {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

// ResetCalls clears the call log.
func (b *Backend) ResetCalls() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = nil
}

// Documents returns the documents of uid in insertion order.
func (b *Backend) Documents(uid string) []search.Document {
	b.mu.Lock()
	defer b.mu.Unlock()
	idx, ok := b.indexes[uid]
	if !ok {
		return nil
	}
	out := make([]search.Document, 0, len(idx.order))
	for _, id := range idx.order {
		out = append(out, copyDoc(idx.docs[id]))
	}
	return out
}

// LastSearch returns the parameters of the most recent search.
func (b *Backend) LastSearch() *search.SearchParams {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastSearch
}

func (b *Backend) record(method, uid string, size int) error {
	b.calls = append(b.calls, Call{Method: method, Index: uid, Size: size})
	if err, ok := b.errs[method]; ok {
		delete(b.errs, method)
		return err
	}
	return nil
}

func (b *Backend) ensure(uid, primaryKey string) *index {
	idx, ok := b.indexes[uid]
	if !ok {
		now := time.Now().UTC()
		idx = &index{
			info:     search.IndexInfo{UID: uid, PrimaryKey: primaryKey, CreatedAt: now, UpdatedAt: now},
			docs:     map[string]search.Document{},
			settings: search.Settings{},
		}
		b.indexes[uid] = idx
	}
	return idx
}

// enqueue creates a task with the configured outcome and runs apply when
// the task succeeds.
func (b *Backend) enqueue(uid, typ string, apply func() (code, msg string)) *search.Task {
	b.nextTask++
	t := &search.Task{
		UID:        b.nextTask,
		IndexUID:   uid,
		Type:       typ,
		Status:     b.status,
		ErrorCode:  b.code,
		ErrorMsg:   b.msg,
		EnqueuedAt: time.Now().UTC(),
	}
	if t.Status == search.TaskSucceeded {
		if code, msg := apply(); code != "" {
			t.Status, t.ErrorCode, t.ErrorMsg = search.TaskFailed, code, msg
		}
	}
	if t.Status.Terminal() {
		t.FinishedAt = time.Now().UTC()
	}
	b.tasks[t.UID] = t
	out := *t
	return &out
}

func (b *Backend) CreateIndex(_ context.Context, uid, primaryKey string) (*search.Task, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.record("CreateIndex", uid, 0); err != nil {
		return nil, err
	}
	return b.enqueue(uid, "indexCreation", func() (string, string) {
		if _, ok := b.indexes[uid]; ok {
			return "index_already_exists", fmt.Sprintf("Index `%s` already exists.", uid)
		}
		b.ensure(uid, primaryKey)
		return "", ""
	}), nil
}

func (b *Backend) GetIndex(_ context.Context, uid string) (*search.IndexInfo, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.record("GetIndex", uid, 0); err != nil {
		return nil, err
	}
	idx, ok := b.indexes[uid]
	if !ok {
		return nil, fmt.Errorf("index %s: %w", uid, search.ErrIndexNotFound)
	}
	info := idx.info
	return &info, nil
}

func (b *Backend) ListIndexes(context.Context) ([]search.IndexInfo, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.record("ListIndexes", "", 0); err != nil {
		return nil, err
	}
	out := make([]search.IndexInfo, 0, len(b.indexes))
	for _, idx := range b.indexes {
		out = append(out, idx.info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UID < out[j].UID })
	return out, nil
}

func (b *Backend) DeleteIndex(_ context.Context, uid string) (*search.Task, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.record("DeleteIndex", uid, 0); err != nil {
		return nil, err
	}
	return b.enqueue(uid, "indexDeletion", func() (string, string) {
		if _, ok := b.indexes[uid]; !ok {
			return "index_not_found", fmt.Sprintf("Index `%s` not found.", uid)
		}
		delete(b.indexes, uid)
		return "", ""
	}), nil
}

func (b *Backend) AddDocuments(_ context.Context, uid string, docs []search.Document, primaryKey string) (*search.Task, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.record("AddDocuments", uid, len(docs)); err != nil {
		return nil, err
	}
	batch := make([]search.Document, len(docs))
	for i, d := range docs {
		batch[i] = copyDoc(d)
	}
	return b.enqueue(uid, "documentAdditionOrUpdate", func() (string, string) {
		idx := b.ensure(uid, primaryKey)
		pk := idx.info.PrimaryKey
		if pk == "" {
			pk = primaryKey
		}
		for _, d := range batch {
			v, ok := d[pk]
			if !ok {
				return "missing_document_id", fmt.Sprintf("Document does not have a `%s` attribute.", pk)
			}
			id := search.KeyString(v)
			if _, exists := idx.docs[id]; !exists {
				idx.order = append(idx.order, id)
			}
			idx.docs[id] = d
		}
		idx.info.UpdatedAt = time.Now().UTC()
		return "", ""
	}), nil
}

func (b *Backend) DeleteDocuments(_ context.Context, uid string, ids []string) (*search.Task, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.record("DeleteDocuments", uid, len(ids)); err != nil {
		return nil, err
	}
	ids = append([]string(nil), ids...)
	return b.enqueue(uid, "documentDeletion", func() (string, string) {
		idx, ok := b.indexes[uid]
		if !ok {
			return "index_not_found", fmt.Sprintf("Index `%s` not found.", uid)
		}
		for _, id := range ids {
			if _, exists := idx.docs[id]; exists {
				delete(idx.docs, id)
				idx.order = remove(idx.order, id)
			}
		}
		return "", ""
	}), nil
}

func (b *Backend) DeleteAllDocuments(_ context.Context, uid string) (*search.Task, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.record("DeleteAllDocuments", uid, 0); err != nil {
		return nil, err
	}
	return b.enqueue(uid, "documentDeletion", func() (string, string) {
		idx, ok := b.indexes[uid]
		if !ok {
			return "index_not_found", fmt.Sprintf("Index `%s` not found.", uid)
		}
		idx.docs = map[string]search.Document{}
		idx.order = nil
		return "", ""
	}), nil
}

func (b *Backend) UpdateSettings(_ context.Context, uid string, settings search.Settings) (*search.Task, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.record("UpdateSettings", uid, len(settings)); err != nil {
		return nil, err
	}
	settings = search.Merge(settings)
	return b.enqueue(uid, "settingsUpdate", func() (string, string) {
		idx := b.ensure(uid, "")
		idx.settings = search.Merge(idx.settings, settings)
		return "", ""
	}), nil
}

func (b *Backend) GetSettings(_ context.Context, uid string) (search.Settings, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.record("GetSettings", uid, 0); err != nil {
		return nil, err
	}
	idx, ok := b.indexes[uid]
	if !ok {
		return nil, fmt.Errorf("index %s: %w", uid, search.ErrIndexNotFound)
	}
	return search.Merge(idx.settings), nil
}

func (b *Backend) GetStats(_ context.Context, uid string) (*search.IndexStats, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.record("GetStats", uid, 0); err != nil {
		return nil, err
	}
	idx, ok := b.indexes[uid]
	if !ok {
		return nil, fmt.Errorf("index %s: %w", uid, search.ErrIndexNotFound)
	}
	dist := map[string]int64{}
	for _, d := range idx.docs {
		for k := range d {
			dist[k]++
		}
	}
	return &search.IndexStats{NumberOfDocuments: int64(len(idx.docs)), FieldDistribution: dist}, nil
}

// Search returns the hits fixed by SetHits, or every document in insertion
// order. Limit and offset are applied; filters are recorded but ignored.
func (b *Backend) Search(_ context.Context, uid string, params *search.SearchParams) (*search.Response, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.record("Search", uid, 0); err != nil {
		return nil, err
	}
	b.lastSearch = params

	idx, ok := b.indexes[uid]
	if !ok {
		return nil, fmt.Errorf("index %s: %w", uid, search.ErrIndexNotFound)
	}

	hits, fixed := b.hits[uid]
	total := b.totals[uid]
	if !fixed {
		for _, id := range idx.order {
			hits = append(hits, idx.docs[id])
		}
		total = int64(len(hits))
		if params != nil && params.Offset != nil {
			off := min(int(*params.Offset), len(hits))
			hits = hits[off:]
		}
		if params != nil && params.Limit != nil {
			hits = hits[:min(int(*params.Limit), len(hits))]
		}
	}

	out := make([]search.Document, len(hits))
	for i, h := range hits {
		out[i] = copyDoc(h)
	}
	return &search.Response{
		Hits:               out,
		EstimatedTotalHits: total,
		ProcessingTimeMs:   1,
		FacetDistribution:  b.facets[uid],
	}, nil
}

func (b *Backend) GetTask(_ context.Context, taskUID int64) (*search.Task, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.record("GetTask", "", 0); err != nil {
		return nil, err
	}
	t, ok := b.tasks[taskUID]
	if !ok {
		return nil, fmt.Errorf("task %d not found", taskUID)
	}
	out := *t
	return &out, nil
}

func (b *Backend) Health(context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.record("Health", "", 0)
}

func copyDoc(d search.Document) search.Document {
	out := make(search.Document, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

func remove(list []string, s string) []string {
	for i, v := range list {
		if v == s {
			return append(list[:i:i], list[i+1:]...)
		}
	}
	return list
}

var _ search.Backend = (*Backend)(nil)

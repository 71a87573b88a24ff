package searchtest

import (
	"context"
	"sync"

	"github.com/ncobase/searchsync/search"
)

// Record is a configurable search.Searchable.
type Record struct {
	Index      string
	KeyField   string
	Fields     map[string]any
	Hidden     bool
	Filterable []string
	Sortable   []string
	Custom     search.Settings
}

// NewRecord returns a record of index keyed by keyField.
func NewRecord(index, keyField string, fields map[string]any) *Record {
	return &Record{Index: index, KeyField: keyField, Fields: fields}
}

func (r *Record) TableName() string { return r.Index }

func (r *Record) SearchKey() any { return r.Fields[search.KeyFieldOf(r)] }

func (r *Record) SearchKeyField() string { return r.KeyField }

func (r *Record) ToSearchDocument() (search.Document, error) {
	doc := make(search.Document, len(r.Fields))
	for k, v := range r.Fields {
		doc[k] = v
	}
	return doc, nil
}

func (r *Record) ShouldBeSearchable() bool { return !r.Hidden }

func (r *Record) FilterableAttributes() []string { return r.Filterable }

func (r *Record) SortableAttributes() []string { return r.Sortable }

func (r *Record) SearchIndexSettings() search.Settings { return r.Custom }

// Store is an in-memory search.Finder that counts its lookups.
type Store struct {
	mu      sync.Mutex
	records map[string]search.Searchable
	lookups int
	lastKey string
}

// NewStore returns a Store holding records.
func NewStore(records ...search.Searchable) *Store {
	s := &Store{records: map[string]search.Searchable{}}
	for _, r := range records {
		s.records[search.KeyString(r.SearchKey())] = r
	}
	return s
}

// Delete drops a record from the store.
func (s *Store) Delete(key any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, search.KeyString(key))
}

// Lookups returns the number of FindByKeys calls.
func (s *Store) Lookups() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lookups
}

// LastKeyField returns the key field of the latest lookup.
func (s *Store) LastKeyField() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastKey
}

// FindByKeys returns the stored records among keys in reverse key order.
func (s *Store) FindByKeys(_ context.Context, keyField string, keys []any) ([]search.Searchable, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lookups++
	s.lastKey = keyField
	var out []search.Searchable
	for _, k := range keys {
		if r, ok := s.records[search.KeyString(k)]; ok {
			out = append(out, r)
		}
	}
	// Reverse so callers cannot rely on lookup order.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

var _ search.Finder = (*Store)(nil)

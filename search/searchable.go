package search

import (
	"encoding/json"
	"fmt"
)

// DefaultKeyField is the key field used when a record does not declare one.
const DefaultKeyField = "id"

// Searchable is implemented by records that are mirrored into the search index.
type Searchable interface {
	// TableName returns the storage table of the record. It doubles as the
	// index name when the record does not implement IndexNamer.
	TableName() string

	// SearchKey returns the value that identifies the record within its index.
	SearchKey() any

	// SearchKeyField returns the record field that supplies SearchKey.
	SearchKeyField() string

	// ToSearchDocument projects the record into an index document.
	ToSearchDocument() (Document, error)

	// ShouldBeSearchable reports whether the record belongs in the index in
	// its current state. Records that return false are removed.
	ShouldBeSearchable() bool
}

// IndexNamer overrides the index name of a record.
type IndexNamer interface {
	SearchIndexName() string
}

// FilterableAttributer declares the attributes an index can filter on.
type FilterableAttributer interface {
	FilterableAttributes() []string
}

// SortableAttributer declares the attributes an index can sort on.
type SortableAttributer interface {
	SortableAttributes() []string
}

// IndexSettingsProvider contributes custom engine settings for an index.
type IndexSettingsProvider interface {
	SearchIndexSettings() Settings
}

// IndexNameOf resolves the unprefixed index name of a record.
func IndexNameOf(rec Searchable) string {
	if n, ok := rec.(IndexNamer); ok {
		if name := n.SearchIndexName(); name != "" {
			return name
		}
	}
	return rec.TableName()
}

// KeyFieldOf resolves the key field of a record, falling back to DefaultKeyField.
func KeyFieldOf(rec Searchable) string {
	if rec == nil {
		return DefaultKeyField
	}
	if f := rec.SearchKeyField(); f != "" {
		return f
	}
	return DefaultKeyField
}

// Model supplies default capability values for records that embed it.
//
//	type Post struct {
//		search.Model
//		ID    int64  `json:"id"`
//		Title string `json:"title"`
//	}
type Model struct{}

// SearchKeyField returns DefaultKeyField.
func (Model) SearchKeyField() string { return DefaultKeyField }

// ShouldBeSearchable always returns true.
func (Model) ShouldBeSearchable() bool { return true }

// Project converts a struct into a document through its JSON encoding.
// When only is non-empty the document is restricted to those fields.
func Project(v any, only ...string) (Document, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("project %T: %w", v, err)
	}
	doc := Document{}
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("project %T: %w", v, err)
	}
	if len(only) > 0 {
		doc = doc.Only(only...)
	}
	return doc, nil
}

// KeyRef identifies an indexed document without a loaded record. It is used
// to remove documents by key.
type KeyRef struct {
	Index    string
	Key      any
	KeyField string
}

func (r KeyRef) TableName() string { return r.Index }

func (r KeyRef) SearchKey() any { return r.Key }

func (r KeyRef) SearchKeyField() string {
	if r.KeyField == "" {
		return DefaultKeyField
	}
	return r.KeyField
}

func (r KeyRef) ToSearchDocument() (Document, error) {
	return Document{DefaultKeyField: r.Key}, nil
}

func (r KeyRef) ShouldBeSearchable() bool { return false }

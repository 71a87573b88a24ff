package store

import (
	"github.com/ncobase/searchsync/search"
)

// Record is one row of a configured model.
type Record struct {
	spec *ModelSpec
	Row  map[string]any
}

// Spec returns the model of the record.
func (r *Record) Spec() *ModelSpec { return r.spec }

// SearchModelName returns the configured model name.
func (r *Record) SearchModelName() string { return r.spec.Name }

func (r *Record) TableName() string { return r.spec.Table }

func (r *Record) SearchIndexName() string { return r.spec.IndexName() }

func (r *Record) SearchKey() any { return r.Row[r.spec.KeyField] }

func (r *Record) SearchKeyField() string { return r.spec.KeyField }

// ToSearchDocument projects the configured fields minus the hidden ones.
func (r *Record) ToSearchDocument() (search.Document, error) {
	doc := search.Document(r.Row)
	if len(r.spec.Fields) > 0 {
		doc = doc.Only(r.spec.Fields...)
	}
	return doc.Except(r.spec.Hidden...), nil
}

func (r *Record) ShouldBeSearchable() bool {
	if f := r.spec.SoftDeleteField; f != "" && r.Row[f] != nil {
		return false
	}
	f := r.spec.SearchableField
	if f == "" {
		return true
	}
	v := r.Row[f]
	if r.spec.SearchableValue == nil {
		return truthy(v)
	}
	return search.KeyString(v) == search.KeyString(r.spec.SearchableValue)
}

func (r *Record) FilterableAttributes() []string { return r.spec.Filterable }

func (r *Record) SortableAttributes() []string { return r.spec.Sortable }

func (r *Record) SearchIndexSettings() search.Settings { return r.spec.Settings }

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != "" && t != "0" && t != "false"
	case int64:
		return t != 0
	case int:
		return t != 0
	case float64:
		return t != 0
	default:
		return true
	}
}

var (
	_ search.Searchable            = (*Record)(nil)
	_ search.IndexNamer            = (*Record)(nil)
	_ search.FilterableAttributer  = (*Record)(nil)
	_ search.SortableAttributer    = (*Record)(nil)
	_ search.IndexSettingsProvider = (*Record)(nil)
)

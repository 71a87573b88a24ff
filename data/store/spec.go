// Package store reads searchable records from the primary store. Models are
// declared in configuration; every row is exposed as a Record that the
// search layer can index, and repositories load rows back by key for
// hydration and background sync.
package store

import (
	"fmt"
	"regexp"

	"github.com/ncobase/searchsync/data/config"
	"github.com/ncobase/searchsync/search"
)

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// ModelSpec describes how rows of one table or collection map to index
// documents.
type ModelSpec struct {
	Name     string
	Source   string
	Table    string
	Index    string
	KeyField string

	// Fields restricts the projected document; empty projects every column.
	Fields []string
	// Hidden columns are never projected.
	Hidden     []string
	Filterable []string
	Sortable   []string

	// SearchableField and SearchableValue gate indexing on a column value.
	// With a nil value the column must be truthy.
	SearchableField string
	SearchableValue any
	// SoftDeleteField marks rows with a non-null value as removed.
	SoftDeleteField string

	Settings search.Settings
}

// NewModelSpec validates m and builds its spec.
func NewModelSpec(m *config.Model) (*ModelSpec, error) {
	if m == nil {
		return nil, fmt.Errorf("%w: nil model", search.ErrInvalidArgument)
	}
	s := &ModelSpec{
		Name:            m.Name,
		Source:          m.Source,
		Table:           m.Table,
		Index:           m.Index,
		KeyField:        m.KeyField,
		Fields:          m.Fields,
		Hidden:          m.Hidden,
		Filterable:      m.Filterable,
		Sortable:        m.Sortable,
		SearchableField: m.SearchableField,
		SearchableValue: m.SearchableValue,
		SoftDeleteField: m.SoftDeleteField,
		Settings:        search.Settings(m.Settings),
	}
	if s.Source == "" {
		s.Source = config.SourceSQL
	}
	if s.Table == "" {
		s.Table = s.Name
	}
	if s.KeyField == "" {
		s.KeyField = search.DefaultKeyField
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *ModelSpec) validate() error {
	if s.Name == "" {
		return fmt.Errorf("%w: model name is required", search.ErrInvalidArgument)
	}
	if s.Source != config.SourceSQL && s.Source != config.SourceMongo {
		return fmt.Errorf("%w: model %s: unknown source %q", search.ErrInvalidArgument, s.Name, s.Source)
	}
	idents := append([]string{s.Table, s.KeyField}, s.Fields...)
	if s.SearchableField != "" {
		idents = append(idents, s.SearchableField)
	}
	if s.SoftDeleteField != "" {
		idents = append(idents, s.SoftDeleteField)
	}
	for _, id := range idents {
		if !identPattern.MatchString(id) {
			return fmt.Errorf("%w: model %s: invalid identifier %q", search.ErrInvalidArgument, s.Name, id)
		}
	}
	return nil
}

// IndexName returns the unprefixed index of the model.
func (s *ModelSpec) IndexName() string {
	if s.Index != "" {
		return s.Index
	}
	return s.Table
}

// NewRecord wraps a row of the model.
func (s *ModelSpec) NewRecord(row map[string]any) *Record {
	if row == nil {
		row = map[string]any{}
	}
	return &Record{spec: s, Row: row}
}

// KeyRef returns a reference to the document of key.
func (s *ModelSpec) KeyRef(key any) search.KeyRef {
	return search.KeyRef{Index: s.IndexName(), Key: key, KeyField: s.KeyField}
}

// Specs builds the specs of every configured model, keyed by name.
func Specs(cfg *config.Search) (map[string]*ModelSpec, error) {
	out := make(map[string]*ModelSpec)
	if cfg == nil {
		return out, nil
	}
	for _, m := range cfg.Models {
		s, err := NewModelSpec(m)
		if err != nil {
			return nil, err
		}
		if _, dup := out[s.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate model %s", search.ErrInvalidArgument, s.Name)
		}
		out[s.Name] = s
	}
	return out, nil
}

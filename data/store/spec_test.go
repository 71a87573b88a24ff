package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ncobase/searchsync/data/config"
	"github.com/ncobase/searchsync/search"
)

func TestNewModelSpec(t *testing.T) {
	tests := []struct {
		name    string
		model   *config.Model
		wantErr bool
		check   func(t *testing.T, s *ModelSpec)
	}{
		{
			name:  "defaults",
			model: &config.Model{Name: "posts"},
			check: func(t *testing.T, s *ModelSpec) {
				assert.Equal(t, config.SourceSQL, s.Source)
				assert.Equal(t, "posts", s.Table)
				assert.Equal(t, "posts", s.IndexName())
				assert.Equal(t, search.DefaultKeyField, s.KeyField)
			},
		},
		{
			name:  "explicit index",
			model: &config.Model{Name: "articles", Table: "cms.articles", Index: "news", KeyField: "uuid"},
			check: func(t *testing.T, s *ModelSpec) {
				assert.Equal(t, "news", s.IndexName())
				assert.Equal(t, "cms.articles", s.Table)
				ref := s.KeyRef("abc")
				assert.Equal(t, "news", ref.Index)
				assert.Equal(t, "uuid", ref.SearchKeyField())
			},
		},
		{name: "nil", model: nil, wantErr: true},
		{name: "no name", model: &config.Model{}, wantErr: true},
		{name: "unknown source", model: &config.Model{Name: "x", Source: "csv"}, wantErr: true},
		{name: "injected table", model: &config.Model{Name: "x", Table: "x; DROP TABLE y"}, wantErr: true},
		{name: "bad field", model: &config.Model{Name: "x", Fields: []string{"a b"}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewModelSpec(tt.model)
			if tt.wantErr {
				assert.ErrorIs(t, err, search.ErrInvalidArgument)
				return
			}
			require.NoError(t, err)
			tt.check(t, s)
		})
	}
}

func TestSpecs(t *testing.T) {
	specs, err := Specs(&config.Search{Models: []*config.Model{
		{Name: "posts"},
		{Name: "users", KeyField: "uid"},
	}})
	require.NoError(t, err)
	assert.Len(t, specs, 2)
	assert.Equal(t, "uid", specs["users"].KeyField)

	_, err = Specs(&config.Search{Models: []*config.Model{{Name: "posts"}, {Name: "posts"}}})
	assert.Error(t, err)

	specs, err = Specs(nil)
	require.NoError(t, err)
	assert.Empty(t, specs)
}

func TestRecordSearchable(t *testing.T) {
	spec, err := NewModelSpec(&config.Model{
		Name:            "posts",
		KeyField:        "slug",
		Fields:          []string{"slug", "title", "status", "secret"},
		Hidden:          []string{"secret"},
		Filterable:      []string{"status"},
		SearchableField: "status",
		SearchableValue: "published",
		SoftDeleteField: "deleted_at",
		Settings:        map[string]any{"rankingRules": []any{"words"}},
	})
	require.NoError(t, err)

	rec := spec.NewRecord(map[string]any{
		"slug": "hello", "title": "Hello", "status": "published", "secret": "x", "body": "long",
	})
	assert.Equal(t, "hello", rec.SearchKey())
	assert.Equal(t, "posts", search.IndexNameOf(rec))
	assert.True(t, rec.ShouldBeSearchable())

	doc, err := search.BuildDocument(rec)
	require.NoError(t, err)
	assert.Equal(t, search.Document{"id": "hello", "slug": "hello", "title": "Hello", "status": "published"}, doc)

	settings := search.ModelSettings(rec)
	assert.Equal(t, []string{"status"}, settings["filterableAttributes"])
	assert.Contains(t, settings, "rankingRules")

	rec.Row["status"] = "draft"
	assert.False(t, rec.ShouldBeSearchable())

	rec.Row["status"] = "published"
	rec.Row["deleted_at"] = "2024-01-01"
	assert.False(t, rec.ShouldBeSearchable())
}

func TestRecordTruthyGate(t *testing.T) {
	spec, err := NewModelSpec(&config.Model{Name: "users", SearchableField: "active"})
	require.NoError(t, err)

	tests := []struct {
		value any
		want  bool
	}{
		{true, true},
		{int64(1), true},
		{"yes", true},
		{false, false},
		{int64(0), false},
		{"0", false},
		{"", false},
		{nil, false},
	}
	for _, tt := range tests {
		rec := spec.NewRecord(map[string]any{"id": 1, "active": tt.value})
		assert.Equal(t, tt.want, rec.ShouldBeSearchable(), "active=%v", tt.value)
	}
}

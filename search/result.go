package search

import (
	"context"
	"fmt"
)

// Finder loads records from the primary store by key. It is the single
// batched lookup used to hydrate search hits.
type Finder interface {
	FindByKeys(ctx context.Context, keyField string, keys []any) ([]Searchable, error)
}

// FinderFunc adapts a function to Finder.
type FinderFunc func(ctx context.Context, keyField string, keys []any) ([]Searchable, error)

// FindByKeys calls f.
func (f FinderFunc) FindByKeys(ctx context.Context, keyField string, keys []any) ([]Searchable, error) {
	return f(ctx, keyField, keys)
}

// Result is a normalized search response for one query.
type Result struct {
	Hits               []Document                  `json:"hits"`
	EstimatedTotalHits int64                       `json:"estimatedTotalHits"`
	ProcessingTimeMs   int64                       `json:"processingTimeMs"`
	FacetDistribution  map[string]map[string]int64 `json:"facetDistribution"`
	FacetStats         map[string]FacetStat        `json:"facetStats"`

	// Page and PerPage are set by Query.Paginate.
	Page    int `json:"-"`
	PerPage int `json:"-"`

	model Searchable
}

// NewResult wraps an engine response for records shaped like model.
func NewResult(resp *Response, model Searchable) *Result {
	if resp == nil {
		resp = &Response{}
	}
	resp.Normalize()
	return &Result{
		Hits:               resp.Hits,
		EstimatedTotalHits: resp.EstimatedTotalHits,
		ProcessingTimeMs:   resp.ProcessingTimeMs,
		FacetDistribution:  resp.FacetDistribution,
		FacetStats:         resp.FacetStats,
		model:              model,
	}
}

// Len returns the number of hits.
func (r *Result) Len() int { return len(r.Hits) }

// Keys returns the document ids of the hits in hit order.
func (r *Result) Keys() []any {
	keys := make([]any, 0, len(r.Hits))
	for _, hit := range r.Hits {
		if id, ok := hit[PrimaryKey]; ok && id != nil {
			keys = append(keys, id)
		}
	}
	return keys
}

// Models loads the records behind the hits with one finder call and returns
// them in hit order. Hits whose record no longer exists are skipped. Nothing
// is cached; every call queries the finder again.
func (r *Result) Models(ctx context.Context, finder Finder) ([]Searchable, error) {
	keys := r.Keys()
	if len(keys) == 0 {
		return []Searchable{}, nil
	}
	if finder == nil {
		return nil, fmt.Errorf("%w: no finder for hydration", ErrInvalidArgument)
	}

	keyField := DefaultKeyField
	if r.model != nil {
		keyField = KeyFieldOf(r.model)
	}

	records, err := finder.FindByKeys(ctx, keyField, keys)
	if err != nil {
		return nil, fmt.Errorf("hydrate %d hits: %w", len(keys), err)
	}

	byKey := make(map[string]Searchable, len(records))
	for _, rec := range records {
		byKey[KeyString(rec.SearchKey())] = rec
	}

	out := make([]Searchable, 0, len(keys))
	for _, k := range keys {
		if rec, ok := byKey[KeyString(k)]; ok {
			out = append(out, rec)
		}
	}
	return out, nil
}

// Facet returns the value distribution of a facet, empty when absent.
func (r *Result) Facet(name string) map[string]int64 {
	if d, ok := r.FacetDistribution[name]; ok && d != nil {
		return d
	}
	return map[string]int64{}
}

// FacetStat returns the numeric range of a facet.
func (r *Result) FacetStat(name string) (FacetStat, bool) {
	s, ok := r.FacetStats[name]
	return s, ok
}

// Pagination is the page metadata of a paginated result.
type Pagination struct {
	CurrentPage int   `json:"current_page"`
	PerPage     int   `json:"per_page"`
	Total       int64 `json:"total"`
	TotalPages  int64 `json:"total_pages"`
	HasMore     bool  `json:"has_more"`
}

// Pagination returns page metadata, or nil when the result was not
// produced by Query.Paginate.
func (r *Result) Pagination() *Pagination {
	if r.PerPage <= 0 {
		return nil
	}
	per := int64(r.PerPage)
	pages := (r.EstimatedTotalHits + per - 1) / per
	return &Pagination{
		CurrentPage: r.Page,
		PerPage:     r.PerPage,
		Total:       r.EstimatedTotalHits,
		TotalPages:  pages,
		HasMore:     int64(r.Page) < pages,
	}
}

// Map returns the result in the engine's response shape, with pagination
// metadata when present.
func (r *Result) Map() map[string]any {
	m := map[string]any{
		"hits":               r.Hits,
		"estimatedTotalHits": r.EstimatedTotalHits,
		"processingTimeMs":   r.ProcessingTimeMs,
		"facetDistribution":  r.FacetDistribution,
		"facetStats":         r.FacetStats,
	}
	if p := r.Pagination(); p != nil {
		m["pagination"] = p
	}
	return m
}

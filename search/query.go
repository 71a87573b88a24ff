package search

import (
	"context"
	"fmt"
	"strings"
)

// SearchParams is the compiled form of a Query. Unset fields are omitted
// from both the JSON encoding and Map.
type SearchParams struct {
	Query                 string   `json:"q,omitempty"`
	Filter                []string `json:"filter,omitempty"`
	Sort                  []string `json:"sort,omitempty"`
	Facets                []string `json:"facets,omitempty"`
	Limit                 *int64   `json:"limit,omitempty"`
	Offset                *int64   `json:"offset,omitempty"`
	AttributesToRetrieve  []string `json:"attributesToRetrieve,omitempty"`
	AttributesToHighlight []string `json:"attributesToHighlight,omitempty"`
	HighlightPreTag       string   `json:"highlightPreTag,omitempty"`
	HighlightPostTag      string   `json:"highlightPostTag,omitempty"`
	ShowMatchesPosition   bool     `json:"showMatchesPosition,omitempty"`
}

// Map returns the parameters that were explicitly set.
func (p *SearchParams) Map() map[string]any {
	m := map[string]any{}
	if p.Query != "" {
		m["q"] = p.Query
	}
	if len(p.Filter) > 0 {
		m["filter"] = p.Filter
	}
	if len(p.Sort) > 0 {
		m["sort"] = p.Sort
	}
	if len(p.Facets) > 0 {
		m["facets"] = p.Facets
	}
	if p.Limit != nil {
		m["limit"] = *p.Limit
	}
	if p.Offset != nil {
		m["offset"] = *p.Offset
	}
	if len(p.AttributesToRetrieve) > 0 {
		m["attributesToRetrieve"] = p.AttributesToRetrieve
	}
	if len(p.AttributesToHighlight) > 0 {
		m["attributesToHighlight"] = p.AttributesToHighlight
	}
	if p.HighlightPreTag != "" {
		m["highlightPreTag"] = p.HighlightPreTag
	}
	if p.HighlightPostTag != "" {
		m["highlightPostTag"] = p.HighlightPostTag
	}
	if p.ShowMatchesPosition {
		m["showMatchesPosition"] = true
	}
	return m
}

// Query accumulates a search request against one index. Builder methods
// mutate and return the receiver; use Clone to branch a query. The first
// invalid argument is kept and returned by Err, ToSearchParams and Get.
type Query struct {
	engine Engine
	model  Searchable

	index       string
	text        string
	filters     []string
	facets      []string
	sort        []string
	limit       *int64
	offset      *int64
	selected    []string
	highlight   []string
	showMatches bool

	page    int
	perPage int

	err error
}

// NewQuery starts a query for records shaped like model. model may be nil
// when the index is set with Within.
func NewQuery(engine Engine, model Searchable, text string) *Query {
	return &Query{engine: engine, model: model, text: text}
}

// Model returns the record type the query targets.
func (q *Query) Model() Searchable { return q.model }

// Text returns the query string.
func (q *Query) Text() string { return q.text }

// IndexName returns the unprefixed index the query runs against.
func (q *Query) IndexName() string {
	if q.index != "" {
		return q.index
	}
	if q.model != nil {
		return IndexNameOf(q.model)
	}
	return ""
}

// Err returns the first builder error.
func (q *Query) Err() error { return q.err }

func (q *Query) fail(err error) *Query {
	if q.err == nil {
		q.err = err
	}
	return q
}

// Within targets an explicit index instead of the model's index.
func (q *Query) Within(index string) *Query {
	q.index = index
	return q
}

// Search replaces the query string.
func (q *Query) Search(text string) *Query {
	q.text = text
	return q
}

// Where adds a predicate. Where(attr, value) compares with "=" and
// Where(attr, op, value) uses op. Unknown operators fail immediately.
func (q *Query) Where(attribute string, args ...any) *Query {
	var (
		op    = OpEq
		value any
	)
	switch len(args) {
	case 1:
		value = args[0]
	case 2:
		s, ok := args[0].(string)
		if !ok {
			return q.fail(fmt.Errorf("%w: operator for %s must be a string, got %T", ErrInvalidArgument, attribute, args[0]))
		}
		op, value = s, args[1]
	default:
		return q.fail(fmt.Errorf("%w: where %s expects 1 or 2 arguments, got %d", ErrInvalidArgument, attribute, len(args)))
	}
	f, err := CompileFilter(attribute, op, value)
	if err != nil {
		return q.fail(err)
	}
	return q.WhereRaw(f)
}

// WhereIn adds an IN predicate.
func (q *Query) WhereIn(attribute string, values ...any) *Query {
	return q.whereList(attribute, OpIn, values)
}

// WhereNotIn adds a NOT IN predicate.
func (q *Query) WhereNotIn(attribute string, values ...any) *Query {
	return q.whereList(attribute, OpNotIn, values)
}

func (q *Query) whereList(attribute, op string, values []any) *Query {
	var list any = values
	if len(values) == 1 {
		// WhereIn("tag", []string{"a", "b"}) passes the slice itself.
		if _, err := toSlice(values[0]); err == nil {
			if _, isBytes := values[0].([]byte); !isBytes {
				list = values[0]
			}
		}
	}
	f, err := CompileFilter(attribute, op, list)
	if err != nil {
		return q.fail(err)
	}
	return q.WhereRaw(f)
}

// WhereExists requires attribute to be present.
func (q *Query) WhereExists(attribute string) *Query { return q.unary(attribute, OpExists) }

// WhereNotExists requires attribute to be absent.
func (q *Query) WhereNotExists(attribute string) *Query { return q.unary(attribute, OpNotExists) }

// WhereNull requires attribute to be null.
func (q *Query) WhereNull(attribute string) *Query { return q.unary(attribute, OpIsNull) }

// WhereNotNull requires attribute to be non-null.
func (q *Query) WhereNotNull(attribute string) *Query { return q.unary(attribute, OpIsNotNull) }

// WhereEmpty requires attribute to be empty.
func (q *Query) WhereEmpty(attribute string) *Query { return q.unary(attribute, OpIsEmpty) }

// WhereNotEmpty requires attribute to be non-empty.
func (q *Query) WhereNotEmpty(attribute string) *Query { return q.unary(attribute, OpIsNotEmpty) }

func (q *Query) unary(attribute, op string) *Query {
	f, err := CompileFilter(attribute, op, nil)
	if err != nil {
		return q.fail(err)
	}
	return q.WhereRaw(f)
}

// WhereRaw adds a filter expression verbatim.
func (q *Query) WhereRaw(filter string) *Query {
	if filter != "" {
		q.filters = append(q.filters, filter)
	}
	return q
}

// OrWhere adds the predicates built by fn as a single OR group.
func (q *Query) OrWhere(fn func(*Query)) *Query {
	sub := &Query{}
	fn(sub)
	if sub.err != nil {
		return q.fail(sub.err)
	}
	return q.WhereRaw(Or(sub.filters...))
}

// WhereGeoRadius keeps documents within meters of the point.
func (q *Query) WhereGeoRadius(lat, lng, meters float64) *Query {
	return q.WhereRaw(fmt.Sprintf("_geoRadius(%s, %s, %s)", formatFloat(lat), formatFloat(lng), formatFloat(meters)))
}

// WhereGeoBoundingBox keeps documents inside the box given by its top-left
// and bottom-right corners as [lat, lng] pairs.
func (q *Query) WhereGeoBoundingBox(topLeft, bottomRight [2]float64) *Query {
	return q.WhereRaw(fmt.Sprintf("_geoBoundingBox([%s, %s], [%s, %s])",
		formatFloat(topLeft[0]), formatFloat(topLeft[1]),
		formatFloat(bottomRight[0]), formatFloat(bottomRight[1])))
}

// OrderBy sorts by attribute in direction "asc" or "desc".
func (q *Query) OrderBy(attribute, direction string) *Query {
	dir, err := sortDirection(direction)
	if err != nil {
		return q.fail(err)
	}
	q.sort = append(q.sort, attribute+":"+dir)
	return q
}

// OrderByGeo sorts by distance from the point.
func (q *Query) OrderByGeo(lat, lng float64, direction string) *Query {
	dir, err := sortDirection(direction)
	if err != nil {
		return q.fail(err)
	}
	q.sort = append(q.sort, fmt.Sprintf("_geoPoint(%s, %s):%s", formatFloat(lat), formatFloat(lng), dir))
	return q
}

func sortDirection(direction string) (string, error) {
	switch d := strings.ToLower(direction); d {
	case "", "asc":
		return "asc", nil
	case "desc":
		return "desc", nil
	default:
		return "", fmt.Errorf("%w: sort direction %q", ErrInvalidArgument, direction)
	}
}

// Facets requests value distributions for the attributes.
func (q *Query) Facets(attributes ...string) *Query {
	for _, a := range attributes {
		if !contains(q.facets, a) {
			q.facets = append(q.facets, a)
		}
	}
	return q
}

// Limit caps the number of hits.
func (q *Query) Limit(n int) *Query {
	if n < 0 {
		return q.fail(fmt.Errorf("%w: negative limit %d", ErrInvalidArgument, n))
	}
	v := int64(n)
	q.limit = &v
	return q
}

// Offset skips the first n hits.
func (q *Query) Offset(n int) *Query {
	if n < 0 {
		return q.fail(fmt.Errorf("%w: negative offset %d", ErrInvalidArgument, n))
	}
	v := int64(n)
	q.offset = &v
	return q
}

// Select restricts the attributes returned per hit.
func (q *Query) Select(attributes ...string) *Query {
	q.selected = append(q.selected, attributes...)
	return q
}

// Highlight requests highlighting for the attributes.
func (q *Query) Highlight(attributes ...string) *Query {
	q.highlight = append(q.highlight, attributes...)
	return q
}

// ShowMatchesPosition asks the engine to report match positions.
func (q *Query) ShowMatchesPosition(show bool) *Query {
	q.showMatches = show
	return q
}

// Clone returns an independent copy of the query.
func (q *Query) Clone() *Query {
	c := *q
	c.filters = append([]string(nil), q.filters...)
	c.facets = append([]string(nil), q.facets...)
	c.sort = append([]string(nil), q.sort...)
	c.selected = append([]string(nil), q.selected...)
	c.highlight = append([]string(nil), q.highlight...)
	if q.limit != nil {
		v := *q.limit
		c.limit = &v
	}
	if q.offset != nil {
		v := *q.offset
		c.offset = &v
	}
	return &c
}

// ToSearchParams compiles the query, leaving every unset parameter out.
func (q *Query) ToSearchParams() (*SearchParams, error) {
	if q.err != nil {
		return nil, q.err
	}
	p := &SearchParams{
		Query:               q.text,
		ShowMatchesPosition: q.showMatches,
	}
	if len(q.filters) > 0 {
		p.Filter = append([]string(nil), q.filters...)
	}
	if len(q.sort) > 0 {
		p.Sort = append([]string(nil), q.sort...)
	}
	if len(q.facets) > 0 {
		p.Facets = append([]string(nil), q.facets...)
	}
	if len(q.selected) > 0 {
		p.AttributesToRetrieve = append([]string(nil), q.selected...)
	}
	if len(q.highlight) > 0 {
		p.AttributesToHighlight = append([]string(nil), q.highlight...)
	}
	if q.limit != nil {
		v := *q.limit
		p.Limit = &v
	}
	if q.offset != nil {
		v := *q.offset
		p.Offset = &v
	}
	return p, nil
}

// Get runs the query.
func (q *Query) Get(ctx context.Context) (*Result, error) {
	if q.err != nil {
		return nil, q.err
	}
	if q.engine == nil {
		return nil, fmt.Errorf("%w: query has no engine", ErrInvalidArgument)
	}
	return q.engine.Search(ctx, q)
}

// Raw runs the query and returns the response as a plain map.
func (q *Query) Raw(ctx context.Context) (map[string]any, error) {
	res, err := q.Get(ctx)
	if err != nil {
		return nil, err
	}
	return res.Map(), nil
}

// Paginate runs the query for the given 1-based page and attaches
// pagination metadata to the result.
func (q *Query) Paginate(ctx context.Context, page, perPage int) (*Result, error) {
	if perPage < 1 {
		return nil, fmt.Errorf("%w: per page must be positive, got %d", ErrInvalidArgument, perPage)
	}
	if page < 1 {
		page = 1
	}
	q.Limit(perPage).Offset((page - 1) * perPage)
	q.page, q.perPage = page, perPage

	res, err := q.Get(ctx)
	if err != nil {
		return nil, err
	}
	res.Page, res.PerPage = page, perPage
	return res, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

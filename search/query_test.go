package search

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

type capturingEngine struct {
	NullEngine
	got   *Query
	total int64
}

func (e *capturingEngine) Search(_ context.Context, q *Query) (*Result, error) {
	e.got = q
	return NewResult(&Response{EstimatedTotalHits: e.total}, q.Model()), nil
}

func TestWhereCompilation(t *testing.T) {
	q := NewQuery(nil, nil, "").
		Where("status", "published").
		Where("price", ">", 100).
		WhereIn("category", "a", "b")

	params, err := q.ToSearchParams()
	if err != nil {
		t.Fatal(err)
	}
	want := []string{`status = "published"`, "price > 100", `category IN ["a", "b"]`}
	if !reflect.DeepEqual(params.Filter, want) {
		t.Errorf("filters = %q, want %q", params.Filter, want)
	}
}

func TestWhereInAcceptsSlice(t *testing.T) {
	params, err := NewQuery(nil, nil, "").WhereNotIn("id", []int{1, 2}).ToSearchParams()
	if err != nil {
		t.Fatal(err)
	}
	if params.Filter[0] != "id NOT IN [1, 2]" {
		t.Errorf("filter = %q", params.Filter[0])
	}
}

func TestUnaryPredicates(t *testing.T) {
	params, err := NewQuery(nil, nil, "").
		WhereNull("deleted_at").
		WhereNotNull("author").
		WhereExists("_geo").
		WhereNotExists("legacy").
		WhereEmpty("tags").
		WhereNotEmpty("body").
		ToSearchParams()
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		"deleted_at IS NULL", "author IS NOT NULL", "_geo EXISTS",
		"legacy NOT EXISTS", "tags IS EMPTY", "body IS NOT EMPTY",
	}
	if !reflect.DeepEqual(params.Filter, want) {
		t.Errorf("filters = %q", params.Filter)
	}
}

func TestOrWhereGroups(t *testing.T) {
	params, err := NewQuery(nil, nil, "").
		Where("status", "published").
		OrWhere(func(q *Query) {
			q.Where("author", "ann").Where("author", "bob")
		}).
		ToSearchParams()
	if err != nil {
		t.Fatal(err)
	}
	if got := params.Filter[1]; got != `(author = "ann" OR author = "bob")` {
		t.Errorf("group = %q", got)
	}
}

func TestGeoCompilation(t *testing.T) {
	params, err := NewQuery(nil, nil, "").
		WhereGeoRadius(40.7128, -74.0060, 5000).
		WhereGeoBoundingBox([2]float64{45.5, -73.6}, [2]float64{45.4, -73.5}).
		OrderByGeo(40.7128, -74.0060, "asc").
		ToSearchParams()
	if err != nil {
		t.Fatal(err)
	}
	if params.Filter[0] != "_geoRadius(40.7128, -74.006, 5000)" {
		t.Errorf("radius = %q", params.Filter[0])
	}
	if params.Filter[1] != "_geoBoundingBox([45.5, -73.6], [45.4, -73.5])" {
		t.Errorf("box = %q", params.Filter[1])
	}
	if params.Sort[0] != "_geoPoint(40.7128, -74.006):asc" {
		t.Errorf("sort = %q", params.Sort[0])
	}
}

func TestInvalidInputFailsAtConstruction(t *testing.T) {
	tests := []struct {
		name  string
		build func(*Query) *Query
		want  error
	}{
		{"unknown operator", func(q *Query) *Query { return q.Where("title", "LIKE", "x") }, ErrInvalidOperator},
		{"operator not string", func(q *Query) *Query { return q.Where("a", 1, 2) }, ErrInvalidArgument},
		{"too many args", func(q *Query) *Query { return q.Where("a", "=", 1, 2) }, ErrInvalidArgument},
		{"bad direction", func(q *Query) *Query { return q.OrderBy("date", "sideways") }, ErrInvalidArgument},
		{"negative limit", func(q *Query) *Query { return q.Limit(-1) }, ErrInvalidArgument},
		{"bad or group", func(q *Query) *Query {
			return q.OrWhere(func(g *Query) { g.Where("a", "~", 1) })
		}, ErrInvalidOperator},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := &capturingEngine{}
			q := tt.build(NewQuery(engine, nil, "").Within("posts"))
			if !errors.Is(q.Err(), tt.want) {
				t.Fatalf("Err = %v, want %v", q.Err(), tt.want)
			}
			if _, err := q.Get(context.Background()); !errors.Is(err, tt.want) {
				t.Errorf("Get err = %v", err)
			}
			if engine.got != nil {
				t.Error("invalid query reached the engine")
			}
		})
	}
}

func TestParamsAreMinimal(t *testing.T) {
	params, err := NewQuery(nil, nil, "").Limit(10).ToSearchParams()
	if err != nil {
		t.Fatal(err)
	}
	m := params.Map()
	if len(m) != 1 || m["limit"] != int64(10) {
		t.Errorf("params = %v, want only limit", m)
	}
}

func TestScenarioParams(t *testing.T) {
	params, err := NewQuery(nil, nil, "laravel").Where("status", "published").Limit(10).ToSearchParams()
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]any{
		"q":      "laravel",
		"filter": []string{`status = "published"`},
		"limit":  int64(10),
	}
	if got := params.Map(); !reflect.DeepEqual(got, want) {
		t.Errorf("params = %v, want %v", got, want)
	}
}

func TestFullParams(t *testing.T) {
	params, err := NewQuery(nil, nil, "go").
		OrderBy("published_at", "DESC").
		Facets("category", "author", "category").
		Offset(20).
		Select("id", "title").
		Highlight("title").
		ShowMatchesPosition(true).
		ToSearchParams()
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(params.Sort, []string{"published_at:desc"}) {
		t.Errorf("sort = %v", params.Sort)
	}
	if !reflect.DeepEqual(params.Facets, []string{"category", "author"}) {
		t.Errorf("facets = %v", params.Facets)
	}
	if *params.Offset != 20 || params.Limit != nil {
		t.Errorf("offset/limit = %v/%v", params.Offset, params.Limit)
	}
	if !params.ShowMatchesPosition || len(params.AttributesToRetrieve) != 2 || params.AttributesToHighlight[0] != "title" {
		t.Errorf("params = %+v", params)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	base := NewQuery(nil, nil, "x").Where("a", 1).Limit(5)
	clone := base.Clone().Where("b", 2).Limit(50)

	bp, _ := base.ToSearchParams()
	cp, _ := clone.ToSearchParams()
	if len(bp.Filter) != 1 || *bp.Limit != 5 {
		t.Errorf("base mutated: %+v", bp)
	}
	if len(cp.Filter) != 2 || *cp.Limit != 50 {
		t.Errorf("clone = %+v", cp)
	}
}

func TestPaginate(t *testing.T) {
	engine := &capturingEngine{total: 42}
	res, err := NewQuery(engine, nil, "").Within("posts").Paginate(context.Background(), 2, 15)
	if err != nil {
		t.Fatal(err)
	}
	params, _ := engine.got.ToSearchParams()
	if *params.Limit != 15 || *params.Offset != 15 {
		t.Errorf("limit/offset = %d/%d", *params.Limit, *params.Offset)
	}
	want := &Pagination{CurrentPage: 2, PerPage: 15, Total: 42, TotalPages: 3, HasMore: true}
	if got := res.Pagination(); !reflect.DeepEqual(got, want) {
		t.Errorf("pagination = %+v, want %+v", got, want)
	}
}

func TestPaginateBounds(t *testing.T) {
	engine := &capturingEngine{total: 30}
	if _, err := NewQuery(engine, nil, "").Within("posts").Paginate(context.Background(), 1, 0); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("perPage 0: err = %v", err)
	}
	res, err := NewQuery(engine, nil, "").Within("posts").Paginate(context.Background(), 0, 15)
	if err != nil {
		t.Fatal(err)
	}
	p := res.Pagination()
	if p.CurrentPage != 1 || p.TotalPages != 2 || !p.HasMore {
		t.Errorf("pagination = %+v", p)
	}
}

func TestQueryIndexName(t *testing.T) {
	if got := NewQuery(nil, uuidPost{}, "").IndexName(); got != "posts" {
		t.Errorf("model index = %q", got)
	}
	if got := NewQuery(nil, uuidPost{}, "").Within("drafts").IndexName(); got != "drafts" {
		t.Errorf("explicit index = %q", got)
	}
}

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/ncobase/searchsync/data"
	"github.com/ncobase/searchsync/data/config"
	"github.com/ncobase/searchsync/search"
)

// ErrNotFound is returned by Find when no row has the key.
var ErrNotFound = errors.New("record not found")

// Chunker iterates a model in key order, size rows at a time.
type Chunker interface {
	Chunk(ctx context.Context, size int, fn func([]search.Searchable) error) error
}

// Repository loads the records of one model.
type Repository interface {
	search.Finder
	Chunker
	Spec() *ModelSpec
	Find(ctx context.Context, key any) (*Record, error)
}

// Open returns the repository of spec on the connections held by d.
func Open(d *data.Data, spec *ModelSpec) (Repository, error) {
	switch spec.Source {
	case config.SourceMongo:
		db := d.Mongo()
		if db == nil {
			return nil, fmt.Errorf("model %s: mongodb is not configured", spec.Name)
		}
		return NewMongoRepository(db, spec), nil
	default:
		db := d.DB()
		if db == nil {
			return nil, fmt.Errorf("model %s: database is not configured", spec.Name)
		}
		return NewSQLRepository(db, d.Driver(), spec), nil
	}
}

// OpenAll opens a repository for every spec.
func OpenAll(d *data.Data, specs map[string]*ModelSpec) (map[string]Repository, error) {
	out := make(map[string]Repository, len(specs))
	for name, spec := range specs {
		repo, err := Open(d, spec)
		if err != nil {
			return nil, err
		}
		out[name] = repo
	}
	return out, nil
}

// normalizeKey turns engine-decoded keys back into store values. Integral
// JSON numbers become int64.
func normalizeKey(v any) any {
	switch k := v.(type) {
	case float64:
		if k == math.Trunc(k) && math.Abs(k) < 1e15 {
			return int64(k)
		}
		return k
	case json.Number:
		if i, err := k.Int64(); err == nil {
			return i
		}
		return k.String()
	case int:
		return int64(k)
	case int32:
		return int64(k)
	default:
		return v
	}
}

func findOne(ctx context.Context, f search.Finder, spec *ModelSpec, key any) (*Record, error) {
	recs, err := f.FindByKeys(ctx, spec.KeyField, []any{key})
	if err != nil {
		return nil, err
	}
	want := search.KeyString(key)
	for _, rec := range recs {
		if r, ok := rec.(*Record); ok && search.KeyString(r.SearchKey()) == want {
			return r, nil
		}
	}
	return nil, fmt.Errorf("%w: %s %s=%s", ErrNotFound, spec.Name, spec.KeyField, strconv.Quote(want))
}

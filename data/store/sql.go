package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/ncobase/searchsync/data"
	"github.com/ncobase/searchsync/search"
)

// SQLRepository reads a model from a database/sql connection.
type SQLRepository struct {
	db      *sql.DB
	dialect string
	spec    *ModelSpec
}

// NewSQLRepository creates a repository. dialect is the registered driver
// name and selects the placeholder style.
func NewSQLRepository(db *sql.DB, dialect string, spec *ModelSpec) *SQLRepository {
	return &SQLRepository{db: db, dialect: dialect, spec: spec}
}

func (r *SQLRepository) Spec() *ModelSpec { return r.spec }

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// conn returns the transaction carried by ctx, if any, so reads inside
// WithTx see uncommitted rows.
func (r *SQLRepository) conn(ctx context.Context) queryer {
	if tx, err := data.GetTx(ctx); err == nil {
		return tx
	}
	return r.db
}

func (r *SQLRepository) placeholder(n int) string {
	if r.dialect == "postgres" {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

func (r *SQLRepository) selectClause() string {
	cols := "*"
	if len(r.spec.Fields) > 0 {
		fields := append([]string{}, r.spec.Fields...)
		if !contains(fields, r.spec.KeyField) {
			fields = append([]string{r.spec.KeyField}, fields...)
		}
		for _, f := range []string{r.spec.SearchableField, r.spec.SoftDeleteField} {
			if f != "" && !contains(fields, f) {
				fields = append(fields, f)
			}
		}
		cols = strings.Join(fields, ", ")
	}
	return "SELECT " + cols + " FROM " + r.spec.Table
}

// FindByKeys loads the rows whose keyField is among keys in one query.
func (r *SQLRepository) FindByKeys(ctx context.Context, keyField string, keys []any) ([]search.Searchable, error) {
	if len(keys) == 0 {
		return []search.Searchable{}, nil
	}
	if keyField == "" {
		keyField = r.spec.KeyField
	}
	if !identPattern.MatchString(keyField) {
		return nil, fmt.Errorf("%w: invalid key field %q", search.ErrInvalidArgument, keyField)
	}

	marks := make([]string, len(keys))
	args := make([]any, len(keys))
	for i, k := range keys {
		marks[i] = r.placeholder(i + 1)
		args[i] = normalizeKey(k)
	}
	query := r.selectClause() + " WHERE " + keyField + " IN (" + strings.Join(marks, ", ") + ")"

	rows, err := r.conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find %s by %s: %w", r.spec.Name, keyField, err)
	}
	return r.collect(rows)
}

// Find loads one row by the model key.
func (r *SQLRepository) Find(ctx context.Context, key any) (*Record, error) {
	return findOne(ctx, r, r.spec, key)
}

// Chunk walks the table in key order with keyset pagination.
func (r *SQLRepository) Chunk(ctx context.Context, size int, fn func([]search.Searchable) error) error {
	if size <= 0 {
		return fmt.Errorf("%w: chunk size must be positive", search.ErrInvalidArgument)
	}
	key := r.spec.KeyField
	var last any
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		var (
			query string
			args  []any
		)
		if last == nil {
			query = fmt.Sprintf("%s ORDER BY %s LIMIT %d", r.selectClause(), key, size)
		} else {
			query = fmt.Sprintf("%s WHERE %s > %s ORDER BY %s LIMIT %d", r.selectClause(), key, r.placeholder(1), key, size)
			args = []any{last}
		}

		rows, err := r.conn(ctx).QueryContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("chunk %s: %w", r.spec.Name, err)
		}
		recs, err := r.collect(rows)
		if err != nil {
			return err
		}
		if len(recs) == 0 {
			return nil
		}
		if err := fn(recs); err != nil {
			return err
		}
		if len(recs) < size {
			return nil
		}
		last = recs[len(recs)-1].SearchKey()
	}
}

func (r *SQLRepository) collect(rows *sql.Rows) ([]search.Searchable, error) {
	defer rows.Close()
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	out := []search.Searchable{}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan %s: %w", r.spec.Name, err)
		}
		row := make(map[string]any, len(cols))
		for i, c := range cols {
			if b, ok := values[i].([]byte); ok {
				row[c] = string(b)
				continue
			}
			row[c] = values[i]
		}
		out = append(out, r.spec.NewRecord(row))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", r.spec.Name, err)
	}
	return out, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

var _ Repository = (*SQLRepository)(nil)

package search

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// PrimaryKey is the fixed primary key field of every index.
const PrimaryKey = "id"

// Document is the engine-stored projection of a record.
type Document map[string]any

// Only returns a copy holding only the given fields.
func (d Document) Only(fields ...string) Document {
	out := make(Document, len(fields))
	for _, f := range fields {
		if v, ok := d[f]; ok {
			out[f] = v
		}
	}
	return out
}

// Except returns a copy without the given fields.
func (d Document) Except(fields ...string) Document {
	skip := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		skip[f] = struct{}{}
	}
	out := make(Document, len(d))
	for k, v := range d {
		if _, ok := skip[k]; !ok {
			out[k] = v
		}
	}
	return out
}

// ID returns the primary key value of the document.
func (d Document) ID() any {
	return d[PrimaryKey]
}

// BuildDocument projects rec into an index document whose id field always
// holds rec's search key, whatever field the record is keyed by.
func BuildDocument(rec Searchable) (Document, error) {
	src, err := rec.ToSearchDocument()
	if err != nil {
		return nil, fmt.Errorf("build document for %s: %w", IndexNameOf(rec), err)
	}
	doc := make(Document, len(src)+1)
	for k, v := range src {
		doc[k] = v
	}
	doc[PrimaryKey] = rec.SearchKey()
	return doc, nil
}

// KeyString normalizes a key value to its canonical string form so keys
// coming from the engine, the primary store and callers compare equal.
func KeyString(v any) string {
	switch k := v.(type) {
	case nil:
		return ""
	case string:
		return k
	case []byte:
		return string(k)
	case int:
		return strconv.Itoa(k)
	case int32:
		return strconv.FormatInt(int64(k), 10)
	case int64:
		return strconv.FormatInt(k, 10)
	case uint:
		return strconv.FormatUint(uint64(k), 10)
	case uint32:
		return strconv.FormatUint(uint64(k), 10)
	case uint64:
		return strconv.FormatUint(k, 10)
	case float64:
		if k == math.Trunc(k) && math.Abs(k) < 1e15 {
			return strconv.FormatInt(int64(k), 10)
		}
		return strconv.FormatFloat(k, 'f', -1, 64)
	case float32:
		return KeyString(float64(k))
	case json.Number:
		return k.String()
	case fmt.Stringer:
		return k.String()
	default:
		return fmt.Sprint(k)
	}
}

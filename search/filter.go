package search

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// And joins filters with AND inside parentheses.
func And(filters ...string) string {
	return group(" AND ", filters)
}

// Or joins filters with OR inside parentheses.
func Or(filters ...string) string {
	return group(" OR ", filters)
}

// Not negates a filter.
func Not(filter string) string {
	return "NOT (" + filter + ")"
}

func group(sep string, filters []string) string {
	parts := make([]string, 0, len(filters))
	for _, f := range filters {
		if f != "" {
			parts = append(parts, f)
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return "(" + strings.Join(parts, sep) + ")"
}

// Filter operators understood by CompileFilter.
const (
	OpEq         = "="
	OpNe         = "!="
	OpGt         = ">"
	OpGte        = ">="
	OpLt         = "<"
	OpLte        = "<="
	OpIn         = "IN"
	OpNotIn      = "NOT IN"
	OpExists     = "EXISTS"
	OpNotExists  = "NOT EXISTS"
	OpIsNull     = "IS NULL"
	OpIsNotNull  = "IS NOT NULL"
	OpIsEmpty    = "IS EMPTY"
	OpIsNotEmpty = "IS NOT EMPTY"
)

var comparisonOps = map[string]struct{}{
	OpEq: {}, OpNe: {}, OpGt: {}, OpGte: {}, OpLt: {}, OpLte: {},
}

var unaryOps = map[string]struct{}{
	OpExists: {}, OpNotExists: {}, OpIsNull: {}, OpIsNotNull: {}, OpIsEmpty: {}, OpIsNotEmpty: {},
}

// CompileFilter renders a single predicate in engine filter syntax.
func CompileFilter(attribute, operator string, value any) (string, error) {
	if attribute == "" {
		return "", fmt.Errorf("%w: empty filter attribute", ErrInvalidArgument)
	}
	op := strings.ToUpper(strings.Join(strings.Fields(operator), " "))

	if _, ok := comparisonOps[op]; ok {
		return attribute + " " + op + " " + FormatValue(value), nil
	}
	if _, ok := unaryOps[op]; ok {
		return attribute + " " + op, nil
	}
	if op == OpIn || op == OpNotIn {
		values, err := toSlice(value)
		if err != nil {
			return "", err
		}
		formatted := make([]string, len(values))
		for i, v := range values {
			formatted[i] = FormatValue(v)
		}
		return attribute + " " + op + " [" + strings.Join(formatted, ", ") + "]", nil
	}
	return "", fmt.Errorf("%w %q on %s", ErrInvalidOperator, operator, attribute)
}

// FormatValue renders a filter value. Strings are quoted with embedded
// quotes and backslashes escaped, booleans are bare.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case string:
		return quote(val)
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return formatFloat(val)
	case float32:
		return formatFloat(float64(val))
	case json.Number:
		return val.String()
	case time.Time:
		return strconv.FormatInt(val.Unix(), 10)
	case fmt.Stringer:
		return quote(val.String())
	default:
		return fmt.Sprint(val)
	}
}

func quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func toSlice(value any) ([]any, error) {
	if vs, ok := value.([]any); ok {
		return vs, nil
	}
	rv := reflect.ValueOf(value)
	if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return nil, fmt.Errorf("%w: IN expects a list, got %T", ErrInvalidArgument, value)
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, nil
}

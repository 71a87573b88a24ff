package search

import "sort"

// Settings holds engine index settings keyed by the engine's setting names,
// e.g. "filterableAttributes" or "pagination".
type Settings map[string]any

// Setting keys written by the settings merge.
const (
	SettingFilterableAttributes = "filterableAttributes"
	SettingSortableAttributes   = "sortableAttributes"
)

// Merge returns a new Settings with each source applied in order. Later
// sources win on key collision and nested maps are merged recursively.
func Merge(sources ...Settings) Settings {
	out := Settings{}
	for _, src := range sources {
		mergeInto(out, src)
	}
	return out
}

func mergeInto(dst, src map[string]any) {
	for k, v := range src {
		if sub, ok := asMap(v); ok {
			if cur, ok := asMap(dst[k]); ok {
				merged := make(map[string]any, len(cur)+len(sub))
				mergeInto(merged, cur)
				mergeInto(merged, sub)
				dst[k] = merged
				continue
			}
			cp := make(map[string]any, len(sub))
			mergeInto(cp, sub)
			dst[k] = cp
			continue
		}
		dst[k] = v
	}
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case Settings:
		return m, true
	case map[any]any:
		// YAML decoders produce these for nested settings.
		out := make(map[string]any, len(m))
		for k, val := range m {
			if ks, ok := k.(string); ok {
				out[ks] = val
			}
		}
		return out, true
	}
	return nil, false
}

// Keys returns the top-level setting names in sorted order.
func (s Settings) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ModelSettings collects the settings a record declares: filterable and
// sortable attributes when non-empty, then its custom settings.
func ModelSettings(rec Searchable) Settings {
	declared := Settings{}
	if f, ok := rec.(FilterableAttributer); ok {
		if attrs := f.FilterableAttributes(); len(attrs) > 0 {
			declared[SettingFilterableAttributes] = attrs
		}
	}
	if s, ok := rec.(SortableAttributer); ok {
		if attrs := s.SortableAttributes(); len(attrs) > 0 {
			declared[SettingSortableAttributes] = attrs
		}
	}
	var custom Settings
	if p, ok := rec.(IndexSettingsProvider); ok {
		custom = p.SearchIndexSettings()
	}
	return Merge(declared, custom)
}

package extract

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Rows turns one section value into CSV cells, one slice per output row.
// Missing values still produce a blank row so every document appears.
func Rows(v any, cols []string) [][]string {
	switch val := v.(type) {
	case nil:
		return [][]string{make([]string, len(cols))}
	case []any:
		if len(val) == 0 {
			return [][]string{make([]string, len(cols))}
		}
		out := make([][]string, 0, len(val))
		for _, item := range val {
			out = append(out, itemRow(item, cols))
		}
		return out
	case map[string]any:
		return [][]string{mapRow(val, cols)}
	default:
		row := make([]string, len(cols))
		if len(cols) > 0 {
			row[0] = cell(val)
		}
		return [][]string{row}
	}
}

func itemRow(item any, cols []string) []string {
	row := make([]string, len(cols))
	switch it := item.(type) {
	case map[string]any:
		return mapRow(it, cols)
	case []any:
		for i := 0; i < len(it) && i < len(cols); i++ {
			row[i] = cell(it[i])
		}
	default:
		if len(cols) > 0 {
			row[0] = cell(it)
		}
	}
	return row
}

// mapRow flattens nested objects to dotted keys, then matches columns
// exactly before falling back to a case-insensitive match.
func mapRow(m map[string]any, cols []string) []string {
	flat := map[string]any{}
	flatten("", m, flat)
	lower := make(map[string]string, len(flat))
	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if _, ok := lower[strings.ToLower(k)]; !ok {
			lower[strings.ToLower(k)] = k
		}
	}
	row := make([]string, len(cols))
	for i, c := range cols {
		if v, ok := flat[c]; ok {
			row[i] = cell(v)
			continue
		}
		if k, ok := lower[strings.ToLower(c)]; ok {
			row[i] = cell(flat[k])
		}
	}
	return row
}

func flatten(prefix string, m map[string]any, out map[string]any) {
	for k, v := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if nested, ok := v.(map[string]any); ok {
			flatten(key, nested, out)
			continue
		}
		out[key] = v
	}
}

func cell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case json.Number:
		return x.String()
	case []any:
		parts := make([]string, 0, len(x))
		for _, p := range x {
			if s := cell(p); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, "; ")
	case map[string]any:
		b, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(b)
	default:
		return fmt.Sprint(x)
	}
}

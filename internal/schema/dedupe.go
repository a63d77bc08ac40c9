package schema

import "encoding/json"

// Dedupe drops repeated items, keeping first occurrences. Items are compared
// by their JSON encoding so equal maps and lists collapse too.
func Dedupe(items []any) []any {
	seen := make(map[string]struct{}, len(items))
	out := make([]any, 0, len(items))
	for _, it := range items {
		b, err := json.Marshal(it)
		if err != nil {
			out = append(out, it)
			continue
		}
		if _, ok := seen[string(b)]; ok {
			continue
		}
		seen[string(b)] = struct{}{}
		out = append(out, it)
	}
	return out
}

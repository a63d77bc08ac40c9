package providers

import "strings"

// ProviderRef is one entry of a "name[:variant]" provider list.
type ProviderRef struct {
	Raw     string
	Name    string
	Variant string
}

func (r ProviderRef) String() string {
	if r.Variant == "" {
		return r.Name
	}
	return r.Name + ":" + r.Variant
}

// ParseProviderList splits "a|b:variant|c" into refs. An empty list yields mock.
func ParseProviderList(raw string) []ProviderRef {
	parts := strings.Split(raw, "|")
	out := make([]ProviderRef, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		ref := ProviderRef{Raw: p}
		if name, variant, ok := strings.Cut(p, ":"); ok {
			ref.Name = strings.ToLower(strings.TrimSpace(name))
			ref.Variant = strings.TrimSpace(variant)
		} else {
			ref.Name = strings.ToLower(p)
		}
		out = append(out, ref)
	}
	if len(out) == 0 {
		out = append(out, ProviderRef{Raw: "mock", Name: "mock"})
	}
	return out
}

package catalog

import "strings"

// LabelResolver turns technical header keys into display labels by walking an
// ordered list of lookup tables. The first table that knows a key wins; an
// exact match in any table beats a case-insensitive one.
type LabelResolver struct {
	tables []map[string]string
	folded []map[string]string
}

func NewLabelResolver(tables ...map[string]string) *LabelResolver {
	r := &LabelResolver{}
	for _, t := range tables {
		if len(t) == 0 {
			continue
		}
		folded := make(map[string]string, len(t))
		for k, v := range t {
			folded[strings.ToLower(k)] = v
		}
		r.tables = append(r.tables, t)
		r.folded = append(r.folded, folded)
	}
	return r
}

// Resolve returns the label for key, or key itself when no table knows it.
func (r *LabelResolver) Resolve(key string) string {
	if r == nil {
		return key
	}
	for _, t := range r.tables {
		if label, ok := t[key]; ok && label != "" {
			return label
		}
	}
	lower := strings.ToLower(key)
	for _, t := range r.folded {
		if label, ok := t[lower]; ok && label != "" {
			return label
		}
	}
	return key
}

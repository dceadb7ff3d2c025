package selection

// Set is an ordered set of selected node ids. Values are never mutated in
// place; every change produces a new Set.
type Set struct {
	ids []string
}

func NewSet(ids ...string) Set {
	var s Set
	for _, id := range ids {
		s = s.with(id)
	}
	return s
}

func (s Set) Has(id string) bool {
	for _, v := range s.ids {
		if v == id {
			return true
		}
	}
	return false
}

func (s Set) Len() int {
	return len(s.ids)
}

func (s Set) IsEmpty() bool {
	return len(s.ids) == 0
}

// IDs returns a copy of the selected ids in insertion order.
func (s Set) IDs() []string {
	out := make([]string, len(s.ids))
	copy(out, s.ids)
	return out
}

func (s Set) with(id string) Set {
	if id == "" || s.Has(id) {
		return s
	}
	ids := make([]string, len(s.ids), len(s.ids)+1)
	copy(ids, s.ids)
	return Set{ids: append(ids, id)}
}

func (s Set) without(remove ...string) Set {
	if len(remove) == 0 || len(s.ids) == 0 {
		return s
	}
	drop := make(map[string]struct{}, len(remove))
	for _, id := range remove {
		drop[id] = struct{}{}
	}
	ids := make([]string, 0, len(s.ids))
	for _, id := range s.ids {
		if _, ok := drop[id]; !ok {
			ids = append(ids, id)
		}
	}
	return Set{ids: ids}
}

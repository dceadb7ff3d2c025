package selection

import "github.com/frahmantamala/access-audit-reports/internal/catalog"

// UIState is the checkbox view of a selection. It holds no reference back to
// the controller.
type UIState struct {
	Category      string      `json:"category"`
	Nodes         []NodeState `json:"nodes"`
	Selected      []string    `json:"selected"`
	CompareActive bool        `json:"compare_active"`
}

type NodeState struct {
	ID       string      `json:"id"`
	Label    string      `json:"label"`
	Checked  bool        `json:"checked"`
	Partial  bool        `json:"partial,omitempty"`
	Pseudo   bool        `json:"pseudo,omitempty"`
	Children []NodeState `json:"children,omitempty"`
}

// Render derives the UI state of cat for the selection s.
func Render(cat *catalog.Category, s Set) UIState {
	state := UIState{
		Category: cat.ID,
		Nodes:    make([]NodeState, 0, len(cat.Nodes)),
		Selected: s.IDs(),
	}

	for _, n := range cat.Nodes {
		ns := NodeState{ID: n.ID, Label: n.Label, Checked: s.Has(n.ID), Pseudo: n.Pseudo}
		checkedChildren := 0
		for _, child := range n.Children {
			checked := s.Has(child.ID)
			if checked {
				checkedChildren++
			}
			ns.Children = append(ns.Children, NodeState{ID: child.ID, Label: child.Label, Checked: checked})
		}
		ns.Partial = ns.Checked && checkedChildren > 0 && checkedChildren < len(n.Children)
		if n.Pseudo && ns.Checked {
			state.CompareActive = true
		}
		state.Nodes = append(state.Nodes, ns)
	}
	return state
}

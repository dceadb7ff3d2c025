package combiner

import (
	"github.com/frahmantamala/access-audit-reports/internal/report"
)

// Entity is one identity picked in the compare sub-flow.
type Entity struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (e Entity) matches(r CombinedRow) bool {
	if e.ID != "" {
		return r.IdentityID == e.ID
	}
	return e.Name != "" && r.IdentityName == e.Name
}

func (e Entity) key() string {
	if e.ID != "" {
		return e.ID
	}
	return e.Name
}

func (e Entity) label() string {
	if e.Name != "" {
		return e.Name
	}
	return e.ID
}

// Compare builds an assignment matrix for the selected entities: one row per
// (assignment, assignment type) held by any of them, one Yes/No column per entity.
// Rows keep the order in which assignments first appear.
func Compare(rows []CombinedRow, entities []Entity) *report.Model {
	if len(entities) == 0 {
		return report.Placeholder(report.StatusEmpty, report.EmptyResultMessage)
	}

	type key struct{ entity, kind string }
	var order []key
	held := make(map[key][]bool)

	for _, r := range rows {
		for i, e := range entities {
			if !e.matches(r) {
				continue
			}
			k := key{entity: r.EntityName, kind: r.AssignmentType}
			flags, ok := held[k]
			if !ok {
				flags = make([]bool, len(entities))
				order = append(order, k)
			}
			flags[i] = true
			held[k] = flags
		}
	}

	if len(order) == 0 {
		return report.Placeholder(report.StatusEmpty, report.EmptyResultMessage)
	}

	headers := []report.Header{
		{Label: "Assigned Permission", FieldKey: "entity_name"},
		{Label: "Assignment Type", FieldKey: "assignment_type"},
	}
	for _, e := range entities {
		headers = append(headers, report.Header{Label: e.label(), FieldKey: "entity:" + e.key()})
	}

	out := make([]report.Row, len(order))
	for i, k := range order {
		values := []string{k.entity, k.kind}
		for _, has := range held[k] {
			if has {
				values = append(values, "Yes")
			} else {
				values = append(values, "No")
			}
		}
		out[i] = tableRow(i, headers, values)
	}
	return report.NewTable(headers, out)
}

package combiner

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/frahmantamala/access-audit-reports/internal/report"
)

const (
	AssignmentPermissionSet      = "Permission Set"
	AssignmentPermissionSetGroup = "Permission Set Group"
)

// CombinedRow is one (identity, assignment) pair.
type CombinedRow struct {
	IdentityName   string `json:"identity_name"`
	IdentityEmail  string `json:"identity_email"`
	IdentityID     string `json:"identity_id"`
	EntityName     string `json:"entity_name"`
	AssignmentType string `json:"assignment_type"`
	Profile        string `json:"profile"`
	IsActive       string `json:"is_active"`
}

// Markers lists, per column role, the lower-case substrings that identify a
// header key. Roles are claimed in a fixed order and each role takes the first
// unclaimed header that matches, so one column never fills two roles.
type Markers struct {
	EntityName    []string
	IdentityEmail []string
	IdentityID    []string
	IdentityName  []string
	Profile       []string
	IsActive      []string
}

// Source describes one input dataset of the combiner.
type Source struct {
	AssignmentType string
	Markers        Markers
}

var identityMarkers = Markers{
	IdentityEmail: []string{"email"},
	IdentityID:    []string{"assigneeid", "assignee.id", "userid", "user.id"},
	IdentityName:  []string{"assignee.name", "username", "user.name"},
	Profile:       []string{"profile"},
	IsActive:      []string{"isactive", "active"},
}

var (
	DirectSource = Source{
		AssignmentType: AssignmentPermissionSet,
		Markers:        withEntity(identityMarkers, "permissionset.name", "permissionset.label"),
	}
	GroupSource = Source{
		AssignmentType: AssignmentPermissionSetGroup,
		Markers:        withEntity(identityMarkers, "permissionsetgroup.developername", "permissionsetgroup.masterlabel", "permissionsetgroup.name"),
	}
)

// SourceFor returns the built-in source matching an assignment type tag.
func SourceFor(assignmentType string) (Source, bool) {
	switch assignmentType {
	case AssignmentPermissionSet:
		return DirectSource, true
	case AssignmentPermissionSetGroup:
		return GroupSource, true
	}
	return Source{}, false
}

func withEntity(m Markers, entity ...string) Markers {
	m.EntityName = entity
	return m
}

var CombinedHeaders = []report.Header{
	{Label: "User Name", FieldKey: "identity_name"},
	{Label: "Email", FieldKey: "identity_email"},
	{Label: "User ID", FieldKey: "identity_id"},
	{Label: "Assigned Permission", FieldKey: "entity_name"},
	{Label: "Assignment Type", FieldKey: "assignment_type"},
	{Label: "Profile", FieldKey: "profile"},
	{Label: "Active", FieldKey: "is_active"},
}

// Input pairs a normalized model with the source it came from.
type Input struct {
	Model  *report.Model
	Source Source
}

type Combiner struct {
	logger *slog.Logger
}

func NewCombiner(logger *slog.Logger) *Combiner {
	return &Combiner{logger: logger}
}

// Combine merges direct and group-based assignments into one table.
func (c *Combiner) Combine(direct, group *report.Model) *report.Model {
	return c.CombineSources(
		Input{Model: direct, Source: DirectSource},
		Input{Model: group, Source: GroupSource},
	)
}

// CombineSources concatenates the extracted rows of every input in order.
// Duplicates are kept: each (identity, assignment) pair is its own row.
func (c *Combiner) CombineSources(inputs ...Input) *report.Model {
	var rows []CombinedRow
	for _, in := range inputs {
		rows = append(rows, c.Extract(in.Model, in.Source)...)
	}
	return ToModel(rows)
}

// Extract pulls the fixed combined shape out of a model. Placeholder models
// contribute nothing and rows without an entity name are skipped.
func (c *Combiner) Extract(m *report.Model, src Source) []CombinedRow {
	if m == nil || m.IsPlaceholder() {
		return nil
	}

	var tables []report.Section
	switch m.Kind {
	case report.KindSectioned:
		tables = m.Sections
	default:
		tables = []report.Section{{Headers: m.Headers, Rows: m.Rows}}
	}

	var out []CombinedRow
	for _, t := range tables {
		cols := detectColumns(t.Headers, src.Markers)
		if cols.entity < 0 {
			c.logger.Warn("combiner: no entity column found",
				"assignment_type", src.AssignmentType,
				"section", t.Title)
			continue
		}

		skipped := 0
		for _, row := range t.Rows {
			entity := strings.TrimSpace(cellAt(row, cols.entity))
			if entity == "" {
				skipped++
				continue
			}
			out = append(out, CombinedRow{
				IdentityName:   cellAt(row, cols.identityName),
				IdentityEmail:  cellAt(row, cols.identityEmail),
				IdentityID:     cellAt(row, cols.identityID),
				EntityName:     entity,
				AssignmentType: src.AssignmentType,
				Profile:        cellAt(row, cols.profile),
				IsActive:       cellAt(row, cols.isActive),
			})
		}
		if skipped > 0 {
			c.logger.Debug("combiner: skipped rows without entity name",
				"assignment_type", src.AssignmentType,
				"skipped", skipped)
		}
	}
	return out
}

// ToModel renders combined rows as a table model.
func ToModel(rows []CombinedRow) *report.Model {
	if len(rows) == 0 {
		return report.Placeholder(report.StatusEmpty, report.EmptyResultMessage)
	}
	out := make([]report.Row, len(rows))
	for i, r := range rows {
		values := []string{r.IdentityName, r.IdentityEmail, r.IdentityID, r.EntityName, r.AssignmentType, r.Profile, r.IsActive}
		out[i] = tableRow(i, CombinedHeaders, values)
	}
	return report.NewTable(CombinedHeaders, out)
}

func tableRow(i int, headers []report.Header, values []string) report.Row {
	cells := make([]report.Cell, len(headers))
	for j, h := range headers {
		var v string
		if j < len(values) {
			v = values[j]
		}
		cells[j] = report.Cell{ID: fmt.Sprintf("cell-%d-%d", i, j), Value: v, FieldKey: h.FieldKey}
	}
	return report.Row{ID: fmt.Sprintf("row-%d", i), Cells: cells}
}

type columns struct {
	entity, identityEmail, identityID, identityName, profile, isActive int
}

func detectColumns(headers []report.Header, m Markers) columns {
	claimed := make(map[int]bool, len(headers))
	pick := func(markers []string) int {
		for i, h := range headers {
			if claimed[i] {
				continue
			}
			key := strings.ToLower(h.FieldKey)
			for _, marker := range markers {
				if strings.Contains(key, marker) {
					claimed[i] = true
					return i
				}
			}
		}
		return -1
	}

	var cols columns
	cols.entity = pick(m.EntityName)
	cols.identityEmail = pick(m.IdentityEmail)
	cols.identityID = pick(m.IdentityID)
	cols.identityName = pick(m.IdentityName)
	cols.profile = pick(m.Profile)
	cols.isActive = pick(m.IsActive)
	return cols
}

func cellAt(row report.Row, idx int) string {
	if idx < 0 || idx >= len(row.Cells) {
		return ""
	}
	return row.Cells[idx].Value
}

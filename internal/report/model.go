package report

// Kind discriminates the two report shapes. Every consumer switches on it.
type Kind string

const (
	KindTable     Kind = "table"
	KindSectioned Kind = "sectioned"
)

// Status tells a UI whether rows are real data or an informational placeholder.
type Status string

const (
	StatusOK        Status = "ok"
	StatusEmpty     Status = "empty"
	StatusMalformed Status = "malformed"
)

const (
	EmptyResultMessage = "No records found for the selected filters."
	NoDataMessage      = "No data available for this report."

	messageFieldKey = "message"
)

type Header struct {
	Label    string `json:"label"`
	FieldKey string `json:"field_key"`
}

type Cell struct {
	ID       string `json:"id"`
	Value    string `json:"value"`
	FieldKey string `json:"field_key"`
}

type Row struct {
	ID    string `json:"id"`
	Cells []Cell `json:"cells"`
}

// Values returns the cell values of the row in column order.
func (r Row) Values() []string {
	out := make([]string, len(r.Cells))
	for i, c := range r.Cells {
		out[i] = c.Value
	}
	return out
}

type Section struct {
	Title   string   `json:"title"`
	Headers []Header `json:"headers"`
	Rows    []Row    `json:"rows"`
}

// Model is a fully normalized report. Headers and Rows are set for KindTable,
// Sections for KindSectioned. A Model is built once per fetch and never
// modified afterwards.
type Model struct {
	Kind     Kind      `json:"kind"`
	Status   Status    `json:"status"`
	Headers  []Header  `json:"headers,omitempty"`
	Rows     []Row     `json:"rows,omitempty"`
	Sections []Section `json:"sections,omitempty"`
}

func NewTable(headers []Header, rows []Row) *Model {
	return &Model{Kind: KindTable, Status: StatusOK, Headers: headers, Rows: rows}
}

func NewSectioned(sections []Section) *Model {
	return &Model{Kind: KindSectioned, Status: StatusOK, Sections: sections}
}

// Placeholder builds the single-row informational model used for empty and
// unrecognised payloads, so pagination and export never see a special case.
func Placeholder(status Status, message string) *Model {
	return &Model{
		Kind:    KindTable,
		Status:  status,
		Headers: []Header{{Label: "Message", FieldKey: messageFieldKey}},
		Rows: []Row{{
			ID:    "row-0",
			Cells: []Cell{{ID: "cell-0-0", Value: message, FieldKey: messageFieldKey}},
		}},
	}
}

func (m *Model) IsPlaceholder() bool {
	return m.Status != StatusOK
}

// TotalRecords counts data rows across all sections.
func (m *Model) TotalRecords() int {
	switch m.Kind {
	case KindSectioned:
		total := 0
		for _, s := range m.Sections {
			total += len(s.Rows)
		}
		return total
	default:
		return len(m.Rows)
	}
}

// Section returns the section with the given title.
func (m *Model) Section(title string) (Section, bool) {
	for _, s := range m.Sections {
		if s.Title == title {
			return s, true
		}
	}
	return Section{}, false
}

// AsTable returns a table model for a single section.
func (s Section) AsTable() *Model {
	return NewTable(s.Headers, s.Rows)
}

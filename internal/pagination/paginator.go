package pagination

import "github.com/frahmantamala/access-audit-reports/internal/report"

const (
	DefaultPageSize = 10
	MaxPageSize     = 500
)

// PageView is a bounded window over a report. It is derived on every call to
// View and shares row values with the underlying model.
type PageView struct {
	Kind         report.Kind      `json:"kind"`
	Status       report.Status    `json:"status"`
	CurrentPage  int              `json:"current_page"`
	PageSize     int              `json:"page_size"`
	TotalRecords int              `json:"total_records"`
	TotalPages   int              `json:"total_pages"`
	Headers      []report.Header  `json:"headers,omitempty"`
	Rows         []report.Row     `json:"rows,omitempty"`
	Sections     []report.Section `json:"sections,omitempty"`
}

type taggedRow struct {
	section int
	row     report.Row
}

// Paginator tracks the current page over one model. It never modifies the model.
type Paginator struct {
	model    *report.Model
	page     int
	pageSize int

	total int
	flat  []taggedRow
}

func New(model *report.Model, pageSize int) *Paginator {
	p := &Paginator{page: 1, pageSize: DefaultPageSize}
	p.SetPageSize(pageSize)
	p.SetModel(model)
	return p
}

// SetModel swaps the underlying report and returns to the first page.
func (p *Paginator) SetModel(model *report.Model) {
	p.model = model
	p.page = 1
	p.flat = nil
	p.total = 0
	if model == nil {
		return
	}

	p.total = model.TotalRecords()
	if model.Kind == report.KindSectioned {
		p.flat = make([]taggedRow, 0, p.total)
		for s, sec := range model.Sections {
			for _, row := range sec.Rows {
				p.flat = append(p.flat, taggedRow{section: s, row: row})
			}
		}
	}
}

func (p *Paginator) Model() *report.Model {
	return p.model
}

func (p *Paginator) TotalPages() int {
	if p.total == 0 {
		return 0
	}
	return (p.total + p.pageSize - 1) / p.pageSize
}

// SetPage moves to page n, clamped to [1, max(TotalPages, 1)].
func (p *Paginator) SetPage(n int) {
	p.page = clamp(n, 1, max(p.TotalPages(), 1))
}

// SetPageSize changes the window size. Non-positive sizes are ignored and the
// current page is clamped to the new page count.
func (p *Paginator) SetPageSize(n int) {
	if n <= 0 {
		return
	}
	if n > MaxPageSize {
		n = MaxPageSize
	}
	p.pageSize = n
	p.SetPage(p.page)
}

func (p *Paginator) View() PageView {
	view := PageView{
		CurrentPage:  p.page,
		PageSize:     p.pageSize,
		TotalRecords: p.total,
		TotalPages:   p.TotalPages(),
	}
	if p.model == nil {
		return view
	}

	view.Kind = p.model.Kind
	view.Status = p.model.Status
	start, end := p.bounds()

	switch p.model.Kind {
	case report.KindSectioned:
		view.Sections = p.regroup(p.flat[start:end])
	default:
		view.Headers = p.model.Headers
		view.Rows = p.model.Rows[start:end]
	}
	return view
}

func (p *Paginator) bounds() (int, int) {
	start := (p.page - 1) * p.pageSize
	if start > p.total {
		start = p.total
	}
	end := start + p.pageSize
	if end > p.total {
		end = p.total
	}
	return start, end
}

// regroup splits a slice of flattened rows back into contiguous section chunks,
// starting a new chunk whenever the section tag changes.
func (p *Paginator) regroup(rows []taggedRow) []report.Section {
	var out []report.Section
	current := -1
	for _, tr := range rows {
		if tr.section != current {
			src := p.model.Sections[tr.section]
			out = append(out, report.Section{Title: src.Title, Headers: src.Headers})
			current = tr.section
		}
		last := &out[len(out)-1]
		last.Rows = append(last.Rows, tr.row)
	}
	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

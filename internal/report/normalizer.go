package report

import (
	"fmt"
	"log/slog"

	"github.com/frahmantamala/access-audit-reports/internal"
)

// Labeler resolves the display label of a header key.
type Labeler interface {
	Resolve(key string) string
}

type identityLabels struct{}

func (identityLabels) Resolve(key string) string { return key }

type Normalizer struct {
	logger *slog.Logger
}

func NewNormalizer(logger *slog.Logger) *Normalizer {
	return &Normalizer{logger: logger}
}

// Normalize converts a raw payload into a Model. It never fails: payloads of
// neither shape yield a NoData placeholder and payloads without rows an
// EmptyResult placeholder. Rows and columns keep their order.
func (n *Normalizer) Normalize(p *RawPayload, labels Labeler) *Model {
	if labels == nil {
		labels = identityLabels{}
	}

	switch p.Shape() {
	case ShapeTable:
		if len(p.Rows) == 0 {
			n.logger.Info("report payload has no rows", "code", internal.ErrCodeEmptyResult, "headers", len(p.Headers))
			return Placeholder(StatusEmpty, EmptyResultMessage)
		}
		headers, width := n.headers(p.Headers, p.Rows, labels, "")
		rows := make([]Row, len(p.Rows))
		for i, raw := range p.Rows {
			rows[i] = buildRow(fmt.Sprintf("row-%d", i), fmt.Sprintf("cell-%d", i), raw, headers, width)
		}
		return NewTable(headers, rows)

	case ShapeSectioned:
		total := 0
		sections := make([]Section, len(p.Sections))
		for s, raw := range p.Sections {
			headers, width := n.headers(raw.Headers, raw.Rows, labels, raw.Title)
			rows := make([]Row, len(raw.Rows))
			for i, rr := range raw.Rows {
				id := rr.Key
				if id == "" {
					id = fmt.Sprintf("row-%d-%d", s, i)
				}
				rows[i] = buildRow(id, fmt.Sprintf("cell-%d-%d", s, i), rr, headers, width)
			}
			total += len(rows)
			sections[s] = Section{Title: raw.Title, Headers: headers, Rows: rows}
		}
		if total == 0 {
			n.logger.Info("sectioned report payload has no rows", "code", internal.ErrCodeEmptyResult, "sections", len(p.Sections))
			return Placeholder(StatusEmpty, EmptyResultMessage)
		}
		return NewSectioned(sections)

	default:
		n.logger.Warn("malformed report payload: neither table nor sections present", "code", internal.ErrCodeMalformedPayload)
		return Placeholder(StatusMalformed, NoDataMessage)
	}
}

// headers resolves labels and widens the header set when a row carries more
// values than there are headers, so no value is ever dropped.
func (n *Normalizer) headers(keys []string, rows []RawRow, labels Labeler, section string) ([]Header, int) {
	width := len(keys)
	for _, r := range rows {
		if len(r.Values) > width {
			width = len(r.Values)
		}
	}
	if width > len(keys) {
		n.logger.Warn("report rows are wider than headers",
			"section", section,
			"headers", len(keys),
			"width", width)
	}

	headers := make([]Header, width)
	for i := 0; i < width; i++ {
		if i < len(keys) {
			headers[i] = Header{Label: labels.Resolve(keys[i]), FieldKey: keys[i]}
			continue
		}
		key := fmt.Sprintf("column_%d", i+1)
		headers[i] = Header{Label: fmt.Sprintf("Column %d", i+1), FieldKey: key}
	}
	return headers, width
}

func buildRow(id, cellPrefix string, raw RawRow, headers []Header, width int) Row {
	cells := make([]Cell, width)
	for j := 0; j < width; j++ {
		var value string
		if j < len(raw.Values) {
			value = string(raw.Values[j])
		}
		cells[j] = Cell{
			ID:       fmt.Sprintf("%s-%d", cellPrefix, j),
			Value:    value,
			FieldKey: headers[j].FieldKey,
		}
	}
	return Row{ID: id, Cells: cells}
}

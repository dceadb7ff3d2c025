package export

import (
	"io"
	"strings"

	"github.com/frahmantamala/access-audit-reports/internal/report"
)

// ToCSV renders the full model: header line first, every field quoted,
// embedded quotes doubled, fields joined by commas and records by "\n".
// Sectioned models are written section by section, each as a title record,
// a header record and its rows.
func ToCSV(m *report.Model) string {
	var b strings.Builder
	_ = WriteCSV(&b, m)
	return b.String()
}

func WriteCSV(w io.Writer, m *report.Model) error {
	if m == nil {
		return nil
	}

	var records [][]string
	switch m.Kind {
	case report.KindSectioned:
		for _, s := range m.Sections {
			records = append(records, []string{s.Title}, headerLabels(s.Headers))
			records = appendRows(records, s.Rows)
		}
	default:
		records = append(records, headerLabels(m.Headers))
		records = appendRows(records, m.Rows)
	}

	lines := make([]string, len(records))
	for i, rec := range records {
		lines[i] = encodeRecord(rec)
	}
	_, err := io.WriteString(w, strings.Join(lines, "\n"))
	return err
}

func headerLabels(headers []report.Header) []string {
	out := make([]string, len(headers))
	for i, h := range headers {
		out[i] = h.Label
	}
	return out
}

func appendRows(records [][]string, rows []report.Row) [][]string {
	for _, r := range rows {
		records = append(records, r.Values())
	}
	return records
}

func encodeRecord(fields []string) string {
	quoted := make([]string, len(fields))
	for i, f := range fields {
		quoted[i] = Quote(f)
	}
	return strings.Join(quoted, ",")
}

// Quote wraps a field in double quotes, doubling any quote inside it.
func Quote(field string) string {
	return `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
}

package dataset

import (
	"strings"

	"github.com/warmloop/warmloop/internal/domain"
)

// ExportCSV serializes a dataset to CSV text. Column display labels form the
// header row; values containing a comma are quoted with doubled internal
// quotes; nil values render as empty strings. The quoting rule is
// intentionally minimal so exports round-trip through the CSV parser with
// the same normalized keys.
func ExportCSV(ds domain.Dataset) string {
	var b strings.Builder

	labels := make([]string, len(ds.Columns))
	for i, column := range ds.Columns {
		labels[i] = column.Label
	}
	b.WriteString(strings.Join(labels, ","))

	for _, row := range ds.Rows {
		b.WriteString("\n")
		cells := make([]string, len(ds.Columns))
		for i, column := range ds.Columns {
			cells[i] = renderCell(row[column.Key])
		}
		b.WriteString(strings.Join(cells, ","))
	}

	return b.String()
}

func renderCell(value any) string {
	if value == nil {
		return ""
	}
	s := stringify(value)
	if strings.Contains(s, ",") {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}

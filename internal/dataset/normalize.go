package dataset

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/warmloop/warmloop/internal/domain"
)

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	invalidChars  = regexp.MustCompile(`[^a-z0-9_]`)
	underscoreRun = regexp.MustCompile(`_+`)
)

// NormalizeKey turns a header label into a machine column key: lowercase,
// whitespace to underscores, anything outside [a-z0-9_] stripped, underscore
// runs collapsed, leading/trailing underscores trimmed. Idempotent.
func NormalizeKey(name string) string {
	key := strings.ToLower(strings.TrimSpace(name))
	key = whitespaceRun.ReplaceAllString(key, "_")
	key = invalidChars.ReplaceAllString(key, "")
	key = underscoreRun.ReplaceAllString(key, "_")
	return strings.Trim(key, "_")
}

// normalizeRows converts raw row values to their declared column types,
// keyed by normalized column key. Missing or empty values become explicit
// nils without type conversion.
func normalizeRows(table rawTable, columns []domain.Column) []map[string]any {
	rows := make([]map[string]any, len(table.rows))
	for i, raw := range table.rows {
		normalized := make(map[string]any, len(columns))
		for ci, column := range columns {
			value, ok := raw[table.keys[ci]]
			if !ok {
				value = raw[column.Key]
			}
			if value == nil || stringify(value) == "" {
				normalized[column.Key] = nil
				continue
			}
			normalized[column.Key] = convertValue(column.Type, value)
		}
		rows[i] = normalized
	}
	return rows
}

func convertValue(columnType domain.ColumnType, value any) any {
	switch columnType {
	case domain.ColumnTypeNumeric:
		if f, ok := value.(float64); ok {
			return f
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(stringify(value)), 64)
		if err != nil {
			return nil
		}
		return f
	case domain.ColumnTypeBoolean:
		switch strings.ToLower(strings.TrimSpace(stringify(value))) {
		case "true", "1", "yes":
			return true
		default:
			return false
		}
	case domain.ColumnTypeDate:
		ts, ok := parseDate(stringify(value))
		if !ok {
			return nil
		}
		return ts.UTC().Format(time.RFC3339)
	default:
		return stringify(value)
	}
}

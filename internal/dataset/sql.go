package dataset

import (
	"errors"
	"regexp"
	"strings"
)

// ErrNoInsertStatements is returned for SQL uploads without a single
// matching INSERT. The text is user-facing copy, shown verbatim.
var ErrNoInsertStatements = errors.New("No INSERT statements found in SQL file")

var (
	insertPattern = regexp.MustCompile(`(?is)INSERT\s+INTO\s+\w+\s*\((.*?)\)\s*VALUES\s*\((.*?)\)`)
	// One token per value: single- or double-quoted strings with doubled
	// quote escaping, or anything up to the next comma.
	valuePattern = regexp.MustCompile(`'(?:[^']|'')*'|"(?:[^"]|"")*"|[^,]+`)
)

// parseSQL extracts INSERT INTO <table> (<cols>) VALUES (<vals>) statements.
// Column names come from the first statement; the literal NULL maps to an
// absent value.
func parseSQL(payload []byte) (rawTable, error) {
	matches := insertPattern.FindAllStringSubmatch(string(payload), -1)
	if len(matches) == 0 {
		return rawTable{}, ErrNoInsertStatements
	}

	var columns []string
	for _, part := range strings.Split(matches[0][1], ",") {
		name := strings.TrimSpace(part)
		name = strings.Trim(name, "`'\"")
		columns = append(columns, name)
	}

	rows := make([]map[string]any, 0, len(matches))
	for _, match := range matches {
		values := parseSQLValues(match[2])
		row := make(map[string]any, len(columns))
		for idx, column := range columns {
			if idx < len(values) {
				row[column] = values[idx]
			}
		}
		rows = append(rows, row)
	}

	return rawTable{keys: columns, rows: rows}, nil
}

func parseSQLValues(valuesPart string) []any {
	tokens := valuePattern.FindAllString(valuesPart, -1)
	values := make([]any, 0, len(tokens))
	for _, token := range tokens {
		token = strings.TrimSpace(token)
		switch {
		case len(token) >= 2 && strings.HasPrefix(token, "'") && strings.HasSuffix(token, "'"):
			values = append(values, strings.ReplaceAll(token[1:len(token)-1], "''", "'"))
		case len(token) >= 2 && strings.HasPrefix(token, `"`) && strings.HasSuffix(token, `"`):
			values = append(values, strings.ReplaceAll(token[1:len(token)-1], `""`, `"`))
		case strings.EqualFold(token, "NULL"):
			values = append(values, nil)
		default:
			values = append(values, token)
		}
	}
	return values
}

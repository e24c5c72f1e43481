package dataset

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/warmloop/warmloop/internal/domain"
)

const (
	typeSampleLimit   = 20
	typeVoteThreshold = 0.8
)

// Layouts tried when deciding whether a value is a date. Ordered from most
// to least specific.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"02/01/2006",
}

// inferColumns profiles each source column and produces typed Column
// descriptors with normalized keys.
func inferColumns(table rawTable) []domain.Column {
	columns := make([]domain.Column, 0, len(table.keys))
	for _, key := range table.keys {
		values := make([]any, 0, len(table.rows))
		for _, row := range table.rows {
			values = append(values, row[key])
		}
		columns = append(columns, domain.Column{
			Key:   NormalizeKey(key),
			Label: key,
			Type:  detectColumnType(values),
		})
	}
	return columns
}

// detectColumnType samples up to the first 20 non-empty values and takes a
// majority vote with a strict >80% threshold. The priority order matters:
// numeric beats boolean beats date, so a column of "1"/"0" strings that is
// mostly numeric-parseable stays numeric.
func detectColumnType(values []any) domain.ColumnType {
	var samples []string
	for _, value := range values {
		if value == nil {
			continue
		}
		s := stringify(value)
		if s == "" {
			continue
		}
		samples = append(samples, s)
		if len(samples) == typeSampleLimit {
			break
		}
	}
	if len(samples) == 0 {
		return domain.ColumnTypeString
	}

	total := float64(len(samples))

	numeric := 0
	for _, s := range samples {
		if looksNumeric(s) {
			numeric++
		}
	}
	if float64(numeric)/total > typeVoteThreshold {
		return domain.ColumnTypeNumeric
	}

	boolean := 0
	for _, s := range samples {
		if looksBoolean(s) {
			boolean++
		}
	}
	if float64(boolean)/total > typeVoteThreshold {
		return domain.ColumnTypeBoolean
	}

	dates := 0
	for _, s := range samples {
		if _, ok := parseDate(s); ok {
			dates++
		}
	}
	if float64(dates)/total > typeVoteThreshold {
		return domain.ColumnTypeDate
	}

	return domain.ColumnTypeString
}

func looksNumeric(value string) bool {
	_, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	return err == nil
}

func looksBoolean(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "false", "1", "0", "yes", "no":
		return true
	}
	return false
}

func parseDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	for _, layout := range timeLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// stringify renders a raw parser value for sampling and normalization.
// Floats drop trailing zeros so JSON numbers round-trip cleanly.
func stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	default:
		return fmt.Sprint(v)
	}
}

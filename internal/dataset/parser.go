// Package dataset turns uploaded CSV, Excel, JSON, and SQL files into a
// uniform tabular Dataset: typed columns plus normalized rows.
package dataset

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/warmloop/warmloop/internal/domain"

	"github.com/xuri/excelize/v2"
)

var (
	// ErrUnsupportedFormat is returned when an uploaded file extension is
	// not one of csv, xls, xlsx, json, sql.
	ErrUnsupportedFormat = errors.New("unsupported file type")

	byteOrderMark = []byte{0xEF, 0xBB, 0xBF}
)

// ParseError marks malformed or unsupported input the user must fix. The
// message is surfaced verbatim and never retried.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string { return e.Err.Error() }

func (e *ParseError) Unwrap() error { return e.Err }

// rawTable is parser output before inference and normalization: the first
// row's keys in source order, and string-keyed rows with raw values.
type rawTable struct {
	keys []string
	rows []map[string]any
}

// Parse dispatches on the file extension and builds a Dataset from the
// payload. Parse failures are surfaced verbatim to the caller.
func Parse(fileName string, payload []byte) (domain.Dataset, error) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(fileName)), ".")

	var (
		table rawTable
		err   error
	)
	switch ext {
	case "csv":
		table, err = parseCSV(payload)
	case "xls", "xlsx":
		table, err = parseExcel(payload)
	case "json":
		table, err = parseJSON(payload)
	case "sql":
		table, err = parseSQL(payload)
	default:
		return domain.Dataset{}, &ParseError{Err: fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)}
	}
	if err != nil {
		return domain.Dataset{}, &ParseError{Err: err}
	}

	return build(ext, fileName, table), nil
}

func build(format, fileName string, table rawTable) domain.Dataset {
	columns := inferColumns(table)
	rows := normalizeRows(table, columns)
	now := time.Now()

	base := filepath.Base(fileName)
	name := strings.TrimSuffix(base, filepath.Ext(base))

	return domain.Dataset{
		ID:        fmt.Sprintf("%s_%d", format, now.UnixMilli()),
		Name:      name,
		Columns:   columns,
		Rows:      rows,
		RowCount:  len(rows),
		CreatedAt: now.UTC(),
	}
}

func parseCSV(payload []byte) (rawTable, error) {
	reader := bufio.NewReader(bytes.NewReader(payload))
	if prefix, err := reader.Peek(len(byteOrderMark)); err == nil && bytes.Equal(prefix, byteOrderMark) {
		_, _ = reader.Discard(len(byteOrderMark))
	}

	csvReader := csv.NewReader(reader)
	csvReader.TrimLeadingSpace = true
	csvReader.FieldsPerRecord = -1

	records, err := csvReader.ReadAll()
	if err != nil {
		return rawTable{}, fmt.Errorf("failed to read csv: %w", err)
	}
	if len(records) == 0 {
		return rawTable{}, errors.New("no rows found in file")
	}

	headers := make([]string, len(records[0]))
	for i, header := range records[0] {
		headers[i] = strings.TrimSpace(header)
	}

	var rows []map[string]any
	for _, record := range records[1:] {
		if rowEmpty(record) {
			continue
		}
		row := make(map[string]any, len(headers))
		for i, header := range headers {
			if i < len(record) {
				row[header] = record[i]
			}
		}
		rows = append(rows, row)
	}

	return rawTable{keys: headers, rows: rows}, nil
}

func parseExcel(payload []byte) (rawTable, error) {
	f, err := excelize.OpenReader(bytes.NewReader(payload))
	if err != nil {
		return rawTable{}, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return rawTable{}, errors.New("workbook has no sheets")
	}

	// Only the first sheet is read.
	records, err := f.GetRows(sheets[0])
	if err != nil {
		return rawTable{}, fmt.Errorf("failed to read rows from sheet: %w", err)
	}
	if len(records) == 0 {
		return rawTable{}, errors.New("no rows found in file")
	}

	headers := make([]string, len(records[0]))
	for i, header := range records[0] {
		headers[i] = strings.TrimSpace(header)
	}

	var rows []map[string]any
	for _, record := range records[1:] {
		if rowEmpty(record) {
			continue
		}
		row := make(map[string]any, len(headers))
		for i, header := range headers {
			if i < len(record) {
				row[header] = record[i]
			}
		}
		rows = append(rows, row)
	}

	return rawTable{keys: headers, rows: rows}, nil
}

// parseJSON accepts a top-level array of objects, an object whose first key
// holds an array of objects, or a single bare object treated as one row.
// Column order follows the first object's textual key order, which Go maps
// do not preserve, so the key list is recovered with a token scan.
func parseJSON(payload []byte) (rawTable, error) {
	trimmed := bytes.TrimLeft(payload, " \t\r\n")
	if len(trimmed) == 0 {
		return rawTable{}, errors.New("failed to parse json: empty document")
	}

	var objects []json.RawMessage
	switch trimmed[0] {
	case '[':
		var elements []json.RawMessage
		if err := json.Unmarshal(payload, &elements); err != nil {
			return rawTable{}, fmt.Errorf("failed to parse json: %w", err)
		}
		objects = elements
	case '{':
		rows, err := rowsFromJSONObject(payload)
		if err != nil {
			return rawTable{}, err
		}
		objects = rows
	default:
		return rawTable{}, errors.New("failed to parse json: expected object or array of objects")
	}

	var (
		keys []string
		rows []map[string]any
	)
	for _, raw := range objects {
		if len(bytes.TrimLeft(raw, " \t\r\n")) == 0 || bytes.TrimLeft(raw, " \t\r\n")[0] != '{' {
			continue
		}
		if keys == nil {
			ordered, err := objectKeys(raw)
			if err != nil {
				return rawTable{}, err
			}
			keys = ordered
		}
		row := make(map[string]any)
		if err := json.Unmarshal(raw, &row); err != nil {
			return rawTable{}, fmt.Errorf("failed to parse json row: %w", err)
		}
		rows = append(rows, row)
	}

	return rawTable{keys: keys, rows: rows}, nil
}

// rowsFromJSONObject inspects the first key of a top-level object. If it
// holds an array, those elements are the rows; otherwise the whole object is
// a single row.
func rowsFromJSONObject(payload []byte) ([]json.RawMessage, error) {
	dec := json.NewDecoder(bytes.NewReader(payload))
	if _, err := dec.Token(); err != nil { // opening brace
		return nil, fmt.Errorf("failed to parse json: %w", err)
	}
	if !dec.More() {
		return nil, errors.New("failed to parse json: empty object")
	}
	if _, err := dec.Token(); err != nil { // first key
		return nil, fmt.Errorf("failed to parse json: %w", err)
	}

	var first json.RawMessage
	if err := dec.Decode(&first); err != nil {
		return nil, fmt.Errorf("failed to parse json: %w", err)
	}

	firstTrimmed := bytes.TrimLeft(first, " \t\r\n")
	if len(firstTrimmed) > 0 && firstTrimmed[0] == '[' {
		var elements []json.RawMessage
		if err := json.Unmarshal(first, &elements); err != nil {
			return nil, fmt.Errorf("failed to parse json: %w", err)
		}
		return elements, nil
	}

	return []json.RawMessage{json.RawMessage(payload)}, nil
}

// objectKeys returns the keys of a JSON object in document order.
func objectKeys(raw json.RawMessage) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("failed to parse json: %w", err)
	}

	var keys []string
	for dec.More() {
		token, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("failed to parse json: %w", err)
		}
		key, ok := token.(string)
		if !ok {
			return nil, errors.New("failed to parse json: non-string object key")
		}
		keys = append(keys, key)

		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return nil, fmt.Errorf("failed to parse json: %w", err)
		}
	}
	return keys, nil
}

func rowEmpty(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

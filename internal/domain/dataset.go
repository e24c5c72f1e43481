package domain

import "time"

// ColumnType classifies the values of a dataset column.
type ColumnType string

const (
	ColumnTypeNumeric ColumnType = "numeric"
	ColumnTypeDate    ColumnType = "date"
	ColumnTypeBoolean ColumnType = "boolean"
	ColumnTypeString  ColumnType = "string"
)

// Column describes one dataset column. Key is the normalized machine name
// used in row maps; Label keeps the original header text for display.
type Column struct {
	Key   string     `json:"key"`
	Label string     `json:"label"`
	Type  ColumnType `json:"type"`
}

// Dataset is an immutable snapshot of one imported file: typed columns plus
// normalized rows keyed by column key. It is created once by the import
// pipeline and replaced wholesale or deleted, never partially mutated.
type Dataset struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	Columns   []Column         `json:"columns"`
	Rows      []map[string]any `json:"rows"`
	RowCount  int              `json:"rowCount"`
	CreatedAt time.Time        `json:"createdAt"`
}

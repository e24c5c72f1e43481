package domain

import (
	"time"

	"github.com/google/uuid"
)

// ColumnMapping pairs a dataset column key with a target lead field.
// An empty LeadField means the column is skipped.
type ColumnMapping struct {
	DatasetColumn string `json:"datasetColumn"`
	LeadField     string `json:"leadField"`
}

// RowValidation is the per-row outcome of the pre-import gate.
type RowValidation struct {
	Valid  bool           `json:"valid"`
	Row    map[string]any `json:"row"`
	Errors []string       `json:"errors"`
}

// ImportResult aggregates one import operation. InsertedIDs is the undo set:
// a later undo call deletes exactly these ids.
type ImportResult struct {
	InsertedIDs   []uuid.UUID `json:"insertedIds"`
	InsertedCount int         `json:"insertedCount"`
	FailedCount   int         `json:"failedCount"`
	Errors        []string    `json:"errors"`
}

// ImportLogEntry captures row and batch level issues that occur during a
// lead import.
type ImportLogEntry struct {
	ID           uuid.UUID `json:"id"`
	UserID       uuid.UUID `json:"user_id"`
	DatasetID    string    `json:"dataset_id"`
	RowNumber    *int      `json:"row_number,omitempty"`
	ErrorMessage string    `json:"error_message"`
	CreatedAt    time.Time `json:"created_at"`
}

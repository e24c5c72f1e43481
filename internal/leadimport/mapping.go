// Package leadimport maps dataset columns onto the leads schema, validates
// rows, and imports the valid ones in batches with a single-level undo.
package leadimport

import (
	"strings"

	"github.com/warmloop/warmloop/internal/domain"
)

// Lead field keys a dataset column can map to.
const (
	FieldName              = "name"
	FieldEmail             = "email"
	FieldCompany           = "company"
	FieldStatus            = "status"
	FieldSource            = "source"
	FieldEstimatedValue    = "estimated_value"
	FieldActivitiesLast30d = "activities_last_30d"
)

// TargetField describes one mappable lead field for clients building a
// mapping UI.
type TargetField struct {
	Key      string `json:"key"`
	Label    string `json:"label"`
	Required bool   `json:"required"`
}

// TargetFields lists the fixed mapping targets in display order.
var TargetFields = []TargetField{
	{Key: FieldName, Label: "Name", Required: true},
	{Key: FieldEmail, Label: "Email"},
	{Key: FieldCompany, Label: "Company"},
	{Key: FieldStatus, Label: "Status"},
	{Key: FieldSource, Label: "Source"},
	{Key: FieldEstimatedValue, Label: "Estimated Value"},
	{Key: FieldActivitiesLast30d, Label: "Activities (Last 30 Days)"},
}

type fieldHeuristic struct {
	field    string
	patterns []string
}

// Ordered substring heuristics. Iteration order is the tie-break: the first
// field whose pattern matches a column key wins, so the table order must
// stay fixed.
var mappingHeuristics = []fieldHeuristic{
	{FieldName, []string{"name", "full_name", "fullname", "first_name", "last_name", "contact_name", "lead_name"}},
	{FieldEmail, []string{"email", "e-mail", "email_address", "contact_email", "mail"}},
	{FieldCompany, []string{"company", "org", "organization", "company_name", "business"}},
	{FieldStatus, []string{"status", "stage", "lead_status", "state"}},
	{FieldSource, []string{"source", "lead_source", "origin"}},
	{FieldEstimatedValue, []string{"value", "estimated_value", "amount", "deal_value", "revenue"}},
	{FieldActivitiesLast30d, []string{"activities", "activities_last_30d", "activity_count", "touchpoints"}},
}

// AutoMap suggests a mapping for every dataset column. Columns with no
// heuristic match come back unmapped (empty LeadField) and can be adjusted
// by the user before validation.
func AutoMap(ds domain.Dataset) []domain.ColumnMapping {
	mappings := make([]domain.ColumnMapping, 0, len(ds.Columns))
	for _, column := range ds.Columns {
		mappings = append(mappings, domain.ColumnMapping{
			DatasetColumn: column.Key,
			LeadField:     matchField(column.Key),
		})
	}
	return mappings
}

func matchField(columnKey string) string {
	key := strings.ToLower(columnKey)
	for _, heuristic := range mappingHeuristics {
		for _, pattern := range heuristic.patterns {
			if strings.Contains(key, pattern) {
				return heuristic.field
			}
		}
	}
	return ""
}

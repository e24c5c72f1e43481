package leadimport

import (
	"testing"

	"github.com/warmloop/warmloop/internal/domain"
)

func TestAutoMapMatchesCommonHeaders(t *testing.T) {
	ds := domain.Dataset{
		Columns: []domain.Column{
			{Key: "contact_name"},
			{Key: "email_address"},
			{Key: "company_name"},
			{Key: "lead_status"},
			{Key: "lead_source"},
			{Key: "deal_value"},
			{Key: "touchpoints"},
			{Key: "internal_ref"},
		},
	}

	mappings := AutoMap(ds)
	if len(mappings) != len(ds.Columns) {
		t.Fatalf("expected a mapping per column, got %d", len(mappings))
	}

	want := map[string]string{
		"contact_name":  FieldName,
		"email_address": FieldEmail,
		"company_name":  FieldCompany,
		"lead_status":   FieldStatus,
		"lead_source":   FieldSource,
		"deal_value":    FieldEstimatedValue,
		"touchpoints":   FieldActivitiesLast30d,
		"internal_ref":  "",
	}
	for _, mapping := range mappings {
		if got := want[mapping.DatasetColumn]; mapping.LeadField != got {
			t.Fatalf("column %s mapped to %q, want %q", mapping.DatasetColumn, mapping.LeadField, got)
		}
	}
}

func TestAutoMapFirstFieldWins(t *testing.T) {
	// "lead_name" contains both a name pattern and "lead_source"-adjacent
	// text; name is checked first and must win.
	ds := domain.Dataset{Columns: []domain.Column{{Key: "lead_name"}}}
	mappings := AutoMap(ds)
	if mappings[0].LeadField != FieldName {
		t.Fatalf("expected name, got %q", mappings[0].LeadField)
	}
}

func TestAutoMapStatusBeatsSource(t *testing.T) {
	// "state" matches the status heuristic before source sees it.
	ds := domain.Dataset{Columns: []domain.Column{{Key: "state"}}}
	mappings := AutoMap(ds)
	if mappings[0].LeadField != FieldStatus {
		t.Fatalf("expected status, got %q", mappings[0].LeadField)
	}
}

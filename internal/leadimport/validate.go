package leadimport

import (
	"strconv"
	"strings"

	"github.com/warmloop/warmloop/internal/domain"
	"github.com/warmloop/warmloop/internal/scoring"
)

// ValidateRows applies the mapping to every dataset row and classifies it
// against the import rules. All applicable errors are collected per row;
// nothing short-circuits and nothing is mutated.
func ValidateRows(ds domain.Dataset, mappings []domain.ColumnMapping) []domain.RowValidation {
	results := make([]domain.RowValidation, 0, len(ds.Rows))

	for _, row := range ds.Rows {
		mapped := make(map[string]any)
		for _, mapping := range mappings {
			if mapping.LeadField == "" {
				continue
			}
			mapped[mapping.LeadField] = row[mapping.DatasetColumn]
		}

		var errs []string

		if strings.TrimSpace(fieldText(mapped[FieldName])) == "" {
			errs = append(errs, "Name is required")
		}

		email := fieldText(mapped[FieldEmail])
		company := fieldText(mapped[FieldCompany])
		if email == "" && company == "" {
			errs = append(errs, "Either email or company is required")
		}

		if email != "" && !scoring.EmailValid(email) {
			errs = append(errs, "Invalid email format")
		}

		if value := mapped[FieldEstimatedValue]; present(value) && !numeric(value) {
			errs = append(errs, "Estimated value must be numeric")
		}

		if value := mapped[FieldActivitiesLast30d]; present(value) && !numeric(value) {
			errs = append(errs, "Activities count must be numeric")
		}

		results = append(results, domain.RowValidation{
			Valid:  len(errs) == 0,
			Row:    mapped,
			Errors: errs,
		})
	}

	return results
}

// fieldText renders a mapped value for presence and format checks.
func fieldText(value any) string {
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
	default:
		return ""
	}
}

func present(value any) bool {
	return fieldText(value) != ""
}

func numeric(value any) bool {
	switch v := value.(type) {
	case float64, int:
		return true
	case string:
		_, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return err == nil
	default:
		return false
	}
}

// numberOf extracts a float from a mapped value that already passed the
// numeric check.
func numberOf(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// Package validation provides dataset quality checks for the remedies API.
// The matching core assumes the loader hands it a well-formed dataset;
// this package is where that assumption gets verified and reported.
package validation

import (
	"fmt"

	"github.com/remedesfr/remedes-api/interfaces"
	"github.com/remedesfr/remedes-api/remediesparser/entities"
	"github.com/remedesfr/remedes-api/textutil"
)

// DataValidator validates individual records and reports dataset-wide
// quality issues.
type DataValidator interface {
	ValidateRemedy(remedy *entities.Remedy) error
	ValidateAllergen(allergen *entities.Allergen) error
	ReportDataQuality(remedies []entities.Remedy, allergens []entities.Allergen) interfaces.DataQualityReport
}

// DataValidatorImpl implements DataValidator.
type DataValidatorImpl struct{}

// Compile-time check
var _ DataValidator = (*DataValidatorImpl)(nil)

// NewDataValidator creates a new data validator.
func NewDataValidator() DataValidator {
	return &DataValidatorImpl{}
}

// ValidateRemedy checks the fields the core depends on.
func (v *DataValidatorImpl) ValidateRemedy(remedy *entities.Remedy) error {
	if remedy == nil {
		return fmt.Errorf("remedy is nil")
	}
	if remedy.Id < 0 {
		return fmt.Errorf("remedy id must not be negative, got %d", remedy.Id)
	}
	if remedy.Name == "" {
		return fmt.Errorf("remedy name is empty")
	}
	if textutil.GenerateSlug(remedy.Name) == "" {
		return fmt.Errorf("remedy name %q produces an empty slug", remedy.Name)
	}
	return nil
}

// ValidateAllergen checks an allergen catalog record.
func (v *DataValidatorImpl) ValidateAllergen(allergen *entities.Allergen) error {
	if allergen == nil {
		return fmt.Errorf("allergen is nil")
	}
	if allergen.Id == "" {
		return fmt.Errorf("allergen id is empty")
	}
	if allergen.Name == "" {
		return fmt.Errorf("allergen name is empty")
	}
	return nil
}

// ReportDataQuality scans the dataset for duplicate ids, slug collisions
// (duplicate or colliding names), remedies without symptoms and allergen
// ids referenced by remedies but missing from the catalog. The report is
// logged by the caller; a degraded dataset still gets served.
func (v *DataValidatorImpl) ReportDataQuality(remedies []entities.Remedy, allergens []entities.Allergen) interfaces.DataQualityReport {
	report := interfaces.DataQualityReport{}

	seenIDs := make(map[int]bool, len(remedies))
	seenSlugs := make(map[string]bool, len(remedies))
	for i := range remedies {
		remedy := &remedies[i]

		if seenIDs[remedy.Id] {
			report.DuplicateIDs = append(report.DuplicateIDs, remedy.Id)
		}
		seenIDs[remedy.Id] = true

		slug := textutil.GenerateSlug(remedy.Name)
		if seenSlugs[slug] {
			report.SlugCollisions = append(report.SlugCollisions, slug)
		}
		seenSlugs[slug] = true

		if len(remedy.Symptoms) == 0 {
			report.RemediesWithoutSymptoms++
		}
	}

	known := make(map[string]bool, len(allergens))
	for _, a := range allergens {
		known[a.Id] = true
	}
	reported := make(map[string]bool)
	for i := range remedies {
		for _, id := range remedies[i].Allergens {
			if !known[id] && !reported[id] {
				report.UnknownAllergenIDs = append(report.UnknownAllergenIDs, id)
				reported[id] = true
			}
		}
	}

	return report
}

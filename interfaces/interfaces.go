// Package interfaces defines the core abstractions of the remedies API so
// that the scheduler, handlers and health checks can be tested against
// fakes instead of the real dataset pipeline.
package interfaces

import (
	"time"

	"github.com/remedesfr/remedes-api/matching"
	"github.com/remedesfr/remedes-api/remediesparser/entities"
)

// DataQualityReport summarizes dataset integrity issues found at load time.
type DataQualityReport struct {
	DuplicateIDs            []int
	SlugCollisions          []string
	RemediesWithoutSymptoms int
	UnknownAllergenIDs      []string
}

// DataStore is the thread-safe holder of the loaded dataset. Updates swap
// the whole dataset atomically so readers never observe a partial reload.
type DataStore interface {
	GetRemedies() []entities.Remedy
	GetRemediesMap() map[int]entities.Remedy
	GetRemedyBySlug(slug string) (entities.Remedy, bool)
	GetAllergens() []entities.Allergen
	GetSynonyms() *matching.SynonymIndex
	GetLastUpdated() time.Time
	IsUpdating() bool
	GetServerStartTime() time.Time

	UpdateData(remedies []entities.Remedy, allergens []entities.Allergen, synonyms *matching.SynonymIndex)
	BeginUpdate() bool
	EndUpdate()
}

// Parser loads the static dataset files from disk.
type Parser interface {
	ParseAll() ([]entities.Remedy, []entities.Allergen, *matching.SynonymIndex, error)
}

// Scheduler manages dataset reloads, both scheduled and file-change driven.
type Scheduler interface {
	Start() error
	Stop()
}

// HealthChecker reports service health derived from dataset state.
type HealthChecker interface {
	HealthCheck() (status string, data map[string]any, httpStatus int)
}

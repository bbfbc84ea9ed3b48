// Package data provides thread-safe storage for the loaded remedy dataset.
// The DataContainer swaps whole datasets atomically so request handlers
// never observe a partially reloaded state.
package data

import (
	"sync/atomic"
	"time"

	"github.com/remedesfr/remedes-api/interfaces"
	"github.com/remedesfr/remedes-api/logging"
	"github.com/remedesfr/remedes-api/matching"
	"github.com/remedesfr/remedes-api/remediesparser/entities"
	"github.com/remedesfr/remedes-api/textutil"
)

// Compile-time check to ensure DataContainer implements DataStore
var _ interfaces.DataStore = (*DataContainer)(nil)

// DataContainer holds the dataset behind atomic pointers for zero-downtime
// reloads.
type DataContainer struct {
	remedies        atomic.Value // []entities.Remedy
	remediesMap     atomic.Value // map[int]entities.Remedy
	slugIndex       atomic.Value // map[string]entities.Remedy
	allergens       atomic.Value // []entities.Allergen
	synonyms        atomic.Value // *matching.SynonymIndex
	lastUpdated     atomic.Value // time.Time
	updating        atomic.Bool
	serverStartTime atomic.Value // time.Time
}

// NewDataContainer creates a container with empty data.
func NewDataContainer() *DataContainer {
	dc := &DataContainer{}
	dc.remedies.Store(make([]entities.Remedy, 0))
	dc.remediesMap.Store(make(map[int]entities.Remedy))
	dc.slugIndex.Store(make(map[string]entities.Remedy))
	dc.allergens.Store(make([]entities.Allergen, 0))
	dc.synonyms.Store(matching.NewSynonymIndex(nil))
	dc.lastUpdated.Store(time.Time{})
	dc.serverStartTime.Store(time.Now())
	return dc
}

// Thread-safe getters with type check

// GetRemedies returns the remedy list.
func (dc *DataContainer) GetRemedies() []entities.Remedy {
	if v := dc.remedies.Load(); v != nil {
		if remedies, ok := v.([]entities.Remedy); ok {
			return remedies
		}
	}
	logging.Warn("Remedies list is empty or invalid")
	return []entities.Remedy{}
}

// GetRemediesMap returns the id index for O(1) lookups.
func (dc *DataContainer) GetRemediesMap() map[int]entities.Remedy {
	if v := dc.remediesMap.Load(); v != nil {
		if remediesMap, ok := v.(map[int]entities.Remedy); ok {
			return remediesMap
		}
	}
	logging.Warn("Remedies map is empty or invalid")
	return make(map[int]entities.Remedy)
}

// GetRemedyBySlug resolves an already-decoded slug through the slug index.
func (dc *DataContainer) GetRemedyBySlug(slug string) (entities.Remedy, bool) {
	if v := dc.slugIndex.Load(); v != nil {
		if slugIndex, ok := v.(map[string]entities.Remedy); ok {
			remedy, found := slugIndex[slug]
			return remedy, found
		}
	}
	logging.Warn("Slug index is empty or invalid")
	return entities.Remedy{}, false
}

// GetAllergens returns the allergen catalog.
func (dc *DataContainer) GetAllergens() []entities.Allergen {
	if v := dc.allergens.Load(); v != nil {
		if allergens, ok := v.([]entities.Allergen); ok {
			return allergens
		}
	}
	logging.Warn("Allergen catalog is empty or invalid")
	return []entities.Allergen{}
}

// GetSynonyms returns the synonym index.
func (dc *DataContainer) GetSynonyms() *matching.SynonymIndex {
	if v := dc.synonyms.Load(); v != nil {
		if synonyms, ok := v.(*matching.SynonymIndex); ok {
			return synonyms
		}
	}
	logging.Warn("Synonym index is empty or invalid")
	return matching.NewSynonymIndex(nil)
}

// GetLastUpdated returns the time of the last dataset load.
func (dc *DataContainer) GetLastUpdated() time.Time {
	if v := dc.lastUpdated.Load(); v != nil {
		if lastUpdated, ok := v.(time.Time); ok {
			return lastUpdated
		}
	}
	return time.Time{}
}

// IsUpdating reports whether a reload is in progress.
func (dc *DataContainer) IsUpdating() bool {
	return dc.updating.Load()
}

// GetServerStartTime returns when this container was created.
func (dc *DataContainer) GetServerStartTime() time.Time {
	if v := dc.serverStartTime.Load(); v != nil {
		if start, ok := v.(time.Time); ok {
			return start
		}
	}
	return time.Time{}
}

// UpdateData atomically swaps in a new dataset, deriving the id map and
// slug index from the remedy list.
func (dc *DataContainer) UpdateData(remedies []entities.Remedy, allergens []entities.Allergen, synonyms *matching.SynonymIndex) {
	remediesMap := make(map[int]entities.Remedy, len(remedies))
	slugIndex := make(map[string]entities.Remedy, len(remedies))
	for i := range remedies {
		remediesMap[remedies[i].Id] = remedies[i]
		slugIndex[textutil.GenerateSlug(remedies[i].Name)] = remedies[i]
	}

	if synonyms == nil {
		synonyms = matching.NewSynonymIndex(nil)
	}

	dc.remedies.Store(remedies)
	dc.remediesMap.Store(remediesMap)
	dc.slugIndex.Store(slugIndex)
	dc.allergens.Store(allergens)
	dc.synonyms.Store(synonyms)
	dc.lastUpdated.Store(time.Now())
}

// BeginUpdate marks an update as started; returns false when one is
// already running.
func (dc *DataContainer) BeginUpdate() bool {
	return dc.updating.CompareAndSwap(false, true)
}

// EndUpdate marks the running update as finished.
func (dc *DataContainer) EndUpdate() {
	dc.updating.Store(false)
}

// Package allergy implements the allergen safety filter: a persisted set of
// declared allergens plus an on/off switch, and the catalog helpers used to
// validate allergen ids coming from the outside.
package allergy

import (
	"errors"
	"sync"

	"github.com/remedesfr/remedes-api/logging"
	"github.com/remedesfr/remedes-api/remediesparser/entities"
	"github.com/remedesfr/remedes-api/storage"
)

// filterState is the persisted payload shape.
type filterState struct {
	Allergies        []string `json:"allergies"`
	FilteringEnabled bool     `json:"filteringEnabled"`
}

// FilterService decides whether a remedy is safe given the declared
// allergen set. Declared allergens survive disabling the filter; every
// mutation is persisted, and persistence failures never surface to callers.
type FilterService struct {
	mu        sync.Mutex
	allergies []string
	filtering bool
	store     storage.Store
	codec     *storage.Codec
}

// NewFilterService rehydrates filter state from storage. A missing,
// corrupted or tampered payload falls back to no allergies with filtering
// enabled.
func NewFilterService(store storage.Store, codec *storage.Codec) *FilterService {
	s := &FilterService{
		allergies: []string{},
		filtering: true,
		store:     store,
		codec:     codec,
	}

	data, err := store.Read(storage.SlotAllergies)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			logging.Warn("Failed to read allergy state, using defaults", "error", err)
		}
		return s
	}

	var state filterState
	if err := codec.Open(data, &state); err != nil {
		logging.Warn("Stored allergy state is invalid, using defaults", "error", err)
		return s
	}

	s.filtering = state.FilteringEnabled
	for _, id := range state.Allergies {
		if id != "" && !contains(s.allergies, id) {
			s.allergies = append(s.allergies, id)
		}
	}
	return s
}

func contains(list []string, id string) bool {
	for _, v := range list {
		if v == id {
			return true
		}
	}
	return false
}

// persist writes the current state; caller holds the lock. Failures are
// logged and swallowed so in-memory state stays authoritative.
func (s *FilterService) persist() {
	payload, err := s.codec.Seal(filterState{
		Allergies:        append([]string{}, s.allergies...),
		FilteringEnabled: s.filtering,
	})
	if err != nil {
		logging.Error("Failed to encode allergy state", "error", err)
		return
	}
	if err := s.store.Write(storage.SlotAllergies, payload); err != nil {
		logging.Warn("Failed to persist allergy state", "error", err)
	}
}

// CanUseRemedy reports whether the remedy is safe: always true while
// filtering is disabled, otherwise true iff the remedy shares no allergen
// id with the declared set. Comparison is exact string equality.
func (s *FilterService) CanUseRemedy(remedy *entities.Remedy) bool {
	if remedy == nil {
		return true
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.filtering {
		return true
	}
	for _, allergen := range remedy.Allergens {
		if contains(s.allergies, allergen) {
			return false
		}
	}
	return true
}

// ToggleAllergen adds the id when absent and removes it when present.
// Empty input is a no-op.
func (s *FilterService) ToggleAllergen(id string) {
	if id == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i, v := range s.allergies {
		if v == id {
			s.allergies = append(s.allergies[:i], s.allergies[i+1:]...)
			s.persist()
			return
		}
	}
	s.allergies = append(s.allergies, id)
	s.persist()
}

// SetAllergies replaces the full set, dropping empty entries. A nil list
// clears the set.
func (s *FilterService) SetAllergies(list []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]string, 0, len(list))
	for _, id := range list {
		if id != "" && !contains(next, id) {
			next = append(next, id)
		}
	}
	s.allergies = next
	s.persist()
}

// ClearAllergies empties the declared set.
func (s *FilterService) ClearAllergies() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.allergies = []string{}
	s.persist()
}

// Allergies returns a copy of the declared allergen ids.
func (s *FilterService) Allergies() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string{}, s.allergies...)
}

// IsFilteringEnabled reports the current switch state.
func (s *FilterService) IsFilteringEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filtering
}

// EnableFiltering turns the safety filter on.
func (s *FilterService) EnableFiltering() {
	s.setFiltering(true)
}

// DisableFiltering turns the safety filter off. Declared allergies are kept.
func (s *FilterService) DisableFiltering() {
	s.setFiltering(false)
}

// ToggleFiltering flips the safety filter switch.
func (s *FilterService) ToggleFiltering() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filtering = !s.filtering
	s.persist()
}

func (s *FilterService) setFiltering(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.filtering == enabled {
		return
	}
	s.filtering = enabled
	s.persist()
}

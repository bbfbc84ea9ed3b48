// Package handlers provides the HTTP request handlers for the remedies API:
// remedy listing and slug lookup, symptom search with allergen partitioning,
// allergen catalog access, search history management and health checks.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/remedesfr/remedes-api/allergy"
	"github.com/remedesfr/remedes-api/history"
	"github.com/remedesfr/remedes-api/interfaces"
	"github.com/remedesfr/remedes-api/logging"
	"github.com/remedesfr/remedes-api/matching"
	"github.com/remedesfr/remedes-api/metrics"
	"github.com/remedesfr/remedes-api/remediesparser/entities"
	"github.com/remedesfr/remedes-api/textutil"
)

const pageSize = 10

// RespondWithJSON writes a JSON response.
func RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		logging.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Last-Modified", time.Now().UTC().Format(http.TimeFormat))
	w.WriteHeader(code)
	w.Write(data)
}

// RespondWithError writes a JSON error response.
func RespondWithError(w http.ResponseWriter, code int, message string) {
	RespondWithJSON(w, code, map[string]interface{}{
		"error":   http.StatusText(code),
		"message": message,
		"code":    code,
	})
}

// ServeAllRemedies returns the full remedy collection.
func ServeAllRemedies(dataStore interfaces.DataStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		RespondWithJSON(w, http.StatusOK, dataStore.GetRemedies())
	}
}

// ServePagedRemedies returns one page of remedies.
func ServePagedRemedies(dataStore interfaces.DataStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pageNumber := chi.URLParam(r, "pageNumber")
		page, err := strconv.Atoi(pageNumber)
		if err != nil || page < 1 {
			logging.Warn("Unusual user input", "pageNumber", pageNumber)
			RespondWithError(w, http.StatusBadRequest, "Invalid page number")
			return
		}

		remedies := dataStore.GetRemedies()
		start := (page - 1) * pageSize
		if start >= len(remedies) {
			RespondWithError(w, http.StatusNotFound, "Page not found")
			return
		}

		end := start + pageSize
		if end > len(remedies) {
			end = len(remedies)
		}

		totalItems := len(remedies)
		RespondWithJSON(w, http.StatusOK, map[string]interface{}{
			"data":       remedies[start:end],
			"page":       page,
			"pageSize":   pageSize,
			"totalItems": totalItems,
			"maxPage":    (totalItems + pageSize - 1) / pageSize,
		})
	}
}

// FindRemedyBySlug resolves a remedy by its URL slug. The slug is
// percent-decoded before lookup; malformed encoding reads as not found.
func FindRemedyBySlug(dataStore interfaces.DataStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug := chi.URLParam(r, "slug")
		if slug == "" {
			RespondWithError(w, http.StatusBadRequest, "Missing remedy slug")
			return
		}

		remedy := textutil.FindBySlug(slug, dataStore.GetRemedies())
		if remedy == nil {
			RespondWithError(w, http.StatusNotFound, "Remedy not found")
			return
		}

		RespondWithJSON(w, http.StatusOK, remedy)
	}
}

// SearchResponse is the payload returned by the search endpoint. Results
// hold the remedies safe for the caller; Hidden holds matches excluded by
// the allergen filter.
type SearchResponse struct {
	Symptoms    []string               `json:"symptoms"`
	Resolved    []string               `json:"resolved"`
	Results     []entities.MatchResult `json:"results"`
	Hidden      []entities.MatchResult `json:"hidden"`
	ResultCount int                    `json:"resultCount"`
}

// SearchRemedies matches the comma-separated symptoms query parameter
// against the dataset. Synonyms are resolved before matching. When an
// allergens parameter is present it overrides the stored allergy state for
// this request; otherwise the persisted filter service decides visibility.
// Every non-empty search is recorded in the history store.
func SearchRemedies(dataStore interfaces.DataStore, engine *matching.Engine,
	filter *allergy.FilterService, searches *history.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		symptoms := splitCSV(r.URL.Query().Get("symptoms"))
		if len(symptoms) == 0 {
			RespondWithError(w, http.StatusBadRequest, "Missing symptoms parameter")
			return
		}

		resolved := dataStore.GetSynonyms().ResolveAll(symptoms)
		matched := engine.FindMatchingRemedies(resolved, dataStore.GetRemedies())

		catalog := allergy.NewCatalog(dataStore.GetAllergens())
		requestAllergens, hasRequestAllergens := parseRequestAllergens(r, catalog)

		visible := make([]entities.MatchResult, 0, len(matched))
		hidden := make([]entities.MatchResult, 0)
		for _, result := range matched {
			var safe bool
			if hasRequestAllergens {
				safe = allergy.IsSafe(&result.Remedy, requestAllergens)
			} else {
				safe = filter.CanUseRemedy(&result.Remedy)
			}
			if safe {
				visible = append(visible, result)
			} else {
				hidden = append(hidden, result)
			}
		}

		searches.AddSearch(symptoms, len(visible))

		metrics.SearchesTotal.Inc()
		metrics.SearchResultsHidden.Add(float64(len(hidden)))
		metrics.MatchKeyCacheSize.Set(float64(engine.CacheSize()))

		RespondWithJSON(w, http.StatusOK, SearchResponse{
			Symptoms:    symptoms,
			Resolved:    resolved,
			Results:     visible,
			Hidden:      hidden,
			ResultCount: len(visible),
		})
	}
}

// parseRequestAllergens reads the allergens CSV parameter. The boolean
// reports whether the parameter was supplied at all, so an explicit empty
// set ("allergens=") disables filtering for this request.
func parseRequestAllergens(r *http.Request, catalog *allergy.Catalog) ([]string, bool) {
	if !r.URL.Query().Has("allergens") {
		return nil, false
	}
	return catalog.ParseAllergenCSV(r.URL.Query().Get("allergens")), true
}

func splitCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// ServeAllergens returns the allergen catalog.
func ServeAllergens(dataStore interfaces.DataStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		RespondWithJSON(w, http.StatusOK, dataStore.GetAllergens())
	}
}

// FindAllergenByID returns one allergen record, matched case-insensitively.
func FindAllergenByID(dataStore interfaces.DataStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		catalog := allergy.NewCatalog(dataStore.GetAllergens())
		allergen, found := catalog.Get(id)
		if !found {
			RespondWithError(w, http.StatusNotFound, "Allergen not found")
			return
		}
		RespondWithJSON(w, http.StatusOK, allergen)
	}
}

// GetAllergyState returns the persisted allergy filter state.
func GetAllergyState(filter *allergy.FilterService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		RespondWithJSON(w, http.StatusOK, map[string]interface{}{
			"allergies":        filter.Allergies(),
			"filteringEnabled": filter.IsFilteringEnabled(),
		})
	}
}

// ToggleAllergy adds or removes one allergen from the persisted set. The
// id must name a cataloged allergen.
func ToggleAllergy(dataStore interfaces.DataStore, filter *allergy.FilterService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		catalog := allergy.NewCatalog(dataStore.GetAllergens())
		allergen, found := catalog.Get(id)
		if !found {
			RespondWithError(w, http.StatusNotFound, "Allergen not found")
			return
		}

		filter.ToggleAllergen(allergen.Id)
		RespondWithJSON(w, http.StatusOK, map[string]interface{}{
			"allergies":        filter.Allergies(),
			"filteringEnabled": filter.IsFilteringEnabled(),
		})
	}
}

// ToggleAllergyFiltering flips the allergy filter switch.
func ToggleAllergyFiltering(filter *allergy.FilterService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter.ToggleFiltering()
		RespondWithJSON(w, http.StatusOK, map[string]interface{}{
			"filteringEnabled": filter.IsFilteringEnabled(),
		})
	}
}

// ClearAllergies empties the persisted allergen set.
func ClearAllergies(filter *allergy.FilterService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter.ClearAllergies()
		RespondWithJSON(w, http.StatusOK, map[string]interface{}{
			"allergies": filter.Allergies(),
		})
	}
}

// GetHistory returns the search history, newest first.
func GetHistory(searches *history.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		RespondWithJSON(w, http.StatusOK, searches.Entries())
	}
}

// DeleteHistoryEntry removes one history entry by id. Unknown ids are
// treated as already deleted.
func DeleteHistoryEntry(searches *history.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		searches.RemoveSearch(chi.URLParam(r, "id"))
		RespondWithJSON(w, http.StatusOK, map[string]interface{}{
			"remaining": searches.Len(),
		})
	}
}

// ClearHistory removes every history entry.
func ClearHistory(searches *history.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		searches.ClearHistory()
		RespondWithJSON(w, http.StatusOK, map[string]interface{}{
			"remaining": 0,
		})
	}
}

// HealthCheck returns server health information.
func HealthCheck(checker interfaces.HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, data, httpStatus := checker.HealthCheck()
		RespondWithJSON(w, httpStatus, map[string]interface{}{
			"status": status,
			"data":   data,
		})
	}
}

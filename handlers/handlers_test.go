package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/remedesfr/remedes-api/allergy"
	"github.com/remedesfr/remedes-api/data"
	"github.com/remedesfr/remedes-api/health"
	"github.com/remedesfr/remedes-api/history"
	"github.com/remedesfr/remedes-api/matching"
	"github.com/remedesfr/remedes-api/remediesparser/entities"
	"github.com/remedesfr/remedes-api/storage"
)

// memStore is an in-memory storage.Store for handler tests.
type memStore struct {
	data map[string][]byte
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string][]byte)}
}

func (m *memStore) Read(slot string) ([]byte, error) {
	payload, ok := m.data[slot]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return payload, nil
}

func (m *memStore) Write(slot string, payload []byte) error {
	m.data[slot] = payload
	return nil
}

type testEnv struct {
	router    chi.Router
	dataStore *data.DataContainer
	filter    *allergy.FilterService
	searches  *history.Store
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dataStore := data.NewDataContainer()
	dataStore.UpdateData(
		[]entities.Remedy{
			{Id: 0, Name: "Citron", Symptoms: []string{"nausée", "fatigue", "mal de gorge"}, Allergens: []string{"citrus"}},
			{Id: 1, Name: "Gingembre", Symptoms: []string{"nausée"}},
			{Id: 2, Name: "Menthe Poivrée", Symptoms: []string{"digestion difficile", "mal de tête"}},
		},
		[]entities.Allergen{
			{Id: "citrus", Name: "Agrumes"},
			{Id: "pollen", Name: "Pollen"},
		},
		matching.NewSynonymIndex(map[string][]string{
			"mal de tête": {"migraine", "céphalée"},
		}),
	)

	codec := storage.NewCodec("test-key")
	filter := allergy.NewFilterService(newMemStore(), codec)
	searches := history.NewStore(newMemStore(), codec)
	engine := matching.NewEngine(0)
	checker := health.NewHealthChecker(dataStore)

	r := chi.NewRouter()
	r.Get("/remedies", ServeAllRemedies(dataStore))
	r.Get("/remedies/{pageNumber}", ServePagedRemedies(dataStore))
	r.Get("/remedy/{slug}", FindRemedyBySlug(dataStore))
	r.Get("/search", SearchRemedies(dataStore, engine, filter, searches))
	r.Get("/allergens", ServeAllergens(dataStore))
	r.Get("/allergen/{id}", FindAllergenByID(dataStore))
	r.Get("/allergies", GetAllergyState(filter))
	r.Post("/allergies/toggle/{id}", ToggleAllergy(dataStore, filter))
	r.Post("/allergies/filtering/toggle", ToggleAllergyFiltering(filter))
	r.Delete("/allergies", ClearAllergies(filter))
	r.Get("/history", GetHistory(searches))
	r.Delete("/history/{id}", DeleteHistoryEntry(searches))
	r.Delete("/history", ClearHistory(searches))
	r.Get("/health", HealthCheck(checker))

	return &testEnv{router: r, dataStore: dataStore, filter: filter, searches: searches}
}

func (e *testEnv) do(t *testing.T, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("Failed to decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestServeAllRemedies(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/remedies")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Errorf("Unexpected content type %q", ct)
	}

	remedies := decode[[]entities.Remedy](t, rec)
	if len(remedies) != 3 {
		t.Errorf("Expected 3 remedies, got %d", len(remedies))
	}
}

func TestServePagedRemedies(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/remedies/1")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	page := decode[map[string]json.RawMessage](t, rec)
	if _, ok := page["data"]; !ok {
		t.Error("Expected data field in page response")
	}

	if rec := env.do(t, http.MethodGet, "/remedies/abc"); rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for non-numeric page, got %d", rec.Code)
	}
	if rec := env.do(t, http.MethodGet, "/remedies/0"); rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for page 0, got %d", rec.Code)
	}
	if rec := env.do(t, http.MethodGet, "/remedies/99"); rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 past the last page, got %d", rec.Code)
	}
}

func TestFindRemedyBySlug(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/remedy/citron")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	remedy := decode[entities.Remedy](t, rec)
	if remedy.Name != "Citron" {
		t.Errorf("Expected Citron, got %s", remedy.Name)
	}

	// Accented name reached through its percent-encoded slug
	rec = env.do(t, http.MethodGet, "/remedy/menthe-poivr%C3%A9e")
	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200 for encoded slug, got %d", rec.Code)
	}

	if rec := env.do(t, http.MethodGet, "/remedy/unknown"); rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown slug, got %d", rec.Code)
	}
}

func TestSearchRequiresSymptoms(t *testing.T) {
	env := newTestEnv(t)

	if rec := env.do(t, http.MethodGet, "/search"); rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 without symptoms, got %d", rec.Code)
	}
	if rec := env.do(t, http.MethodGet, "/search?symptoms=%20,%20"); rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for blank symptoms, got %d", rec.Code)
	}
}

func TestSearchRanksMatches(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/search?symptoms=nausee,fatigue")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	resp := decode[SearchResponse](t, rec)
	if len(resp.Results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(resp.Results))
	}
	if resp.Results[0].Remedy.Name != "Citron" || resp.Results[0].MatchCount != 2 {
		t.Errorf("Expected Citron first with 2 matches, got %s (%d)",
			resp.Results[0].Remedy.Name, resp.Results[0].MatchCount)
	}
	if resp.Results[1].Remedy.Name != "Gingembre" {
		t.Errorf("Expected Gingembre second, got %s", resp.Results[1].Remedy.Name)
	}
	if resp.ResultCount != 2 {
		t.Errorf("Expected resultCount 2, got %d", resp.ResultCount)
	}
}

func TestSearchResolvesSynonyms(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/search?symptoms=migraine")
	resp := decode[SearchResponse](t, rec)

	if len(resp.Resolved) != 1 || resp.Resolved[0] != "mal de tête" {
		t.Errorf("Expected migraine resolved to canonical term, got %v", resp.Resolved)
	}
	if len(resp.Results) != 1 || resp.Results[0].Remedy.Name != "Menthe Poivrée" {
		t.Errorf("Expected Menthe Poivrée via synonym, got %v", resp.Results)
	}
}

func TestSearchRequestAllergensHideMatches(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/search?symptoms=nausee&allergens=citrus")
	resp := decode[SearchResponse](t, rec)

	if len(resp.Results) != 1 || resp.Results[0].Remedy.Name != "Gingembre" {
		t.Errorf("Expected only Gingembre visible, got %v", resp.Results)
	}
	if len(resp.Hidden) != 1 || resp.Hidden[0].Remedy.Name != "Citron" {
		t.Errorf("Expected Citron hidden, got %v", resp.Hidden)
	}
	if resp.ResultCount != 1 {
		t.Errorf("Expected resultCount to count visible only, got %d", resp.ResultCount)
	}
}

func TestSearchEmptyAllergensParamOverridesStoredState(t *testing.T) {
	env := newTestEnv(t)
	env.filter.SetAllergies([]string{"citrus"})

	// Persisted state hides Citron
	resp := decode[SearchResponse](t, env.do(t, http.MethodGet, "/search?symptoms=nausee"))
	if len(resp.Hidden) != 1 {
		t.Fatalf("Expected persisted filter to hide Citron, got %v", resp.Hidden)
	}

	// An explicit empty allergens parameter overrides it for this request
	resp = decode[SearchResponse](t, env.do(t, http.MethodGet, "/search?symptoms=nausee&allergens="))
	if len(resp.Hidden) != 0 || len(resp.Results) != 2 {
		t.Errorf("Expected empty override to show everything, got %d visible %d hidden",
			len(resp.Results), len(resp.Hidden))
	}
}

func TestSearchRecordsHistory(t *testing.T) {
	env := newTestEnv(t)

	env.do(t, http.MethodGet, "/search?symptoms=nausee,fatigue")

	entries := env.searches.Entries()
	if len(entries) != 1 {
		t.Fatalf("Expected 1 history entry, got %d", len(entries))
	}
	if entries[0].ResultCount != 2 {
		t.Errorf("Expected recorded resultCount 2, got %d", entries[0].ResultCount)
	}
	if len(entries[0].Symptoms) != 2 || entries[0].Symptoms[0] != "nausee" {
		t.Errorf("Expected submitted symptoms recorded verbatim, got %v", entries[0].Symptoms)
	}
}

func TestServeAllergens(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/allergens")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	allergens := decode[[]entities.Allergen](t, rec)
	if len(allergens) != 2 {
		t.Errorf("Expected 2 allergens, got %d", len(allergens))
	}
}

func TestFindAllergenByID(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/allergen/CITRUS")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected case-insensitive match, got %d", rec.Code)
	}
	allergen := decode[entities.Allergen](t, rec)
	if allergen.Id != "citrus" {
		t.Errorf("Expected catalog-cased id, got %s", allergen.Id)
	}

	if rec := env.do(t, http.MethodGet, "/allergen/ghost"); rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown allergen, got %d", rec.Code)
	}
}

func TestAllergyToggleEndpoints(t *testing.T) {
	env := newTestEnv(t)

	type state struct {
		Allergies        []string `json:"allergies"`
		FilteringEnabled bool     `json:"filteringEnabled"`
	}

	initial := decode[state](t, env.do(t, http.MethodGet, "/allergies"))
	if len(initial.Allergies) != 0 || !initial.FilteringEnabled {
		t.Errorf("Unexpected initial state: %+v", initial)
	}

	after := decode[state](t, env.do(t, http.MethodPost, "/allergies/toggle/citrus"))
	if len(after.Allergies) != 1 || after.Allergies[0] != "citrus" {
		t.Errorf("Expected citrus added, got %v", after.Allergies)
	}

	after = decode[state](t, env.do(t, http.MethodPost, "/allergies/toggle/citrus"))
	if len(after.Allergies) != 0 {
		t.Errorf("Expected citrus removed on second toggle, got %v", after.Allergies)
	}

	if rec := env.do(t, http.MethodPost, "/allergies/toggle/ghost"); rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 toggling unknown allergen, got %d", rec.Code)
	}

	env.do(t, http.MethodPost, "/allergies/filtering/toggle")
	state2 := decode[state](t, env.do(t, http.MethodGet, "/allergies"))
	if state2.FilteringEnabled {
		t.Error("Expected filtering disabled after toggle")
	}

	env.filter.SetAllergies([]string{"citrus", "pollen"})
	cleared := decode[state](t, env.do(t, http.MethodDelete, "/allergies"))
	if len(cleared.Allergies) != 0 {
		t.Errorf("Expected allergies cleared, got %v", cleared.Allergies)
	}
}

func TestHistoryEndpoints(t *testing.T) {
	env := newTestEnv(t)

	env.do(t, http.MethodGet, "/search?symptoms=nausee")
	env.do(t, http.MethodGet, "/search?symptoms=fatigue")

	entries := decode[[]history.Entry](t, env.do(t, http.MethodGet, "/history"))
	if len(entries) != 2 {
		t.Fatalf("Expected 2 history entries, got %d", len(entries))
	}

	rec := env.do(t, http.MethodDelete, "/history/"+entries[0].ID)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if env.searches.Len() != 1 {
		t.Errorf("Expected 1 entry after delete, got %d", env.searches.Len())
	}

	// Deleting an unknown id is idempotent
	if rec := env.do(t, http.MethodDelete, "/history/unknown"); rec.Code != http.StatusOK {
		t.Errorf("Expected 200 for unknown id, got %d", rec.Code)
	}

	env.do(t, http.MethodDelete, "/history")
	if env.searches.Len() != 0 {
		t.Errorf("Expected empty history after clear, got %d", env.searches.Len())
	}
}

func TestHealthCheck(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	body := decode[map[string]json.RawMessage](t, rec)
	if string(body["status"]) != `"healthy"` {
		t.Errorf("Expected healthy status, got %s", body["status"])
	}
}

func TestHealthCheckUnhealthyWithoutData(t *testing.T) {
	dataStore := data.NewDataContainer()
	checker := health.NewHealthChecker(dataStore)

	r := chi.NewRouter()
	r.Get("/health", HealthCheck(checker))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected 503 for empty dataset, got %d", rec.Code)
	}
}

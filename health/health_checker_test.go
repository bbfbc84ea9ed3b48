package health

import (
	"net/http"
	"testing"
	"time"

	"github.com/remedesfr/remedes-api/matching"
	"github.com/remedesfr/remedes-api/remediesparser/entities"
)

// fakeDataStore lets tests control dataset age and update state.
type fakeDataStore struct {
	remedies    []entities.Remedy
	allergens   []entities.Allergen
	lastUpdated time.Time
	updating    bool
}

func (f *fakeDataStore) GetRemedies() []entities.Remedy          { return f.remedies }
func (f *fakeDataStore) GetRemediesMap() map[int]entities.Remedy { return nil }
func (f *fakeDataStore) GetRemedyBySlug(string) (entities.Remedy, bool) {
	return entities.Remedy{}, false
}
func (f *fakeDataStore) GetAllergens() []entities.Allergen   { return f.allergens }
func (f *fakeDataStore) GetSynonyms() *matching.SynonymIndex { return matching.NewSynonymIndex(nil) }
func (f *fakeDataStore) GetLastUpdated() time.Time           { return f.lastUpdated }
func (f *fakeDataStore) IsUpdating() bool                    { return f.updating }
func (f *fakeDataStore) GetServerStartTime() time.Time       { return time.Now() }
func (f *fakeDataStore) UpdateData([]entities.Remedy, []entities.Allergen, *matching.SynonymIndex) {
}
func (f *fakeDataStore) BeginUpdate() bool { return true }
func (f *fakeDataStore) EndUpdate()       {}

func TestHealthCheckHealthy(t *testing.T) {
	checker := NewHealthChecker(&fakeDataStore{
		remedies:    []entities.Remedy{{Id: 0, Name: "Citron"}},
		allergens:   []entities.Allergen{{Id: "citrus", Name: "Agrumes"}},
		lastUpdated: time.Now(),
	})

	status, data, httpStatus := checker.HealthCheck()
	if status != "healthy" || httpStatus != http.StatusOK {
		t.Errorf("Expected healthy/200, got %s/%d", status, httpStatus)
	}
	if data["remedies"] != 1 || data["allergens"] != 1 {
		t.Errorf("Unexpected counts in health data: %v", data)
	}
	if data["is_updating"] != false {
		t.Errorf("Expected is_updating false, got %v", data["is_updating"])
	}
}

func TestHealthCheckUnhealthyWithoutRemedies(t *testing.T) {
	checker := NewHealthChecker(&fakeDataStore{lastUpdated: time.Now()})

	status, _, httpStatus := checker.HealthCheck()
	if status != "unhealthy" || httpStatus != http.StatusServiceUnavailable {
		t.Errorf("Expected unhealthy/503, got %s/%d", status, httpStatus)
	}
}

func TestHealthCheckDegradedWhenStale(t *testing.T) {
	checker := NewHealthChecker(&fakeDataStore{
		remedies:    []entities.Remedy{{Id: 0, Name: "Citron"}},
		lastUpdated: time.Now().Add(-72 * time.Hour),
	})

	status, data, httpStatus := checker.HealthCheck()
	if status != "degraded" || httpStatus != http.StatusOK {
		t.Errorf("Expected degraded/200, got %s/%d", status, httpStatus)
	}
	age, ok := data["data_age_hours"].(float64)
	if !ok || age < 71 {
		t.Errorf("Expected data age around 72 hours, got %v", data["data_age_hours"])
	}
}

func TestHealthCheckReportsUpdating(t *testing.T) {
	checker := NewHealthChecker(&fakeDataStore{
		remedies:    []entities.Remedy{{Id: 0, Name: "Citron"}},
		lastUpdated: time.Now(),
		updating:    true,
	})

	_, data, _ := checker.HealthCheck()
	if data["is_updating"] != true {
		t.Errorf("Expected is_updating true, got %v", data["is_updating"])
	}
}

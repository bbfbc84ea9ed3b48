// Package health derives service health from dataset state.
package health

import (
	"math"
	"net/http"
	"time"

	"github.com/remedesfr/remedes-api/interfaces"
)

// HealthCheckerImpl implements the interfaces.HealthChecker interface
type HealthCheckerImpl struct {
	dataStore interfaces.DataStore
}

// Compile-time check
var _ interfaces.HealthChecker = (*HealthCheckerImpl)(nil)

// NewHealthChecker creates a health checker with injected dependencies.
func NewHealthChecker(dataStore interfaces.DataStore) interfaces.HealthChecker {
	return &HealthCheckerImpl{dataStore: dataStore}
}

// HealthCheck returns the health status, supporting data and the HTTP
// status code for the /health endpoint. The dataset is static between
// reloads, so only emptiness and reload staleness degrade health.
func (h *HealthCheckerImpl) HealthCheck() (status string, data map[string]any, httpStatus int) {
	remedies := h.dataStore.GetRemedies()
	allergens := h.dataStore.GetAllergens()
	lastUpdate := h.dataStore.GetLastUpdated()
	isUpdating := h.dataStore.IsUpdating()

	dataAge := time.Since(lastUpdate)

	switch {
	case len(remedies) == 0:
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable

	case dataAge > 48*time.Hour:
		status = "degraded"
		httpStatus = http.StatusOK

	default:
		status = "healthy"
		httpStatus = http.StatusOK
	}

	data = map[string]any{
		"last_update":    lastUpdate.Format(time.RFC3339),
		"data_age_hours": math.Round(dataAge.Hours()*10) / 10,
		"remedies":       len(remedies),
		"allergens":      len(allergens),
		"is_updating":    isUpdating,
	}

	return status, data, httpStatus
}

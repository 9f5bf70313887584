// Package health provides health checking functionality for the doselog API.
package health

import (
	"math"
	"net/http"
	"time"

	"github.com/sernyl/doselog-api/interfaces"
)

// Compile-time check to ensure HealthCheckerImpl implements the interface
var _ interfaces.HealthChecker = (*HealthCheckerImpl)(nil)

// HealthCheckerImpl implements the interfaces.HealthChecker interface
type HealthCheckerImpl struct {
	catalogStore interfaces.CatalogStore
}

// NewHealthChecker creates a new health checker with injected dependencies
func NewHealthChecker(catalogStore interfaces.CatalogStore) interfaces.HealthChecker {
	return &HealthCheckerImpl{
		catalogStore: catalogStore,
	}
}

// HealthCheck returns HTTP health data. Catalogs are local files reloaded on
// change, so staleness thresholds are generous; an empty tier catalog is the
// only hard failure.
func (h *HealthCheckerImpl) HealthCheck() (status string, data map[string]any, httpStatus int) {
	tierEntries := h.catalogStore.GetTierEntries()
	safetyEntries := h.catalogStore.GetSafetyEntries()
	lastUpdate := h.catalogStore.GetLastUpdated()
	isUpdating := h.catalogStore.IsUpdating()

	dataAge := time.Since(lastUpdate)

	switch {
	case len(tierEntries) == 0:
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable

	case len(safetyEntries) == 0:
		status = "degraded"
		httpStatus = http.StatusOK

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
		"tier_entries":   len(tierEntries),
		"safety_entries": len(safetyEntries),
		"is_updating":    isUpdating,
	}

	return status, data, httpStatus
}

package health

import (
	"net/http"
	"testing"
	"time"

	"github.com/sernyl/doselog-api/catalog/entities"
)

// stubStore is a minimal CatalogStore for health checks.
type stubStore struct {
	tierEntries   []entities.TierEntry
	safetyEntries []entities.SafetyEntry
	lastUpdated   time.Time
	updating      bool
}

func (s *stubStore) GetTierEntries() []entities.TierEntry { return s.tierEntries }
func (s *stubStore) GetTierMap() map[string]entities.TierEntry {
	return map[string]entities.TierEntry{}
}
func (s *stubStore) GetSafetyEntries() []entities.SafetyEntry { return s.safetyEntries }
func (s *stubStore) GetLastUpdated() time.Time                { return s.lastUpdated }
func (s *stubStore) IsUpdating() bool                         { return s.updating }
func (s *stubStore) GetServerStartTime() time.Time            { return time.Time{} }
func (s *stubStore) UpdateData([]entities.TierEntry, map[string]entities.TierEntry, []entities.SafetyEntry) {
}
func (s *stubStore) BeginUpdate() bool { return true }
func (s *stubStore) EndUpdate()        {}

func TestHealthCheck(t *testing.T) {
	tier := []entities.TierEntry{{Drug: "caffeine", Method: "oral"}}
	safety := []entities.SafetyEntry{{Name: "Caffeine"}}

	tests := []struct {
		name       string
		store      *stubStore
		wantStatus string
		wantHTTP   int
	}{
		{
			name:       "healthy",
			store:      &stubStore{tierEntries: tier, safetyEntries: safety, lastUpdated: time.Now()},
			wantStatus: "healthy",
			wantHTTP:   http.StatusOK,
		},
		{
			name:       "empty tier catalog is unhealthy",
			store:      &stubStore{safetyEntries: safety, lastUpdated: time.Now()},
			wantStatus: "unhealthy",
			wantHTTP:   http.StatusServiceUnavailable,
		},
		{
			name:       "empty safety catalog degrades",
			store:      &stubStore{tierEntries: tier, lastUpdated: time.Now()},
			wantStatus: "degraded",
			wantHTTP:   http.StatusOK,
		},
		{
			name:       "stale data degrades",
			store:      &stubStore{tierEntries: tier, safetyEntries: safety, lastUpdated: time.Now().Add(-72 * time.Hour)},
			wantStatus: "degraded",
			wantHTTP:   http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := NewHealthChecker(tt.store)
			status, data, httpStatus := checker.HealthCheck()

			if status != tt.wantStatus {
				t.Errorf("status = %q, want %q", status, tt.wantStatus)
			}
			if httpStatus != tt.wantHTTP {
				t.Errorf("httpStatus = %d, want %d", httpStatus, tt.wantHTTP)
			}
			for _, key := range []string{"last_update", "data_age_hours", "tier_entries", "safety_entries", "is_updating"} {
				if _, ok := data[key]; !ok {
					t.Errorf("data missing %q: %v", key, data)
				}
			}
		})
	}
}

func TestHealthCheckReportsCounts(t *testing.T) {
	store := &stubStore{
		tierEntries:   []entities.TierEntry{{Drug: "a"}, {Drug: "b"}},
		safetyEntries: []entities.SafetyEntry{{Name: "a"}},
		lastUpdated:   time.Now(),
		updating:      true,
	}

	_, data, _ := NewHealthChecker(store).HealthCheck()
	if data["tier_entries"] != 2 {
		t.Errorf("tier_entries = %v, want 2", data["tier_entries"])
	}
	if data["safety_entries"] != 1 {
		t.Errorf("safety_entries = %v, want 1", data["safety_entries"])
	}
	if data["is_updating"] != true {
		t.Errorf("is_updating = %v, want true", data["is_updating"])
	}
}

// Package interfaces defines core abstractions for the doselog API
// to improve testability, maintainability, and separation of concerns.
package interfaces

import (
	"time"

	"github.com/sernyl/doselog-api/catalog/entities"
)

// CatalogQualityReport provides a summary of catalog quality issues
type CatalogQualityReport struct {
	DuplicateTierKeys     []string // (drug, method) pairs appearing more than once
	NonMonotonicEntries   []string // tier entries rejected for out-of-order bands
	EntriesWithoutRanges  int      // tier entries with no tier defined at all
	SafetyWithoutGuidance int      // safety entries carrying neither doses nor text
	UnknownRouteMethods   int      // tier entries whose method is not a canonical route
}

// CatalogStore defines the contract for catalog storage operations.
// It provides thread-safe access to the tier and safety catalogs with atomic
// operations for zero-downtime updates.
type CatalogStore interface {
	// Catalog retrieval methods
	GetTierEntries() []entities.TierEntry
	GetTierMap() map[string]entities.TierEntry
	GetSafetyEntries() []entities.SafetyEntry
	GetLastUpdated() time.Time
	IsUpdating() bool
	GetServerStartTime() time.Time

	// Catalog update methods
	UpdateData(tierEntries []entities.TierEntry, tierMap map[string]entities.TierEntry,
		safetyEntries []entities.SafetyEntry)
	BeginUpdate() bool
	EndUpdate()
}

// CatalogLoader defines the contract for loading the reference catalogs from
// their on-disk JSON form into normalized entities.
type CatalogLoader interface {
	// LoadTierCatalog reads and normalizes the tier catalog
	LoadTierCatalog() ([]entities.TierEntry, map[string]entities.TierEntry, error)

	// LoadSafetyCatalog reads the safety catalog
	LoadSafetyCatalog() ([]entities.SafetyEntry, error)
}

// Scheduler defines the contract for catalog refresh scheduling and health
// monitoring.
type Scheduler interface {
	// Lifecycle management
	Start() error
	Stop()
}

// HealthChecker defines the contract for health check functionality.
type HealthChecker interface {
	// HealthCheck returns current system health status
	HealthCheck() (status string, details map[string]any, httpStatus int)
}

// CatalogValidator defines the contract for catalog validation operations.
type CatalogValidator interface {
	// ValidateTierEntry checks a single tier entry, including band ordering
	ValidateTierEntry(e *entities.TierEntry) error

	// ValidateSafetyEntry checks a single safety entry
	ValidateSafetyEntry(e *entities.SafetyEntry) error

	// ReportCatalogQuality generates a quality report over both catalogs
	ReportCatalogQuality(tierEntries []entities.TierEntry, safetyEntries []entities.SafetyEntry) *CatalogQualityReport
}

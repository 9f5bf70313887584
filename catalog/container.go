// Package catalog provides thread-safe storage for the reference catalogs.
// The Container holds immutable catalog snapshots behind atomic pointers so
// reloads swap data with zero downtime and readers never block.
package catalog

import (
	"sync/atomic"
	"time"

	"github.com/sernyl/doselog-api/catalog/entities"
	"github.com/sernyl/doselog-api/interfaces"
	"github.com/sernyl/doselog-api/logging"
)

// Compile-time check to ensure Container implements CatalogStore
var _ interfaces.CatalogStore = (*Container)(nil)

// Container holds the catalogs with atomic pointers for zero-downtime updates
type Container struct {
	tierEntries     atomic.Value // []entities.TierEntry
	tierMap         atomic.Value // map[string]entities.TierEntry, keyed by TierKey
	safetyEntries   atomic.Value // []entities.SafetyEntry
	lastUpdated     atomic.Value // time.Time
	updating        atomic.Bool
	serverStartTime atomic.Value // time.Time
}

// NewContainer creates a new Container with empty catalogs
func NewContainer() *Container {
	c := &Container{}
	c.tierEntries.Store(make([]entities.TierEntry, 0))
	c.tierMap.Store(make(map[string]entities.TierEntry))
	c.safetyEntries.Store(make([]entities.SafetyEntry, 0))
	c.lastUpdated.Store(time.Time{})
	c.serverStartTime.Store(time.Time{})
	return c
}

// Thread-safe getters with type check

// GetTierEntries returns the tier catalog entries
func (c *Container) GetTierEntries() []entities.TierEntry {
	if v := c.tierEntries.Load(); v != nil {
		if tierEntries, ok := v.([]entities.TierEntry); ok {
			return tierEntries
		}
	}

	logging.Warn("Tier catalog is empty or invalid")
	return []entities.TierEntry{}
}

// GetTierMap returns the tier catalog keyed by (drug, method) for O(1) lookups
func (c *Container) GetTierMap() map[string]entities.TierEntry {
	if v := c.tierMap.Load(); v != nil {
		if tierMap, ok := v.(map[string]entities.TierEntry); ok {
			return tierMap
		}
	}

	logging.Warn("Tier catalog map is empty or invalid")
	return make(map[string]entities.TierEntry)
}

// GetSafetyEntries returns the safety catalog entries
func (c *Container) GetSafetyEntries() []entities.SafetyEntry {
	if v := c.safetyEntries.Load(); v != nil {
		if safetyEntries, ok := v.([]entities.SafetyEntry); ok {
			return safetyEntries
		}
	}

	logging.Warn("Safety catalog is empty or invalid")
	return []entities.SafetyEntry{}
}

// GetLastUpdated returns the timestamp of the last catalog update
func (c *Container) GetLastUpdated() time.Time {
	if v := c.lastUpdated.Load(); v != nil {
		if lastUpdated, ok := v.(time.Time); ok {
			return lastUpdated
		}
	}

	logging.Warn("Could not get the last updated value")
	return time.Time{}
}

// IsUpdating returns true if a catalog update is currently in progress
func (c *Container) IsUpdating() bool {
	return c.updating.Load()
}

// SetServerStartTime sets the server start time
func (c *Container) SetServerStartTime(startTime time.Time) {
	c.serverStartTime.Store(startTime)
}

// GetServerStartTime returns the server start time
func (c *Container) GetServerStartTime() time.Time {
	if v := c.serverStartTime.Load(); v != nil {
		if startTime, ok := v.(time.Time); ok {
			return startTime
		}
	}

	logging.Warn("Could not get the server start time value")
	return time.Time{}
}

// UpdateData atomically swaps in new catalog snapshots (zero downtime)
func (c *Container) UpdateData(tierEntries []entities.TierEntry, tierMap map[string]entities.TierEntry,
	safetyEntries []entities.SafetyEntry) {

	c.tierEntries.Store(tierEntries)
	c.tierMap.Store(tierMap)
	c.safetyEntries.Store(safetyEntries)
	c.lastUpdated.Store(time.Now())
}

// BeginUpdate marks the start of a catalog update operation
// Returns true if update can proceed, false if another update is in progress
func (c *Container) BeginUpdate() bool {
	return c.updating.CompareAndSwap(false, true)
}

// EndUpdate marks the end of a catalog update operation
func (c *Container) EndUpdate() {
	c.updating.Store(false)
}

// Package catalogloader reads the tier and safety catalogs from their JSON
// files and normalizes them at the load boundary. The core never performs
// file I/O; everything it consumes comes out of this package already shaped.
package catalogloader

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sernyl/doselog-api/catalog/entities"
	"github.com/sernyl/doselog-api/interfaces"
	"github.com/sernyl/doselog-api/logging"
)

const (
	// TierCatalogFile is the tier catalog file name inside the catalog dir.
	TierCatalogFile = "tiers.json"
	// SafetyCatalogFile is the safety catalog file name inside the catalog dir.
	SafetyCatalogFile = "safety.json"
)

// Compile-time check to ensure FileLoader implements CatalogLoader
var _ interfaces.CatalogLoader = (*FileLoader)(nil)

// FileLoader loads catalogs from JSON files in a directory.
type FileLoader struct {
	dir       string
	validator interfaces.CatalogValidator
}

// NewFileLoader creates a loader reading from dir.
func NewFileLoader(dir string, validator interfaces.CatalogValidator) *FileLoader {
	return &FileLoader{dir: dir, validator: validator}
}

// rawTierEntry is the on-disk tier catalog row before normalization.
type rawTierEntry struct {
	Drug       string                     `json:"drug"`
	Method     string                     `json:"method"`
	DoseRanges map[string]json.RawMessage `json:"dose_ranges"`
}

// LoadTierCatalog reads and normalizes the tier catalog. Malformed or
// non-monotonic entries are skipped and counted, never fatal: a partial
// catalog beats no catalog.
func (l *FileLoader) LoadTierCatalog() ([]entities.TierEntry, map[string]entities.TierEntry, error) {
	path := filepath.Join(l.dir, TierCatalogFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read tier catalog %s: %w", path, err)
	}

	var raw []rawTierEntry
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, nil, fmt.Errorf("failed to parse tier catalog %s: %w", path, err)
	}

	tierEntries := make([]entities.TierEntry, 0, len(raw))
	tierMap := make(map[string]entities.TierEntry, len(raw))
	skippedMalformed := 0
	skippedInvalid := 0
	skippedDuplicates := 0

	for i := range raw {
		ranges, err := adaptRangeSet(raw[i].DoseRanges)
		if err != nil {
			logging.Warn("Skipping malformed tier entry",
				"drug", raw[i].Drug, "method", raw[i].Method, "error", err)
			skippedMalformed++
			continue
		}

		entry := entities.TierEntry{
			Drug:   raw[i].Drug,
			Method: raw[i].Method,
			Ranges: ranges,
		}

		if err := l.validator.ValidateTierEntry(&entry); err != nil {
			logging.Warn("Rejecting invalid tier entry",
				"drug", entry.Drug, "method", entry.Method, "error", err)
			skippedInvalid++
			continue
		}

		key := entities.TierKey(entry.Drug, entry.Method)
		if _, exists := tierMap[key]; exists {
			skippedDuplicates++
			continue
		}

		tierEntries = append(tierEntries, entry)
		tierMap[key] = entry
	}

	if skippedMalformed > 0 || skippedInvalid > 0 || skippedDuplicates > 0 {
		logging.Warn("Tier catalog loaded with skipped entries",
			"loaded", len(tierEntries),
			"malformed", skippedMalformed,
			"invalid", skippedInvalid,
			"duplicates", skippedDuplicates)
	}

	if len(tierEntries) == 0 {
		return nil, nil, fmt.Errorf("tier catalog %s produced no usable entries", path)
	}

	return tierEntries, tierMap, nil
}

// LoadSafetyCatalog reads the safety catalog, skipping invalid entries.
func (l *FileLoader) LoadSafetyCatalog() ([]entities.SafetyEntry, error) {
	path := filepath.Join(l.dir, SafetyCatalogFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read safety catalog %s: %w", path, err)
	}

	var raw []entities.SafetyEntry
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse safety catalog %s: %w", path, err)
	}

	safetyEntries := make([]entities.SafetyEntry, 0, len(raw))
	skipped := 0

	for i := range raw {
		if err := l.validator.ValidateSafetyEntry(&raw[i]); err != nil {
			logging.Warn("Rejecting invalid safety entry", "name", raw[i].Name, "error", err)
			skipped++
			continue
		}
		safetyEntries = append(safetyEntries, raw[i])
	}

	if skipped > 0 {
		logging.Warn("Safety catalog loaded with skipped entries",
			"loaded", len(safetyEntries), "skipped", skipped)
	}

	return safetyEntries, nil
}

// Package validation provides load-time validation for the reference
// catalogs. Tier entries with out-of-order bands are rejected here so the
// classifier's first-match-wins logic only ever runs over well-ordered data.
package validation

import (
	"fmt"
	"strings"

	"github.com/sernyl/doselog-api/catalog/entities"
	"github.com/sernyl/doselog-api/dosing"
	"github.com/sernyl/doselog-api/interfaces"
)

// Compile-time check to ensure CatalogValidatorImpl implements the interface
var _ interfaces.CatalogValidator = (*CatalogValidatorImpl)(nil)

// CatalogValidatorImpl implements the interfaces.CatalogValidator interface
type CatalogValidatorImpl struct{}

// NewCatalogValidator creates a new catalog validator
func NewCatalogValidator() interfaces.CatalogValidator {
	return &CatalogValidatorImpl{}
}

// ValidateTierEntry checks a single tier entry
func (v *CatalogValidatorImpl) ValidateTierEntry(e *entities.TierEntry) error {
	if e == nil {
		return fmt.Errorf("tier entry is nil")
	}

	if strings.TrimSpace(e.Drug) == "" {
		return fmt.Errorf("empty drug name")
	}
	if len(e.Drug) > 100 {
		return fmt.Errorf("drug name too long for %q: %d characters", e.Drug, len(e.Drug))
	}
	if strings.TrimSpace(e.Method) == "" {
		return fmt.Errorf("empty method for drug %q", e.Drug)
	}
	if e.Ranges.IsEmpty() {
		return fmt.Errorf("no dose ranges for %q via %q", e.Drug, e.Method)
	}

	return validateBandOrdering(e)
}

// validateBandOrdering enforces threshold <= light <= common <= strong <=
// heavy once every defined boundary is normalized to a common unit. Entries
// mixing mass and volume units in one range set are rejected outright: the
// families are not comparable.
func validateBandOrdering(e *entities.TierEntry) error {
	type point struct {
		name  string
		value float64
		isMl  bool
	}

	var points []point
	add := func(name string, b *entities.RangeBoundary) error {
		if b == nil {
			return nil
		}
		unit, ok := dosing.CanonicalUnit(b.Unit)
		if !ok {
			return fmt.Errorf("unknown unit %q in %s band of %q via %q", b.Unit, name, e.Drug, e.Method)
		}
		mg, err := dosing.ConvertToMg(b.Value, unit)
		if err != nil {
			return err
		}
		points = append(points, point{name: name, value: mg, isMl: unit == dosing.UnitMl})
		return nil
	}

	r := &e.Ranges
	steps := []struct {
		name string
		b    *entities.RangeBoundary
	}{
		{"threshold", r.Threshold},
		{"light.lower", lowerOf(r.Light)},
		{"light.upper", upperOf(r.Light)},
		{"common.lower", lowerOf(r.Common)},
		{"common.upper", upperOf(r.Common)},
		{"strong.lower", lowerOf(r.Strong)},
		{"strong.upper", upperOf(r.Strong)},
		{"heavy", r.Heavy},
	}

	for _, s := range steps {
		if err := add(s.name, s.b); err != nil {
			return err
		}
	}

	for i := 1; i < len(points); i++ {
		if points[i].isMl != points[i-1].isMl {
			return fmt.Errorf("mixed mass and volume units in ranges of %q via %q", e.Drug, e.Method)
		}
		if points[i].value < points[i-1].value {
			return fmt.Errorf("non-monotonic ranges for %q via %q: %s (%.4g) < %s (%.4g)",
				e.Drug, e.Method, points[i].name, points[i].value, points[i-1].name, points[i-1].value)
		}
	}

	return nil
}

func lowerOf(iv *entities.RangeInterval) *entities.RangeBoundary {
	if iv == nil {
		return nil
	}
	return &iv.Lower
}

func upperOf(iv *entities.RangeInterval) *entities.RangeBoundary {
	if iv == nil {
		return nil
	}
	return &iv.Upper
}

// ValidateSafetyEntry checks a single safety entry
func (v *CatalogValidatorImpl) ValidateSafetyEntry(e *entities.SafetyEntry) error {
	if e == nil {
		return fmt.Errorf("safety entry is nil")
	}

	if strings.TrimSpace(e.Name) == "" {
		return fmt.Errorf("empty substance name")
	}
	if len(e.Name) > 100 {
		return fmt.Errorf("substance name too long for %q: %d characters", e.Name, len(e.Name))
	}

	for _, alias := range e.Aliases {
		if strings.TrimSpace(alias) == "" {
			return fmt.Errorf("empty alias on %q", e.Name)
		}
	}

	return nil
}

// ReportCatalogQuality generates a quality report over both catalogs
func (v *CatalogValidatorImpl) ReportCatalogQuality(tierEntries []entities.TierEntry, safetyEntries []entities.SafetyEntry) *interfaces.CatalogQualityReport {
	report := &interfaces.CatalogQualityReport{}

	seen := make(map[string]bool)
	for i := range tierEntries {
		e := &tierEntries[i]
		key := entities.TierKey(e.Drug, e.Method)
		if seen[key] {
			report.DuplicateTierKeys = append(report.DuplicateTierKeys, key)
		}
		seen[key] = true

		if e.Ranges.IsEmpty() {
			report.EntriesWithoutRanges++
		} else if err := validateBandOrdering(e); err != nil {
			report.NonMonotonicEntries = append(report.NonMonotonicEntries, key)
		}
		if !dosing.IsCanonicalRoute(e.Method) {
			report.UnknownRouteMethods++
		}
	}

	for i := range safetyEntries {
		e := &safetyEntries[i]
		if len(e.Doses) == 0 && len(e.DosageText) == 0 {
			report.SafetyWithoutGuidance++
		}
	}

	return report
}

// Package entities defines the reference-catalog data types: tier entries
// carrying normalized dose range sets, and safety entries with their aliases
// and per-route guidance. The raw on-disk shapes are handled by the catalog
// loader; everything in here is already normalized.
package entities

import "strings"

// RangeBoundary is a single boundary value with its own unit. Units may
// differ tier-to-tier within one entry.
type RangeBoundary struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

// RangeInterval is a closed [Lower, Upper] interval.
type RangeInterval struct {
	Lower RangeBoundary `json:"lower"`
	Upper RangeBoundary `json:"upper"`
}

// NormalizedRangeSet is the uniform five-tier shape every raw catalog form is
// adapted into at the load boundary. Threshold and Heavy are single
// boundaries, the middle tiers are intervals. Nil means the source data did
// not define that tier.
type NormalizedRangeSet struct {
	Threshold *RangeBoundary `json:"threshold,omitempty"`
	Light     *RangeInterval `json:"light,omitempty"`
	Common    *RangeInterval `json:"common,omitempty"`
	Strong    *RangeInterval `json:"strong,omitempty"`
	Heavy     *RangeBoundary `json:"heavy,omitempty"`
}

// IsEmpty reports whether no tier is defined at all.
func (rs *NormalizedRangeSet) IsEmpty() bool {
	return rs == nil ||
		(rs.Threshold == nil && rs.Light == nil && rs.Common == nil &&
			rs.Strong == nil && rs.Heavy == nil)
}

// TierEntry is one (substance, administration method) row of the tier
// catalog after load-boundary normalization.
type TierEntry struct {
	Drug   string             `json:"drug"`
	Method string             `json:"method"`
	Ranges NormalizedRangeSet `json:"dose_ranges"`
}

// TierKey returns the case-insensitive lookup key for a (drug, method) pair.
func TierKey(drug, method string) string {
	return strings.ToLower(strings.TrimSpace(drug)) + "|" + strings.ToLower(strings.TrimSpace(method))
}

// SafetyEntry is one substance of the safety catalog. Its schema is distinct
// from TierEntry: the same substance may appear in both catalogs or in only
// one of them.
type SafetyEntry struct {
	Name    string   `json:"name"`
	Aliases []string `json:"aliases,omitempty"`
	// Doses holds pre-formatted per-route tier tables, route -> tier -> text
	// (e.g. "oral" -> "light" -> "50-100mg").
	Doses map[string]map[string]string `json:"doses,omitempty"`
	// DosageText holds free-text dosage descriptions keyed by route, used
	// when no formatted table exists for the route.
	DosageText map[string]string `json:"dosage_text,omitempty"`
	Effects    []string          `json:"effects,omitempty"`
	Onset      string            `json:"onset,omitempty"`
	Duration   string            `json:"duration,omitempty"`
	Avoid      string            `json:"avoid,omitempty"`
	Note       string            `json:"note,omitempty"`
}

// PrimaryName implements the aliased-matching contract.
func (e SafetyEntry) PrimaryName() string { return e.Name }

// AliasNames implements the aliased-matching contract.
func (e SafetyEntry) AliasNames() []string { return e.Aliases }

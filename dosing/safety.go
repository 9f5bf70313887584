package dosing

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/sernyl/doselog-api/catalog/entities"
)

// SafetyInfo is the guidance bundle assembled from the safety catalog. Any
// field may be empty when the catalog has no data for it.
type SafetyInfo struct {
	Substance      string   `json:"substance"`
	DosageGuidance string   `json:"dosageGuidance,omitempty"`
	SafetyWarnings []string `json:"safetyWarnings,omitempty"`
	Effects        []string `json:"effects,omitempty"`
	Onset          string   `json:"onset,omitempty"`
	Duration       string   `json:"duration,omitempty"`
}

// tierTextPattern extracts "tier: value[-value]unit" pairs from free-text
// dosage descriptions, e.g. "light 50-100mg, common 100-200mg".
var tierTextPattern = regexp.MustCompile(`(threshold|light|common|strong|heavy)\s*:?\s*(\d+(?:\.\d+)?)(?:\s*-\s*(\d+(?:\.\d+)?))?\s*(mg|ug|μg|mcg|g|ml)`)

var tierOrder = []string{"threshold", "light", "common", "strong", "heavy"}

// ResolveSafety assembles safety guidance for a substance and dose. It
// returns nil only when the substance cannot be matched in the safety
// catalog at all; every other degradation yields a partial bundle. It never
// panics across this boundary.
func ResolveSafety(substance string, amount float64, unit Unit, route string, catalog []entities.SafetyEntry) *SafetyInfo {
	idx, ok := MatchAliased(substance, catalog)
	if !ok {
		return nil
	}
	entry := catalog[idx]

	info := &SafetyInfo{
		Substance: entry.Name,
		Effects:   append([]string(nil), entry.Effects...),
		Onset:     entry.Onset,
		Duration:  entry.Duration,
	}

	ranges, guidance := routeDoseData(entry, route)
	if guidance == "" {
		guidance = "no specific dosage information for this route"
	}
	info.DosageGuidance = guidance

	var tierWarning string
	if !ranges.IsEmpty() {
		if readable, err := readableRanges(ranges, unit); err == nil {
			switch classifyAmount(amount, readable) {
			case TierStrong:
				tierWarning = fmt.Sprintf("%.4g%s is in the strong range for %s", amount, unit, entry.Name)
			case TierHeavy:
				tierWarning = fmt.Sprintf("%.4g%s is in the heavy range for %s", amount, unit, entry.Name)
			}
		}
	}

	for _, w := range []string{entry.Avoid, tierWarning, entry.Note} {
		if strings.TrimSpace(w) != "" {
			info.SafetyWarnings = append(info.SafetyWarnings, w)
		}
	}

	return info
}

// routeDoseData locates route-specific tier data, preferring the formatted
// per-route table and falling back to regex extraction from the free-text
// dosage description. Both sources missing yields an empty set and no
// guidance text.
func routeDoseData(entry entities.SafetyEntry, route string) (*entities.NormalizedRangeSet, string) {
	route = strings.ToLower(strings.TrimSpace(route))

	if table, ok := entry.Doses[route]; ok && len(table) > 0 {
		rs := rangeSetFromTable(table)
		return rs, formatTierTable(table)
	}

	if text, ok := entry.DosageText[route]; ok && strings.TrimSpace(text) != "" {
		return rangeSetFromText(text), strings.TrimSpace(text)
	}

	return &entities.NormalizedRangeSet{}, ""
}

// rangeSetFromTable parses a formatted tier -> text table ("light" ->
// "50-100mg") into a normalized range set, skipping unparseable cells.
func rangeSetFromTable(table map[string]string) *entities.NormalizedRangeSet {
	rs := &entities.NormalizedRangeSet{}
	for tier, text := range table {
		m := tierTextPattern.FindStringSubmatch(strings.ToLower(tier) + " " + strings.ToLower(text))
		if m == nil {
			continue
		}
		applyTierMatch(rs, strings.ToLower(tier), m[2], m[3], m[4])
	}
	return rs
}

// rangeSetFromText extracts every tier:value pair present in a free-text
// dosage description.
func rangeSetFromText(text string) *entities.NormalizedRangeSet {
	rs := &entities.NormalizedRangeSet{}
	for _, m := range tierTextPattern.FindAllStringSubmatch(strings.ToLower(text), -1) {
		applyTierMatch(rs, m[1], m[2], m[3], m[4])
	}
	return rs
}

func applyTierMatch(rs *entities.NormalizedRangeSet, tier, lower, upper, unit string) {
	lo, err := strconv.ParseFloat(lower, 64)
	if err != nil {
		return
	}
	canonical, ok := CanonicalUnit(unit)
	if !ok {
		return
	}
	u := string(canonical)

	switch tier {
	case "threshold":
		rs.Threshold = &entities.RangeBoundary{Value: lo, Unit: u}
	case "heavy":
		rs.Heavy = &entities.RangeBoundary{Value: lo, Unit: u}
	case "light", "common", "strong":
		hi := lo
		if upper != "" {
			if v, err := strconv.ParseFloat(upper, 64); err == nil {
				hi = v
			}
		}
		iv := &entities.RangeInterval{
			Lower: entities.RangeBoundary{Value: lo, Unit: u},
			Upper: entities.RangeBoundary{Value: hi, Unit: u},
		}
		switch tier {
		case "light":
			rs.Light = iv
		case "common":
			rs.Common = iv
		case "strong":
			rs.Strong = iv
		}
	}
}

// formatTierTable renders a formatted tier table as one guidance line in
// canonical tier order.
func formatTierTable(table map[string]string) string {
	parts := make([]string, 0, len(table))
	for _, tier := range tierOrder {
		if text, ok := table[tier]; ok && strings.TrimSpace(text) != "" {
			parts = append(parts, tier+": "+strings.TrimSpace(text))
		}
	}
	return strings.Join(parts, ", ")
}

package catalogloader

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/sernyl/doselog-api/catalog/entities"
	"github.com/sernyl/doselog-api/dosing"
)

// The tier catalog arrives with per-tier values in several shapes: structured
// boundary objects, structured intervals, compact strings ("20mg",
// "50-100mg") and bare numbers (implied mg). The adapter collapses all of
// them into one NormalizedRangeSet at the load boundary so the classifier
// never branches on shape.

var compactRangePattern = regexp.MustCompile(`^(\d+(?:\.\d+)?)(?:\s*-\s*(\d+(?:\.\d+)?))?\s*(mg|ug|μg|mcg|g|ml)$`)

type rawBoundary struct {
	Value *float64 `json:"value"`
	Lower *float64 `json:"lower"`
	Upper *float64 `json:"upper"`
	Unit  string   `json:"unit"`
}

// adaptRangeSet converts a raw dose_ranges object into the normalized shape.
// Unknown tier keys are ignored; a malformed tier value fails the whole
// entry so the loader can skip and count it.
func adaptRangeSet(raw map[string]json.RawMessage) (entities.NormalizedRangeSet, error) {
	var rs entities.NormalizedRangeSet

	for tier, msg := range raw {
		lower, upper, hasUpper, err := parseTierValue(msg)
		if err != nil {
			return entities.NormalizedRangeSet{}, fmt.Errorf("tier %q: %w", tier, err)
		}

		switch strings.ToLower(tier) {
		case "threshold":
			rs.Threshold = &lower
		case "heavy":
			rs.Heavy = &lower
		case "light", "common", "strong":
			hi := lower
			if hasUpper {
				hi = upper
			}
			iv := &entities.RangeInterval{Lower: lower, Upper: hi}
			switch strings.ToLower(tier) {
			case "light":
				rs.Light = iv
			case "common":
				rs.Common = iv
			case "strong":
				rs.Strong = iv
			}
		}
	}

	return rs, nil
}

// parseTierValue handles the individual shapes a tier value can take.
func parseTierValue(msg json.RawMessage) (lower, upper entities.RangeBoundary, hasUpper bool, err error) {
	trimmed := strings.TrimSpace(string(msg))
	if trimmed == "" || trimmed == "null" {
		return lower, upper, false, fmt.Errorf("empty tier value")
	}

	switch trimmed[0] {
	case '{':
		var b rawBoundary
		if err := json.Unmarshal(msg, &b); err != nil {
			return lower, upper, false, fmt.Errorf("malformed tier object: %w", err)
		}
		unit, ok := dosing.CanonicalUnit(strings.ToLower(strings.TrimSpace(b.Unit)))
		if !ok {
			return lower, upper, false, fmt.Errorf("unknown unit %q", b.Unit)
		}
		switch {
		case b.Lower != nil:
			lower = entities.RangeBoundary{Value: *b.Lower, Unit: string(unit)}
			if b.Upper != nil {
				return lower, entities.RangeBoundary{Value: *b.Upper, Unit: string(unit)}, true, nil
			}
			return lower, lower, false, nil
		case b.Value != nil:
			lower = entities.RangeBoundary{Value: *b.Value, Unit: string(unit)}
			return lower, lower, false, nil
		default:
			return lower, upper, false, fmt.Errorf("tier object has neither value nor lower")
		}

	case '"':
		var s string
		if err := json.Unmarshal(msg, &s); err != nil {
			return lower, upper, false, fmt.Errorf("malformed tier string: %w", err)
		}
		return parseCompactRange(s)

	default:
		// Bare number, implied mg.
		v, convErr := strconv.ParseFloat(trimmed, 64)
		if convErr != nil {
			return lower, upper, false, fmt.Errorf("malformed tier value %q", trimmed)
		}
		lower = entities.RangeBoundary{Value: v, Unit: string(dosing.UnitMg)}
		return lower, lower, false, nil
	}
}

// parseCompactRange parses "20mg" and "50-100mg" forms.
func parseCompactRange(s string) (lower, upper entities.RangeBoundary, hasUpper bool, err error) {
	m := compactRangePattern.FindStringSubmatch(strings.ToLower(strings.TrimSpace(s)))
	if m == nil {
		return lower, upper, false, fmt.Errorf("unparseable range %q", s)
	}

	unit, ok := dosing.CanonicalUnit(m[3])
	if !ok {
		return lower, upper, false, fmt.Errorf("unknown unit %q", m[3])
	}

	lo, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return lower, upper, false, fmt.Errorf("unparseable range %q", s)
	}
	lower = entities.RangeBoundary{Value: lo, Unit: string(unit)}

	if m[2] != "" {
		hi, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			return lower, upper, false, fmt.Errorf("unparseable range %q", s)
		}
		return lower, entities.RangeBoundary{Value: hi, Unit: string(unit)}, true, nil
	}

	return lower, lower, false, nil
}

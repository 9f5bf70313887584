package dosing

import (
	"fmt"
	"strings"

	"github.com/sernyl/doselog-api/catalog/entities"
)

// Tier is one of the five ordered dose-intensity bands. The zero value means
// the amount fell into a gap between bands.
type Tier string

const (
	TierSubthreshold Tier = "subthreshold"
	TierLight        Tier = "light"
	TierCommon       Tier = "common"
	TierStrong       Tier = "strong"
	TierHeavy        Tier = "heavy"
)

// ReadableBound is a boundary rendered in the caller's requested unit.
type ReadableBound struct {
	Value float64 `json:"value"`
	Unit  Unit    `json:"unit"`
}

// ReadableInterval is an interval rendered in the caller's requested unit.
type ReadableInterval struct {
	Lower ReadableBound `json:"lower"`
	Upper ReadableBound `json:"upper"`
}

// ReadableRanges carries up to five tiers converted into one unit for
// display.
type ReadableRanges struct {
	Threshold *ReadableBound    `json:"threshold,omitempty"`
	Light     *ReadableInterval `json:"light,omitempty"`
	Common    *ReadableInterval `json:"common,omitempty"`
	Strong    *ReadableInterval `json:"strong,omitempty"`
	Heavy     *ReadableBound    `json:"heavy,omitempty"`
}

// Classification is the classifier's result. Found is false when the
// (substance, route) pair has no tier data; that is a benign outcome, not an
// error.
type Classification struct {
	Found    bool           `json:"found"`
	Tier     Tier           `json:"tier,omitempty"`
	Analysis string         `json:"analysis"`
	Ranges   ReadableRanges `json:"ranges"`
}

const cautionSuffix = " Exercise caution: this is above the common range."

// Classify determines which intensity band an amount falls into for a
// (substance, route) pair, rendering the entry's ranges in the caller's
// unit. It never panics across this boundary: malformed range data degrades
// to a not-found result.
func Classify(substance, route string, amount float64, unit Unit, tiers map[string]entities.TierEntry) Classification {
	entry, ok := tiers[entities.TierKey(substance, route)]
	if !ok {
		return Classification{
			Analysis: fmt.Sprintf("no dose tier data for %s via %s", strings.ToLower(substance), strings.ToLower(route)),
		}
	}

	ranges, err := readableRanges(&entry.Ranges, unit)
	if err != nil {
		// Range data with units we cannot convert; treat as missing.
		return Classification{
			Analysis: fmt.Sprintf("dose tier data for %s via %s is unusable", strings.ToLower(substance), strings.ToLower(route)),
		}
	}

	tier := classifyAmount(amount, ranges)
	c := Classification{
		Found:  true,
		Tier:   tier,
		Ranges: ranges,
	}

	switch tier {
	case TierSubthreshold:
		c.Analysis = fmt.Sprintf("%.4g%s of %s is below the threshold dose", amount, unit, entry.Drug)
	case TierLight:
		c.Analysis = fmt.Sprintf("%.4g%s of %s is a light dose", amount, unit, entry.Drug)
	case TierCommon:
		c.Analysis = fmt.Sprintf("%.4g%s of %s is a common dose", amount, unit, entry.Drug)
	case TierStrong:
		c.Analysis = fmt.Sprintf("%.4g%s of %s is a strong dose.%s", amount, unit, entry.Drug, cautionSuffix)
	case TierHeavy:
		c.Analysis = fmt.Sprintf("%.4g%s of %s is a heavy dose.%s", amount, unit, entry.Drug, cautionSuffix)
	default:
		c.Analysis = fmt.Sprintf("%.4g%s of %s falls between documented dose ranges", amount, unit, entry.Drug)
	}

	return c
}

// classifyAmount walks the bands first-match-wins with inclusive interval
// bounds. Gaps between bands yield an empty tier.
func classifyAmount(amount float64, r ReadableRanges) Tier {
	if r.Threshold != nil && amount < r.Threshold.Value {
		return TierSubthreshold
	}
	if within(amount, r.Light) {
		return TierLight
	}
	if within(amount, r.Common) {
		return TierCommon
	}
	if within(amount, r.Strong) {
		return TierStrong
	}
	if r.Heavy != nil && amount >= r.Heavy.Value {
		return TierHeavy
	}
	return ""
}

func within(amount float64, iv *ReadableInterval) bool {
	return iv != nil && amount >= iv.Lower.Value && amount <= iv.Upper.Value
}

// readableRanges converts a normalized range set into the requested unit.
func readableRanges(rs *entities.NormalizedRangeSet, unit Unit) (ReadableRanges, error) {
	var out ReadableRanges
	var err error

	if out.Threshold, err = convertBound(rs.Threshold, unit); err != nil {
		return ReadableRanges{}, err
	}
	if out.Light, err = convertInterval(rs.Light, unit); err != nil {
		return ReadableRanges{}, err
	}
	if out.Common, err = convertInterval(rs.Common, unit); err != nil {
		return ReadableRanges{}, err
	}
	if out.Strong, err = convertInterval(rs.Strong, unit); err != nil {
		return ReadableRanges{}, err
	}
	if out.Heavy, err = convertBound(rs.Heavy, unit); err != nil {
		return ReadableRanges{}, err
	}

	return out, nil
}

func convertBound(b *entities.RangeBoundary, unit Unit) (*ReadableBound, error) {
	if b == nil {
		return nil, nil
	}
	from, ok := CanonicalUnit(b.Unit)
	if !ok {
		return nil, &UnsupportedUnitError{Unit: b.Unit}
	}
	v, err := NormalizeUnit(b.Value, from, unit)
	if err != nil {
		return nil, err
	}
	return &ReadableBound{Value: v, Unit: unit}, nil
}

func convertInterval(iv *entities.RangeInterval, unit Unit) (*ReadableInterval, error) {
	if iv == nil {
		return nil, nil
	}
	lower, err := convertBound(&iv.Lower, unit)
	if err != nil {
		return nil, err
	}
	upper, err := convertBound(&iv.Upper, unit)
	if err != nil {
		return nil, err
	}
	return &ReadableInterval{Lower: *lower, Upper: *upper}, nil
}

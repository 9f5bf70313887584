package catalogloader

import (
	"encoding/json"
	"testing"
)

func TestAdaptRangeSetObjectShapes(t *testing.T) {
	raw := map[string]json.RawMessage{
		"threshold": json.RawMessage(`{"value": 10, "unit": "mg"}`),
		"light":     json.RawMessage(`{"lower": 10, "upper": 50, "unit": "mg"}`),
		"common":    json.RawMessage(`{"lower": 50, "upper": 150, "unit": "mg"}`),
		"heavy":     json.RawMessage(`{"value": 400, "unit": "mg"}`),
	}

	rs, err := adaptRangeSet(raw)
	if err != nil {
		t.Fatalf("adaptRangeSet error: %v", err)
	}

	if rs.Threshold == nil || rs.Threshold.Value != 10 || rs.Threshold.Unit != "mg" {
		t.Errorf("threshold = %+v, want 10mg", rs.Threshold)
	}
	if rs.Light == nil || rs.Light.Lower.Value != 10 || rs.Light.Upper.Value != 50 {
		t.Errorf("light = %+v, want [10, 50]", rs.Light)
	}
	if rs.Heavy == nil || rs.Heavy.Value != 400 {
		t.Errorf("heavy = %+v, want 400", rs.Heavy)
	}
	if rs.Strong != nil {
		t.Errorf("strong = %+v, want nil for an undefined tier", rs.Strong)
	}
}

func TestAdaptRangeSetCompactStrings(t *testing.T) {
	raw := map[string]json.RawMessage{
		"light":  json.RawMessage(`"10-50mg"`),
		"common": json.RawMessage(`"0.05-0.15g"`),
		"heavy":  json.RawMessage(`"400mg"`),
	}

	rs, err := adaptRangeSet(raw)
	if err != nil {
		t.Fatalf("adaptRangeSet error: %v", err)
	}

	if rs.Light == nil || rs.Light.Lower.Value != 10 || rs.Light.Upper.Value != 50 || rs.Light.Lower.Unit != "mg" {
		t.Errorf("light = %+v, want [10, 50] mg", rs.Light)
	}
	if rs.Common == nil || rs.Common.Lower.Value != 0.05 || rs.Common.Upper.Unit != "g" {
		t.Errorf("common = %+v, want [0.05, 0.15] g", rs.Common)
	}
	if rs.Heavy == nil || rs.Heavy.Value != 400 {
		t.Errorf("heavy = %+v, want 400mg", rs.Heavy)
	}
}

func TestAdaptRangeSetBareNumbers(t *testing.T) {
	raw := map[string]json.RawMessage{
		"threshold": json.RawMessage(`5`),
		"common":    json.RawMessage(`100`),
	}

	rs, err := adaptRangeSet(raw)
	if err != nil {
		t.Fatalf("adaptRangeSet error: %v", err)
	}

	if rs.Threshold == nil || rs.Threshold.Value != 5 || rs.Threshold.Unit != "mg" {
		t.Errorf("threshold = %+v, want 5 implied mg", rs.Threshold)
	}
	// A bare number tier becomes a degenerate interval
	if rs.Common == nil || rs.Common.Lower.Value != 100 || rs.Common.Upper.Value != 100 {
		t.Errorf("common = %+v, want [100, 100]", rs.Common)
	}
}

func TestAdaptRangeSetUnitSpellings(t *testing.T) {
	raw := map[string]json.RawMessage{
		"light": json.RawMessage(`"100-500mcg"`),
	}

	rs, err := adaptRangeSet(raw)
	if err != nil {
		t.Fatalf("adaptRangeSet error: %v", err)
	}
	if rs.Light == nil || rs.Light.Lower.Unit != "ug" {
		t.Errorf("light = %+v, want mcg canonicalized to ug", rs.Light)
	}
}

func TestAdaptRangeSetIgnoresUnknownTiers(t *testing.T) {
	raw := map[string]json.RawMessage{
		"light":     json.RawMessage(`"10-50mg"`),
		"legendary": json.RawMessage(`"9000mg"`),
	}

	rs, err := adaptRangeSet(raw)
	if err != nil {
		t.Fatalf("adaptRangeSet error: %v", err)
	}
	if rs.Light == nil {
		t.Error("known tier dropped")
	}
}

func TestAdaptRangeSetMalformed(t *testing.T) {
	tests := []struct {
		name string
		raw  map[string]json.RawMessage
	}{
		{"unknown unit in object", map[string]json.RawMessage{"light": json.RawMessage(`{"lower": 1, "upper": 2, "unit": "drops"}`)}},
		{"unknown unit in string", map[string]json.RawMessage{"light": json.RawMessage(`"10-50oz"`)}},
		{"object without values", map[string]json.RawMessage{"light": json.RawMessage(`{"unit": "mg"}`)}},
		{"unparseable string", map[string]json.RawMessage{"light": json.RawMessage(`"lots"`)}},
		{"null tier", map[string]json.RawMessage{"light": json.RawMessage(`null`)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := adaptRangeSet(tt.raw); err == nil {
				t.Error("adaptRangeSet should reject malformed input")
			}
		})
	}
}

func TestParseCompactRangeWhitespace(t *testing.T) {
	lower, upper, hasUpper, err := parseCompactRange("  50 - 100 mg ")
	if err != nil {
		t.Fatalf("parseCompactRange error: %v", err)
	}
	if !hasUpper || lower.Value != 50 || upper.Value != 100 {
		t.Errorf("got %+v..%+v (hasUpper=%v), want 50..100", lower, upper, hasUpper)
	}
}

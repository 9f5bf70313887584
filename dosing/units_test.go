package dosing

import (
	"errors"
	"math"
	"testing"
)

func TestCanonicalUnit(t *testing.T) {
	tests := []struct {
		raw  string
		want Unit
		ok   bool
	}{
		{"mg", UnitMg, true},
		{"g", UnitG, true},
		{"ug", UnitUg, true},
		{"μg", UnitUg, true},
		{"mcg", UnitUg, true},
		{"ml", UnitMl, true},
		{"kg", "", false},
		{"oz", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := CanonicalUnit(tt.raw)
			if ok != tt.ok {
				t.Fatalf("CanonicalUnit(%q) ok = %v, want %v", tt.raw, ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Errorf("CanonicalUnit(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestConvertToMg(t *testing.T) {
	tests := []struct {
		name  string
		value float64
		unit  Unit
		want  float64
	}{
		{"mg identity", 200, UnitMg, 200},
		{"g scales up", 1.5, UnitG, 1500},
		{"ug scales down", 500, UnitUg, 0.5},
		{"ml passes through", 30, UnitMl, 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ConvertToMg(tt.value, tt.unit)
			if err != nil {
				t.Fatalf("ConvertToMg(%v, %q) error: %v", tt.value, tt.unit, err)
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("ConvertToMg(%v, %q) = %v, want %v", tt.value, tt.unit, got, tt.want)
			}
		})
	}
}

func TestConvertToMgUnsupported(t *testing.T) {
	_, err := ConvertToMg(1, Unit("kg"))
	if err == nil {
		t.Fatal("expected error for unsupported unit")
	}
	var ue *UnsupportedUnitError
	if !errors.As(err, &ue) {
		t.Fatalf("expected *UnsupportedUnitError, got %T", err)
	}
	if ue.Unit != "kg" {
		t.Errorf("error unit = %q, want %q", ue.Unit, "kg")
	}
}

func TestNormalizeUnit(t *testing.T) {
	tests := []struct {
		name string
		v    float64
		from Unit
		to   Unit
		want float64
	}{
		{"mg to g", 1500, UnitMg, UnitG, 1.5},
		{"g to ug", 0.001, UnitG, UnitUg, 1000},
		{"ug to mg", 250, UnitUg, UnitMg, 0.25},
		{"same unit", 42, UnitMg, UnitMg, 42},
		{"ml to ml", 10, UnitMl, UnitMl, 10},
		{"ml to mg unchanged", 30, UnitMl, UnitMg, 30},
		{"mg to ml unchanged", 30, UnitMg, UnitMl, 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeUnit(tt.v, tt.from, tt.to)
			if err != nil {
				t.Fatalf("NormalizeUnit error: %v", err)
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("NormalizeUnit(%v, %q, %q) = %v, want %v", tt.v, tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestNormalizeUnitRoundTrip(t *testing.T) {
	// Converting there and back should recover the original value for every
	// mass unit pair.
	units := []Unit{UnitMg, UnitG, UnitUg}
	for _, from := range units {
		for _, to := range units {
			v, err := NormalizeUnit(123.45, from, to)
			if err != nil {
				t.Fatalf("NormalizeUnit(%q, %q) error: %v", from, to, err)
			}
			back, err := NormalizeUnit(v, to, from)
			if err != nil {
				t.Fatalf("NormalizeUnit(%q, %q) error: %v", to, from, err)
			}
			if math.Abs(back-123.45) > 1e-9 {
				t.Errorf("round trip %q -> %q -> %q = %v, want 123.45", from, to, from, back)
			}
		}
	}
}

func TestStorageUnit(t *testing.T) {
	if got := StorageUnit(UnitG); got != UnitMg {
		t.Errorf("StorageUnit(g) = %q, want mg", got)
	}
	if got := StorageUnit(UnitUg); got != UnitMg {
		t.Errorf("StorageUnit(ug) = %q, want mg", got)
	}
	if got := StorageUnit(UnitMl); got != UnitMl {
		t.Errorf("StorageUnit(ml) = %q, want ml", got)
	}
}

func TestKnownUnits(t *testing.T) {
	units := KnownUnits()
	if len(units) != 4 {
		t.Fatalf("KnownUnits() length = %d, want 4", len(units))
	}
	for _, u := range units {
		if _, ok := CanonicalUnit(string(u)); !ok {
			t.Errorf("KnownUnits() contains %q which CanonicalUnit rejects", u)
		}
	}
}

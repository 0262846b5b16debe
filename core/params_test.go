package core

import (
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"
)

func TestDefaultParametersAreValid(t *testing.T) {
	params := DefaultParameters()
	if err := params.Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
	if params.Count != 100000 || params.Branches != 3 || params.Radius != 5 {
		t.Errorf("unexpected defaults: %+v", params)
	}
	if got := params.InsideColor.String(); got != "#ff6030" {
		t.Errorf("inside color %s, want #ff6030", got)
	}
	if got := params.OutsideColor.String(); got != "#1b3984" {
		t.Errorf("outside color %s, want #1b3984", got)
	}
}

func TestValidateRejectsOutOfRange(t *testing.T) {
	tests := []struct {
		name  string
		field string
		value float64
	}{
		{"count too small", FieldCount, 50},
		{"count too large", FieldCount, 100100},
		{"size zero", FieldSize, 0},
		{"radius too large", FieldRadius, 25},
		{"one branch", FieldBranches, 1},
		{"spin below", FieldSpin, -5.5},
		{"randomness above", FieldRandomness, 2.1},
		{"power below one", FieldRandomnessPower, 0.5},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			params := DefaultParameters()
			if err := params.Set(tc.field, tc.value); err != nil {
				t.Fatal(err)
			}
			if err := params.Validate(); !errors.Is(err, ErrOutOfRange) {
				t.Errorf("got %v, want ErrOutOfRange", err)
			}
		})
	}
}

func TestGetSetRoundTrip(t *testing.T) {
	params := DefaultParameters()
	for _, f := range Fields() {
		if f.Kind == FieldColor {
			continue
		}
		if err := params.Set(f.Name, f.Max); err != nil {
			t.Fatalf("%s: %v", f.Name, err)
		}
		got, err := params.Get(f.Name)
		if err != nil {
			t.Fatalf("%s: %v", f.Name, err)
		}
		if math.Abs(got-f.Max) > 1e-12 {
			t.Errorf("%s: got %f, want %f", f.Name, got, f.Max)
		}
	}
	if _, err := params.Get("bogus"); err == nil {
		t.Errorf("expected error for unknown field")
	}
}

func TestColorJSON(t *testing.T) {
	params := DefaultParameters()
	data, err := json.Marshal(params)
	if err != nil {
		t.Fatal(err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatal(err)
	}
	if raw["insideColor"] != "#ff6030" {
		t.Errorf("insideColor encoded as %v", raw["insideColor"])
	}

	var decoded ParameterSet
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.OutsideColor.String() != "#1b3984" {
		t.Errorf("outsideColor decoded as %s", decoded.OutsideColor)
	}

	if err := json.Unmarshal([]byte(`{"insideColor":"#zzz"}`), &decoded); err == nil {
		t.Errorf("expected error for invalid hex")
	}
}

func TestColorLerp(t *testing.T) {
	black := MustHex("#000")
	white := MustHex("#fff")

	mid := black.Lerp(white, 0.5).RGB()
	for _, c := range []float64{mid.R, mid.G, mid.B} {
		if math.Abs(c-0.5) > 1e-12 {
			t.Fatalf("midpoint %+v", mid)
		}
	}
}

func TestFieldsTable(t *testing.T) {
	got := Fields()
	if len(got) != 9 {
		t.Fatalf("got %d fields, want 9", len(got))
	}
	f, ok := LookupField(FieldCount)
	if !ok || f.Min != 100 || f.Max != 100000 || f.Step != 100 || f.Kind != FieldInt {
		t.Errorf("count field: %+v", f)
	}
	got[0].Max = 1
	if again, _ := LookupField(FieldCount); again.Max != 100000 {
		t.Errorf("Fields must return a copy")
	}
}

func TestFieldsJSONRoundTrip(t *testing.T) {
	data, err := json.Marshal(Fields())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"kind":"color"`) {
		t.Errorf("kind not encoded as text: %s", data)
	}
	var decoded []Field
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	for i, f := range Fields() {
		if decoded[i] != f {
			t.Errorf("field %d: got %+v, want %+v", i, decoded[i], f)
		}
	}

	var k FieldKind
	if err := json.Unmarshal([]byte(`"vector"`), &k); err == nil {
		t.Errorf("unknown kind decoded as %v", k)
	}
}

package core

import (
	"fmt"
	"math"
)

// FieldKind tells a parameter boundary how to edit a field.
type FieldKind int

const (
	FieldInt FieldKind = iota
	FieldFloat
	FieldColor
)

func (k FieldKind) String() string {
	switch k {
	case FieldInt:
		return "int"
	case FieldFloat:
		return "float"
	case FieldColor:
		return "color"
	default:
		return "unknown"
	}
}

func (k FieldKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *FieldKind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "int":
		*k = FieldInt
	case "float":
		*k = FieldFloat
	case "color":
		*k = FieldColor
	default:
		return fmt.Errorf("unknown field kind %q", text)
	}
	return nil
}

// Field describes one editable ParameterSet field. Min, Max and Step are
// zero for color fields.
type Field struct {
	Name string    `json:"name"`
	Kind FieldKind `json:"kind"`
	Min  float64   `json:"min"`
	Max  float64   `json:"max"`
	Step float64   `json:"step"`
}

// Field names as used by panels, settings and the web viewer.
const (
	FieldCount           = "count"
	FieldSize            = "size"
	FieldRadius          = "radius"
	FieldBranches        = "branches"
	FieldSpin            = "spin"
	FieldRandomness      = "randomness"
	FieldRandomnessPower = "randomnessPower"
	FieldInsideColor     = "insideColor"
	FieldOutsideColor    = "outsideColor"
)

var fields = []Field{
	{Name: FieldCount, Kind: FieldInt, Min: 100, Max: 100000, Step: 100},
	{Name: FieldSize, Kind: FieldFloat, Min: 0.001, Max: 0.1, Step: 0.001},
	{Name: FieldRadius, Kind: FieldFloat, Min: 0.01, Max: 20, Step: 0.01},
	{Name: FieldBranches, Kind: FieldInt, Min: 2, Max: 20, Step: 1},
	{Name: FieldSpin, Kind: FieldFloat, Min: -5, Max: 5, Step: 0.001},
	{Name: FieldRandomness, Kind: FieldFloat, Min: 0, Max: 2, Step: 0.001},
	{Name: FieldRandomnessPower, Kind: FieldFloat, Min: 1, Max: 10, Step: 0.001},
	{Name: FieldInsideColor, Kind: FieldColor},
	{Name: FieldOutsideColor, Kind: FieldColor},
}

// Fields returns the field table in display order.
func Fields() []Field {
	out := make([]Field, len(fields))
	copy(out, fields)
	return out
}

// LookupField returns the field description for name.
func LookupField(name string) (Field, bool) {
	for _, f := range fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// ParameterSet holds the shape and color parameters of a galaxy
type ParameterSet struct {
	Count           int     `json:"count"`
	Size            float64 `json:"size"`
	Radius          float64 `json:"radius"`
	Branches        int     `json:"branches"`
	Spin            float64 `json:"spin"`
	Randomness      float64 `json:"randomness"`
	RandomnessPower float64 `json:"randomnessPower"`
	InsideColor     Color   `json:"insideColor"`
	OutsideColor    Color   `json:"outsideColor"`
}

// DefaultParameters returns the startup galaxy.
func DefaultParameters() ParameterSet {
	return ParameterSet{
		Count:           100000,
		Size:            0.01,
		Radius:          5,
		Branches:        3,
		Spin:            1,
		Randomness:      0.2,
		RandomnessPower: 3,
		InsideColor:     MustHex("#ff6030"),
		OutsideColor:    MustHex("#1b3984"),
	}
}

// Get returns a numeric field by name.
func (p ParameterSet) Get(name string) (float64, error) {
	switch name {
	case FieldCount:
		return float64(p.Count), nil
	case FieldSize:
		return p.Size, nil
	case FieldRadius:
		return p.Radius, nil
	case FieldBranches:
		return float64(p.Branches), nil
	case FieldSpin:
		return p.Spin, nil
	case FieldRandomness:
		return p.Randomness, nil
	case FieldRandomnessPower:
		return p.RandomnessPower, nil
	}
	return 0, fmt.Errorf("no numeric field %q", name)
}

// Set assigns a numeric field by name. It does not range-check; that is
// the job of whichever boundary accepted the value.
func (p *ParameterSet) Set(name string, v float64) error {
	switch name {
	case FieldCount:
		p.Count = int(math.Round(v))
	case FieldSize:
		p.Size = v
	case FieldRadius:
		p.Radius = v
	case FieldBranches:
		p.Branches = int(math.Round(v))
	case FieldSpin:
		p.Spin = v
	case FieldRandomness:
		p.Randomness = v
	case FieldRandomnessPower:
		p.RandomnessPower = v
	default:
		return fmt.Errorf("no numeric field %q", name)
	}
	return nil
}

// GetColor returns a color field by name.
func (p ParameterSet) GetColor(name string) (Color, error) {
	switch name {
	case FieldInsideColor:
		return p.InsideColor, nil
	case FieldOutsideColor:
		return p.OutsideColor, nil
	}
	return Color{}, fmt.Errorf("no color field %q", name)
}

// SetColor assigns a color field by name.
func (p *ParameterSet) SetColor(name string, c Color) error {
	switch name {
	case FieldInsideColor:
		p.InsideColor = c
	case FieldOutsideColor:
		p.OutsideColor = c
	default:
		return fmt.Errorf("no color field %q", name)
	}
	return nil
}

// Validate reports the first numeric field outside its declared range.
func (p ParameterSet) Validate() error {
	for _, f := range fields {
		if f.Kind == FieldColor {
			continue
		}
		v, err := p.Get(f.Name)
		if err != nil {
			return err
		}
		if v < f.Min || v > f.Max {
			return fmt.Errorf("%w: %s=%g not in [%g, %g]", ErrOutOfRange, f.Name, v, f.Min, f.Max)
		}
	}
	return nil
}

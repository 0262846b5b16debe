// Package panel is the parameter-editing boundary. Edits are clamped to
// each field's range and snapped to its step; only FinishChange and Commit
// notify the owner, so a slider drag produces a single regeneration.
package panel

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"

	"galaxygenerator/core"
)

// ErrUnknownControl is returned for a control name the panel does not have
var ErrUnknownControl = errors.New("unknown control")

// CommitFunc receives the full parameter set once an edit is finished.
type CommitFunc func(params core.ParameterSet)

// Panel holds the working ParameterSet behind a list of controls.
type Panel struct {
	params   core.ParameterSet
	controls []core.Field
	selected int
	onCommit CommitFunc
	logger   *slog.Logger
}

// New creates a panel seeded with params. Each numeric field is clamped on
// entry so the working set always satisfies its ranges.
func New(params core.ParameterSet, onCommit CommitFunc, logger *slog.Logger) *Panel {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Panel{
		controls: core.Fields(),
		onCommit: onCommit,
		logger:   logger.With("component", "panel"),
	}
	p.params = p.clampAll(params)
	return p
}

// Params returns a copy of the working set.
func (p *Panel) Params() core.ParameterSet {
	return p.params
}

// Controls returns the controls in display order.
func (p *Panel) Controls() []core.Field {
	out := make([]core.Field, len(p.controls))
	copy(out, p.controls)
	return out
}

func (p *Panel) control(name string) (core.Field, error) {
	for _, c := range p.controls {
		if c.Name == name {
			return c, nil
		}
	}
	return core.Field{}, fmt.Errorf("%w: %q", ErrUnknownControl, name)
}

// Change is an intermediate edit, e.g. one step of a drag. It updates the
// working set and returns the value actually stored; it never commits.
func (p *Panel) Change(name string, v float64) (float64, error) {
	c, err := p.control(name)
	if err != nil {
		return 0, err
	}
	if c.Kind == core.FieldColor {
		return 0, fmt.Errorf("control %q is a color", name)
	}
	v = Clamp(c, v)
	if err := p.params.Set(name, v); err != nil {
		return 0, err
	}
	return v, nil
}

// Nudge changes a numeric control by steps increments.
func (p *Panel) Nudge(name string, steps int) (float64, error) {
	c, err := p.control(name)
	if err != nil {
		return 0, err
	}
	cur, err := p.params.Get(name)
	if err != nil {
		return 0, err
	}
	return p.Change(name, cur+float64(steps)*c.Step)
}

// SetColor is an intermediate edit of a color control.
func (p *Panel) SetColor(name string, col core.Color) error {
	if _, err := p.control(name); err != nil {
		return err
	}
	return p.params.SetColor(name, col)
}

// FinishChange ends an edit of name and commits the working set. Every
// call commits, even if nothing changed.
func (p *Panel) FinishChange(name string) error {
	if _, err := p.control(name); err != nil {
		return err
	}
	p.logger.Debug("Edit finished", "operation", "finish_change", "control", name)
	p.commit()
	return nil
}

// Commit replaces the working set with params, clamping every numeric
// field, and commits once. Used by transports whose client already
// debounces edits.
func (p *Panel) Commit(params core.ParameterSet) core.ParameterSet {
	p.params = p.clampAll(params)
	p.commit()
	return p.params
}

func (p *Panel) commit() {
	if p.onCommit != nil {
		p.onCommit(p.params)
	}
}

func (p *Panel) clampAll(params core.ParameterSet) core.ParameterSet {
	for _, c := range p.controls {
		if c.Kind == core.FieldColor {
			continue
		}
		v, err := params.Get(c.Name)
		if err != nil {
			continue
		}
		clamped := Clamp(c, v)
		if clamped != v {
			p.logger.Debug("Clamped parameter", "operation", "clamp", "control", c.Name, "from", v, "to", clamped)
		}
		_ = params.Set(c.Name, clamped)
	}
	return params
}

// Clamp limits v to the control's range and snaps it to the nearest step
// counted from Min.
func Clamp(c core.Field, v float64) float64 {
	if math.IsNaN(v) {
		return c.Min
	}
	if c.Step > 0 {
		steps := math.Round((v - c.Min) / c.Step)
		v = c.Min + steps*c.Step
		// Trim float noise to the step's decimal places
		scale := math.Pow(10, math.Max(0, math.Ceil(-math.Log10(c.Step))))
		v = math.Round(v*scale) / scale
	}
	if v < c.Min {
		v = c.Min
	}
	if v > c.Max {
		v = c.Max
	}
	return v
}

// Selected returns the name of the selected control.
func (p *Panel) Selected() string {
	return p.controls[p.selected].Name
}

// SelectedField returns the selected control.
func (p *Panel) SelectedField() core.Field {
	return p.controls[p.selected]
}

// Select makes name the selected control.
func (p *Panel) Select(name string) error {
	for i, c := range p.controls {
		if c.Name == name {
			p.selected = i
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownControl, name)
}

func (p *Panel) SelectNext() {
	p.selected = (p.selected + 1) % len(p.controls)
}

func (p *Panel) SelectPrev() {
	p.selected = (p.selected - 1 + len(p.controls)) % len(p.controls)
}

// Fraction returns where a numeric control sits within its range, in [0,1].
func (p *Panel) Fraction(name string) float64 {
	c, err := p.control(name)
	if err != nil || c.Kind == core.FieldColor || c.Max == c.Min {
		return 0
	}
	v, err := p.params.Get(name)
	if err != nil {
		return 0
	}
	return (v - c.Min) / (c.Max - c.Min)
}

// StepSelected applies one intermediate edit to the selected control: a
// numeric control moves by steps increments, a color control moves through
// Palette. It returns the name of the edited control.
func (p *Panel) StepSelected(steps int) (string, error) {
	c := p.SelectedField()
	if c.Kind == core.FieldColor {
		current, err := p.params.GetColor(c.Name)
		if err != nil {
			return c.Name, err
		}
		return c.Name, p.SetColor(c.Name, NextColor(current, steps))
	}
	_, err := p.Nudge(c.Name, steps)
	return c.Name, err
}

// Format renders a control's current value for a text panel.
func (p *Panel) Format(name string) string {
	c, err := p.control(name)
	if err != nil {
		return "?"
	}
	switch c.Kind {
	case core.FieldColor:
		col, _ := p.params.GetColor(name)
		return col.String()
	case core.FieldInt:
		v, _ := p.params.Get(name)
		return strconv.Itoa(int(v))
	default:
		v, _ := p.params.Get(name)
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
}

// Palette is the set of colors keyboard-driven viewers cycle through.
var Palette = []string{
	"#ff6030", "#1b3984", "#ffffff", "#ffcc66",
	"#66ccff", "#ff66cc", "#66ff99", "#9966ff",
}

// NextColor moves one palette entry forward (dir > 0) or back from current.
// A color outside the palette moves to the first entry going forward and
// the last going back.
func NextColor(current core.Color, dir int) core.Color {
	idx := -1
	for i, hex := range Palette {
		if current.String() == hex {
			idx = i
			break
		}
	}
	step := 1
	if dir < 0 {
		step = -1
		if idx < 0 {
			idx = 0
		}
	}
	n := len(Palette)
	idx = ((idx+step)%n + n) % n
	return core.MustHex(Palette[idx])
}

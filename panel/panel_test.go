package panel

import (
	"errors"
	"testing"

	"galaxygenerator/core"
)

type recorder struct {
	commits []core.ParameterSet
}

func (r *recorder) commit(params core.ParameterSet) {
	r.commits = append(r.commits, params)
}

func TestChangeDoesNotCommit(t *testing.T) {
	rec := &recorder{}
	p := New(core.DefaultParameters(), rec.commit, nil)

	// A drag produces many intermediate values
	for _, v := range []float64{1000, 2000, 3000, 4000} {
		if _, err := p.Change(core.FieldCount, v); err != nil {
			t.Fatal(err)
		}
	}
	if len(rec.commits) != 0 {
		t.Fatalf("intermediate changes committed %d times", len(rec.commits))
	}

	if err := p.FinishChange(core.FieldCount); err != nil {
		t.Fatal(err)
	}
	if len(rec.commits) != 1 {
		t.Fatalf("got %d commits, want 1", len(rec.commits))
	}
	if rec.commits[0].Count != 4000 {
		t.Errorf("committed count %d, want 4000", rec.commits[0].Count)
	}
}

func TestFinishChangeAlwaysCommits(t *testing.T) {
	rec := &recorder{}
	p := New(core.DefaultParameters(), rec.commit, nil)

	p.FinishChange(core.FieldSize)
	p.FinishChange(core.FieldSize)
	if len(rec.commits) != 2 {
		t.Fatalf("got %d commits, want 2", len(rec.commits))
	}
}

func TestChangeClampsAndSnaps(t *testing.T) {
	tests := []struct {
		name  string
		field string
		in    float64
		want  float64
	}{
		{"count below min", core.FieldCount, 3, 100},
		{"count above max", core.FieldCount, 250000, 100000},
		{"count snaps to step", core.FieldCount, 1234, 1200},
		{"size snaps", core.FieldSize, 0.0123, 0.012},
		{"branches rounds", core.FieldBranches, 4.6, 5},
		{"branches below", core.FieldBranches, 1, 2},
		{"spin negative", core.FieldSpin, -7, -5},
		{"randomness in range", core.FieldRandomness, 0.5, 0.5},
		{"power above", core.FieldRandomnessPower, 11, 10},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := New(core.DefaultParameters(), nil, nil)
			got, err := p.Change(tc.field, tc.in)
			if err != nil {
				t.Fatal(err)
			}
			if got != tc.want {
				t.Errorf("got %v, want %v", got, tc.want)
			}
			if err := p.Params().Validate(); err != nil {
				t.Errorf("working set invalid: %v", err)
			}
		})
	}
}

func TestUnknownControl(t *testing.T) {
	p := New(core.DefaultParameters(), nil, nil)
	if _, err := p.Change("gravity", 1); !errors.Is(err, ErrUnknownControl) {
		t.Errorf("Change: got %v", err)
	}
	if err := p.FinishChange("gravity"); !errors.Is(err, ErrUnknownControl) {
		t.Errorf("FinishChange: got %v", err)
	}
	if err := p.Select("gravity"); !errors.Is(err, ErrUnknownControl) {
		t.Errorf("Select: got %v", err)
	}
}

func TestCommitClampsWholeSet(t *testing.T) {
	rec := &recorder{}
	p := New(core.DefaultParameters(), rec.commit, nil)

	in := core.DefaultParameters()
	in.Count = 0
	in.Radius = 100
	in.Branches = 50

	out := p.Commit(in)
	if out.Count != 100 || out.Radius != 20 || out.Branches != 20 {
		t.Errorf("clamped set %+v", out)
	}
	if len(rec.commits) != 1 || rec.commits[0] != out {
		t.Errorf("expected one commit of the clamped set")
	}
}

func TestNewClampsSeed(t *testing.T) {
	in := core.DefaultParameters()
	in.Size = 5
	p := New(in, nil, nil)
	if p.Params().Size != 0.1 {
		t.Errorf("size %v, want 0.1", p.Params().Size)
	}
}

func TestNudgeAndSelection(t *testing.T) {
	p := New(core.DefaultParameters(), nil, nil)

	if p.Selected() != core.FieldCount {
		t.Fatalf("initial selection %s", p.Selected())
	}
	p.SelectPrev()
	if p.Selected() != core.FieldOutsideColor {
		t.Errorf("wrap backwards: %s", p.Selected())
	}
	p.SelectNext()
	p.SelectNext()
	if p.Selected() != core.FieldSize {
		t.Errorf("next: %s", p.Selected())
	}

	got, err := p.Nudge(core.FieldBranches, 2)
	if err != nil || got != 5 {
		t.Errorf("nudge branches: %v %v", got, err)
	}
	got, _ = p.Nudge(core.FieldCount, 5)
	if got != 100000 {
		t.Errorf("nudge past max: %v", got)
	}
}

func TestColorEdit(t *testing.T) {
	rec := &recorder{}
	p := New(core.DefaultParameters(), rec.commit, nil)

	if err := p.SetColor(core.FieldInsideColor, core.MustHex("#00ff00")); err != nil {
		t.Fatal(err)
	}
	if _, err := p.Change(core.FieldInsideColor, 1); err == nil {
		t.Errorf("numeric change of a color control should fail")
	}
	p.FinishChange(core.FieldInsideColor)
	if got := rec.commits[0].InsideColor.String(); got != "#00ff00" {
		t.Errorf("committed color %s", got)
	}
}

func TestFraction(t *testing.T) {
	p := New(core.DefaultParameters(), nil, nil)
	p.Change(core.FieldSpin, 0)
	if f := p.Fraction(core.FieldSpin); f != 0.5 {
		t.Errorf("spin fraction %v, want 0.5", f)
	}
	if f := p.Fraction(core.FieldInsideColor); f != 0 {
		t.Errorf("color fraction %v", f)
	}
}

func TestStepSelected(t *testing.T) {
	rec := &recorder{}
	p := New(core.DefaultParameters(), rec.commit, nil)

	p.Select(core.FieldRadius)
	name, err := p.StepSelected(-10)
	if err != nil || name != core.FieldRadius {
		t.Fatalf("step: %s %v", name, err)
	}
	if got := p.Params().Radius; got != 4.9 {
		t.Errorf("radius %v, want 4.9", got)
	}

	p.Select(core.FieldInsideColor)
	if _, err := p.StepSelected(1); err != nil {
		t.Fatal(err)
	}
	if got := p.Params().InsideColor.String(); got != Palette[1] {
		t.Errorf("color %s, want %s", got, Palette[1])
	}
	if len(rec.commits) != 0 {
		t.Errorf("stepping committed")
	}
}

func TestNextColor(t *testing.T) {
	tests := []struct {
		name    string
		current string
		dir     int
		want    string
	}{
		{"forward", Palette[0], 1, Palette[1]},
		{"back wraps", Palette[0], -1, Palette[len(Palette)-1]},
		{"forward wraps", Palette[len(Palette)-1], 1, Palette[0]},
		{"outside forward", "#123456", 1, Palette[0]},
		{"outside back", "#123456", -1, Palette[len(Palette)-1]},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := NextColor(core.MustHex(tc.current), tc.dir).String(); got != tc.want {
				t.Errorf("got %s, want %s", got, tc.want)
			}
		})
	}
}

func TestFormat(t *testing.T) {
	p := New(core.DefaultParameters(), nil, nil)
	tests := map[string]string{
		core.FieldCount:       "100000",
		core.FieldSize:        "0.01",
		core.FieldSpin:        "1",
		core.FieldInsideColor: "#ff6030",
		"gravity":             "?",
	}
	for name, want := range tests {
		if got := p.Format(name); got != want {
			t.Errorf("Format(%s) = %s, want %s", name, got, want)
		}
	}
}

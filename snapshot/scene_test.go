package snapshot

import (
	"os"
	"path/filepath"
	"testing"

	"galaxygenerator/core"
)

func galaxy(count int) (core.GalaxyBuffers, core.ParameterSet) {
	params := core.DefaultParameters()
	params.Count = count
	return core.NewGenerator(core.NewSeededSource(17), nil).Generate(params), params
}

func litPixels(s *Scene) int {
	pm := s.Render()
	lit := 0
	for y := 0; y < pm.Height(); y++ {
		for x := 0; x < pm.Width(); x++ {
			c := pm.GetPixel(x, y)
			if c.R > 0 || c.G > 0 || c.B > 0 {
				lit++
			}
		}
	}
	return lit
}

func TestAllocateProjectsIntoFrame(t *testing.T) {
	s := NewScene(128, 128, TopDownCamera(12), nil)
	buffers, params := galaxy(2000)

	r, err := s.Allocate(buffers, params)
	if err != nil {
		t.Fatal(err)
	}
	cloud := r.(*Cloud)
	// Top-down at height 12 with fov 75 sees a radius of ~9, galaxy radius is 5
	if cloud.Len() < 1900 {
		t.Errorf("only %d of 2000 points visible", cloud.Len())
	}
}

func TestRenderOnlyAttached(t *testing.T) {
	s := NewScene(96, 64, DefaultCamera(), nil)
	buffers, params := galaxy(3000)
	r, err := s.Allocate(buffers, params)
	if err != nil {
		t.Fatal(err)
	}

	if lit := litPixels(s); lit != 0 {
		t.Fatalf("%d pixels lit before attach", lit)
	}
	s.Attach(r)
	if lit := litPixels(s); lit == 0 {
		t.Fatalf("nothing drawn after attach")
	}
	s.Detach(r)
	if lit := litPixels(s); lit != 0 {
		t.Fatalf("%d pixels lit after detach", lit)
	}
}

func TestCenterIsInsideColor(t *testing.T) {
	params := core.DefaultParameters()
	params.Count = 1
	buffers := core.GalaxyBuffers{
		Positions: []core.Vector3{{}},
		Colors:    []core.RGB{params.InsideColor.RGB()},
	}
	s := NewScene(65, 65, TopDownCamera(10), nil)
	r, _ := s.Allocate(buffers, params)
	s.Attach(r)

	c := s.Render().GetPixel(32, 32)
	want := params.InsideColor
	if abs(c.R-want.R) > 2.0/255 || abs(c.G-want.G) > 2.0/255 || abs(c.B-want.B) > 2.0/255 {
		t.Errorf("center pixel %+v, want %+v", c, want)
	}
}

func TestManagerDrivesScene(t *testing.T) {
	s := NewScene(64, 64, DefaultCamera(), nil)
	m := core.NewBufferManager(core.NewGenerator(core.NewSeededSource(5), nil), s, s, nil)

	params := core.DefaultParameters()
	params.Count = 500

	var clouds []*Cloud
	for i := 0; i < 4; i++ {
		if err := m.Regenerate(params); err != nil {
			t.Fatal(err)
		}
		if s.Attached() != 1 {
			t.Fatalf("commit %d: %d clouds attached", i, s.Attached())
		}
		r, _ := m.Current()
		clouds = append(clouds, r.(*Cloud))
	}
	for i, c := range clouds[:3] {
		if !c.Released() {
			t.Errorf("cloud %d not released", i)
		}
	}
	if clouds[3].Released() {
		t.Errorf("current cloud released")
	}

	m.Close()
	if s.Attached() != 0 || !clouds[3].Released() {
		t.Errorf("close left attached=%d", s.Attached())
	}
}

func TestEmptyGalaxy(t *testing.T) {
	s := NewScene(32, 32, DefaultCamera(), nil)
	m := core.NewBufferManager(core.NewGenerator(core.NewSeededSource(5), nil), s, s, nil)
	params := core.DefaultParameters()
	params.Count = 0

	if err := m.Regenerate(params); err != nil {
		t.Fatal(err)
	}
	if s.Attached() != 1 || litPixels(s) != 0 {
		t.Errorf("empty galaxy: attached=%d", s.Attached())
	}
}

func TestInvalidFrame(t *testing.T) {
	s := NewScene(0, 10, DefaultCamera(), nil)
	buffers, params := galaxy(10)
	if _, err := s.Allocate(buffers, params); err == nil {
		t.Errorf("expected error for zero width")
	}
}

func TestSavePNG(t *testing.T) {
	s := NewScene(32, 32, DefaultCamera(), nil)
	buffers, params := galaxy(200)
	r, _ := s.Allocate(buffers, params)
	s.Attach(r)

	path := filepath.Join(t.TempDir(), "galaxy.png")
	if err := s.SavePNG(path); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(path)
	if err != nil || info.Size() == 0 {
		t.Fatalf("snapshot not written: %v", err)
	}
	if err := s.SavePNG(""); err == nil {
		t.Errorf("expected error for empty path")
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

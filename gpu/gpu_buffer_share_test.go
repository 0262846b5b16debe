package gpu

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"
	"unsafe"

	"galaxygenerator/core"
)

func TestVertexLayout(t *testing.T) {
	var v PointVertex
	if got := int(unsafe.Sizeof(v)); got != Stride {
		t.Errorf("sizeof PointVertex = %d, want %d", got, Stride)
	}
	if got := int(unsafe.Offsetof(v.R)); got != ColorOffset {
		t.Errorf("color offset = %d, want %d", got, ColorOffset)
	}
}

func TestNewPointBuffers(t *testing.T) {
	params := core.DefaultParameters()
	params.Count = 300
	galaxy := core.NewGenerator(core.NewSeededSource(9), nil).Generate(params)

	p, err := NewPointBuffers(galaxy, params.Size)
	if err != nil {
		t.Fatal(err)
	}
	if p.Count() != 300 {
		t.Fatalf("count %d", p.Count())
	}
	if p.Size != float32(params.Size) {
		t.Errorf("size %v", p.Size)
	}
	for i, v := range p.Vertices {
		pos := galaxy.Positions[i]
		if math.Abs(float64(v.X)-pos.X) > 1e-5 || math.Abs(float64(v.Z)-pos.Z) > 1e-5 {
			t.Fatalf("vertex %d: %+v vs %+v", i, v, pos)
		}
		if math.Abs(float64(v.G)-galaxy.Colors[i].G) > 1e-6 {
			t.Fatalf("vertex %d color %+v vs %+v", i, v, galaxy.Colors[i])
		}
	}
}

func TestBytesEncoding(t *testing.T) {
	galaxy := core.GalaxyBuffers{
		Positions: []core.Vector3{{X: 1, Y: -2, Z: 3.5}},
		Colors:    []core.RGB{{R: 0.25, G: 0.5, B: 1}},
	}
	p, err := NewPointBuffers(galaxy, 0.01)
	if err != nil {
		t.Fatal(err)
	}
	data := p.Bytes()
	if len(data) != Stride {
		t.Fatalf("len %d, want %d", len(data), Stride)
	}

	want := []float32{1, -2, 3.5, 0.25, 0.5, 1}
	for i, w := range want {
		got := math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
		if got != w {
			t.Errorf("float %d: got %v, want %v", i, got, w)
		}
	}
}

func TestEmptyGalaxy(t *testing.T) {
	p, err := NewPointBuffers(core.GalaxyBuffers{}, 0.01)
	if err != nil {
		t.Fatal(err)
	}
	if p.Count() != 0 || len(p.Bytes()) != 0 {
		t.Errorf("expected empty buffers")
	}
}

func TestLengthMismatch(t *testing.T) {
	two := []core.Vector3{{X: 1}, {X: 2}}
	tests := []struct {
		name   string
		galaxy core.GalaxyBuffers
	}{
		{"fewer colors", core.GalaxyBuffers{Positions: two, Colors: []core.RGB{{R: 1}}}},
		{"more colors", core.GalaxyBuffers{Positions: two[:1], Colors: make([]core.RGB, 2)}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewPointBuffers(tc.galaxy, 0.01); !errors.Is(err, ErrLengthMismatch) {
				t.Errorf("got %v, want ErrLengthMismatch", err)
			}
		})
	}

	// Refilling with a galaxy of another size is refused, not truncated
	p, err := NewPointBuffers(core.GalaxyBuffers{Positions: two, Colors: make([]core.RGB, 2)}, 0.01)
	if err != nil {
		t.Fatal(err)
	}
	three := core.GalaxyBuffers{Positions: make([]core.Vector3, 3), Colors: make([]core.RGB, 3)}
	if err := p.UpdateFromGalaxy(three); !errors.Is(err, ErrLengthMismatch) {
		t.Errorf("got %v, want ErrLengthMismatch", err)
	}
	if p.Vertices[1].X != 2 {
		t.Errorf("vertices changed by a refused update")
	}
}

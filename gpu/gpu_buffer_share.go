package gpu

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"galaxygenerator/core"
)

// PointBuffers is the CPU-side copy of a galaxy ready for upload
type PointBuffers struct {
	Vertices []PointVertex
	Size     float32 // point size in world units
}

// ErrLengthMismatch is returned when buffers do not line up with each
// other or with the vertex slice being filled.
var ErrLengthMismatch = errors.New("buffer length mismatch")

// NewPointBuffers packs generated buffers into interleaved vertices
func NewPointBuffers(buffers core.GalaxyBuffers, size float64) (*PointBuffers, error) {
	p := &PointBuffers{
		Vertices: make([]PointVertex, buffers.Len()),
		Size:     float32(size),
	}
	if err := p.UpdateFromGalaxy(buffers); err != nil {
		return nil, err
	}
	return p, nil
}

// UpdateFromGalaxy copies particle data into the existing vertex slice. The
// galaxy must have exactly one position and one color per vertex.
func (p *PointBuffers) UpdateFromGalaxy(buffers core.GalaxyBuffers) error {
	if len(buffers.Positions) != len(buffers.Colors) || len(buffers.Positions) != len(p.Vertices) {
		return fmt.Errorf("%w: %d positions, %d colors, %d vertices",
			ErrLengthMismatch, len(buffers.Positions), len(buffers.Colors), len(p.Vertices))
	}
	for i := range buffers.Positions {
		p.Vertices[i] = ConvertToPointVertex(buffers.Positions[i], buffers.Colors[i])
	}
	return nil
}

// Count returns the number of points
func (p *PointBuffers) Count() int {
	return len(p.Vertices)
}

// ByteSize returns the size of the vertex data in bytes
func (p *PointBuffers) ByteSize() int {
	return len(p.Vertices) * Stride
}

// Bytes encodes the vertices as little-endian float32, six per point
func (p *PointBuffers) Bytes() []byte {
	out := make([]byte, p.ByteSize())
	off := 0
	for _, v := range p.Vertices {
		for _, f := range [6]float32{v.X, v.Y, v.Z, v.R, v.G, v.B} {
			binary.LittleEndian.PutUint32(out[off:], math.Float32bits(f))
			off += 4
		}
	}
	return out
}

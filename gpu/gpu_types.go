package gpu

import (
	"galaxygenerator/core"
)

// PointVertex is one interleaved point as uploaded to the GPU
type PointVertex struct {
	X, Y, Z float32
	R, G, B float32
}

// Vertex layout offsets in bytes, shared by the GL attribute setup and the
// web client.
const (
	PositionOffset = 0
	ColorOffset    = 3 * 4
	Stride         = 6 * 4
)

// ConvertToPointVertex narrows one particle to GPU precision
func ConvertToPointVertex(pos core.Vector3, col core.RGB) PointVertex {
	return PointVertex{
		X: float32(pos.X),
		Y: float32(pos.Y),
		Z: float32(pos.Z),
		R: float32(col.R),
		G: float32(col.G),
		B: float32(col.B),
	}
}

package opengl

import (
	"fmt"
	"unsafe"

	"github.com/go-gl/gl/v4.1-core/gl"

	"galaxygenerator/core"
	"galaxygenerator/gpu"
)

// PointCloud owns the VAO and VBO of one generated galaxy.
type PointCloud struct {
	vao   uint32
	vbo   uint32
	count int32
	size  float32
}

// Allocate uploads buffers into a new VAO/VBO pair. A GL error during upload
// deletes whatever was created and is returned.
func (r *GalaxyRenderer) Allocate(buffers core.GalaxyBuffers, params core.ParameterSet) (core.Renderable, error) {
	points, err := gpu.NewPointBuffers(buffers, params.Size)
	if err != nil {
		return nil, err
	}

	c := &PointCloud{
		count: int32(points.Count()),
		size:  points.Size,
	}

	gl.GenVertexArrays(1, &c.vao)
	gl.BindVertexArray(c.vao)

	gl.GenBuffers(1, &c.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, c.vbo)
	if points.Count() > 0 {
		gl.BufferData(gl.ARRAY_BUFFER, points.ByteSize(), unsafe.Pointer(&points.Vertices[0]), gl.STATIC_DRAW)
	} else {
		gl.BufferData(gl.ARRAY_BUFFER, 0, nil, gl.STATIC_DRAW)
	}

	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, gpu.Stride, gpu.PositionOffset)
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointerWithOffset(1, 3, gl.FLOAT, false, gpu.Stride, gpu.ColorOffset)

	gl.BindVertexArray(0)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)

	if code := gl.GetError(); code != gl.NO_ERROR {
		c.Release()
		return nil, fmt.Errorf("GL error 0x%x uploading %d points", code, points.Count())
	}

	r.logger.Debug("Point cloud uploaded",
		"operation", "allocate",
		"count", c.count,
		"bytes", points.ByteSize(),
		"vao", c.vao,
	)
	return c, nil
}

// Release deletes the GPU buffers. Safe to call more than once.
func (c *PointCloud) Release() {
	if c.vbo != 0 {
		gl.DeleteBuffers(1, &c.vbo)
		c.vbo = 0
	}
	if c.vao != 0 {
		gl.DeleteVertexArrays(1, &c.vao)
		c.vao = 0
	}
}

func (c *PointCloud) draw(pointSizeLoc int32) {
	if c.vao == 0 || c.count == 0 {
		return
	}
	gl.Uniform1f(pointSizeLoc, c.size)
	gl.BindVertexArray(c.vao)
	gl.DrawArrays(gl.POINTS, 0, c.count)
	gl.BindVertexArray(0)
}

// Package snapshot renders attached galaxies to an image without a window.
// Scene implements both core.Scene and core.Allocator, so a BufferManager
// can drive it exactly like a GPU viewer.
package snapshot

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gg"

	"galaxygenerator/core"
)

// Camera is a perspective camera looking at Target.
type Camera struct {
	Position mgl32.Vec3
	Target   mgl32.Vec3
	Up       mgl32.Vec3
	FOV      float32 // vertical, degrees
	Near     float32
	Far      float32
}

// DefaultCamera matches the interactive viewers' starting view.
func DefaultCamera() Camera {
	return Camera{
		Position: mgl32.Vec3{3, 3, 3},
		Target:   mgl32.Vec3{0, 0, 0},
		Up:       mgl32.Vec3{0, 1, 0},
		FOV:      75,
		Near:     0.1,
		Far:      100,
	}
}

// TopDownCamera looks straight down the Y axis from height.
func TopDownCamera(height float32) Camera {
	c := DefaultCamera()
	c.Position = mgl32.Vec3{0, height, 0}
	c.Up = mgl32.Vec3{0, 0, -1}
	return c
}

func (c Camera) viewProjection(aspect float32) mgl32.Mat4 {
	view := mgl32.LookAtV(c.Position, c.Target, c.Up)
	proj := mgl32.Perspective(mgl32.DegToRad(c.FOV), aspect, c.Near, c.Far)
	return proj.Mul4(view)
}

// Cloud is a galaxy projected to pixel space.
type Cloud struct {
	pixels   []int32 // y*width + x
	colors   []core.RGB
	mu       sync.Mutex
	released bool
}

// Release drops the projected points.
func (c *Cloud) Release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pixels = nil
	c.colors = nil
	c.released = true
}

// Released reports whether Release was called.
func (c *Cloud) Released() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.released
}

// Len returns the number of points that landed inside the frame.
func (c *Cloud) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pixels)
}

// Scene accumulates attached clouds with additive blending.
type Scene struct {
	width, height int
	camera        Camera
	background    gg.RGBA
	logger        *slog.Logger

	mu       sync.Mutex
	attached map[*Cloud]struct{}
}

// NewScene creates an empty scene rendering at width x height.
func NewScene(width, height int, camera Camera, logger *slog.Logger) *Scene {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scene{
		width:      width,
		height:     height,
		camera:     camera,
		background: gg.Black,
		logger:     logger.With("component", "snapshot_scene"),
		attached:   make(map[*Cloud]struct{}),
	}
}

// Allocate projects every particle through the camera. Points behind the
// camera or outside the frame are dropped.
func (s *Scene) Allocate(buffers core.GalaxyBuffers, params core.ParameterSet) (core.Renderable, error) {
	if s.width <= 0 || s.height <= 0 {
		return nil, fmt.Errorf("invalid frame size %dx%d", s.width, s.height)
	}

	mvp := s.camera.viewProjection(float32(s.width) / float32(s.height))
	cloud := &Cloud{
		pixels: make([]int32, 0, buffers.Len()),
		colors: make([]core.RGB, 0, buffers.Len()),
	}

	for i, pos := range buffers.Positions {
		clip := mvp.Mul4x1(mgl32.Vec4{float32(pos.X), float32(pos.Y), float32(pos.Z), 1})
		if clip.W() <= 0 {
			continue
		}
		ndcX := clip.X() / clip.W()
		ndcY := clip.Y() / clip.W()
		if ndcX < -1 || ndcX > 1 || ndcY < -1 || ndcY > 1 {
			continue
		}
		x := int((ndcX + 1) / 2 * float32(s.width))
		y := int((1 - ndcY) / 2 * float32(s.height))
		if x >= s.width || y >= s.height {
			continue
		}
		cloud.pixels = append(cloud.pixels, int32(y*s.width+x))
		cloud.colors = append(cloud.colors, buffers.Colors[i])
	}

	s.logger.Debug("Cloud allocated",
		"operation", "allocate",
		"count", buffers.Len(),
		"visible", len(cloud.pixels),
	)
	return cloud, nil
}

// Attach adds r to the scene. Only clouds from Allocate are accepted.
func (s *Scene) Attach(r core.Renderable) {
	cloud, ok := r.(*Cloud)
	if !ok {
		s.logger.Error("Refusing foreign renderable", "operation", "attach", "type", fmt.Sprintf("%T", r))
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attached[cloud] = struct{}{}
}

// Detach removes r from the scene.
func (s *Scene) Detach(r core.Renderable) {
	cloud, ok := r.(*Cloud)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.attached, cloud)
}

// Attached returns the number of attached clouds.
func (s *Scene) Attached() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.attached)
}

// Render draws every attached cloud into a new pixmap.
func (s *Scene) Render() *gg.Pixmap {
	accum := make([]core.RGB, s.width*s.height)

	s.mu.Lock()
	for cloud := range s.attached {
		cloud.mu.Lock()
		for i, px := range cloud.pixels {
			c := cloud.colors[i]
			accum[px].R += c.R
			accum[px].G += c.G
			accum[px].B += c.B
		}
		cloud.mu.Unlock()
	}
	s.mu.Unlock()

	pm := gg.NewPixmap(s.width, s.height)
	pm.Clear(s.background)
	for px, c := range accum {
		if c == (core.RGB{}) {
			continue
		}
		pm.SetPixel(px%s.width, px/s.width, gg.RGBA{
			R: math.Min(1, s.background.R+c.R),
			G: math.Min(1, s.background.G+c.G),
			B: math.Min(1, s.background.B+c.B),
			A: 1,
		})
	}
	return pm
}

// SavePNG renders the scene and writes it to path.
func (s *Scene) SavePNG(path string) error {
	if path == "" {
		return errors.New("snapshot path is empty")
	}
	if err := s.Render().SavePNG(path); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	s.logger.Debug("Snapshot written", "operation", "save_png", "path", path)
	return nil
}

// Package raylib is a second native viewer built on raylib. Points are drawn
// one pixel wide with additive blending; the panel is plain text.
package raylib

import (
	"fmt"
	"image/color"
	"log/slog"
	"sync"

	rl "github.com/gen2brain/raylib-go/raylib"

	"galaxygenerator/core"
	"galaxygenerator/panel"
)

// Cloud is a galaxy converted to raylib vectors and colors.
type Cloud struct {
	positions []rl.Vector3
	colors    []rl.Color

	once sync.Once
}

// Release drops the point data. Safe to call more than once.
func (c *Cloud) Release() {
	c.once.Do(func() {
		c.positions = nil
		c.colors = nil
	})
}

// Len returns the number of points still held.
func (c *Cloud) Len() int {
	return len(c.positions)
}

// Viewer owns the raylib window and is the Scene and Allocator for a
// core.BufferManager.
type Viewer struct {
	camera   rl.Camera3D
	attached []*Cloud

	panel     *panel.Panel
	showPanel bool
	editing   string

	logger *slog.Logger
}

// NewViewer opens the window.
func NewViewer(width, height int, vsync bool, logger *slog.Logger) *Viewer {
	if logger == nil {
		logger = slog.Default()
	}
	rl.SetTraceLogLevel(rl.LogWarning)
	if vsync {
		rl.SetConfigFlags(rl.FlagVsyncHint | rl.FlagWindowResizable)
	} else {
		rl.SetConfigFlags(rl.FlagWindowResizable)
	}
	rl.InitWindow(int32(width), int32(height), "Galaxy Generator")
	rl.SetTargetFPS(60)

	return &Viewer{
		camera: rl.Camera3D{
			Position:   rl.NewVector3(3, 3, 3),
			Target:     rl.NewVector3(0, 0, 0),
			Up:         rl.NewVector3(0, 1, 0),
			Fovy:       75,
			Projection: rl.CameraPerspective,
		},
		showPanel: true,
		logger:    logger.With("component", "raylib_viewer"),
	}
}

// NewCloud converts generated buffers into raylib types.
func NewCloud(buffers core.GalaxyBuffers) *Cloud {
	c := &Cloud{
		positions: make([]rl.Vector3, buffers.Len()),
		colors:    make([]rl.Color, buffers.Len()),
	}
	for i, p := range buffers.Positions {
		c.positions[i] = rl.NewVector3(float32(p.X), float32(p.Y), float32(p.Z))
		c.colors[i] = toColor(buffers.Colors[i])
	}
	return c
}

func toColor(c core.RGB) rl.Color {
	return color.RGBA{R: to8(c.R), G: to8(c.G), B: to8(c.B), A: 255}
}

func to8(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}

// Allocate implements core.Allocator.
func (v *Viewer) Allocate(buffers core.GalaxyBuffers, params core.ParameterSet) (core.Renderable, error) {
	c := NewCloud(buffers)
	v.logger.Debug("Point cloud built", "operation", "allocate", "count", c.Len())
	return c, nil
}

// Attach implements core.Scene.
func (v *Viewer) Attach(r core.Renderable) {
	c, ok := r.(*Cloud)
	if !ok {
		v.logger.Error("Refusing foreign renderable", "operation", "attach", "type", fmt.Sprintf("%T", r))
		return
	}
	v.attached = append(v.attached, c)
}

// Detach implements core.Scene.
func (v *Viewer) Detach(r core.Renderable) {
	for i, c := range v.attached {
		if c == r {
			v.attached = append(v.attached[:i], v.attached[i+1:]...)
			return
		}
	}
}

// SetPanel connects the keyboard to a parameter panel.
func (v *Viewer) SetPanel(p *panel.Panel) {
	v.panel = p
}

// ShouldClose reports whether the window was closed or ESC pressed.
func (v *Viewer) ShouldClose() bool {
	return rl.WindowShouldClose()
}

// HandleInput drives the panel. Left/Right change the selected control while
// held (with key repeat) and commit on release.
func (v *Viewer) HandleInput() {
	if rl.IsKeyPressed(rl.KeyTab) {
		v.showPanel = !v.showPanel
	}
	if v.panel == nil {
		return
	}

	if v.editing != "" && (rl.IsKeyReleased(rl.KeyLeft) || rl.IsKeyReleased(rl.KeyRight)) {
		name := v.editing
		v.editing = ""
		if err := v.panel.FinishChange(name); err != nil {
			v.logger.Error("Failed to finish edit", "control", name, "error", err)
		}
		return
	}

	if v.editing == "" {
		if rl.IsKeyPressed(rl.KeyUp) {
			v.panel.SelectPrev()
		}
		if rl.IsKeyPressed(rl.KeyDown) {
			v.panel.SelectNext()
		}
	}

	dir := 0
	if rl.IsKeyPressed(rl.KeyRight) || rl.IsKeyPressedRepeat(rl.KeyRight) {
		dir = 1
	}
	if rl.IsKeyPressed(rl.KeyLeft) || rl.IsKeyPressedRepeat(rl.KeyLeft) {
		dir = -1
	}
	if dir == 0 {
		return
	}
	if rl.IsKeyDown(rl.KeyLeftShift) || rl.IsKeyDown(rl.KeyRightShift) {
		dir *= 10
	}
	name, err := v.panel.StepSelected(dir)
	if err != nil {
		v.logger.Error("Failed to change control", "control", name, "error", err)
		return
	}
	v.editing = name
}

// Render draws one frame.
func (v *Viewer) Render() {
	rl.UpdateCamera(&v.camera, rl.CameraOrbital)

	rl.BeginDrawing()
	rl.ClearBackground(rl.Black)

	rl.BeginMode3D(v.camera)
	rl.BeginBlendMode(rl.BlendAdditive)
	for _, c := range v.attached {
		for i, p := range c.positions {
			rl.DrawPoint3D(p, c.colors[i])
		}
	}
	rl.EndBlendMode()
	rl.EndMode3D()

	if v.showPanel && v.panel != nil {
		v.drawPanel()
	}
	rl.DrawFPS(int32(rl.GetScreenWidth())-90, 10)

	rl.EndDrawing()
}

func (v *Viewer) drawPanel() {
	const (
		x        = 12
		lineStep = 20
		fontSize = 16
	)
	controls := v.panel.Controls()
	rl.DrawRectangle(x-6, x-6, 280, int32(len(controls)*lineStep+8), rl.NewColor(20, 20, 30, 190))

	selected := v.panel.Selected()
	for i, c := range controls {
		textColor := rl.LightGray
		if c.Name == selected {
			textColor = rl.Gold
			if c.Name == v.editing {
				textColor = rl.Orange
			}
		}
		y := int32(x + i*lineStep)
		rl.DrawText(fmt.Sprintf("%-16s %s", c.Name, v.panel.Format(c.Name)), x, y, fontSize, textColor)

		if c.Kind == core.FieldColor {
			col, err := v.panel.Params().GetColor(c.Name)
			if err == nil {
				rl.DrawRectangle(x+240, y, 24, fontSize, toColor(col.RGB()))
			}
		}
	}
}

// Close shuts the window. Clouds still attached belong to their manager.
func (v *Viewer) Close() {
	if len(v.attached) > 0 {
		v.logger.Warn("Closing with attached point clouds", "count", len(v.attached))
	}
	rl.CloseWindow()
}

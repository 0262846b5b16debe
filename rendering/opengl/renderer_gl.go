package opengl

import (
	"fmt"
	"log/slog"
	"math"
	"runtime"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"

	"galaxygenerator/core"
	"galaxygenerator/panel"
	"galaxygenerator/rendering/opengl/overlay"
	"galaxygenerator/rendering/opengl/shaders"
)

// GalaxyRenderer is a native OpenGL point-cloud viewer. It is the Scene and
// the Allocator for a core.BufferManager and must be used from the thread
// that created it.
type GalaxyRenderer struct {
	window *glfw.Window

	// Point shader and its uniforms
	pointProgram   uint32
	viewLoc        int32
	projectionLoc  int32
	pointSizeLoc   int32
	viewportHeight int32

	// Render graph
	attached []*PointCloud

	// Uniforms
	viewMatrix mgl32.Mat4
	projMatrix mgl32.Mat4
	camera     orbitCamera

	width, height int

	// Parameter panel
	panel        *panel.Panel
	panelOverlay *overlay.PanelOverlay
	showPanel    bool
	editing      string

	// Mouse state for camera control
	MouseDown  bool
	lastMouseX float64
	lastMouseY float64

	logger *slog.Logger
}

// NewGalaxyRenderer opens a window and prepares the point pipeline.
func NewGalaxyRenderer(width, height int, vsync bool, logger *slog.Logger) (*GalaxyRenderer, error) {
	runtime.LockOSThread()

	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "gl_renderer")

	// Initialize GLFW
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize GLFW: %w", err)
	}

	// Configure OpenGL context
	glfw.WindowHint(glfw.Resizable, glfw.True)
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)

	window, err := glfw.CreateWindow(width, height, "Galaxy Generator", nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("failed to create window: %w", err)
	}
	window.MakeContextCurrent()

	if vsync {
		glfw.SwapInterval(1)
	} else {
		glfw.SwapInterval(0)
	}

	if err := gl.Init(); err != nil {
		window.Destroy()
		glfw.Terminate()
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}
	logger.Info("OpenGL initialized", "version", gl.GoStr(gl.GetString(gl.VERSION)))

	r := &GalaxyRenderer{
		window:    window,
		width:     width,
		height:    height,
		camera:    newOrbitCamera(),
		showPanel: true,
		logger:    logger,
	}

	program, err := shaders.CompilePointShaders()
	if err != nil {
		r.Terminate()
		return nil, fmt.Errorf("failed to compile point shaders: %w", err)
	}
	r.pointProgram = program
	r.viewLoc = gl.GetUniformLocation(program, gl.Str("view\x00"))
	r.projectionLoc = gl.GetUniformLocation(program, gl.Str("projection\x00"))
	r.pointSizeLoc = gl.GetUniformLocation(program, gl.Str("pointSize\x00"))
	r.viewportHeight = gl.GetUniformLocation(program, gl.Str("viewportHeight\x00"))

	panelOverlay, err := overlay.NewPanelOverlay()
	if err != nil {
		// Viewer still works without the bars
		logger.Warn("Failed to create panel overlay", "error", err)
	} else {
		r.panelOverlay = panelOverlay
	}

	// Points blend additively and never occlude each other
	gl.ClearColor(0, 0, 0, 1)
	gl.Enable(gl.PROGRAM_POINT_SIZE)

	fbWidth, fbHeight := window.GetFramebufferSize()
	r.onResize(fbWidth, fbHeight)

	window.SetFramebufferSizeCallback(func(w *glfw.Window, width, height int) {
		r.onResize(width, height)
	})
	window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		r.onKey(key, scancode, action, mods)
	})
	window.SetScrollCallback(func(w *glfw.Window, xoff, yoff float64) {
		r.onScroll(xoff, yoff)
	})
	window.SetMouseButtonCallback(func(w *glfw.Window, button glfw.MouseButton, action glfw.Action, mods glfw.ModifierKey) {
		r.onMouseButton(button, action, mods)
	})
	window.SetCursorPosCallback(func(w *glfw.Window, xpos, ypos float64) {
		r.onMouseMove(xpos, ypos)
	})

	return r, nil
}

// SetPanel connects the keyboard controls to a parameter panel.
func (r *GalaxyRenderer) SetPanel(p *panel.Panel) {
	r.panel = p
}

// Attach adds a point cloud to the render graph.
func (r *GalaxyRenderer) Attach(renderable core.Renderable) {
	cloud, ok := renderable.(*PointCloud)
	if !ok {
		r.logger.Error("Refusing foreign renderable", "operation", "attach", "type", fmt.Sprintf("%T", renderable))
		return
	}
	r.attached = append(r.attached, cloud)
}

// Detach removes a point cloud from the render graph.
func (r *GalaxyRenderer) Detach(renderable core.Renderable) {
	for i, c := range r.attached {
		if c == renderable {
			r.attached = append(r.attached[:i], r.attached[i+1:]...)
			return
		}
	}
}

// Render draws one frame.
func (r *GalaxyRenderer) Render() {
	r.camera.update()
	r.updateMatrices()

	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)

	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.ONE, gl.ONE)
	gl.DepthMask(false)

	gl.UseProgram(r.pointProgram)
	gl.UniformMatrix4fv(r.viewLoc, 1, false, &r.viewMatrix[0])
	gl.UniformMatrix4fv(r.projectionLoc, 1, false, &r.projMatrix[0])
	gl.Uniform1f(r.viewportHeight, float32(r.height))

	for _, cloud := range r.attached {
		cloud.draw(r.pointSizeLoc)
	}

	gl.DepthMask(true)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)

	if r.showPanel && r.panel != nil && r.panelOverlay != nil {
		r.panelOverlay.Draw(r.panel, r.editing, float32(r.width), float32(r.height))
	}

	gl.Disable(gl.BLEND)
	r.window.SwapBuffers()
}

// updateMatrices updates view and projection matrices
func (r *GalaxyRenderer) updateMatrices() {
	r.viewMatrix = mgl32.LookAtV(
		r.camera.position(),
		mgl32.Vec3{0, 0, 0},
		mgl32.Vec3{0, 1, 0},
	)

	aspect := float32(r.width) / float32(max(r.height, 1))
	r.projMatrix = mgl32.Perspective(mgl32.DegToRad(r.camera.fov), aspect, r.camera.near, r.camera.far)
}

// Event handlers
func (r *GalaxyRenderer) onResize(width, height int) {
	r.width = width
	r.height = height
	gl.Viewport(0, 0, int32(width), int32(height))
}

// onKey drives the panel. Holding Left/Right changes the selected control
// step by step; releasing the key finishes the edit and commits.
func (r *GalaxyRenderer) onKey(key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
	if action == glfw.Release {
		if (key == glfw.KeyLeft || key == glfw.KeyRight) && r.editing != "" {
			name := r.editing
			r.editing = ""
			if err := r.panel.FinishChange(name); err != nil {
				r.logger.Error("Failed to finish edit", "control", name, "error", err)
			}
		}
		return
	}

	switch key {
	case glfw.KeyEscape:
		r.window.SetShouldClose(true)
	case glfw.KeyTab:
		r.showPanel = !r.showPanel
	case glfw.KeyUp:
		if r.panel != nil && r.editing == "" {
			r.panel.SelectPrev()
		}
	case glfw.KeyDown:
		if r.panel != nil && r.editing == "" {
			r.panel.SelectNext()
		}
	case glfw.KeyLeft, glfw.KeyRight:
		if r.panel == nil {
			return
		}
		dir := 1
		if key == glfw.KeyLeft {
			dir = -1
		}
		if mods&glfw.ModShift != 0 {
			dir *= 10
		}
		r.editing = r.panel.Selected()
		r.step(dir)
	}
}

// step applies one intermediate change to the selected control
func (r *GalaxyRenderer) step(dir int) {
	name, err := r.panel.StepSelected(dir)
	if err != nil {
		r.logger.Error("Failed to change control", "control", name, "error", err)
		return
	}
	r.logger.Debug("Control changed", "control", name, "value", r.panel.Format(name))
}

func (r *GalaxyRenderer) onScroll(xoff, yoff float64) {
	r.camera.zoom(float32(yoff))
}

// onMouseButton handles mouse button events
func (r *GalaxyRenderer) onMouseButton(button glfw.MouseButton, action glfw.Action, mods glfw.ModifierKey) {
	if button != glfw.MouseButtonLeft {
		return
	}
	if action == glfw.Press {
		r.MouseDown = true
		r.lastMouseX, r.lastMouseY = r.window.GetCursorPos()
	} else if action == glfw.Release {
		r.MouseDown = false
	}
}

// onMouseMove handles mouse movement
func (r *GalaxyRenderer) onMouseMove(xpos, ypos float64) {
	if !r.MouseDown {
		return
	}
	dx := float32(xpos - r.lastMouseX)
	dy := float32(ypos - r.lastMouseY)
	r.camera.rotate(dx, dy)
	r.lastMouseX = xpos
	r.lastMouseY = ypos
}

// ShouldClose returns true if the window should close
func (r *GalaxyRenderer) ShouldClose() bool {
	return r.window.ShouldClose()
}

// PollEvents processes pending window events, including panel commits.
func (r *GalaxyRenderer) PollEvents() {
	glfw.PollEvents()
}

// Terminate cleans up OpenGL resources. Point clouds still attached belong
// to their BufferManager and must be released through it first.
func (r *GalaxyRenderer) Terminate() {
	if len(r.attached) > 0 {
		r.logger.Warn("Terminating with attached point clouds", "count", len(r.attached))
	}
	if r.panelOverlay != nil {
		r.panelOverlay.Release()
	}
	if r.pointProgram != 0 {
		gl.DeleteProgram(r.pointProgram)
	}
	r.window.Destroy()
	glfw.Terminate()
}

// orbitCamera circles the origin. Input adds angular velocity which decays
// every frame, giving damped orbit controls.
type orbitCamera struct {
	azimuth   float32
	elevation float32
	distance  float32

	azimuthVel   float32
	elevationVel float32

	damping     float32
	sensitivity float32

	fov, near, far float32
}

func newOrbitCamera() orbitCamera {
	// Start at (3, 3, 3) looking at the origin
	return orbitCamera{
		azimuth:     math.Pi / 4,
		elevation:   float32(math.Asin(1 / math.Sqrt(3))),
		distance:    float32(math.Sqrt(27)),
		damping:     0.05,
		sensitivity: 0.0005,
		fov:         75,
		near:        0.1,
		far:         100,
	}
}

func (c *orbitCamera) rotate(dx, dy float32) {
	c.azimuthVel += dx * c.sensitivity
	c.elevationVel += dy * c.sensitivity
}

func (c *orbitCamera) zoom(amount float32) {
	c.distance *= 1 - amount*0.1
	c.distance = mgl32.Clamp(c.distance, 0.5, c.far*0.5)
}

func (c *orbitCamera) update() {
	c.azimuth += c.azimuthVel
	c.elevation += c.elevationVel
	c.azimuthVel *= 1 - c.damping
	c.elevationVel *= 1 - c.damping

	// Clamp vertical rotation
	c.elevation = mgl32.Clamp(c.elevation, -1.5, 1.5)
}

func (c orbitCamera) position() mgl32.Vec3 {
	cosE := float32(math.Cos(float64(c.elevation)))
	return mgl32.Vec3{
		c.distance * cosE * float32(math.Cos(float64(c.azimuth))),
		c.distance * float32(math.Sin(float64(c.elevation))),
		c.distance * cosE * float32(math.Sin(float64(c.azimuth))),
	}
}

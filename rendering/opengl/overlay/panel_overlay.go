package overlay

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"

	"galaxygenerator/core"
	"galaxygenerator/panel"
	"galaxygenerator/rendering/opengl/shaders"
)

// Simple overlay shader for colored rectangles
const overlayVertexShader = `
#version 410 core

const vec2 positions[4] = vec2[](
    vec2(0.0, 0.0),
    vec2(1.0, 0.0),
    vec2(0.0, 1.0),
    vec2(1.0, 1.0)
);

uniform vec2 offset;
uniform vec2 size;
uniform vec2 screenSize;

void main() {
    vec2 pos = positions[gl_VertexID];
    vec2 pixelPos = offset + pos * size;
    vec2 ndcPos = (pixelPos / screenSize) * 2.0 - 1.0;
    ndcPos.y = -ndcPos.y; // Flip Y for top-left origin
    gl_Position = vec4(ndcPos, 0.0, 1.0);
}
`

const overlayFragmentShader = `
#version 410 core

uniform vec4 color;
out vec4 outColor;

void main() {
    outColor = color;
}
`

// Panel layout in pixels
const (
	panelMargin = 12
	rowHeight   = 14
	rowGap      = 6
	barWidth    = 220
)

var (
	backgroundColor = [4]float32{0.08, 0.08, 0.12, 0.75}
	trackColor      = [4]float32{0.25, 0.25, 0.3, 0.9}
	fillColor       = [4]float32{0.35, 0.55, 0.95, 0.9}
	selectedColor   = [4]float32{1.0, 0.8, 0.3, 0.95}
	editingColor    = [4]float32{1.0, 0.45, 0.2, 0.95}
)

// PanelOverlay draws one bar per control: numeric controls show where their
// value sits in its range, color controls show a swatch.
type PanelOverlay struct {
	program uint32
	vao     uint32

	offsetLoc     int32
	sizeLoc       int32
	screenSizeLoc int32
	colorLoc      int32
}

// NewPanelOverlay compiles the rectangle shader
func NewPanelOverlay() (*PanelOverlay, error) {
	program, err := shaders.CompileProgram(overlayVertexShader, overlayFragmentShader)
	if err != nil {
		return nil, fmt.Errorf("overlay shader: %w", err)
	}

	o := &PanelOverlay{
		program:       program,
		offsetLoc:     gl.GetUniformLocation(program, gl.Str("offset\x00")),
		sizeLoc:       gl.GetUniformLocation(program, gl.Str("size\x00")),
		screenSizeLoc: gl.GetUniformLocation(program, gl.Str("screenSize\x00")),
		colorLoc:      gl.GetUniformLocation(program, gl.Str("color\x00")),
	}

	// Create empty VAO for drawing
	gl.GenVertexArrays(1, &o.vao)
	return o, nil
}

// Draw renders the panel in the top-left corner. editing names the control
// currently being changed, or is empty.
func (o *PanelOverlay) Draw(p *panel.Panel, editing string, screenWidth, screenHeight float32) {
	controls := p.Controls()
	params := p.Params()
	selected := p.Selected()

	gl.UseProgram(o.program)
	gl.BindVertexArray(o.vao)
	gl.Uniform2f(o.screenSizeLoc, screenWidth, screenHeight)

	height := float32(len(controls)*(rowHeight+rowGap) + rowGap)
	o.rect(panelMargin-rowGap, panelMargin-rowGap, barWidth+2*rowGap, height, backgroundColor)

	for i, c := range controls {
		x := float32(panelMargin)
		y := float32(panelMargin + i*(rowHeight+rowGap))

		if c.Name == selected {
			marker := selectedColor
			if c.Name == editing {
				marker = editingColor
			}
			o.rect(x-4, y-2, barWidth+8, rowHeight+4, marker)
		}

		if c.Kind == core.FieldColor {
			col, err := params.GetColor(c.Name)
			if err != nil {
				continue
			}
			o.rect(x, y, barWidth, rowHeight, [4]float32{float32(col.R), float32(col.G), float32(col.B), 1})
			continue
		}

		o.rect(x, y, barWidth, rowHeight, trackColor)
		o.rect(x, y, barWidth*float32(p.Fraction(c.Name)), rowHeight, fillColor)
	}

	gl.BindVertexArray(0)
}

func (o *PanelOverlay) rect(x, y, w, h float32, color [4]float32) {
	gl.Uniform2f(o.offsetLoc, x, y)
	gl.Uniform2f(o.sizeLoc, w, h)
	gl.Uniform4f(o.colorLoc, color[0], color[1], color[2], color[3])
	gl.DrawArrays(gl.TRIANGLE_STRIP, 0, 4)
}

// Release deletes the GL objects
func (o *PanelOverlay) Release() {
	gl.DeleteVertexArrays(1, &o.vao)
	gl.DeleteProgram(o.program)
}

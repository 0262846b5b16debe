package shaders

// Points are sized in world units and shrink with distance, the same
// attenuation three.js applies to PointsMaterial.
const pointVertexShader = `
#version 410 core

layout (location = 0) in vec3 position;
layout (location = 1) in vec3 color;

uniform mat4 view;
uniform mat4 projection;
uniform float pointSize;
uniform float viewportHeight;

out vec3 fragColor;

void main() {
    vec4 viewPos = view * vec4(position, 1.0);
    gl_Position = projection * viewPos;
    gl_PointSize = max(1.0, pointSize * (viewportHeight * 0.5) / -viewPos.z);
    fragColor = color;
}
`

const pointFragmentShader = `
#version 410 core

in vec3 fragColor;
out vec4 outColor;

void main() {
    outColor = vec4(fragColor, 1.0);
}
`

// CompilePointShaders builds the galaxy point program
func CompilePointShaders() (uint32, error) {
	return CompileProgram(pointVertexShader, pointFragmentShader)
}

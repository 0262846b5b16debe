package core

import (
	"log/slog"
	"math"
	"time"
)

// GalaxyBuffers holds parallel per-particle attributes. Index i of
// Positions and Colors describe the same particle.
type GalaxyBuffers struct {
	Positions []Vector3
	Colors    []RGB
}

// Len returns the particle count.
func (b GalaxyBuffers) Len() int {
	return len(b.Positions)
}

// GalaxyGenerator turns a ParameterSet into fresh buffers.
type GalaxyGenerator interface {
	Generate(params ParameterSet) GalaxyBuffers
}

// Generator is the spiral-arm galaxy generator. It is not safe for
// concurrent use because it draws from a single RandomSource.
type Generator struct {
	rng    RandomSource
	logger *slog.Logger
}

// NewGenerator creates a generator drawing from rng. A nil logger uses
// slog.Default().
func NewGenerator(rng RandomSource, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{
		rng:    rng,
		logger: logger.With("component", "galaxy_generator"),
	}
}

// particle is the intermediate result for one index, kept separate so the
// pre-jitter radius stays observable.
type particle struct {
	radius      float64
	branchAngle float64
	spinAngle   float64
	jitter      Vector3
	position    Vector3
	color       RGB
}

// Generate computes params.Count particles. It never mutates params and
// never reads earlier output.
func (g *Generator) Generate(params ParameterSet) GalaxyBuffers {
	start := time.Now()

	n := params.Count
	if n < 0 {
		n = 0
	}
	buffers := GalaxyBuffers{
		Positions: make([]Vector3, n),
		Colors:    make([]RGB, n),
	}

	for i := 0; i < n; i++ {
		p := g.particle(i, params)
		buffers.Positions[i] = p.position
		buffers.Colors[i] = p.color
	}

	g.logger.Debug("Galaxy generated",
		"operation", "generate",
		"count", n,
		"branches", params.Branches,
		"duration", time.Since(start),
	)
	return buffers
}

// particle draws the radius first, then magnitude and sign for x, y, z.
func (g *Generator) particle(i int, params ParameterSet) particle {
	var p particle

	// Uniform over linear radius, so density grows toward the center
	p.radius = g.rng.Float64() * params.Radius

	// Arm by index residue, not by chance
	if params.Branches > 0 {
		p.branchAngle = float64(i%params.Branches) / float64(params.Branches) * 2 * math.Pi
	}
	p.spinAngle = p.radius * params.Spin

	p.jitter = Vector3{
		X: g.jitter(params, p.radius),
		Y: g.jitter(params, p.radius),
		Z: g.jitter(params, p.radius),
	}

	angle := p.branchAngle + p.spinAngle
	p.position = Vector3{
		X: math.Cos(angle)*p.radius + p.jitter.X,
		Y: p.jitter.Y,
		Z: math.Sin(angle)*p.radius + p.jitter.Z,
	}

	// Color follows the pre-jitter radius only
	t := 0.0
	if params.Radius > 0 {
		t = p.radius / params.Radius
	}
	p.color = params.InsideColor.Lerp(params.OutsideColor, t).RGB()

	return p
}

// jitter applies the power to the unsigned magnitude, then the sign, then
// scales by randomness and the particle's own radius.
func (g *Generator) jitter(params ParameterSet, radius float64) float64 {
	magnitude := math.Pow(g.rng.Float64(), params.RandomnessPower)
	sign := 1.0
	if g.rng.Float64() < 0.5 {
		sign = -1.0
	}
	return magnitude * sign * params.Randomness * radius
}

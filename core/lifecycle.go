package core

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Renderable is an opaque resource built from GalaxyBuffers, typically GPU
// buffers. Release frees it and is called exactly once.
type Renderable interface {
	Release()
}

// Allocator builds renderables from generated buffers.
type Allocator interface {
	Allocate(buffers GalaxyBuffers, params ParameterSet) (Renderable, error)
}

// Scene is the render graph the manager attaches renderables to.
type Scene interface {
	Attach(r Renderable)
	Detach(r Renderable)
}

// BufferManager owns the galaxy that is currently displayed. Regenerate is
// its only mutating operation.
type BufferManager struct {
	generator GalaxyGenerator
	allocator Allocator
	scene     Scene
	logger    *slog.Logger

	busy atomic.Bool

	mu         sync.Mutex
	current    Renderable
	buffers    GalaxyBuffers
	generation uint64
}

// NewBufferManager creates a manager with nothing attached. A nil logger
// uses slog.Default().
func NewBufferManager(generator GalaxyGenerator, allocator Allocator, scene Scene, logger *slog.Logger) *BufferManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &BufferManager{
		generator: generator,
		allocator: allocator,
		scene:     scene,
		logger:    logger.With("component", "buffer_manager"),
	}
}

// Regenerate replaces the displayed galaxy with one built from params.
//
// Generation runs to completion first. The previous renderable is then
// detached and released before the new one is allocated and attached, so
// two renderables are never attached at once. A call made while another is
// running returns ErrRegenerationInProgress and changes nothing. On
// allocation failure the manager is left with nothing attached.
func (m *BufferManager) Regenerate(params ParameterSet) error {
	if !m.busy.CompareAndSwap(false, true) {
		m.logger.Warn("Ignoring overlapping regeneration", "operation", "regenerate")
		return ErrRegenerationInProgress
	}
	defer m.busy.Store(false)

	logger := m.logger.With("operation", "regenerate", "count", params.Count)
	start := time.Now()

	buffers := m.generator.Generate(params)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.releaseCurrent()

	renderable, err := m.allocator.Allocate(buffers, params)
	if err != nil {
		logger.Error("Failed to allocate renderable", "error", err)
		return fmt.Errorf("%w: %w", ErrAllocationFailed, err)
	}

	m.scene.Attach(renderable)
	m.current = renderable
	m.buffers = buffers
	m.generation++

	logger.Debug("Galaxy swapped",
		"generation", m.generation,
		"duration", time.Since(start),
	)
	return nil
}

// releaseCurrent detaches and frees the owned renderable. Caller holds mu.
func (m *BufferManager) releaseCurrent() {
	if m.current == nil {
		return
	}
	m.scene.Detach(m.current)
	m.current.Release()
	m.current = nil
	m.buffers = GalaxyBuffers{}
}

// Current returns the attached renderable, if any.
func (m *BufferManager) Current() (Renderable, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current, m.current != nil
}

// Buffers returns the buffers behind the attached renderable.
func (m *BufferManager) Buffers() GalaxyBuffers {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.buffers
}

// Generation counts completed swaps.
func (m *BufferManager) Generation() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.generation
}

// Close detaches and releases the owned renderable.
func (m *BufferManager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.releaseCurrent()
	m.logger.Debug("Buffer manager closed", "operation", "close")
}

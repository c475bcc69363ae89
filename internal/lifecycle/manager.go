// Package lifecycle spawns particles at a steady rate, despawns or recycles
// the ones that fall out of the jar, and applies deferred resets.
package lifecycle

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/jarsim/internal/instancing"
	"github.com/san-kum/jarsim/internal/particle"
	"github.com/san-kum/jarsim/internal/physics"
	"github.com/san-kum/jarsim/internal/shapes"
	"github.com/san-kum/jarsim/internal/spawn"
)

// accumulator tolerance so that N intervals of float time yield N spawns
const spawnEpsilon = 1e-9

type Params struct {
	MaxObjects    int
	StreamSpeed   float64 // spawns per second
	StreamSpacing float64 // vertical gap between spawns of the same frame
	DespawnY      float64 // world space
	Scale         float64 // container scale
	Recycle       bool
}

// Threshold is the despawn height in container space.
func (p Params) Threshold() float64 {
	if p.Scale == 0 {
		return p.DespawnY
	}
	return p.DespawnY / p.Scale
}

func (p Params) validate() error {
	if p.MaxObjects <= 0 {
		return fmt.Errorf("lifecycle: max objects must be positive, got %d", p.MaxObjects)
	}
	if p.StreamSpeed <= 0 || math.IsInf(p.StreamSpeed, 0) || math.IsNaN(p.StreamSpeed) {
		return fmt.Errorf("lifecycle: stream speed must be positive, got %v", p.StreamSpeed)
	}
	return nil
}

// Counters are running totals since construction.
type Counters struct {
	Spawned   int
	Despawned int
	Recycled  int
	Dropped   int
	Resets    int
}

// Frame is what one frame changed.
type Frame struct {
	Spawned   int
	Despawned int
	Recycled  int
	Dropped   int
	Reset     bool
}

type Manager struct {
	params   Params
	registry *shapes.Registry
	gen      *spawn.Generator
	store    *particle.Store
	world    *physics.World
	renderer *instancing.Renderer
	logger   *slog.Logger

	acc          float64
	resetPending bool
	frame        Frame
	counters     Counters
}

type Option func(*Manager)

func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

func New(p Params, reg *shapes.Registry, gen *spawn.Generator, store *particle.Store,
	world *physics.World, renderer *instancing.Renderer, opts ...Option) (*Manager, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	m := &Manager{
		params:   p,
		registry: reg,
		gen:      gen,
		store:    store,
		world:    world,
		renderer: renderer,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

func (m *Manager) Params() Params { return m.params }

// SetParams swaps stream settings. The accumulator is kept.
func (m *Manager) SetParams(p Params) error {
	if err := p.validate(); err != nil {
		return err
	}
	m.params = p
	return nil
}

// SetRenderer rebinds the instance renderer. Live particles must already
// have been cleared.
func (m *Manager) SetRenderer(r *instancing.Renderer) { m.renderer = r }

func (m *Manager) Counters() Counters { return m.counters }

func (m *Manager) Live() int { return m.store.Len() }

// Pending reports whether a reset waits for the next frame.
func (m *Manager) Pending() bool { return m.resetPending }

// RequestReset empties the jar at the start of the next frame.
func (m *Manager) RequestReset() { m.resetPending = true }

// Locate returns a particle's batch and slot.
func (m *Manager) Locate(id uint64) (shapes.Key, int, bool) {
	p, slot, ok := m.store.Get(id)
	if !ok {
		return shapes.Key{}, 0, false
	}
	return p.Key(), slot, true
}

// BodyFor maps a kind to its collision proxy: cubes collide as boxes and
// every other kind as a sphere.
func BodyFor(g shapes.Geometry) (physics.Shape, float64) {
	if g.Kind.Boxed() {
		return physics.ShapeBox, g.Extent
	}
	return physics.ShapeSphere, g.Extent
}

// Begin runs the start-of-frame pass: a pending reset, then spawning.
func (m *Manager) Begin(dt float64) {
	m.frame = Frame{}
	if m.resetPending {
		m.Clear()
		m.resetPending = false
		m.frame.Reset = true
		m.counters.Resets++
		m.logger.Info("jar reset")
	}
	m.spawn(dt)
}

func (m *Manager) spawn(dt float64) {
	if dt > 0 && !math.IsInf(dt, 0) {
		m.acc += dt
	}
	interval := 1 / m.params.StreamSpeed

	made := 0
	for m.acc+spawnEpsilon >= interval {
		if m.store.Len() >= m.params.MaxObjects {
			// capped: hold at most one interval so a later despawn cannot burst
			m.acc = math.Min(m.acc, interval)
			return
		}
		m.acc = math.Max(0, m.acc-interval)

		lift := float64(made) * m.params.StreamSpacing
		p, ok := m.gen.Create(lift, m.renderer.Fits)
		if !ok {
			m.drop(p, "no batch has a free slot")
			continue
		}
		slot, ok := m.renderer.Acquire(p.Key(), p.ID)
		if !ok {
			m.drop(p, "batch full")
			continue
		}
		shape, extent := BodyFor(m.registry.Geometry(p.Kind))
		m.world.AddBody(p.ID, shape, extent, p.Spawn)
		m.renderer.Write(p.Key(), slot, p.Spawn, mgl64.QuatIdent())
		m.store.Add(p, slot)

		made++
		m.frame.Spawned++
		m.counters.Spawned++
	}
}

func (m *Manager) drop(p particle.Particle, reason string) {
	m.frame.Dropped++
	m.counters.Dropped++
	m.logger.Warn("spawn dropped", "id", p.ID, "batch", p.Key().String(), "reason", reason)
}

// Track feeds the frame's physics reports into the store.
func (m *Manager) Track(reports []physics.Report) {
	for i := range reports {
		m.store.Track(reports[i].ID, reports[i].Position.Y())
	}
}

// End runs the despawn pass and returns what the frame changed. Everything
// below the threshold is removed, or recycled, in one batch.
func (m *Manager) End() Frame {
	ids := m.store.Below(m.params.Threshold())
	if len(ids) == 0 {
		return m.frame
	}

	if m.params.Recycle {
		for _, id := range ids {
			pos := m.gen.SpawnPosition(m.gen.Container())
			m.world.Teleport(id, pos)
			m.store.Respawn(id, pos)
			if key, slot, ok := m.Locate(id); ok {
				m.renderer.Write(key, slot, pos, mgl64.QuatIdent())
			}
		}
		m.frame.Recycled += len(ids)
		m.counters.Recycled += len(ids)
		return m.frame
	}

	removed := m.store.RemoveBatch(ids)
	m.world.RemoveBodies(ids)
	for _, r := range removed {
		m.renderer.Release(r.Particle.Key(), r.Slot)
	}
	m.frame.Despawned += len(removed)
	m.counters.Despawned += len(removed)
	m.logger.Debug("despawned", "count", len(removed))
	return m.frame
}

// Clear removes every particle, body and slot and zeroes the accumulator.
func (m *Manager) Clear() {
	m.store.Clear()
	m.world.Clear()
	m.renderer.Reset()
	m.acc = 0
}

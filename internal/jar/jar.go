// Package jar composes the particle jar: every frame it advances the tilt
// controller, the lifecycle passes and the physics world, then writes the
// results into the instance batches.
package jar

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/charmbracelet/harmonica"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/jarsim/internal/config"
	"github.com/san-kum/jarsim/internal/container"
	"github.com/san-kum/jarsim/internal/dynamo"
	"github.com/san-kum/jarsim/internal/instancing"
	"github.com/san-kum/jarsim/internal/lifecycle"
	"github.com/san-kum/jarsim/internal/particle"
	"github.com/san-kum/jarsim/internal/physics"
	"github.com/san-kum/jarsim/internal/shapes"
	"github.com/san-kum/jarsim/internal/spawn"
	"github.com/san-kum/jarsim/internal/tilt"
)

// Input is what the surrounding view supplies each frame.
type Input struct {
	Active bool
	Tilt   *tilt.State
}

// Mesh is the glass transform.
type Mesh struct {
	Position mgl64.Vec3
	Scale    float64
	Rotation mgl64.Quat
	Tilt     float64 // visual tilt angle about z
	Sway     float64 // idle rotation about y
}

// Matrix returns the mesh model matrix.
func (m Mesh) Matrix() mgl32.Mat4 {
	r := m.Rotation
	q := mgl32.Quat{W: float32(r.W), V: mgl32.Vec3{float32(r.V[0]), float32(r.V[1]), float32(r.V[2])}}
	s := float32(m.Scale)
	return mgl32.Translate3D(float32(m.Position[0]), float32(m.Position[1]), float32(m.Position[2])).
		Mul4(q.Mat4()).
		Mul4(mgl32.Scale3D(s, s, s))
}

type Jar struct {
	cfg    *config.Config
	logger *slog.Logger
	seed   int64

	registry  *shapes.Registry
	container container.Params
	world     *physics.World
	store     *particle.Store
	gen       *spawn.Generator
	renderer  *instancing.Renderer
	manager   *lifecycle.Manager
	tilt      *tilt.Controller

	spring   harmonica.Spring
	springDt float64
	sway     float64
	swayVel  float64
	mesh     Mesh

	clock     float64
	frame     int
	pending   *config.Config
	closed    bool
	sample    dynamo.Sample
	observers []dynamo.Observer
}

type Option func(*Jar)

func WithSeed(seed int64) Option {
	return func(j *Jar) { j.seed = seed }
}

func WithLogger(l *slog.Logger) Option {
	return func(j *Jar) {
		if l != nil {
			j.logger = l
		}
	}
}

func WithObserver(o dynamo.Observer) Option {
	return func(j *Jar) { j.observers = append(j.observers, o) }
}

// New validates cfg and builds a jar. The seed defaults to cfg.Seed.
func New(cfg *config.Config, opts ...Option) (*Jar, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	j := &Jar{
		cfg:    cfg.Clone(),
		logger: slog.Default(),
		seed:   cfg.Seed,
	}
	for _, opt := range opts {
		opt(j)
	}
	if err := j.build(); err != nil {
		return nil, err
	}
	j.mesh = j.restingMesh()
	return j, nil
}

// build creates every component from j.cfg. Existing particles are lost.
func (j *Jar) build() error {
	cfg := j.cfg
	kinds, err := cfg.Kinds()
	if err != nil {
		return err
	}
	reg, err := shapes.NewRegistry(kinds, cfg.Palette.Colors, cfg.Stream.ParticleSize)
	if err != nil {
		return fmt.Errorf("%w: %w", dynamo.ErrInvalidConfig, err)
	}

	cp := cfg.ContainerParams()
	world, err := physics.NewWorld(cfg.PhysicsParams(), container.Build(cp))
	if err != nil {
		return fmt.Errorf("%w: %w", dynamo.ErrInvalidConfig, err)
	}
	renderer, err := instancing.New(reg.Keys(), cfg.Stream.MaxObjects, cfg.Headroom())
	if err != nil {
		return fmt.Errorf("%w: %w", dynamo.ErrInvalidConfig, err)
	}

	store := particle.NewStore()
	gen := spawn.New(reg, cp, cfg.Stream.SpawnHeight, j.seed)
	manager, err := lifecycle.New(cfg.LifecycleParams(), reg, gen, store, world, renderer,
		lifecycle.WithLogger(j.logger))
	if err != nil {
		return fmt.Errorf("%w: %w", dynamo.ErrInvalidConfig, err)
	}

	j.registry = reg
	j.container = cp
	j.world = world
	j.store = store
	j.gen = gen
	j.renderer = renderer
	j.manager = manager
	j.tilt = tilt.New(cfg.TiltParams())
	j.springDt = 0
	return nil
}

func (j *Jar) restingMesh() Mesh {
	return Mesh{Scale: j.cfg.View.JarScale, Rotation: mgl64.QuatIdent()}
}

// AddObserver registers o for every frame sample.
func (j *Jar) AddObserver(o dynamo.Observer) { j.observers = append(j.observers, o) }

// Now is the simulation clock in seconds.
func (j *Jar) Now() float64 { return j.clock }

// TriggerTilt starts a tilt on s at the current simulation time.
func (j *Jar) TriggerTilt(s *tilt.State) { j.tilt.Trigger(s, j.clock) }

// RequestReset empties the jar at the next frame boundary.
func (j *Jar) RequestReset() {
	if j.closed {
		return
	}
	j.manager.RequestReset()
}

// Reconfigure validates cfg now and applies it at the next frame boundary.
func (j *Jar) Reconfigure(cfg *config.Config) error {
	if j.closed {
		return dynamo.ErrClosed
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	j.pending = cfg.Clone()
	return nil
}

// Close releases bodies, slots and particles. Later updates are no-ops.
func (j *Jar) Close() error {
	if j.closed {
		return nil
	}
	j.manager.Clear()
	j.closed = true
	j.observers = nil
	return nil
}

func (j *Jar) Closed() bool { return j.closed }

func (j *Jar) Config() *config.Config       { return j.cfg.Clone() }
func (j *Jar) Registry() *shapes.Registry   { return j.registry }
func (j *Jar) Container() container.Params  { return j.container }
func (j *Jar) Mesh() Mesh                   { return j.mesh }
func (j *Jar) Sample() dynamo.Sample        { return j.sample }
func (j *Jar) Live() int                    { return j.store.Len() }
func (j *Jar) Counters() lifecycle.Counters { return j.manager.Counters() }
func (j *Jar) Threshold() float64           { return j.manager.Params().Threshold() }

// Batches returns the instance batches in registry key order.
func (j *Jar) Batches() []*instancing.Batch { return j.renderer.Batches() }

// Flush uploads every batch written since the last flush.
func (j *Jar) Flush(u instancing.Uploader) int { return j.renderer.Flush(u) }

// Positions visits every visible particle in container space.
func (j *Jar) Positions(fn func(key shapes.Key, id uint64, pos mgl32.Vec3)) {
	j.renderer.Positions(fn)
}

// Update advances the jar by dt seconds. It never fails: problems degrade
// into dropped spawns and warnings.
func (j *Jar) Update(dt float64, in Input) dynamo.Sample {
	if j.closed {
		return j.sample
	}
	if dt < 0 || math.IsNaN(dt) || math.IsInf(dt, 0) {
		dt = 0
	}
	if j.pending != nil {
		j.apply(j.pending)
		j.pending = nil
	}

	j.clock += dt
	j.frame++

	gravity, visual := j.tilt.Update(in.Tilt, j.clock)
	j.world.SetGravity(gravity)

	j.manager.Begin(dt)
	reports := j.world.Step(dt)
	j.manager.Track(reports)
	j.renderer.Apply(reports, j.manager.Locate)
	f := j.manager.End()

	j.updateMesh(dt, visual, in.Active)

	stats := j.world.Stats()
	s := dynamo.Sample{
		Frame:         j.frame,
		Time:          j.clock,
		Live:          j.store.Len(),
		Sleeping:      stats.Sleeping,
		Spawned:       f.Spawned,
		Despawned:     f.Despawned,
		Recycled:      f.Recycled,
		Dropped:       f.Dropped,
		SubSteps:      stats.SubSteps,
		Contacts:      stats.Contacts,
		KineticEnergy: stats.KineticEnergy,
		MeanHeight:    meanHeight(reports),
		GravityX:      gravity.X(),
		GravityY:      gravity.Y(),
		Tilting:       in.Tilt != nil && in.Tilt.Tilting,
	}
	for _, b := range j.renderer.Batches() {
		if b.Dirty() {
			s.Uploads++
		}
	}
	if !s.IsValid() {
		j.logger.Warn("non-finite frame sample", "frame", j.frame, "time", j.clock)
	}
	j.sample = s
	for _, o := range j.observers {
		o.OnFrame(s)
	}
	return s
}

func meanHeight(reports []physics.Report) float64 {
	if len(reports) == 0 {
		return 0
	}
	sum := 0.0
	for i := range reports {
		sum += reports[i].Position.Y()
	}
	return sum / float64(len(reports))
}

// updateMesh eases the idle sway toward its target with a spring. The sway
// only runs while the view is active; physics never pauses.
func (j *Jar) updateMesh(dt, visual float64, active bool) {
	v := j.cfg.View
	if dt > 0 {
		if dt != j.springDt {
			j.spring = harmonica.NewSpring(dt, v.IdleFrequency, v.IdleDamping)
			j.springDt = dt
		}
		target := 0.0
		if active {
			target = v.IdleSway * math.Sin(j.clock*v.IdleSpeed)
		}
		j.sway, j.swayVel = j.spring.Update(j.sway, j.swayVel, target)
	}

	// gravity leaning toward +x is the jar rolling clockwise about z
	roll := mgl64.QuatRotate(-visual, mgl64.Vec3{0, 0, 1})
	yaw := mgl64.QuatRotate(j.sway, mgl64.Vec3{0, 1, 0})
	j.mesh = Mesh{
		Scale:    v.JarScale,
		Rotation: roll.Mul(yaw),
		Tilt:     visual,
		Sway:     j.sway,
	}
}

// apply swaps in a new configuration at a frame boundary. Changes to the
// batch layout rebuild the jar; everything else is applied in place.
func (j *Jar) apply(next *config.Config) {
	prev := j.cfg
	j.cfg = next

	if layoutChanged(prev, next) {
		nextID := j.gen.NextID()
		j.manager.Clear()
		defer func() { j.gen.SkipTo(nextID) }()
		if err := j.build(); err != nil {
			j.logger.Error("reconfigure failed, keeping previous settings", "err", err)
			j.cfg = prev
			if err := j.build(); err != nil {
				j.logger.Error("rebuild failed", "err", err)
			}
			return
		}
		j.logger.Info("jar rebuilt", "max_objects", next.Stream.MaxObjects, "batches", len(j.registry.Keys()))
		return
	}

	if err := j.registry.SetPalette(next.Palette.Colors); err != nil {
		j.logger.Warn("palette not applied", "err", err)
	}
	if err := j.world.SetParams(next.PhysicsParams()); err != nil {
		j.logger.Warn("physics settings not applied", "err", err)
	}
	if err := j.manager.SetParams(next.LifecycleParams()); err != nil {
		j.logger.Warn("stream settings not applied", "err", err)
	}
	j.tilt.SetParams(next.TiltParams())
	j.springDt = 0

	if cp := next.ContainerParams(); cp != j.container {
		// colliders are torn down and rebuilt whole
		j.world.SetStatics(container.Build(cp))
		j.gen.SetContainer(cp)
		j.container = cp
		j.logger.Info("container rebuilt", "radius", cp.Radius, "segments", cp.Segments)
	}
}

func layoutChanged(a, b *config.Config) bool {
	if a.Stream.MaxObjects != b.Stream.MaxObjects ||
		a.Stream.ParticleSize != b.Stream.ParticleSize ||
		a.Headroom() != b.Headroom() ||
		len(a.Palette.Colors) != len(b.Palette.Colors) ||
		len(a.Shapes.Kinds) != len(b.Shapes.Kinds) {
		return true
	}
	for i := range a.Shapes.Kinds {
		if a.Shapes.Kinds[i] != b.Shapes.Kinds[i] {
			return true
		}
	}
	return false
}

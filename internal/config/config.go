package config

import (
	"fmt"
	"math"
	"os"

	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/jarsim/internal/container"
	"github.com/san-kum/jarsim/internal/dynamo"
	"github.com/san-kum/jarsim/internal/integrators"
	"github.com/san-kum/jarsim/internal/lifecycle"
	"github.com/san-kum/jarsim/internal/physics"
	"github.com/san-kum/jarsim/internal/shapes"
	"github.com/san-kum/jarsim/internal/tilt"
)

const (
	DefaultMaxObjects    = 150
	DefaultSpawnHeight   = 0.1
	DefaultStreamSpeed   = 8.0
	DefaultStreamSpacing = 0.05
	DefaultDespawnY      = -3.0
	DefaultParticleSize  = 0.02
	DefaultJarScale      = 20.0
)

type Config struct {
	Container ContainerConfig `yaml:"container"`
	Stream    StreamConfig    `yaml:"stream"`
	Physics   PhysicsConfig   `yaml:"physics"`
	Palette   PaletteConfig   `yaml:"palette"`
	Shapes    ShapesConfig    `yaml:"shapes"`
	Tilt      TiltConfig      `yaml:"tilt"`
	View      ViewConfig      `yaml:"view"`
	Seed      int64           `yaml:"seed"`
}

type ContainerConfig struct {
	Radius          float64 `yaml:"radius"`
	Height          float64 `yaml:"height"`
	YOffset         float64 `yaml:"y_offset"`
	WallThickness   float64 `yaml:"wall_thickness"`
	BottomThickness float64 `yaml:"bottom_thickness"`
	Segments        int     `yaml:"segments"`
	SafetyFloor     bool    `yaml:"safety_floor"`
	SafetyFloorY    float64 `yaml:"safety_floor_y"`
}

type StreamConfig struct {
	MaxObjects    int     `yaml:"max_objects"`
	SpawnHeight   float64 `yaml:"spawn_height"`
	StreamSpeed   float64 `yaml:"stream_speed"`
	StreamSpacing float64 `yaml:"stream_spacing"`
	DespawnY      float64 `yaml:"despawn_y"`
	Recycle       bool    `yaml:"recycle"`
	ParticleSize  float64 `yaml:"particle_size"`
	Headroom      float64 `yaml:"headroom"`
}

type PhysicsConfig struct {
	LinearDamping    float64    `yaml:"linear_damping"`
	AngularDamping   float64    `yaml:"angular_damping"`
	SleepSpeedLimit  float64    `yaml:"sleep_speed_limit"`
	SleepTimeLimit   float64    `yaml:"sleep_time_limit"`
	Friction         float64    `yaml:"friction"`
	Restitution      float64    `yaml:"restitution"`
	SolverIterations int        `yaml:"solver_iterations"`
	GravityResting   [3]float64 `yaml:"gravity_resting,flow"`
	FixedStep        float64    `yaml:"fixed_step"`
	MaxSubSteps      int        `yaml:"max_sub_steps"`
	Integrator       string     `yaml:"integrator"`
}

type PaletteConfig struct {
	Colors []string `yaml:"colors"`
}

type ShapesConfig struct {
	Kinds []string `yaml:"kinds"`
}

type TiltConfig struct {
	Amplitude   float64 `yaml:"amplitude"`
	Frequency   float64 `yaml:"frequency"`
	Duration    float64 `yaml:"duration"`
	VisualScale float64 `yaml:"visual_scale"`
}

type ViewConfig struct {
	JarScale      float64 `yaml:"jar_scale"`
	IdleSway      float64 `yaml:"idle_sway"`
	IdleSpeed     float64 `yaml:"idle_speed"`
	IdleFrequency float64 `yaml:"idle_frequency"`
	IdleDamping   float64 `yaml:"idle_damping"`
}

func DefaultConfig() *Config {
	cp := container.DefaultParams()
	pp := physics.DefaultParams()
	tp := tilt.DefaultParams()

	kinds := make([]string, len(shapes.DefaultKinds))
	for i, k := range shapes.DefaultKinds {
		kinds[i] = k.String()
	}

	return &Config{
		Container: ContainerConfig{
			Radius:          cp.Radius,
			Height:          cp.Height,
			YOffset:         cp.YOffset,
			WallThickness:   cp.WallThickness,
			BottomThickness: cp.BottomThickness,
			Segments:        cp.Segments,
			SafetyFloor:     cp.SafetyFloor,
			SafetyFloorY:    cp.SafetyFloorY,
		},
		Stream: StreamConfig{
			MaxObjects:    DefaultMaxObjects,
			SpawnHeight:   DefaultSpawnHeight,
			StreamSpeed:   DefaultStreamSpeed,
			StreamSpacing: DefaultStreamSpacing,
			DespawnY:      DefaultDespawnY,
			ParticleSize:  DefaultParticleSize,
			Headroom:      1,
		},
		Physics: PhysicsConfig{
			LinearDamping:    pp.LinearDamping,
			AngularDamping:   pp.AngularDamping,
			SleepSpeedLimit:  pp.SleepSpeedLimit,
			SleepTimeLimit:   pp.SleepTimeLimit,
			Friction:         pp.Friction,
			Restitution:      pp.Restitution,
			SolverIterations: pp.SolverIterations,
			GravityResting:   pp.Gravity,
			FixedStep:        pp.FixedStep,
			MaxSubSteps:      pp.MaxSubSteps,
			Integrator:       pp.Integrator,
		},
		Palette: PaletteConfig{Colors: append([]string(nil), shapes.DefaultPalette...)},
		Shapes:  ShapesConfig{Kinds: kinds},
		Tilt: TiltConfig{
			Amplitude:   tp.Amplitude,
			Frequency:   tp.Frequency,
			Duration:    tp.Duration,
			VisualScale: tp.VisualScale,
		},
		View: ViewConfig{
			JarScale:      DefaultJarScale,
			IdleSway:      0.15,
			IdleSpeed:     0.4,
			IdleFrequency: 2,
			IdleDamping:   0.6,
		},
		Seed: 1,
	}
}

// Load reads a yaml file over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := *c
	out.Palette.Colors = append([]string(nil), c.Palette.Colors...)
	out.Shapes.Kinds = append([]string(nil), c.Shapes.Kinds...)
	return &out
}

func invalid(field, format string, args ...any) error {
	return &dynamo.ConfigError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// Validate checks every section. Errors wrap dynamo.ErrInvalidConfig.
func (c *Config) Validate() error {
	ct := c.Container
	switch {
	case ct.Radius <= 0:
		return invalid("container.radius", "must be positive, got %v", ct.Radius)
	case ct.Height <= 0:
		return invalid("container.height", "must be positive, got %v", ct.Height)
	case ct.WallThickness < 0 || ct.BottomThickness <= 0:
		return invalid("container.thickness", "wall %v bottom %v", ct.WallThickness, ct.BottomThickness)
	case ct.Segments < 0:
		return invalid("container.segments", "must not be negative, got %d", ct.Segments)
	}

	st := c.Stream
	switch {
	case st.MaxObjects <= 0:
		return invalid("stream.max_objects", "must be positive, got %d", st.MaxObjects)
	case st.StreamSpeed <= 0:
		return invalid("stream.stream_speed", "must be positive, got %v", st.StreamSpeed)
	case st.StreamSpacing < 0:
		return invalid("stream.stream_spacing", "must not be negative, got %v", st.StreamSpacing)
	case st.ParticleSize <= 0 || st.ParticleSize >= ct.Radius:
		return invalid("stream.particle_size", "must be in (0, radius), got %v", st.ParticleSize)
	case st.Headroom < 0:
		return invalid("stream.headroom", "must not be negative, got %v", st.Headroom)
	}

	ph := c.Physics
	switch {
	case ph.LinearDamping < 0 || ph.LinearDamping >= 1:
		return invalid("physics.linear_damping", "must be in [0,1), got %v", ph.LinearDamping)
	case ph.AngularDamping < 0 || ph.AngularDamping >= 1:
		return invalid("physics.angular_damping", "must be in [0,1), got %v", ph.AngularDamping)
	case ph.SleepSpeedLimit < 0 || ph.SleepTimeLimit < 0:
		return invalid("physics.sleep", "limits must not be negative")
	case ph.Friction < 0:
		return invalid("physics.friction", "must not be negative, got %v", ph.Friction)
	case ph.Restitution < 0 || ph.Restitution > 1:
		return invalid("physics.restitution", "must be in [0,1], got %v", ph.Restitution)
	case ph.SolverIterations < 1:
		return invalid("physics.solver_iterations", "must be at least 1, got %d", ph.SolverIterations)
	case ph.FixedStep <= 0:
		return invalid("physics.fixed_step", "must be positive, got %v", ph.FixedStep)
	case ph.MaxSubSteps < 1:
		return invalid("physics.max_sub_steps", "must be at least 1, got %d", ph.MaxSubSteps)
	}
	if _, err := integrators.ByName(ph.Integrator); err != nil {
		return invalid("physics.integrator", "%v", err)
	}

	if len(c.Palette.Colors) == 0 {
		return invalid("palette.colors", "palette is empty")
	}
	for _, col := range c.Palette.Colors {
		if _, err := shapes.ParseHex(col); err != nil {
			return invalid("palette.colors", "%v", err)
		}
	}
	if _, err := c.Kinds(); err != nil {
		return err
	}

	tl := c.Tilt
	if tl.Duration <= 0 {
		return invalid("tilt.duration", "must be positive, got %v", tl.Duration)
	}
	if c.View.JarScale <= 0 {
		return invalid("view.jar_scale", "must be positive, got %v", c.View.JarScale)
	}
	if c.View.IdleDamping < 0 {
		return invalid("view.idle_damping", "must not be negative, got %v", c.View.IdleDamping)
	}
	return nil
}

// Kinds parses the enabled shape kinds.
func (c *Config) Kinds() ([]shapes.Kind, error) {
	if len(c.Shapes.Kinds) == 0 {
		return nil, invalid("shapes.kinds", "no kinds enabled")
	}
	out := make([]shapes.Kind, 0, len(c.Shapes.Kinds))
	seen := map[shapes.Kind]bool{}
	for _, name := range c.Shapes.Kinds {
		k, ok := shapes.ParseKind(name)
		if !ok {
			return nil, fmt.Errorf("%w: %w: %q", dynamo.ErrInvalidConfig, dynamo.ErrUnknownShape, name)
		}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	return out, nil
}

func (c *Config) ContainerParams() container.Params {
	ct := c.Container
	return container.Params{
		Radius:          ct.Radius,
		Height:          ct.Height,
		YOffset:         ct.YOffset,
		WallThickness:   ct.WallThickness,
		BottomThickness: ct.BottomThickness,
		Segments:        ct.Segments,
		Friction:        c.Physics.Friction,
		Restitution:     c.Physics.Restitution,
		SafetyFloor:     ct.SafetyFloor,
		SafetyFloorY:    ct.SafetyFloorY,
	}
}

func (c *Config) PhysicsParams() physics.Params {
	ph := c.Physics
	return physics.Params{
		LinearDamping:    ph.LinearDamping,
		AngularDamping:   ph.AngularDamping,
		SleepSpeedLimit:  ph.SleepSpeedLimit,
		SleepTimeLimit:   ph.SleepTimeLimit,
		Friction:         ph.Friction,
		Restitution:      ph.Restitution,
		Gravity:          mgl64.Vec3(ph.GravityResting),
		SolverIterations: ph.SolverIterations,
		FixedStep:        ph.FixedStep,
		MaxSubSteps:      ph.MaxSubSteps,
		Integrator:       ph.Integrator,
	}
}

func (c *Config) LifecycleParams() lifecycle.Params {
	return lifecycle.Params{
		MaxObjects:    c.Stream.MaxObjects,
		StreamSpeed:   c.Stream.StreamSpeed,
		StreamSpacing: c.Stream.StreamSpacing,
		DespawnY:      c.Stream.DespawnY,
		Scale:         c.View.JarScale,
		Recycle:       c.Stream.Recycle,
	}
}

func (c *Config) TiltParams() tilt.Params {
	return tilt.Params{
		Amplitude:   c.Tilt.Amplitude,
		Frequency:   c.Tilt.Frequency,
		Duration:    c.Tilt.Duration,
		VisualScale: c.Tilt.VisualScale,
		Resting:     mgl64.Vec3(c.Physics.GravityResting),
	}
}

// Headroom is the batch capacity multiplier, never below one.
func (c *Config) Headroom() float64 {
	return math.Max(1, c.Stream.Headroom)
}

package config

import "sort"

type preset struct {
	Description string
	Apply       func(c *Config)
}

var Presets = map[string]preset{
	"calm": {
		Description: "slow trickle, heavy damping",
		Apply: func(c *Config) {
			c.Stream.StreamSpeed = 3
			c.Stream.MaxObjects = 60
			c.Physics.LinearDamping = 0.3
			c.Physics.Restitution = 0.1
		},
	},
	"dense": {
		Description: "fills the jar to the rim",
		Apply: func(c *Config) {
			c.Stream.MaxObjects = 400
			c.Stream.StreamSpeed = 20
			c.Stream.ParticleSize = 0.018
		},
	},
	"stream": {
		Description: "recycles escaped particles over a safety floor",
		Apply: func(c *Config) {
			c.Stream.Recycle = true
			c.Stream.StreamSpeed = 15
			c.Container.Segments = 24
			c.Container.SafetyFloor = true
		},
	},
	"tiny": {
		Description: "ten spheres, handy for debugging",
		Apply: func(c *Config) {
			c.Stream.MaxObjects = 10
			c.Stream.StreamSpeed = 10
			c.Shapes.Kinds = []string{"sphere"}
			c.Palette.Colors = c.Palette.Colors[:1]
		},
	},
	"party": {
		Description: "every shape kind, bouncy, frequent shakes",
		Apply: func(c *Config) {
			c.Shapes.Kinds = []string{"sphere", "cube", "torus", "torus_knot"}
			c.Physics.Restitution = 0.6
			c.Tilt.Amplitude = 0.9
			c.Tilt.Duration = 2.5
			c.Stream.StreamSpeed = 12
		},
	},
}

// GetPreset returns the defaults with the named preset applied, or nil.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	p.Apply(cfg)
	return cfg
}

// Describe returns a preset's one-line description.
func Describe(name string) string {
	return Presets[name].Description
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

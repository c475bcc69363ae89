// Package spawn produces new particles above the jar opening.
package spawn

import (
	"math"
	"math/rand"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/jarsim/internal/container"
	"github.com/san-kum/jarsim/internal/particle"
	"github.com/san-kum/jarsim/internal/shapes"
)

// ConeFactor scales the container radius into the spawn disk radius.
const ConeFactor = 0.3

type Generator struct {
	rng       *rand.Rand
	nextID    uint64
	keys      []shapes.Key
	container container.Params
	margin    float64
	scratch   []shapes.Key
}

// New creates a generator for the registry's enabled kinds and colors.
// margin is the spawn height above the rim.
func New(reg *shapes.Registry, p container.Params, margin float64, seed int64) *Generator {
	return &Generator{
		rng:       rand.New(rand.NewSource(seed)),
		nextID:    1,
		keys:      append([]shapes.Key(nil), reg.Keys()...),
		container: p,
		margin:    margin,
	}
}

// SetContainer updates the geometry spawn points are computed from.
func (g *Generator) SetContainer(p container.Params) { g.container = p }

func (g *Generator) Container() container.Params { return g.container }

// NextID is the id the next created particle will receive.
func (g *Generator) NextID() uint64 { return g.nextID }

// SkipTo moves the id counter forward to id. It never moves backwards.
func (g *Generator) SkipTo(id uint64) {
	if id > g.nextID {
		g.nextID = id
	}
}

// SpawnPosition samples a point over the opening. The radius is drawn
// uniformly, which concentrates entries near the axis.
func (g *Generator) SpawnPosition(p container.Params) mgl64.Vec3 {
	angle := g.rng.Float64() * 2 * math.Pi
	r := g.rng.Float64() * p.Radius * ConeFactor
	return mgl64.Vec3{r * math.Cos(angle), p.Top() + g.margin, r * math.Sin(angle)}
}

// Create assigns the next id and a uniformly drawn kind and color. When fits
// rejects the draw, the pick is redrawn among keys that fit; ok is false when
// nothing fits. The id is consumed either way.
func (g *Generator) Create(lift float64, fits func(shapes.Key) bool) (particle.Particle, bool) {
	id := g.nextID
	g.nextID++

	key := g.keys[g.rng.Intn(len(g.keys))]
	if fits != nil && !fits(key) {
		g.scratch = g.scratch[:0]
		for _, k := range g.keys {
			if fits(k) {
				g.scratch = append(g.scratch, k)
			}
		}
		if len(g.scratch) == 0 {
			return particle.Particle{ID: id, Kind: key.Kind, Color: key.Color}, false
		}
		key = g.scratch[g.rng.Intn(len(g.scratch))]
	}

	pos := g.SpawnPosition(g.container)
	pos[1] += lift
	return particle.Particle{ID: id, Kind: key.Kind, Color: key.Color, Spawn: pos}, true
}

package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/jarsim/internal/integrators"
)

type Shape uint8

const (
	ShapeSphere Shape = iota
	ShapeBox
)

// Body is one dynamic particle. Extent is the sphere radius or the cube's
// half edge.
type Body struct {
	ID     uint64
	Shape  Shape
	Extent float64
	integrators.State

	invMass    float64
	invInertia float64
	sleeping   bool
	idle       float64
}

func newBody(id uint64, shape Shape, extent float64, pos mgl64.Vec3) *Body {
	const mass = 1.0
	var inertia float64
	if shape == ShapeBox {
		// 1/6·m·s² with s = 2·extent
		inertia = 2.0 / 3.0 * mass * extent * extent
	} else {
		inertia = 0.4 * mass * extent * extent
	}
	return &Body{
		ID:     id,
		Shape:  shape,
		Extent: extent,
		State: integrators.State{
			Position:    pos,
			Orientation: mgl64.QuatIdent(),
		},
		invMass:    1 / mass,
		invInertia: 1 / inertia,
	}
}

func (b *Body) Sleeping() bool { return b.sleeping }

// BoundingRadius encloses the collision shape.
func (b *Body) BoundingRadius() float64 {
	if b.Shape == ShapeBox {
		return b.Extent * math.Sqrt(3)
	}
	return b.Extent
}

// Speed is the larger of the linear speed and the surface speed from spin.
func (b *Body) Speed() float64 {
	return math.Max(b.Velocity.Len(), b.AngularVelocity.Len()*b.Extent)
}

func (b *Body) KineticEnergy() float64 {
	if b.sleeping {
		return 0
	}
	w := b.AngularVelocity.Len()
	return 0.5*b.Velocity.Dot(b.Velocity)/b.invMass + 0.5*w*w/b.invInertia
}

func (b *Body) Wake() {
	b.sleeping = false
	b.idle = 0
}

func (b *Body) sleep() {
	b.sleeping = true
	b.Velocity = mgl64.Vec3{}
	b.AngularVelocity = mgl64.Vec3{}
}

// effective inverse mass and inertia: sleeping bodies do not move
func (b *Body) dynamics() (float64, float64) {
	if b == nil || b.sleeping {
		return 0, 0
	}
	return b.invMass, b.invInertia
}

func (b *Body) box() obb {
	return obb{center: b.Position, rot: b.Orientation, half: mgl64.Vec3{b.Extent, b.Extent, b.Extent}}
}

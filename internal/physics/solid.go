package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/jarsim/internal/container"
)

// solid is a convex region bodies are pushed out of.
type solid interface {
	// closest returns the nearest point of the solid to p, and whether p is inside.
	closest(p mgl64.Vec3) (mgl64.Vec3, bool)
	// pushOut returns the outward normal and depth that move an inside point to the surface.
	pushOut(p mgl64.Vec3) (mgl64.Vec3, float64)
	// overlaps is a cheap bounds test against a sphere.
	overlaps(c mgl64.Vec3, r float64) bool
}

type obb struct {
	center mgl64.Vec3
	rot    mgl64.Quat
	half   mgl64.Vec3
}

func (o obb) local(p mgl64.Vec3) mgl64.Vec3 {
	return o.rot.Conjugate().Rotate(p.Sub(o.center))
}

func (o obb) world(l mgl64.Vec3) mgl64.Vec3 {
	return o.rot.Rotate(l).Add(o.center)
}

func (o obb) closest(p mgl64.Vec3) (mgl64.Vec3, bool) {
	l := o.local(p)
	inside := true
	for i := 0; i < 3; i++ {
		if l[i] > o.half[i] {
			l[i] = o.half[i]
			inside = false
		} else if l[i] < -o.half[i] {
			l[i] = -o.half[i]
			inside = false
		}
	}
	return o.world(l), inside
}

func (o obb) pushOut(p mgl64.Vec3) (mgl64.Vec3, float64) {
	l := o.local(p)
	axis, depth := 0, math.Inf(1)
	for i := 0; i < 3; i++ {
		if d := o.half[i] - math.Abs(l[i]); d < depth {
			axis, depth = i, d
		}
	}
	var n mgl64.Vec3
	n[axis] = 1
	if l[axis] < 0 {
		n[axis] = -1
	}
	return o.rot.Rotate(n), depth
}

func (o obb) overlaps(c mgl64.Vec3, r float64) bool {
	reach := o.half.Len() + r
	d := c.Sub(o.center)
	return d.Dot(d) <= reach*reach
}

func (o obb) corners() [8]mgl64.Vec3 {
	var out [8]mgl64.Vec3
	for i := range out {
		l := o.half
		if i&1 != 0 {
			l[0] = -l[0]
		}
		if i&2 != 0 {
			l[1] = -l[1]
		}
		if i&4 != 0 {
			l[2] = -l[2]
		}
		out[i] = o.world(l)
	}
	return out
}

type cylinder struct {
	center     mgl64.Vec3
	radius     float64
	halfHeight float64
}

func (c cylinder) closest(p mgl64.Vec3) (mgl64.Vec3, bool) {
	l := p.Sub(c.center)
	inside := true
	if l[1] > c.halfHeight {
		l[1] = c.halfHeight
		inside = false
	} else if l[1] < -c.halfHeight {
		l[1] = -c.halfHeight
		inside = false
	}
	if r := math.Hypot(l[0], l[2]); r > c.radius {
		s := c.radius / r
		l[0] *= s
		l[2] *= s
		inside = false
	}
	return l.Add(c.center), inside
}

func (c cylinder) pushOut(p mgl64.Vec3) (mgl64.Vec3, float64) {
	l := p.Sub(c.center)
	n, depth := mgl64.Vec3{0, 1, 0}, c.halfHeight-l[1]
	if d := c.halfHeight + l[1]; d < depth {
		n, depth = mgl64.Vec3{0, -1, 0}, d
	}
	r := math.Hypot(l[0], l[2])
	if d := c.radius - r; d < depth && r > 0 {
		n, depth = mgl64.Vec3{l[0] / r, 0, l[2] / r}, d
	}
	return n, depth
}

func (c cylinder) overlaps(p mgl64.Vec3, r float64) bool {
	l := p.Sub(c.center)
	return math.Abs(l[1]) <= c.halfHeight+r && math.Hypot(l[0], l[2]) <= c.radius+r
}

type plane struct {
	y float64
}

func (pl plane) closest(p mgl64.Vec3) (mgl64.Vec3, bool) {
	return mgl64.Vec3{p[0], pl.y, p[2]}, p[1] < pl.y
}

func (pl plane) pushOut(p mgl64.Vec3) (mgl64.Vec3, float64) {
	return mgl64.Vec3{0, 1, 0}, pl.y - p[1]
}

func (pl plane) overlaps(c mgl64.Vec3, r float64) bool {
	return c[1]-r <= pl.y
}

// static is one immovable collider with its surface material.
type static struct {
	shape       solid
	friction    float64
	restitution float64
}

func staticsFrom(c container.Collider) []static {
	out := make([]static, 0, len(c.Walls)+2)
	add := func(s solid) {
		out = append(out, static{shape: s, friction: c.Friction, restitution: c.Restitution})
	}
	add(cylinder{center: c.Floor.Center, radius: c.Floor.Radius, halfHeight: c.Floor.HalfHeight})
	for _, w := range c.Walls {
		add(obb{center: w.Center, rot: w.Rotation(), half: w.HalfExtents})
	}
	if c.Safety != nil {
		add(plane{y: c.Safety.Y})
	}
	return out
}

package physics

import (
	"sort"

	"github.com/go-gl/mathgl/mgl64"
)

// contact pushes a along normal, away from b. b is nil for static geometry.
type contact struct {
	a, b        *Body
	point       mgl64.Vec3
	normal      mgl64.Vec3
	depth       float64
	friction    float64
	restitution float64

	rA, rB     mgl64.Vec3
	normalMass float64
	bounce     float64
	impulse    float64
	tangent    mgl64.Vec3
}

type hit struct {
	point  mgl64.Vec3
	normal mgl64.Vec3
	depth  float64
}

// sphereVsSolid collides a sphere at c with radius r against s.
func sphereVsSolid(c mgl64.Vec3, r float64, s solid) (hit, bool) {
	cp, inside := s.closest(c)
	if inside {
		n, d := s.pushOut(c)
		return hit{point: c.Sub(n.Mul(r)), normal: n, depth: d + r}, true
	}
	diff := c.Sub(cp)
	dist := diff.Len()
	if dist >= r || dist == 0 {
		return hit{}, false
	}
	return hit{point: cp, normal: diff.Mul(1 / dist), depth: r - dist}, true
}

// cornersVsSolid collides the corners of box against s, deepest first.
func cornersVsSolid(box obb, s solid, dst []hit) []hit {
	start := len(dst)
	for _, p := range box.corners() {
		if _, inside := s.closest(p); !inside {
			continue
		}
		n, d := s.pushOut(p)
		dst = append(dst, hit{point: p, normal: n, depth: d})
	}
	found := dst[start:]
	if len(found) > maxCornerContacts {
		sort.Slice(found, func(i, j int) bool { return found[i].depth > found[j].depth })
		dst = dst[:start+maxCornerContacts]
	}
	return dst
}

// bodyVsSolid returns the contacts of a body against static geometry.
func bodyVsSolid(b *Body, s solid, dst []hit) []hit {
	if b.Shape == ShapeBox {
		return cornersVsSolid(b.box(), s, dst)
	}
	if h, ok := sphereVsSolid(b.Position, b.Extent, s); ok {
		dst = append(dst, h)
	}
	return dst
}

// bodyVsBody returns contacts whose normals push a away from b.
func bodyVsBody(a, b *Body, dst []hit) []hit {
	switch {
	case a.Shape == ShapeSphere && b.Shape == ShapeSphere:
		diff := a.Position.Sub(b.Position)
		dist := diff.Len()
		reach := a.Extent + b.Extent
		if dist >= reach {
			return dst
		}
		n := mgl64.Vec3{0, 1, 0}
		if dist > 0 {
			n = diff.Mul(1 / dist)
		}
		return append(dst, hit{point: b.Position.Add(n.Mul(b.Extent)), normal: n, depth: reach - dist})

	case a.Shape == ShapeSphere:
		if h, ok := sphereVsSolid(a.Position, a.Extent, b.box()); ok {
			dst = append(dst, h)
		}
		return dst

	case b.Shape == ShapeSphere:
		h, ok := sphereVsSolid(b.Position, b.Extent, a.box())
		if ok {
			h.normal = h.normal.Mul(-1)
			dst = append(dst, h)
		}
		return dst

	default:
		dst = cornersVsSolid(a.box(), b.box(), dst)
		start := len(dst)
		dst = cornersVsSolid(b.box(), a.box(), dst)
		for i := start; i < len(dst); i++ {
			dst[i].normal = dst[i].normal.Mul(-1)
		}
		return dst
	}
}

// Package container describes the static jar geometry particles collide with.
package container

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// segmentOverlap widens each wall segment so neighbours overlap at the corners.
const segmentOverlap = 1.05

type Params struct {
	Radius          float64
	Height          float64
	YOffset         float64
	WallThickness   float64
	BottomThickness float64
	Segments        int
	Friction        float64
	Restitution     float64
	SafetyFloor     bool
	SafetyFloorY    float64
}

func DefaultParams() Params {
	return Params{
		Radius:          0.5,
		Height:          1.0,
		YOffset:         0.5,
		WallThickness:   0.05,
		BottomThickness: 0.05,
		Segments:        16,
		Friction:        0.3,
		Restitution:     0.2,
		SafetyFloorY:    -1.0,
	}
}

// Floor returns the height of the jar's inner floor.
func (p Params) Floor() float64 { return p.YOffset - p.Height/2 }

// Top returns the height of the jar's rim.
func (p Params) Top() float64 { return p.YOffset + p.Height/2 }

// SegmentWidth is the tangential width of one wall box.
func (p Params) SegmentWidth() float64 {
	if p.Segments <= 0 {
		return 0
	}
	return 2 * math.Pi * (p.Radius + p.WallThickness) / float64(p.Segments) * segmentOverlap
}

// Box is a static oriented box rotated about the vertical axis.
type Box struct {
	Center      mgl64.Vec3
	HalfExtents mgl64.Vec3
	Yaw         float64
}

// Rotation returns the box orientation.
func (b Box) Rotation() mgl64.Quat {
	return mgl64.QuatRotate(b.Yaw, mgl64.Vec3{0, 1, 0})
}

// Cylinder is an upright solid disc.
type Cylinder struct {
	Center     mgl64.Vec3
	Radius     float64
	HalfHeight float64
}

// Plane is an infinite horizontal floor at height Y.
type Plane struct {
	Y float64
}

type Collider struct {
	Floor       Cylinder
	Walls       []Box
	Safety      *Plane
	Friction    float64
	Restitution float64
}

// Build lays out the jar. Zero segments produce a floor without walls.
func Build(p Params) Collider {
	c := Collider{
		Floor: Cylinder{
			Center:     mgl64.Vec3{0, p.Floor() - p.BottomThickness/2, 0},
			Radius:     p.Radius + p.WallThickness,
			HalfHeight: p.BottomThickness / 2,
		},
		Friction:    p.Friction,
		Restitution: p.Restitution,
	}

	if p.Segments > 0 {
		c.Walls = make([]Box, p.Segments)
		ring := p.Radius + p.WallThickness/2
		half := mgl64.Vec3{p.SegmentWidth() / 2, p.Height / 2, p.WallThickness / 2}
		for i := range c.Walls {
			angle := float64(i) / float64(p.Segments) * 2 * math.Pi
			c.Walls[i] = Box{
				Center:      mgl64.Vec3{math.Sin(angle) * ring, p.YOffset, math.Cos(angle) * ring},
				HalfExtents: half,
				Yaw:         angle,
			}
		}
	}

	if p.SafetyFloor {
		c.Safety = &Plane{Y: p.SafetyFloorY}
	}
	return c
}

// Encloses reports whether the wall polygon covers the full circumference at
// the inner radius.
func (c Collider) Encloses(p Params) bool {
	if len(c.Walls) == 0 {
		return false
	}
	return float64(len(c.Walls))*p.SegmentWidth() >= 2*math.Pi*p.Radius
}

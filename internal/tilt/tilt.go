// Package tilt turns a transient tilt gesture into a decaying gravity
// oscillation.
package tilt

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// State is the caller-owned gesture state. Start is on the simulation clock.
type State struct {
	Tilting bool
	Start   float64
}

type Params struct {
	Amplitude   float64 // radians
	Frequency   float64 // radians per second
	Duration    float64 // seconds
	VisualScale float64
	Resting     mgl64.Vec3
}

func DefaultParams() Params {
	return Params{
		Amplitude:   0.5,
		Frequency:   12,
		Duration:    1.5,
		VisualScale: 0.3,
		Resting:     mgl64.Vec3{0, -0.12, 0},
	}
}

type Controller struct {
	params Params
	g      float64
}

func New(p Params) *Controller {
	return &Controller{params: p, g: p.Resting.Len()}
}

func (c *Controller) Params() Params { return c.params }

func (c *Controller) SetParams(p Params) {
	c.params = p
	c.g = p.Resting.Len()
}

// Trigger starts a tilt at now. A tilt in progress restarts.
func (c *Controller) Trigger(s *State, now float64) {
	s.Tilting = true
	s.Start = now
}

// Angle is the tilt angle elapsed seconds into a gesture.
func (c *Controller) Angle(elapsed float64) float64 {
	p := c.params
	if elapsed < 0 || elapsed >= p.Duration {
		return 0
	}
	return p.Amplitude * math.Sin(elapsed*p.Frequency) * (1 - elapsed/p.Duration)
}

// Update returns the gravity vector and the visual jar angle for now. An
// expired tilt is cleared and resting gravity returned.
func (c *Controller) Update(s *State, now float64) (mgl64.Vec3, float64) {
	if s == nil || !s.Tilting {
		return c.params.Resting, 0
	}
	elapsed := now - s.Start
	if elapsed >= c.params.Duration {
		s.Tilting = false
		return c.params.Resting, 0
	}
	angle := c.Angle(elapsed)
	gravity := mgl64.Vec3{math.Sin(angle) * c.g, -math.Cos(angle) * c.g, 0}
	return gravity, angle * c.params.VisualScale
}

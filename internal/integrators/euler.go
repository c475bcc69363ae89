package integrators

import "github.com/go-gl/mathgl/mgl64"

type Euler struct{}

func (Euler) Name() string { return "euler" }

func (Euler) Integrate(s *State, accel mgl64.Vec3, dt float64) {
	s.Position = s.Position.Add(s.Velocity.Mul(dt))
	s.Velocity = s.Velocity.Add(accel.Mul(dt))
	s.Orientation = Rotate(s.Orientation, s.AngularVelocity, dt)
	s.PrevAccel = accel
}

// SemiImplicitEuler updates velocity first, then position with the new
// velocity. It is the default: stable for resting contact.
type SemiImplicitEuler struct{}

func (SemiImplicitEuler) Name() string { return "semi_implicit" }

func (SemiImplicitEuler) Integrate(s *State, accel mgl64.Vec3, dt float64) {
	s.Velocity = s.Velocity.Add(accel.Mul(dt))
	s.Position = s.Position.Add(s.Velocity.Mul(dt))
	s.Orientation = Rotate(s.Orientation, s.AngularVelocity, dt)
	s.PrevAccel = accel
}

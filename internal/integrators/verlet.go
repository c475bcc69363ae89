package integrators

import "github.com/go-gl/mathgl/mgl64"

// Verlet is velocity Verlet with the acceleration held over the step.
type Verlet struct{}

func (Verlet) Name() string { return "verlet" }

func (Verlet) Integrate(s *State, accel mgl64.Vec3, dt float64) {
	s.Position = s.Position.Add(s.Velocity.Mul(dt)).Add(accel.Mul(0.5 * dt * dt))
	s.Velocity = s.Velocity.Add(s.PrevAccel.Add(accel).Mul(0.5 * dt))
	s.Orientation = Rotate(s.Orientation, s.AngularVelocity, dt)
	s.PrevAccel = accel
}

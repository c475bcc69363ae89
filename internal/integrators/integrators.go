// Package integrators advances a single rigid body's kinematic state.
package integrators

import (
	"fmt"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
)

// State is the kinematic state of one body.
type State struct {
	Position        mgl64.Vec3
	Velocity        mgl64.Vec3
	Orientation     mgl64.Quat
	AngularVelocity mgl64.Vec3
	// PrevAccel is the acceleration of the previous step, used by Verlet.
	PrevAccel mgl64.Vec3
}

type Integrator interface {
	Name() string
	Integrate(s *State, accel mgl64.Vec3, dt float64)
}

var registry = map[string]func() Integrator{
	"euler":         func() Integrator { return Euler{} },
	"semi_implicit": func() Integrator { return SemiImplicitEuler{} },
	"verlet":        func() Integrator { return Verlet{} },
}

// ByName returns the integrator registered under name.
func ByName(name string) (Integrator, error) {
	fn, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown integrator: %s (available: %v)", name, Names())
	}
	return fn(), nil
}

func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Rotate advances q by angular velocity w over dt and renormalizes.
func Rotate(q mgl64.Quat, w mgl64.Vec3, dt float64) mgl64.Quat {
	if w.Len() == 0 {
		return q
	}
	spin := mgl64.Quat{W: 0, V: w.Mul(0.5 * dt)}
	return q.Add(spin.Mul(q)).Normalize()
}

package physics

import "github.com/go-gl/mathgl/mgl64"

type Params struct {
	LinearDamping    float64
	AngularDamping   float64
	SleepSpeedLimit  float64
	SleepTimeLimit   float64
	Friction         float64
	Restitution      float64
	Gravity          mgl64.Vec3
	SolverIterations int
	FixedStep        float64
	MaxSubSteps      int
	Integrator       string
}

func DefaultParams() Params {
	return Params{
		LinearDamping:    0.1,
		AngularDamping:   0.3,
		SleepSpeedLimit:  0.01,
		SleepTimeLimit:   0.5,
		Friction:         0.3,
		Restitution:      0.2,
		Gravity:          mgl64.Vec3{0, -0.12, 0},
		SolverIterations: 10,
		FixedStep:        1.0 / 120,
		MaxSubSteps:      10,
		Integrator:       "semi_implicit",
	}
}

const (
	// contacts slower than this along the normal do not bounce
	bounceThreshold = 0.02
	// allowed resting penetration before positional correction kicks in
	penetrationSlop = 0.001
	correctionRate  = 0.6
	// per-pair contact cap for box corners
	maxCornerContacts = 4
)

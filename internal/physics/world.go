package physics

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/jarsim/internal/container"
	"github.com/san-kum/jarsim/internal/integrators"
)

// Report is the transform of one body after a frame.
type Report struct {
	ID          uint64
	Position    mgl64.Vec3
	Orientation mgl64.Quat
	Sleeping    bool
}

type Stats struct {
	Bodies        int
	Sleeping      int
	Contacts      int
	SubSteps      int
	KineticEnergy float64
}

type World struct {
	params     Params
	integrator integrators.Integrator
	gravity    mgl64.Vec3
	statics    []static

	bodies []*Body
	index  map[uint64]int

	acc      float64
	subSteps int
	grid     *grid
	contacts []contact
	hits     []hit
	reports  []Report
}

func NewWorld(p Params, c container.Collider) (*World, error) {
	w := &World{
		statics: staticsFrom(c),
		index:   make(map[uint64]int),
		grid:    newGrid(0.1),
	}
	if err := w.SetParams(p); err != nil {
		return nil, err
	}
	w.gravity = p.Gravity
	return w, nil
}

// SetParams swaps solver settings in place. Gravity is left to SetGravity.
func (w *World) SetParams(p Params) error {
	integ, err := integrators.ByName(p.Integrator)
	if err != nil {
		return fmt.Errorf("physics: %w", err)
	}
	if p.FixedStep <= 0 {
		return fmt.Errorf("physics: fixed step must be positive, got %f", p.FixedStep)
	}
	if p.MaxSubSteps < 1 {
		p.MaxSubSteps = 1
	}
	if p.SolverIterations < 1 {
		p.SolverIterations = 1
	}
	w.params = p
	w.integrator = integ
	return nil
}

func (w *World) Params() Params { return w.params }

// SetStatics replaces the static geometry and wakes every body so nothing
// stays parked on a collider that no longer exists.
func (w *World) SetStatics(c container.Collider) {
	w.statics = staticsFrom(c)
	w.wakeAll()
}

func (w *World) Gravity() mgl64.Vec3 { return w.gravity }

// SetGravity changes gravity; any real change wakes all bodies.
func (w *World) SetGravity(g mgl64.Vec3) {
	if g.ApproxEqualThreshold(w.gravity, 1e-12) {
		return
	}
	w.gravity = g
	w.wakeAll()
}

func (w *World) wakeAll() {
	for _, b := range w.bodies {
		b.Wake()
	}
}

func (w *World) Len() int { return len(w.bodies) }

// AddBody inserts a body at rest. It returns false if the id is taken.
func (w *World) AddBody(id uint64, shape Shape, extent float64, pos mgl64.Vec3) bool {
	if _, ok := w.index[id]; ok {
		return false
	}
	w.index[id] = len(w.bodies)
	w.bodies = append(w.bodies, newBody(id, shape, extent, pos))
	return true
}

func (w *World) Body(id uint64) (*Body, bool) {
	i, ok := w.index[id]
	if !ok {
		return nil, false
	}
	return w.bodies[i], true
}

// RemoveBodies drops every listed body and returns how many existed.
func (w *World) RemoveBodies(ids []uint64) int {
	n := 0
	for _, id := range ids {
		i, ok := w.index[id]
		if !ok {
			continue
		}
		last := len(w.bodies) - 1
		if i != last {
			w.bodies[i] = w.bodies[last]
			w.index[w.bodies[i].ID] = i
		}
		w.bodies[last] = nil
		w.bodies = w.bodies[:last]
		delete(w.index, id)
		n++
	}
	return n
}

func (w *World) Clear() {
	clear(w.bodies)
	w.bodies = w.bodies[:0]
	clear(w.index)
	w.acc = 0
}

// Teleport moves a body to pos at rest, awake, with identity orientation.
func (w *World) Teleport(id uint64, pos mgl64.Vec3) bool {
	b, ok := w.Body(id)
	if !ok {
		return false
	}
	b.Position = pos
	b.Velocity = mgl64.Vec3{}
	b.AngularVelocity = mgl64.Vec3{}
	b.Orientation = mgl64.QuatIdent()
	b.PrevAccel = mgl64.Vec3{}
	b.Wake()
	return true
}

// Step advances the world by frameDt using fixed sub-steps. Time beyond
// MaxSubSteps is dropped. The returned slice is reused by the next Step.
func (w *World) Step(frameDt float64) []Report {
	if frameDt > 0 && !math.IsInf(frameDt, 0) {
		w.acc += frameDt
	}

	fixed := w.params.FixedStep
	n := int((w.acc + 1e-9) / fixed)
	if n > w.params.MaxSubSteps {
		n = w.params.MaxSubSteps
		w.acc = 0
	} else {
		w.acc = math.Max(0, w.acc-float64(n)*fixed)
	}

	for i := 0; i < n; i++ {
		w.substep(fixed)
	}
	w.subSteps = n

	w.reports = w.reports[:0]
	for _, b := range w.bodies {
		w.reports = append(w.reports, Report{
			ID:          b.ID,
			Position:    b.Position,
			Orientation: b.Orientation,
			Sleeping:    b.sleeping,
		})
	}
	return w.reports
}

func (w *World) substep(dt float64) {
	linear := math.Pow(1-w.params.LinearDamping, dt)
	angular := math.Pow(1-w.params.AngularDamping, dt)

	for _, b := range w.bodies {
		if b.sleeping {
			continue
		}
		b.Velocity = b.Velocity.Mul(linear)
		b.AngularVelocity = b.AngularVelocity.Mul(angular)
		w.integrator.Integrate(&b.State, w.gravity, dt)
	}

	w.collect()
	w.solve()
	w.correct()
	w.updateSleep(dt)
}

func (w *World) collect() {
	w.contacts = w.contacts[:0]

	maxR := 0.0
	for _, b := range w.bodies {
		maxR = math.Max(maxR, b.BoundingRadius())
	}
	w.grid.reset(math.Max(2*maxR, 1e-3))

	for i, b := range w.bodies {
		w.grid.insert(i, b.Position)

		if b.sleeping {
			continue
		}
		for si := range w.statics {
			st := &w.statics[si]
			if !st.shape.overlaps(b.Position, b.BoundingRadius()) {
				continue
			}
			w.hits = bodyVsSolid(b, st.shape, w.hits[:0])
			for _, h := range w.hits {
				w.contacts = append(w.contacts, contact{
					a: b, point: h.point, normal: h.normal, depth: h.depth,
					friction:    (w.params.Friction + st.friction) / 2,
					restitution: (w.params.Restitution + st.restitution) / 2,
				})
			}
		}
	}

	w.grid.pairs(w.bodies, func(i, j int) {
		a, b := w.bodies[i], w.bodies[j]
		if a.sleeping && b.sleeping {
			return
		}
		reach := a.BoundingRadius() + b.BoundingRadius()
		d := a.Position.Sub(b.Position)
		if d.Dot(d) >= reach*reach {
			return
		}
		w.hits = bodyVsBody(a, b, w.hits[:0])
		if len(w.hits) == 0 {
			return
		}
		w.wakeOnImpact(a, b)
		for _, h := range w.hits {
			w.contacts = append(w.contacts, contact{
				a: a, b: b, point: h.point, normal: h.normal, depth: h.depth,
				friction:    w.params.Friction,
				restitution: w.params.Restitution,
			})
		}
	})
}

// wakeOnImpact wakes a sleeping partner hit by a body moving faster than the
// sleep limit.
func (w *World) wakeOnImpact(a, b *Body) {
	limit := w.params.SleepSpeedLimit
	if a.sleeping && b.Speed() > limit {
		a.Wake()
	}
	if b.sleeping && a.Speed() > limit {
		b.Wake()
	}
}

func velocityAt(b *Body, r mgl64.Vec3) mgl64.Vec3 {
	if b == nil || b.sleeping {
		return mgl64.Vec3{}
	}
	return b.Velocity.Add(b.AngularVelocity.Cross(r))
}

func applyImpulse(b *Body, r, p mgl64.Vec3) {
	im, ii := b.dynamics()
	if im == 0 {
		return
	}
	b.Velocity = b.Velocity.Add(p.Mul(im))
	b.AngularVelocity = b.AngularVelocity.Add(r.Cross(p).Mul(ii))
}

func (w *World) solve() {
	for k := range w.contacts {
		c := &w.contacts[k]
		c.rA = c.point.Sub(c.a.Position)
		imA, iiA := c.a.dynamics()
		imB, iiB := c.b.dynamics()
		rnA := c.rA.Cross(c.normal)
		m := imA + iiA*rnA.Dot(rnA)
		if c.b != nil {
			c.rB = c.point.Sub(c.b.Position)
			rnB := c.rB.Cross(c.normal)
			m += imB + iiB*rnB.Dot(rnB)
		}
		if m > 0 {
			c.normalMass = 1 / m
		}
		vn := velocityAt(c.a, c.rA).Sub(velocityAt(c.b, c.rB)).Dot(c.normal)
		if vn < -bounceThreshold {
			c.bounce = -c.restitution * vn
		}
	}

	for it := 0; it < w.params.SolverIterations; it++ {
		for k := range w.contacts {
			c := &w.contacts[k]
			if c.normalMass == 0 {
				continue
			}
			vn := velocityAt(c.a, c.rA).Sub(velocityAt(c.b, c.rB)).Dot(c.normal)
			dj := (c.bounce - vn) * c.normalMass
			acc := math.Max(c.impulse+dj, 0)
			dj = acc - c.impulse
			c.impulse = acc

			p := c.normal.Mul(dj)
			applyImpulse(c.a, c.rA, p)
			if c.b != nil {
				applyImpulse(c.b, c.rB, p.Mul(-1))
			}

			solveFriction(c)
		}
	}
}

// solveFriction accumulates the tangent impulse of c and keeps it inside the
// Coulomb cone of the accumulated normal impulse.
func solveFriction(c *contact) {
	rel := velocityAt(c.a, c.rA).Sub(velocityAt(c.b, c.rB))
	vt := rel.Sub(c.normal.Mul(rel.Dot(c.normal)))

	want := c.tangent
	if slip := vt.Len(); slip > 1e-9 {
		want = want.Sub(vt.Mul(tangentMass(c, vt.Mul(1/slip))))
	}
	if limit := c.friction * c.impulse; want.Len() > limit {
		if limit <= 0 {
			want = mgl64.Vec3{}
		} else {
			want = want.Normalize().Mul(limit)
		}
	}

	dj := want.Sub(c.tangent)
	c.tangent = want
	applyImpulse(c.a, c.rA, dj)
	if c.b != nil {
		applyImpulse(c.b, c.rB, dj.Mul(-1))
	}
}

// tangentMass is the effective mass of c along the unit direction t.
func tangentMass(c *contact, t mgl64.Vec3) float64 {
	imA, iiA := c.a.dynamics()
	rtA := c.rA.Cross(t)
	m := imA + iiA*rtA.Dot(rtA)
	if c.b != nil {
		imB, iiB := c.b.dynamics()
		rtB := c.rB.Cross(t)
		m += imB + iiB*rtB.Dot(rtB)
	}
	if m <= 0 {
		return 0
	}
	return 1 / m
}

// correct pushes overlapping bodies apart, split by inverse mass.
func (w *World) correct() {
	for k := range w.contacts {
		c := &w.contacts[k]
		excess := c.depth - penetrationSlop
		if excess <= 0 {
			continue
		}
		imA, _ := c.a.dynamics()
		imB, _ := c.b.dynamics()
		total := imA + imB
		if total == 0 {
			continue
		}
		shift := c.normal.Mul(excess * correctionRate / total)
		if imA > 0 {
			c.a.Position = c.a.Position.Add(shift.Mul(imA))
		}
		if c.b != nil && imB > 0 {
			c.b.Position = c.b.Position.Sub(shift.Mul(imB))
		}
	}
}

func (w *World) updateSleep(dt float64) {
	limit := w.params.SleepSpeedLimit
	for _, b := range w.bodies {
		if b.sleeping {
			continue
		}
		if b.Speed() < limit {
			b.idle += dt
			if b.idle >= w.params.SleepTimeLimit {
				b.sleep()
			}
		} else {
			b.idle = 0
		}
	}
}

// SubSteps is the number of fixed steps the last Step ran.
func (w *World) SubSteps() int { return w.subSteps }

func (w *World) Stats() Stats {
	s := Stats{Bodies: len(w.bodies), Contacts: len(w.contacts), SubSteps: w.subSteps}
	for _, b := range w.bodies {
		if b.sleeping {
			s.Sleeping++
		}
		s.KineticEnergy += b.KineticEnergy()
	}
	return s
}

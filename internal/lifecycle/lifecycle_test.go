package lifecycle_test

import (
	"bytes"
	"log/slog"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/jarsim/internal/container"
	"github.com/san-kum/jarsim/internal/instancing"
	"github.com/san-kum/jarsim/internal/lifecycle"
	"github.com/san-kum/jarsim/internal/particle"
	"github.com/san-kum/jarsim/internal/physics"
	"github.com/san-kum/jarsim/internal/shapes"
	"github.com/san-kum/jarsim/internal/spawn"
)

type rig struct {
	registry *shapes.Registry
	store    *particle.Store
	world    *physics.World
	renderer *instancing.Renderer
	manager  *lifecycle.Manager
	logs     *bytes.Buffer
}

// newRig wires a jar whose batches hold batchMax particles in total.
func newRig(p lifecycle.Params, batchMax int) *rig {
	reg, err := shapes.NewRegistry(shapes.DefaultKinds, shapes.DefaultPalette, 0.02)
	Expect(err).NotTo(HaveOccurred())

	cp := container.DefaultParams()
	world, err := physics.NewWorld(physics.DefaultParams(), container.Build(cp))
	Expect(err).NotTo(HaveOccurred())

	renderer, err := instancing.New(reg.Keys(), batchMax, 1)
	Expect(err).NotTo(HaveOccurred())

	logs := &bytes.Buffer{}
	logger := slog.New(slog.NewTextHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	store := particle.NewStore()
	gen := spawn.New(reg, cp, 0.1, 7)
	m, err := lifecycle.New(p, reg, gen, store, world, renderer, lifecycle.WithLogger(logger))
	Expect(err).NotTo(HaveOccurred())

	return &rig{registry: reg, store: store, world: world, renderer: renderer, manager: m, logs: logs}
}

func (r *rig) frame(dt float64) lifecycle.Frame {
	r.manager.Begin(dt)
	reports := r.world.Step(dt)
	r.manager.Track(reports)
	r.renderer.Apply(reports, r.manager.Locate)
	return r.manager.End()
}

func (r *rig) run(seconds, dt float64) {
	for i := 0; i < int(math.Round(seconds/dt)); i++ {
		r.frame(dt)
	}
}

func baseParams() lifecycle.Params {
	return lifecycle.Params{
		MaxObjects:    10,
		StreamSpeed:   10,
		StreamSpacing: 0.05,
		DespawnY:      -3,
		Scale:         20,
	}
}

var _ = Describe("Manager", func() {
	Describe("spawning", func() {
		It("fills to exactly the cap after one second and then pauses", func() {
			r := newRig(baseParams(), 10)

			r.run(1, 1.0/60)
			Expect(r.manager.Live()).To(Equal(10))
			Expect(r.world.Len()).To(Equal(10))
			Expect(r.renderer.Live()).To(Equal(10))

			r.run(1, 1.0/60)
			Expect(r.manager.Counters().Spawned).To(Equal(10))
			Expect(r.manager.Counters().Dropped).To(BeZero())
		})

		It("never exceeds the cap through stalls", func() {
			p := baseParams()
			p.StreamSpeed = 40
			r := newRig(p, p.MaxObjects)

			for _, dt := range []float64{1.0 / 60, 0.5, 1.0 / 144, 2, 1.0 / 30, 0.25} {
				r.frame(dt)
				Expect(r.manager.Live()).To(BeNumerically("<=", p.MaxObjects))
			}
		})

		It("keeps the spawn count within one of rate times time", func() {
			p := baseParams()
			p.MaxObjects = 1000
			p.StreamSpeed = 7
			r := newRig(p, p.MaxObjects)

			elapsed := 0.0
			for i, dt := range []float64{1.0 / 60, 1.0 / 30, 0.4, 1.0 / 90, 1.0 / 60, 0.05} {
				for k := 0; k < 10+i; k++ {
					r.frame(dt)
					elapsed += dt
					spawned := float64(r.manager.Counters().Spawned)
					Expect(math.Abs(spawned - p.StreamSpeed*elapsed)).To(BeNumerically("<=", 1))
				}
			}
		})

		It("does not burst after a despawn frees room at the cap", func() {
			r := newRig(baseParams(), 10)
			r.run(3, 1.0/60)
			Expect(r.manager.Live()).To(Equal(10))

			r.world.Teleport(r.store.IDs()[0], mgl64.Vec3{0, -1, 0})
			f := r.frame(1.0 / 60)
			Expect(f.Despawned).To(Equal(1))

			// the held interval allows a single replacement
			f = r.frame(1.0 / 60)
			Expect(f.Spawned).To(Equal(1))
			Expect(r.manager.Live()).To(Equal(10))
		})

		It("stacks same-frame spawns by the stream spacing", func() {
			p := baseParams()
			r := newRig(p, p.MaxObjects)
			f := r.frame(0.35)
			Expect(f.Spawned).To(Equal(3))

			heights := map[float64]bool{}
			r.store.Each(func(pt particle.Particle, slot int, tr particle.Tracking) {
				heights[math.Round(pt.Spawn.Y()*1000)/1000] = true
			})
			Expect(heights).To(HaveLen(3))
		})
	})

	Describe("despawning", func() {
		It("removes a particle below the threshold within one pass", func() {
			r := newRig(baseParams(), 10)
			r.run(0.5, 1.0/60)
			live := r.manager.Live()
			Expect(live).To(BeNumerically(">", 0))

			victim := r.store.IDs()[0]
			key, slot, ok := r.manager.Locate(victim)
			Expect(ok).To(BeTrue())
			r.world.Teleport(victim, mgl64.Vec3{0, -1, 0})

			f := r.manager.End()
			Expect(f.Despawned).To(BeZero(), "height is only known after the physics report")

			r.manager.Track(r.world.Step(1.0 / 60))
			f = r.manager.End()
			Expect(f.Despawned).To(Equal(1))
			Expect(r.store.Contains(victim)).To(BeFalse())
			_, found := r.world.Body(victim)
			Expect(found).To(BeFalse())

			batch, _ := r.renderer.Batch(key)
			_, used := batch.Slot(slot)
			Expect(used).To(BeFalse())
			Expect(r.renderer.Live()).To(Equal(r.manager.Live()))
		})

		It("despawns particles spawned below the threshold in the same frame", func() {
			p := baseParams()
			p.DespawnY = 40 // above the spawn point
			r := newRig(p, p.MaxObjects)

			r.manager.Begin(0.3)
			f := r.manager.End()
			Expect(f.Spawned).To(Equal(3))
			Expect(f.Despawned).To(Equal(3))
			Expect(r.manager.Live()).To(BeZero())
			Expect(r.world.Len()).To(BeZero())
		})

		It("keeps slots unique within every batch", func() {
			p := baseParams()
			p.MaxObjects = 40
			p.StreamSpeed = 30
			r := newRig(p, p.MaxObjects)

			for i := 0; i < 120; i++ {
				r.frame(1.0 / 60)
				if i%10 == 0 && r.manager.Live() > 0 {
					r.world.Teleport(r.store.IDs()[0], mgl64.Vec3{0, -1, 0})
				}
				seen := map[shapes.Key]map[int]bool{}
				r.store.Each(func(pt particle.Particle, slot int, tr particle.Tracking) {
					k := pt.Key()
					if seen[k] == nil {
						seen[k] = map[int]bool{}
					}
					Expect(seen[k][slot]).To(BeFalse(), "slot %d of %v used twice", slot, k)
					seen[k][slot] = true
				})
			}
			Expect(r.manager.Counters().Despawned).To(BeNumerically(">", 0))
		})
	})

	Describe("recycling", func() {
		It("moves a fallen particle back to the top keeping id and slot", func() {
			p := baseParams()
			p.Recycle = true
			r := newRig(p, p.MaxObjects)
			r.run(0.5, 1.0/60)

			id := r.store.IDs()[0]
			key, slot, _ := r.manager.Locate(id)
			live := r.manager.Live()
			r.world.Teleport(id, mgl64.Vec3{0, -1, 0})

			f := r.frame(1.0 / 60)
			Expect(f.Recycled).To(Equal(1))
			Expect(f.Despawned).To(BeZero())
			Expect(r.manager.Live()).To(BeNumerically(">=", live))

			k2, s2, ok := r.manager.Locate(id)
			Expect(ok).To(BeTrue())
			Expect(k2).To(Equal(key))
			Expect(s2).To(Equal(slot))

			b, _ := r.world.Body(id)
			Expect(b.Position.Y()).To(BeNumerically(">", container.DefaultParams().Top()))
			Expect(b.Velocity.Len()).To(BeZero())
		})
	})

	Describe("reset", func() {
		It("is deferred to the next frame boundary", func() {
			r := newRig(baseParams(), 10)
			r.run(0.5, 1.0/60)
			live := r.manager.Live()
			Expect(live).To(BeNumerically(">", 0))

			r.manager.RequestReset()
			Expect(r.manager.Pending()).To(BeTrue())
			Expect(r.manager.Live()).To(Equal(live))

			f := r.frame(1.0 / 60)
			Expect(f.Reset).To(BeTrue())
			Expect(r.manager.Pending()).To(BeFalse())
			Expect(r.manager.Live()).To(BeZero())
			Expect(r.world.Len()).To(BeZero())
			Expect(r.renderer.Live()).To(BeZero())
			Expect(r.manager.Counters().Resets).To(Equal(1))
		})
	})

	Describe("batch capacity", func() {
		It("drops spawns with a warning once every batch is full", func() {
			p := baseParams()
			p.MaxObjects = 30
			p.StreamSpeed = 100
			r := newRig(p, 15) // one slot per batch

			r.frame(0.2)
			Expect(r.manager.Live()).To(Equal(15))
			Expect(r.manager.Counters().Dropped).To(Equal(5))
			Expect(r.logs.String()).To(ContainSubstring("spawn dropped"))
		})
	})
})

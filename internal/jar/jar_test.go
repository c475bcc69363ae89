package jar

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/san-kum/jarsim/internal/config"
	"github.com/san-kum/jarsim/internal/dynamo"
	"github.com/san-kum/jarsim/internal/instancing"
	"github.com/san-kum/jarsim/internal/shapes"
	"github.com/san-kum/jarsim/internal/tilt"
)

const frameDt = 1.0 / 60

func scenarioConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Stream.MaxObjects = 10
	cfg.Stream.StreamSpeed = 10
	cfg.Stream.DespawnY = -3
	cfg.View.JarScale = 20
	return cfg
}

func newTestJar(t *testing.T, cfg *config.Config) *Jar {
	t.Helper()
	j, err := New(cfg, WithSeed(3))
	if err != nil {
		t.Fatalf("new jar: %v", err)
	}
	return j
}

func advance(j *Jar, seconds float64, in Input) dynamo.Sample {
	var s dynamo.Sample
	for i := 0; i < int(math.Round(seconds/frameDt)); i++ {
		s = j.Update(frameDt, in)
	}
	return s
}

type recorder struct{ samples []dynamo.Sample }

func (r *recorder) OnFrame(s dynamo.Sample) { r.samples = append(r.samples, s) }

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Physics.LinearDamping = 1.5
	_, err := New(cfg)
	if !errors.Is(err, dynamo.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestFillsToCapInOneSecond(t *testing.T) {
	j := newTestJar(t, scenarioConfig())

	s := advance(j, 1, Input{Active: true})
	if s.Live != 10 || j.Live() != 10 {
		t.Fatalf("live = %d, want 10", s.Live)
	}
	if j.Threshold() != -0.15 {
		t.Errorf("threshold = %v", j.Threshold())
	}

	advance(j, 1, Input{})
	if c := j.Counters(); c.Spawned != 10 || c.Despawned != 0 {
		t.Errorf("counters after the cap: %+v", c)
	}
}

func TestLiveNeverExceedsCap(t *testing.T) {
	cfg := scenarioConfig()
	cfg.Stream.StreamSpeed = 50
	j := newTestJar(t, cfg)

	for i, dt := range []float64{frameDt, 0.3, frameDt, 1.5, 0.01, 0.8} {
		s := j.Update(dt, Input{})
		if s.Live > cfg.Stream.MaxObjects {
			t.Fatalf("frame %d: live %d over cap", i, s.Live)
		}
		if s.SubSteps > cfg.Physics.MaxSubSteps {
			t.Fatalf("frame %d: %d sub-steps", i, s.SubSteps)
		}
	}
}

func TestParticlesSettleInsideTheJar(t *testing.T) {
	cfg := scenarioConfig()
	j := newTestJar(t, cfg)
	advance(j, 20, Input{})

	floor := j.Container().Floor()
	j.Positions(func(key shapes.Key, id uint64, pos mgl32.Vec3) {
		if float64(pos[1]) < floor-0.01 {
			t.Errorf("particle %d below the floor: %v", id, pos)
		}
		if math.Hypot(float64(pos[0]), float64(pos[2])) > j.Container().Radius+0.01 {
			t.Errorf("particle %d outside the wall: %v", id, pos)
		}
	})
	if j.Live() != cfg.Stream.MaxObjects {
		t.Errorf("particles were lost: live %d", j.Live())
	}
}

func TestFullJarComesToRest(t *testing.T) {
	cfg := config.DefaultConfig()
	j := newTestJar(t, cfg)

	for i := 0; i < 120*60 && j.Live() < cfg.Stream.MaxObjects; i++ {
		j.Update(frameDt, Input{})
	}
	if j.Live() != cfg.Stream.MaxObjects {
		t.Fatalf("expected jar filled to %d, got %d", cfg.Stream.MaxObjects, j.Live())
	}

	s := advance(j, 30, Input{})
	if s.Sleeping != s.Live {
		t.Errorf("expected all %d particles asleep, got %d", s.Live, s.Sleeping)
	}
	if s.KineticEnergy != 0 {
		t.Errorf("expected kinetic energy 0, got %v", s.KineticEnergy)
	}
}

func TestTiltDrivesGravityAndMesh(t *testing.T) {
	j := newTestJar(t, scenarioConfig())
	advance(j, 0.5, Input{})

	var st tilt.State
	j.TriggerTilt(&st)
	in := Input{Tilt: &st}

	s := advance(j, 0.1, in)
	if !s.Tilting || s.GravityX == 0 {
		t.Errorf("expected tilted gravity, got %+v", s)
	}
	if j.Mesh().Tilt == 0 {
		t.Error("mesh should lean during a tilt")
	}

	s = advance(j, 1.5, in)
	if st.Tilting || s.Tilting {
		t.Error("tilt should have expired")
	}
	if s.GravityX != 0 || s.GravityY != -0.12 {
		t.Errorf("gravity did not return to rest: (%v, %v)", s.GravityX, s.GravityY)
	}
	if j.Mesh().Tilt != 0 {
		t.Errorf("mesh still tilted by %v", j.Mesh().Tilt)
	}
}

func TestResetIsDeferred(t *testing.T) {
	j := newTestJar(t, scenarioConfig())
	advance(j, 0.5, Input{})
	before := j.Live()
	if before == 0 {
		t.Fatal("expected particles before reset")
	}

	j.RequestReset()
	if j.Live() != before {
		t.Error("reset applied before the frame boundary")
	}
	j.Update(frameDt, Input{})
	if j.Live() != 0 {
		t.Errorf("live after reset frame = %d", j.Live())
	}
	for _, b := range j.Batches() {
		if b.Live() != 0 {
			t.Errorf("batch %v still holds %d instances", b.Key, b.Live())
		}
	}
}

func TestReconfigureContainerKeepsParticles(t *testing.T) {
	j := newTestJar(t, scenarioConfig())
	advance(j, 1, Input{})

	next := j.Config()
	next.Container.Segments = 24
	next.Container.Radius = 0.6
	if err := j.Reconfigure(next); err != nil {
		t.Fatal(err)
	}
	if j.Container().Segments != 16 {
		t.Error("reconfigure applied before the frame boundary")
	}

	j.Update(frameDt, Input{})
	if c := j.Container(); c.Segments != 24 || c.Radius != 0.6 {
		t.Errorf("container not rebuilt: %+v", c)
	}
	if j.Live() != 10 {
		t.Errorf("container change lost particles: live %d", j.Live())
	}
}

func TestReconfigureLayoutRebuilds(t *testing.T) {
	j := newTestJar(t, scenarioConfig())
	advance(j, 0.5, Input{})
	oldIDs := j.store.IDs()
	last := oldIDs[len(oldIDs)-1]

	next := j.Config()
	next.Stream.MaxObjects = 30
	if err := j.Reconfigure(next); err != nil {
		t.Fatal(err)
	}
	advance(j, 0.5, Input{})

	if j.renderer.Capacity() != instancing.Capacity(30, len(j.Registry().Keys()), 1) {
		t.Errorf("capacity = %d", j.renderer.Capacity())
	}
	ids := j.store.IDs()
	if len(ids) == 0 {
		t.Fatal("no particles after rebuild")
	}
	if ids[0] <= last {
		t.Errorf("id %d reused after rebuild (last was %d)", ids[0], last)
	}
}

func TestReconfigureRejectsInvalid(t *testing.T) {
	j := newTestJar(t, scenarioConfig())
	bad := j.Config()
	bad.Stream.StreamSpeed = -1
	if err := j.Reconfigure(bad); !errors.Is(err, dynamo.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestIdleSwayOnlyWhenActive(t *testing.T) {
	idle := newTestJar(t, scenarioConfig())
	advance(idle, 2, Input{Active: false})
	if idle.Mesh().Sway != 0 {
		t.Errorf("inactive jar swayed by %v", idle.Mesh().Sway)
	}

	active := newTestJar(t, scenarioConfig())
	advance(active, 2, Input{Active: true})
	if active.Mesh().Sway == 0 {
		t.Error("active jar should sway")
	}
	// physics keeps running either way
	if idle.Live() != active.Live() {
		t.Errorf("live differs: %d vs %d", idle.Live(), active.Live())
	}
	if s := active.Mesh().Scale; s != 20 {
		t.Errorf("mesh scale = %v", s)
	}
}

func TestObserversAndUploads(t *testing.T) {
	rec := &recorder{}
	j, err := New(scenarioConfig(), WithObserver(rec))
	if err != nil {
		t.Fatal(err)
	}

	s := j.Update(frameDt, Input{})
	if s.Uploads == 0 {
		t.Error("first frame should have dirty batches")
	}
	if n := j.Flush(nil); n != s.Uploads {
		t.Errorf("flushed %d, sample reported %d", n, s.Uploads)
	}

	advance(j, 1, Input{})
	if len(rec.samples) != 61 {
		t.Errorf("observer saw %d frames, want 61", len(rec.samples))
	}
	for i, smp := range rec.samples {
		if smp.Frame != i+1 {
			t.Fatalf("sample %d has frame %d", i, smp.Frame)
		}
		if !smp.IsValid() {
			t.Fatalf("sample %d not finite", i)
		}
	}
}

func TestCloseMakesUpdatesNoOps(t *testing.T) {
	j := newTestJar(t, scenarioConfig())
	advance(j, 0.5, Input{})
	if err := j.Close(); err != nil {
		t.Fatal(err)
	}
	if j.Live() != 0 {
		t.Errorf("live after close = %d", j.Live())
	}
	before := j.Sample()
	after := j.Update(frameDt, Input{})
	if after != before {
		t.Error("update after close changed the sample")
	}
	if err := j.Reconfigure(config.DefaultConfig()); !errors.Is(err, dynamo.ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
	if err := j.Close(); err != nil {
		t.Errorf("second close: %v", err)
	}
}

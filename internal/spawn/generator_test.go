package spawn

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/jarsim/internal/container"
	"github.com/san-kum/jarsim/internal/shapes"
)

func newTestGenerator(t *testing.T) (*Generator, container.Params) {
	t.Helper()
	reg, err := shapes.NewRegistry(shapes.DefaultKinds, shapes.DefaultPalette, 0.04)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	p := container.DefaultParams()
	return New(reg, p, 0.3, 7), p
}

func TestSpawnPositionBounds(t *testing.T) {
	g, p := newTestGenerator(t)
	maxR := p.Radius * ConeFactor

	for i := 0; i < 5000; i++ {
		pos := g.SpawnPosition(p)
		if r := math.Hypot(pos.X(), pos.Z()); r >= maxR {
			t.Fatalf("radius %v outside spawn disk %v", r, maxR)
		}
		if math.Abs(pos.Y()-(p.Top()+0.3)) > 1e-12 {
			t.Fatalf("spawn height %v, want %v", pos.Y(), p.Top()+0.3)
		}
	}
}

// Radius is sampled uniformly, not by area: the mean radius sits at maxR/2
// rather than the area-uniform 2/3·maxR.
func TestSpawnPositionCenterBias(t *testing.T) {
	g, p := newTestGenerator(t)
	maxR := p.Radius * ConeFactor

	radii := make([]float64, 20000)
	for i := range radii {
		pos := g.SpawnPosition(p)
		radii[i] = math.Hypot(pos.X(), pos.Z()) / maxR
	}

	mean, std := stat.MeanStdDev(radii, nil)
	if math.Abs(mean-0.5) > 0.02 {
		t.Errorf("mean normalized radius = %.3f, want ~0.5", mean)
	}
	// uniform on [0,1) has stddev 1/sqrt(12)
	if math.Abs(std-1/math.Sqrt(12)) > 0.02 {
		t.Errorf("stddev = %.3f, want ~%.3f", std, 1/math.Sqrt(12))
	}
}

func TestCreateAssignsMonotonicIDs(t *testing.T) {
	g, _ := newTestGenerator(t)

	var last uint64
	for i := 0; i < 100; i++ {
		p, ok := g.Create(0, nil)
		if !ok {
			t.Fatal("create without capacity filter should succeed")
		}
		if p.ID <= last {
			t.Fatalf("id %d not greater than %d", p.ID, last)
		}
		last = p.ID
		if p.Color < 0 || p.Color >= len(shapes.DefaultPalette) {
			t.Fatalf("color index %d out of palette", p.Color)
		}
	}
}

func TestCreateCoversAllKeys(t *testing.T) {
	g, _ := newTestGenerator(t)
	seen := make(map[shapes.Key]int)
	for i := 0; i < 3000; i++ {
		p, _ := g.Create(0, nil)
		seen[p.Key()]++
	}
	want := len(shapes.DefaultKinds) * len(shapes.DefaultPalette)
	if len(seen) != want {
		t.Errorf("saw %d distinct keys, want %d", len(seen), want)
	}
}

func TestCreateRespectsFits(t *testing.T) {
	g, _ := newTestGenerator(t)
	only := shapes.Key{Kind: shapes.Cube, Color: 2}

	for i := 0; i < 50; i++ {
		p, ok := g.Create(0, func(k shapes.Key) bool { return k == only })
		if !ok || p.Key() != only {
			t.Fatalf("got %v ok=%v, want %v", p.Key(), ok, only)
		}
	}

	before := g.NextID()
	if _, ok := g.Create(0, func(shapes.Key) bool { return false }); ok {
		t.Error("create should fail when nothing fits")
	}
	if g.NextID() != before+1 {
		t.Error("failed create should still consume an id")
	}
}

func TestCreateLift(t *testing.T) {
	g, p := newTestGenerator(t)
	q, _ := g.Create(0.1, nil)
	if math.Abs(q.Spawn.Y()-(p.Top()+0.3+0.1)) > 1e-12 {
		t.Errorf("lifted spawn height = %v", q.Spawn.Y())
	}
}

func TestSkipToNeverRewinds(t *testing.T) {
	reg, err := shapes.NewRegistry(shapes.DefaultKinds, shapes.DefaultPalette, 0.02)
	if err != nil {
		t.Fatal(err)
	}
	g := New(reg, container.DefaultParams(), 0.1, 1)
	g.SkipTo(50)
	if g.NextID() != 50 {
		t.Fatalf("next id = %d, want 50", g.NextID())
	}
	g.SkipTo(10)
	if g.NextID() != 50 {
		t.Errorf("SkipTo moved the counter back to %d", g.NextID())
	}
	p, ok := g.Create(0, nil)
	if !ok || p.ID != 50 {
		t.Errorf("created %d, want 50", p.ID)
	}
}

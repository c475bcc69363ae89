package metrics

import (
	"math"
	"testing"

	"github.com/san-kum/jarsim/internal/dynamo"
)

func TestEnergy(t *testing.T) {
	m := NewEnergy()
	peak := NewEnergyPeak()
	for _, ke := range []float64{1, 3, 2} {
		s := dynamo.Sample{KineticEnergy: ke}
		m.Observe(s)
		peak.Observe(s)
	}
	if math.Abs(m.Value()-2) > 1e-12 {
		t.Errorf("mean energy = %v, want 2", m.Value())
	}
	if peak.Value() != 3 {
		t.Errorf("peak = %v, want 3", peak.Value())
	}

	m.Reset()
	peak.Reset()
	if m.Value() != 0 || peak.Value() != 0 {
		t.Error("expected zero after reset")
	}
}

func TestSleepFraction(t *testing.T) {
	m := NewSleepFraction()
	m.Observe(dynamo.Sample{Live: 0})
	m.Observe(dynamo.Sample{Live: 4, Sleeping: 1})
	m.Observe(dynamo.Sample{Live: 4, Sleeping: 3})
	if math.Abs(m.Value()-0.5) > 1e-12 {
		t.Errorf("sleep fraction = %v, want 0.5", m.Value())
	}
}

func TestSettleTime(t *testing.T) {
	m := NewSettleTime()
	steps := []dynamo.Sample{
		{Time: 1, Live: 2, Spawned: 1},
		{Time: 2, Live: 2, Sleeping: 1},
		{Time: 3, Live: 2, Sleeping: 2},
		{Time: 4, Live: 2, Sleeping: 2},
	}
	for _, s := range steps {
		m.Observe(s)
	}
	if m.Value() != 3 {
		t.Errorf("settle time = %v, want 3", m.Value())
	}

	m.Observe(dynamo.Sample{Time: 5, Live: 2, Sleeping: 2, Tilting: true})
	if m.Value() != -1 {
		t.Errorf("tilt should unsettle, got %v", m.Value())
	}
}

func TestThroughput(t *testing.T) {
	rate := NewSpawnRate()
	peak := NewPeakLive()
	gone := NewDespawned()
	drops := NewDropped()
	up := NewUploadsPerFrame()

	samples := []dynamo.Sample{
		{Time: 0.5, Spawned: 3, Live: 3, Uploads: 4},
		{Time: 1.0, Spawned: 2, Live: 4, Despawned: 1, Uploads: 2},
		{Time: 2.0, Live: 2, Despawned: 1, Recycled: 1, Dropped: 2},
	}
	for _, s := range samples {
		rate.Observe(s)
		peak.Observe(s)
		gone.Observe(s)
		drops.Observe(s)
		up.Observe(s)
	}

	if rate.Value() != 2.5 {
		t.Errorf("spawn rate = %v, want 2.5", rate.Value())
	}
	if peak.Value() != 4 {
		t.Errorf("peak live = %v", peak.Value())
	}
	if gone.Value() != 3 {
		t.Errorf("despawned = %v, want 3", gone.Value())
	}
	if drops.Value() != 2 {
		t.Errorf("dropped = %v", drops.Value())
	}
	if up.Value() != 2 || up.Peak() != 4 {
		t.Errorf("uploads = %v peak %d", up.Value(), up.Peak())
	}
}

func TestPileHeight(t *testing.T) {
	m := NewPileHeight()
	m.Observe(dynamo.Sample{Live: 0, MeanHeight: 9})
	m.Observe(dynamo.Sample{Live: 1, MeanHeight: 0.4})
	m.Observe(dynamo.Sample{Live: 3, MeanHeight: 0.2})

	if want := (0.4 + 3*0.2) / 4; math.Abs(m.Value()-want) > 1e-12 {
		t.Errorf("pile height = %v, want %v", m.Value(), want)
	}
	if m.Spread() <= 0 {
		t.Errorf("spread = %v", m.Spread())
	}

	m.Reset()
	if m.Value() != 0 || m.Spread() != 0 {
		t.Error("expected zero after reset")
	}
}

func TestRegistry(t *testing.T) {
	names := Names()
	all := Default()
	if len(all) != len(names) {
		t.Fatalf("default has %d metrics, registry %d", len(all), len(names))
	}
	for i, m := range all {
		if m.Name() != names[i] {
			t.Errorf("metric %d named %q, registered as %q", i, m.Name(), names[i])
		}
	}
	if _, err := ByName("nope"); err == nil {
		t.Error("expected error for unknown metric")
	}
}

func TestSlosh(t *testing.T) {
	m := NewSlosh()
	if m.Value() != 0 {
		t.Errorf("expected 0 for no samples, got %v", m.Value())
	}

	const fps = 60.0
	for i := 0; i < 240; i++ {
		tm := float64(i) / fps
		m.Observe(dynamo.Sample{Time: tm, MeanHeight: 0.3 + 0.01*math.Sin(2*math.Pi*2*tm)})
	}
	if got := m.Value(); math.Abs(got-2) > 0.25 {
		t.Errorf("slosh = %v Hz, want 2", got)
	}

	m.Reset()
	for i := 0; i < 100; i++ {
		m.Observe(dynamo.Sample{Time: float64(i) / fps, MeanHeight: 0.3})
	}
	if m.Value() != 0 {
		t.Errorf("expected 0 for a flat pile, got %v", m.Value())
	}
}

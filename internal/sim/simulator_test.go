package sim

import (
	"context"
	"errors"
	"testing"

	"github.com/san-kum/jarsim/internal/config"
	"github.com/san-kum/jarsim/internal/dynamo"
)

func tinyConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Stream.MaxObjects = 10
	cfg.Stream.StreamSpeed = 10
	return cfg
}

type countingObserver struct{ frames int }

func (c *countingObserver) OnFrame(dynamo.Sample) { c.frames++ }

type testMetric struct {
	count int
	sum   float64
}

func (t *testMetric) Name() string { return "test" }
func (t *testMetric) Observe(s dynamo.Sample) {
	t.count++
	t.sum += float64(s.Live)
}
func (t *testMetric) Value() float64 {
	if t.count == 0 {
		return 0
	}
	return t.sum / float64(t.count)
}
func (t *testMetric) Reset() {
	t.count = 0
	t.sum = 0
}

func TestRunnerRun(t *testing.T) {
	r := New(tinyConfig())
	obs := &countingObserver{}
	r.AddObserver(obs)

	result, err := r.Run(context.Background(), RunConfig{FPS: 60, Duration: 1})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if result.Frames != 60 || len(result.Samples) != 60 {
		t.Errorf("expected 60 frames, got %d (%d samples)", result.Frames, len(result.Samples))
	}
	if obs.frames != 60 {
		t.Errorf("observer saw %d frames", obs.frames)
	}
	if result.Final().Live != 10 {
		t.Errorf("expected 10 live after one second, got %d", result.Final().Live)
	}
	if result.MaxLive > 10 {
		t.Errorf("max live %d over the cap", result.MaxLive)
	}
	if _, ok := result.Metrics["spawn_rate"]; !ok {
		t.Error("default metrics missing from result")
	}
	if len(result.Errors) != 0 {
		t.Errorf("unexpected errors: %v", result.Errors)
	}
}

func TestRunnerInvalidConfig(t *testing.T) {
	r := New(tinyConfig())

	tests := []struct {
		name string
		rc   RunConfig
	}{
		{"zero fps", RunConfig{FPS: 0, Duration: 1}},
		{"negative duration", RunConfig{FPS: 60, Duration: -1}},
		{"tilt after end", RunConfig{FPS: 60, Duration: 1, TiltAt: []float64{2}}},
		{"jitter too large", RunConfig{FPS: 60, Duration: 1, Jitter: 1}},
		{"stall without dt", RunConfig{FPS: 60, Duration: 1, StallAt: []int{3}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Run(context.Background(), tt.rc)
			if !errors.Is(err, dynamo.ErrInvalidRun) {
				t.Errorf("expected ErrInvalidRun, got %v", err)
			}
		})
	}
}

func TestRunnerCustomMetrics(t *testing.T) {
	metric := &testMetric{}
	r := New(tinyConfig(), WithMetrics(func() []dynamo.Metric { return []dynamo.Metric{metric} }))

	result, err := r.Run(context.Background(), RunConfig{FPS: 30, Duration: 1, DiscardSamples: true})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if _, ok := result.Metrics["test"]; !ok {
		t.Error("metric not found in result")
	}
	if metric.count != 30 {
		t.Errorf("expected 30 observations, got %d", metric.count)
	}
	if len(result.Samples) != 0 {
		t.Errorf("samples kept despite DiscardSamples: %d", len(result.Samples))
	}
}

func TestRunnerTiltsAndStalls(t *testing.T) {
	r := New(tinyConfig())
	result, err := r.Run(context.Background(), RunConfig{
		FPS:      60,
		Duration: 3,
		TiltAt:   []float64{1.0, 0.5},
		Jitter:   0.3,
		StallAt:  []int{20},
		StallDt:  0.5,
	})
	if err != nil {
		t.Fatal(err)
	}
	if result.Tilts != 2 {
		t.Errorf("expected 2 tilts, got %d", result.Tilts)
	}
	tilted := 0
	for _, s := range result.Samples {
		if s.Tilting {
			tilted++
		}
		if s.Live > 10 {
			t.Fatalf("frame %d: live %d over the cap", s.Frame, s.Live)
		}
	}
	if tilted == 0 {
		t.Error("no tilted frames recorded")
	}
	if result.Samples[20].SubSteps != 10 {
		t.Errorf("stalled frame ran %d sub-steps, want the cap", result.Samples[20].SubSteps)
	}
}

func TestRunnerCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result, err := New(tinyConfig()).Run(ctx, RunConfig{FPS: 60, Duration: 1})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if result == nil || !result.Canceled || result.Frames != 0 {
		t.Errorf("unexpected result after cancel: %+v", result)
	}
}

func TestRunnerDeterministic(t *testing.T) {
	a, err := New(tinyConfig()).Run(context.Background(), RunConfig{FPS: 60, Duration: 2})
	if err != nil {
		t.Fatal(err)
	}
	b, err := New(tinyConfig()).Run(context.Background(), RunConfig{FPS: 60, Duration: 2})
	if err != nil {
		t.Fatal(err)
	}
	if a.Final() != b.Final() {
		t.Errorf("same seed diverged:\n%+v\n%+v", a.Final(), b.Final())
	}
}

func TestEnsemble(t *testing.T) {
	e := NewEnsemble(New(tinyConfig()), 4, 10)
	e.SetWorkers(2)

	results, err := e.Run(context.Background(), RunConfig{FPS: 30, Duration: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}
	for i, r := range results {
		if r.Seed != 10+int64(i) {
			t.Errorf("result %d has seed %d", i, r.Seed)
		}
	}

	stats := Aggregate(results)
	if len(stats) == 0 {
		t.Fatal("no aggregated metrics")
	}
	for _, s := range stats {
		if s.Mean < s.Min-1e-9 || s.Mean > s.Max+1e-9 {
			t.Errorf("%s: mean %v outside [%v, %v]", s.Name, s.Mean, s.Min, s.Max)
		}
		if s.Name == "peak_live" && s.Mean != 10 {
			t.Errorf("peak live mean = %v, want 10", s.Mean)
		}
	}

	if _, err := e.Run(context.Background(), RunConfig{}); !errors.Is(err, dynamo.ErrInvalidRun) {
		t.Errorf("expected ErrInvalidRun, got %v", err)
	}
}

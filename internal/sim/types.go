package sim

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/san-kum/jarsim/internal/dynamo"
)

// RunConfig drives a headless run at a fixed frame rate.
type RunConfig struct {
	FPS      float64
	Duration float64
	// TiltAt lists simulation times at which a tilt is triggered.
	TiltAt []float64
	// Active feeds the view's active flag to the jar.
	Active bool
	// Jitter varies each frame's dt uniformly by up to this fraction.
	Jitter float64
	// StallAt lists frame indices whose dt is stretched to StallDt.
	StallAt []int
	StallDt float64
	// DiscardSamples keeps only metrics, for benchmarks.
	DiscardSamples bool
}

func (rc RunConfig) validate() error {
	if rc.FPS <= 0 || math.IsInf(rc.FPS, 0) || math.IsNaN(rc.FPS) {
		return fmt.Errorf("%w: fps must be positive, got %v", dynamo.ErrInvalidRun, rc.FPS)
	}
	if rc.Duration <= 0 {
		return fmt.Errorf("%w: duration must be positive, got %v", dynamo.ErrInvalidRun, rc.Duration)
	}
	if rc.Jitter < 0 || rc.Jitter >= 1 {
		return fmt.Errorf("%w: jitter must be in [0,1), got %v", dynamo.ErrInvalidRun, rc.Jitter)
	}
	for _, at := range rc.TiltAt {
		if at < 0 || at >= rc.Duration {
			return fmt.Errorf("%w: tilt at %v outside [0, %v)", dynamo.ErrInvalidRun, at, rc.Duration)
		}
	}
	if len(rc.StallAt) > 0 && rc.StallDt <= 0 {
		return fmt.Errorf("%w: stall dt must be positive", dynamo.ErrInvalidRun)
	}
	return nil
}

// Frames is the number of frames the run will take without stalls.
func (rc RunConfig) Frames() int {
	return int(math.Round(rc.Duration * rc.FPS))
}

func (rc RunConfig) tilts() []float64 {
	out := append([]float64(nil), rc.TiltAt...)
	sort.Float64s(out)
	return out
}

type Result struct {
	Seed     int64
	Samples  []dynamo.Sample
	Metrics  map[string]float64
	Frames   int
	SimTime  float64
	Wall     time.Duration
	Errors   []error
	MaxLive  int
	Tilts    int
	Canceled bool
}

// Final returns the last sample, or a zero sample for an empty run.
func (r *Result) Final() dynamo.Sample {
	if len(r.Samples) == 0 {
		return dynamo.Sample{}
	}
	return r.Samples[len(r.Samples)-1]
}

// Series extracts one float series from the samples.
func (r *Result) Series(field func(dynamo.Sample) float64) []float64 {
	out := make([]float64, len(r.Samples))
	for i, s := range r.Samples {
		out[i] = field(s)
	}
	return out
}

package sim

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"github.com/san-kum/jarsim/internal/config"
	"github.com/san-kum/jarsim/internal/dynamo"
	"github.com/san-kum/jarsim/internal/jar"
	"github.com/san-kum/jarsim/internal/metrics"
	"github.com/san-kum/jarsim/internal/tilt"
)

// Runner drives one jar headless at a fixed frame rate.
type Runner struct {
	cfg        *config.Config
	newMetrics func() []dynamo.Metric
	observers  []dynamo.Observer
	logger     *slog.Logger
}

type Option func(*Runner)

func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithMetrics replaces the metric set. fn is called once per run.
func WithMetrics(fn func() []dynamo.Metric) Option {
	return func(r *Runner) { r.newMetrics = fn }
}

func New(cfg *config.Config, opts ...Option) *Runner {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	r := &Runner{
		cfg:        cfg.Clone(),
		newMetrics: metrics.Default,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Runner) Config() *config.Config { return r.cfg.Clone() }

func (r *Runner) AddObserver(o dynamo.Observer) { r.observers = append(r.observers, o) }

// Run simulates with the config's seed.
func (r *Runner) Run(ctx context.Context, rc RunConfig) (*Result, error) {
	return r.run(ctx, rc, r.cfg.Seed, r.observers)
}

func (r *Runner) run(ctx context.Context, rc RunConfig, seed int64, observers []dynamo.Observer) (*Result, error) {
	if err := rc.validate(); err != nil {
		return nil, err
	}
	j, err := jar.New(r.cfg, jar.WithSeed(seed), jar.WithLogger(r.logger))
	if err != nil {
		return nil, err
	}
	defer j.Close()

	ms := r.newMetrics()
	for _, m := range ms {
		m.Reset()
	}

	frames := rc.Frames()
	result := &Result{
		Seed:    seed,
		Metrics: make(map[string]float64, len(ms)),
	}
	if !rc.DiscardSamples {
		result.Samples = make([]dynamo.Sample, 0, frames)
	}

	stalls := make(map[int]bool, len(rc.StallAt))
	for _, f := range rc.StallAt {
		stalls[f] = true
	}
	jitter := rand.New(rand.NewSource(seed))
	tilts := rc.tilts()
	var gesture tilt.State
	base := 1 / rc.FPS
	start := time.Now()

	for i := 0; j.Now() < rc.Duration-base/2; i++ {
		select {
		case <-ctx.Done():
			result.Canceled = true
			r.finish(result, ms, j, start)
			return result, ctx.Err()
		default:
		}

		for len(tilts) > 0 && tilts[0] <= j.Now() {
			j.TriggerTilt(&gesture)
			result.Tilts++
			tilts = tilts[1:]
		}

		dt := base
		if rc.Jitter > 0 {
			dt *= 1 + rc.Jitter*(2*jitter.Float64()-1)
		}
		if stalls[i] {
			dt = rc.StallDt
		}

		s := j.Update(dt, jar.Input{Active: rc.Active, Tilt: &gesture})
		j.Flush(nil)

		for _, m := range ms {
			m.Observe(s)
		}
		for _, o := range observers {
			o.OnFrame(s)
		}
		if !rc.DiscardSamples {
			result.Samples = append(result.Samples, s)
		}
		if s.Live > result.MaxLive {
			result.MaxLive = s.Live
		}
		result.Frames++

		if !s.IsValid() {
			err := &dynamo.SimError{Frame: s.Frame, Time: s.Time, Wrapped: errNonFinite}
			result.Errors = append(result.Errors, err)
			r.logger.Error("run stopped", "err", err)
			break
		}
	}

	r.finish(result, ms, j, start)
	return result, nil
}

func (r *Runner) finish(result *Result, ms []dynamo.Metric, j *jar.Jar, start time.Time) {
	for _, m := range ms {
		result.Metrics[m.Name()] = m.Value()
	}
	result.SimTime = j.Now()
	result.Wall = time.Since(start)
}

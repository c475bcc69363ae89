package sim

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"
)

// Ensemble runs independent jars over consecutive seeds.
type Ensemble struct {
	base      *Runner
	numRuns   int
	seedStart int64
	workers   int
}

func NewEnsemble(r *Runner, numRuns int, seedStart int64) *Ensemble {
	return &Ensemble{base: r, numRuns: numRuns, seedStart: seedStart}
}

// SetWorkers bounds the number of concurrent runs. Zero means unbounded.
func (e *Ensemble) SetWorkers(n int) { e.workers = n }

func (e *Ensemble) Run(ctx context.Context, rc RunConfig) ([]*Result, error) {
	if err := rc.validate(); err != nil {
		return nil, err
	}
	results := make([]*Result, e.numRuns)

	g, ctx := errgroup.WithContext(ctx)
	if e.workers > 0 {
		g.SetLimit(e.workers)
	}
	for i := 0; i < e.numRuns; i++ {
		g.Go(func() error {
			res, err := e.base.run(ctx, rc, e.seedStart+int64(i), nil)
			results[i] = res
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Stat is a metric's spread across runs.
type Stat struct {
	Name string
	Mean float64
	Std  float64
	Min  float64
	Max  float64
}

// Aggregate summarizes every metric across results, sorted by name.
func Aggregate(results []*Result) []Stat {
	values := map[string][]float64{}
	for _, r := range results {
		if r == nil {
			continue
		}
		for name, v := range r.Metrics {
			values[name] = append(values[name], v)
		}
	}

	out := make([]Stat, 0, len(values))
	for name, vs := range values {
		st := Stat{Name: name, Min: vs[0], Max: vs[0]}
		if len(vs) > 1 {
			st.Mean, st.Std = stat.MeanStdDev(vs, nil)
		} else {
			st.Mean = vs[0]
		}
		for _, v := range vs {
			st.Min = min(st.Min, v)
			st.Max = max(st.Max, v)
		}
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

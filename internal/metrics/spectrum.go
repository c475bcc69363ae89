package metrics

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"

	"github.com/san-kum/jarsim/internal/dynamo"
)

const sloshWindow = 4096

// Slosh is the dominant frequency, in Hz, of the pile's mean height over the
// most recent frames. A settled or empty jar reads 0.
type Slosh struct {
	name    string
	heights []float64
	times   []float64
}

func NewSlosh() *Slosh { return &Slosh{name: "slosh_hz"} }

func (s *Slosh) Name() string { return s.name }

func (s *Slosh) Observe(sm dynamo.Sample) {
	if len(s.heights) == sloshWindow {
		s.heights = s.heights[1:]
		s.times = s.times[1:]
	}
	s.heights = append(s.heights, sm.MeanHeight)
	s.times = append(s.times, sm.Time)
}

func (s *Slosh) Value() float64 {
	n := len(s.heights)
	if n < 8 {
		return 0
	}
	span := s.times[n-1] - s.times[0]
	if span <= 0 {
		return 0
	}
	dt := span / float64(n-1)

	mean := 0.0
	for _, h := range s.heights {
		mean += h
	}
	mean /= float64(n)
	x := make([]float64, n)
	for i, h := range s.heights {
		x[i] = h - mean
	}

	bins := fft.FFTReal(x)
	best, peak := 0, 1e-12
	for k := 1; k <= n/2; k++ {
		if a := cmplx.Abs(bins[k]); a > peak {
			best, peak = k, a
		}
	}
	if best == 0 {
		return 0
	}
	return float64(best) / (float64(n) * dt)
}

func (s *Slosh) Reset() {
	s.heights = s.heights[:0]
	s.times = s.times[:0]
}


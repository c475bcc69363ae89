package metrics

import (
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/jarsim/internal/dynamo"
)

// PileHeight tracks the mean particle height over frames with particles,
// weighted by the live count of each frame.
type PileHeight struct {
	name    string
	heights []float64
	weights []float64
}

func NewPileHeight() *PileHeight { return &PileHeight{name: "pile_height"} }

func (m *PileHeight) Name() string { return m.name }

func (m *PileHeight) Observe(s dynamo.Sample) {
	if s.Live == 0 {
		return
	}
	m.heights = append(m.heights, s.MeanHeight)
	m.weights = append(m.weights, float64(s.Live))
}

func (m *PileHeight) Value() float64 {
	if len(m.heights) == 0 {
		return 0
	}
	return stat.Mean(m.heights, m.weights)
}

// Spread is the weighted standard deviation of the per-frame mean height.
func (m *PileHeight) Spread() float64 {
	if len(m.heights) < 2 {
		return 0
	}
	_, std := stat.MeanStdDev(m.heights, m.weights)
	return std
}

func (m *PileHeight) Reset() {
	m.heights = m.heights[:0]
	m.weights = m.weights[:0]
}

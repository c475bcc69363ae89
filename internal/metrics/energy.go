package metrics

import (
	"math"

	"github.com/san-kum/jarsim/internal/dynamo"
)

// Energy is the mean kinetic energy per frame.
type Energy struct {
	name    string
	total   float64
	samples int
}

func NewEnergy() *Energy { return &Energy{name: "kinetic_energy"} }

func (e *Energy) Name() string { return e.name }

func (e *Energy) Observe(s dynamo.Sample) {
	e.total += s.KineticEnergy
	e.samples++
}

func (e *Energy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.total / float64(e.samples)
}

func (e *Energy) Reset() {
	e.total = 0
	e.samples = 0
}

// EnergyPeak is the largest kinetic energy seen in a frame.
type EnergyPeak struct {
	name string
	peak float64
}

func NewEnergyPeak() *EnergyPeak { return &EnergyPeak{name: "peak_energy"} }

func (e *EnergyPeak) Name() string { return e.name }

func (e *EnergyPeak) Observe(s dynamo.Sample) {
	e.peak = math.Max(e.peak, s.KineticEnergy)
}

func (e *EnergyPeak) Value() float64 { return e.peak }

func (e *EnergyPeak) Reset() { e.peak = 0 }

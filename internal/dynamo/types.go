package dynamo

import "math"

// Sample summarizes one jar frame.
type Sample struct {
	Frame         int     `json:"frame" csv:"frame"`
	Time          float64 `json:"time" csv:"time"`
	Live          int     `json:"live" csv:"live"`
	Sleeping      int     `json:"sleeping" csv:"sleeping"`
	Spawned       int     `json:"spawned" csv:"spawned"`
	Despawned     int     `json:"despawned" csv:"despawned"`
	Recycled      int     `json:"recycled" csv:"recycled"`
	Dropped       int     `json:"dropped" csv:"dropped"`
	SubSteps      int     `json:"sub_steps" csv:"sub_steps"`
	Contacts      int     `json:"contacts" csv:"contacts"`
	KineticEnergy float64 `json:"kinetic_energy" csv:"kinetic_energy"`
	MeanHeight    float64 `json:"mean_height" csv:"mean_height"`
	GravityX      float64 `json:"gravity_x" csv:"gravity_x"`
	GravityY      float64 `json:"gravity_y" csv:"gravity_y"`
	Tilting       bool    `json:"tilting" csv:"tilting"`
	Uploads       int     `json:"uploads" csv:"uploads"`
}

// IsValid reports whether every float field is finite.
func (s Sample) IsValid() bool {
	for _, v := range []float64{s.Time, s.KineticEnergy, s.MeanHeight, s.GravityX, s.GravityY} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

type Metric interface {
	Name() string
	Observe(s Sample)
	Value() float64
	Reset()
}

type Observer interface {
	OnFrame(s Sample)
}

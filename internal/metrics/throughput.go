package metrics

import "github.com/san-kum/jarsim/internal/dynamo"

// SpawnRate is spawns per simulated second.
type SpawnRate struct {
	name    string
	spawned int
	elapsed float64
}

func NewSpawnRate() *SpawnRate { return &SpawnRate{name: "spawn_rate"} }

func (m *SpawnRate) Name() string { return m.name }

func (m *SpawnRate) Observe(s dynamo.Sample) {
	m.spawned += s.Spawned
	m.elapsed = s.Time
}

func (m *SpawnRate) Value() float64 {
	if m.elapsed <= 0 {
		return 0
	}
	return float64(m.spawned) / m.elapsed
}

func (m *SpawnRate) Reset() {
	m.spawned = 0
	m.elapsed = 0
}

// PeakLive is the largest live count seen.
type PeakLive struct {
	name string
	peak int
}

func NewPeakLive() *PeakLive { return &PeakLive{name: "peak_live"} }

func (m *PeakLive) Name() string { return m.name }

func (m *PeakLive) Observe(s dynamo.Sample) {
	if s.Live > m.peak {
		m.peak = s.Live
	}
}

func (m *PeakLive) Value() float64 { return float64(m.peak) }

func (m *PeakLive) Reset() { m.peak = 0 }

// Counter sums one integer field of every sample.
type Counter struct {
	name  string
	field func(dynamo.Sample) int
	total int
}

func NewDespawned() *Counter {
	return &Counter{name: "despawned", field: func(s dynamo.Sample) int { return s.Despawned + s.Recycled }}
}

func NewDropped() *Counter {
	return &Counter{name: "dropped", field: func(s dynamo.Sample) int { return s.Dropped }}
}

func (m *Counter) Name() string { return m.name }

func (m *Counter) Observe(s dynamo.Sample) { m.total += m.field(s) }

func (m *Counter) Value() float64 { return float64(m.total) }

func (m *Counter) Reset() { m.total = 0 }

// UploadsPerFrame is the mean number of batch uploads per frame.
type UploadsPerFrame struct {
	name    string
	total   int
	samples int
	peak    int
}

func NewUploadsPerFrame() *UploadsPerFrame { return &UploadsPerFrame{name: "uploads_per_frame"} }

func (m *UploadsPerFrame) Name() string { return m.name }

func (m *UploadsPerFrame) Observe(s dynamo.Sample) {
	m.total += s.Uploads
	m.samples++
	if s.Uploads > m.peak {
		m.peak = s.Uploads
	}
}

func (m *UploadsPerFrame) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return float64(m.total) / float64(m.samples)
}

// Peak is the most uploads in a single frame.
func (m *UploadsPerFrame) Peak() int { return m.peak }

func (m *UploadsPerFrame) Reset() {
	m.total = 0
	m.samples = 0
	m.peak = 0
}

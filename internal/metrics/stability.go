package metrics

import "github.com/san-kum/jarsim/internal/dynamo"

// SleepFraction is the mean share of live particles asleep per frame.
type SleepFraction struct {
	name    string
	total   float64
	samples int
}

func NewSleepFraction() *SleepFraction { return &SleepFraction{name: "sleep_fraction"} }

func (m *SleepFraction) Name() string { return m.name }

func (m *SleepFraction) Observe(s dynamo.Sample) {
	if s.Live == 0 {
		return
	}
	m.total += float64(s.Sleeping) / float64(s.Live)
	m.samples++
}

func (m *SleepFraction) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.total / float64(m.samples)
}

func (m *SleepFraction) Reset() {
	m.total = 0
	m.samples = 0
}

// SettleTime is the time at which every live particle was last seen asleep
// with no spawn since. It is -1 while the jar has not settled.
type SettleTime struct {
	name    string
	settled float64
}

func NewSettleTime() *SettleTime { return &SettleTime{name: "settle_time", settled: -1} }

func (m *SettleTime) Name() string { return m.name }

func (m *SettleTime) Observe(s dynamo.Sample) {
	switch {
	case s.Spawned > 0 || s.Sleeping < s.Live || s.Tilting:
		m.settled = -1
	case s.Live > 0 && m.settled < 0:
		m.settled = s.Time
	}
}

func (m *SettleTime) Value() float64 { return m.settled }

func (m *SettleTime) Reset() { m.settled = -1 }

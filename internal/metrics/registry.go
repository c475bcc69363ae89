package metrics

import (
	"fmt"
	"sort"

	"github.com/san-kum/jarsim/internal/dynamo"
)

var registry = map[string]func() dynamo.Metric{
	"kinetic_energy":    func() dynamo.Metric { return NewEnergy() },
	"peak_energy":       func() dynamo.Metric { return NewEnergyPeak() },
	"sleep_fraction":    func() dynamo.Metric { return NewSleepFraction() },
	"settle_time":       func() dynamo.Metric { return NewSettleTime() },
	"spawn_rate":        func() dynamo.Metric { return NewSpawnRate() },
	"peak_live":         func() dynamo.Metric { return NewPeakLive() },
	"despawned":         func() dynamo.Metric { return NewDespawned() },
	"dropped":           func() dynamo.Metric { return NewDropped() },
	"uploads_per_frame": func() dynamo.Metric { return NewUploadsPerFrame() },
	"pile_height":       func() dynamo.Metric { return NewPileHeight() },
	"slosh_hz":          func() dynamo.Metric { return NewSlosh() },
}

func ByName(name string) (dynamo.Metric, error) {
	fn, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown metric: %s", name)
	}
	return fn(), nil
}

func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Default returns one fresh instance of every metric, sorted by name.
func Default() []dynamo.Metric {
	out := make([]dynamo.Metric, 0, len(registry))
	for _, n := range Names() {
		out = append(out, registry[n]())
	}
	return out
}

// Package slider normalizes raw slider input into mixer volumes and
// debounces bursts of slider events.
package slider

import (
	"fmt"
	"math"
	"time"

	"restara/pkg/spec"
)

// Profile describes one kind of volume slider: its raw range, its step and
// how long to wait for the value to settle.
type Profile struct {
	Name     string
	Min      float64
	Max      float64
	Step     float64 // 0 = continuous
	Debounce time.Duration
}

var (
	Percent = Profile{Name: "percent", Min: 0, Max: 100, Step: 1, Debounce: spec.Debounce}
	Unit    = Profile{Name: "unit", Min: 0, Max: 1, Step: 0.01, Debounce: spec.Debounce}
	Coarse  = Profile{Name: "coarse", Min: 0, Max: 10, Step: 0.5, Debounce: spec.Debounce}
)

var profiles = map[string]Profile{
	Percent.Name: Percent,
	Unit.Name:    Unit,
	Coarse.Name:  Coarse,
}

// Lookup returns the named profile. An empty name selects Percent.
func Lookup(name string) (Profile, error) {
	if name == "" {
		return Percent, nil
	}
	p, ok := profiles[name]
	if !ok {
		return Profile{}, fmt.Errorf("unknown slider profile %q", name)
	}
	return p, nil
}

// Normalize clamps raw to [Min, Max], snaps it to Step and maps it to a
// volume in [0, 1].
func (p Profile) Normalize(raw float64) float64 {
	if math.IsNaN(raw) || p.Max <= p.Min {
		return 0
	}
	raw = math.Max(p.Min, math.Min(p.Max, raw))
	if p.Step > 0 {
		raw = p.Min + math.Round((raw-p.Min)/p.Step)*p.Step
		raw = math.Min(p.Max, raw)
	}
	v := (raw - p.Min) / (p.Max - p.Min)
	// drop float noise from the step arithmetic
	return math.Round(v*1e6) / 1e6
}

// Raw maps a volume back to the profile's scale, for display.
func (p Profile) Raw(volume float64) float64 {
	return p.Min + volume*(p.Max-p.Min)
}

package codec

import (
	"math"
	"math/rand"
	"time"
)

// Partial is one sine component of a tonal recipe.
type Partial struct {
	Hz   float64
	Gain float64
}

// Recipe describes how one track is synthesized.
type Recipe struct {
	Noise    Color
	Partials []Partial
	Strike   time.Duration // partials retrigger period, 0 sustains
	Decay    time.Duration // per-strike envelope time constant
	Swell    time.Duration // amplitude modulation period, 0 is steady
	Depth    float64
	Crackle  float64 // impulses per second
}

// Recipes maps the default catalog ids to their sound.
var Recipes = map[string]Recipe{
	"bell":          {Partials: []Partial{{523.25, 1}, {1046.5, 0.5}, {1567.98, 0.25}}, Strike: 4 * time.Second, Decay: 1200 * time.Millisecond},
	"bird":          {Partials: []Partial{{2500, 1}, {3100, 0.6}}, Strike: 1500 * time.Millisecond, Decay: 80 * time.Millisecond},
	"fire":          {Noise: Brown, Crackle: 6},
	"flute":         {Partials: []Partial{{587.33, 1}, {1174.66, 0.3}, {1761.99, 0.1}}, Swell: 3 * time.Second, Depth: 0.4},
	"frog":          {Partials: []Partial{{300, 1}, {600, 0.4}}, Strike: 800 * time.Millisecond, Decay: 60 * time.Millisecond},
	"ice_cracking":  {Noise: White, Crackle: 3, Swell: 6 * time.Second, Depth: 0.8},
	"ocean":         {Noise: Brown, Swell: 8 * time.Second, Depth: 0.7},
	"om":            {Partials: []Partial{{136.1, 1}, {272.2, 0.5}, {408.3, 0.2}}, Swell: 6 * time.Second, Depth: 0.3},
	"owl":           {Partials: []Partial{{400, 1}, {800, 0.3}}, Strike: 4 * time.Second, Decay: 300 * time.Millisecond},
	"rain":          {Noise: Pink},
	"thunder":       {Noise: Brown, Swell: 12 * time.Second, Depth: 0.9},
	"tibetan_bowls": {Partials: []Partial{{220, 1}, {587, 0.6}, {1090, 0.3}}, Strike: 8 * time.Second, Decay: 4 * time.Second},
	"train":         {Noise: Pink, Swell: 500 * time.Millisecond, Depth: 0.5},
	"wind_chimes":   {Partials: []Partial{{1318.51, 1}, {1760, 0.7}, {2093, 0.5}}, Strike: time.Second, Decay: 800 * time.Millisecond},
	"wind":          {Noise: Brown, Swell: 5 * time.Second, Depth: 0.6},
}

// Render synthesizes d of mono audio at rate. The result is not normalized.
func Render(r Recipe, rate int, d time.Duration, rng *rand.Rand) ([]float64, error) {
	n := int(d.Seconds() * float64(rate))
	out := make([]float64, n)
	if n == 0 {
		return out, nil
	}

	if r.Noise != "" {
		noise, err := Noise(r.Noise, n, rng)
		if err != nil {
			return nil, err
		}
		for i, v := range noise {
			out[i] += 0.6 * v
		}
	}

	if len(r.Partials) > 0 {
		strike := r.Strike.Seconds()
		decay := r.Decay.Seconds()
		for i := range out {
			t := float64(i) / float64(rate)
			env := 1.0
			if strike > 0 && decay > 0 {
				env = math.Exp(-math.Mod(t, strike) / decay)
			}
			var v float64
			for _, p := range r.Partials {
				v += p.Gain * math.Sin(2*math.Pi*p.Hz*t)
			}
			out[i] += env * v
		}
	}

	if r.Crackle > 0 {
		chance := r.Crackle / float64(rate)
		var spark float64
		for i := range out {
			if rng.Float64() < chance {
				spark = rng.Float64()*2 - 1
			}
			out[i] += spark
			spark *= 0.97
		}
	}

	if swell := r.Swell.Seconds(); swell > 0 {
		for i := range out {
			t := float64(i) / float64(rate)
			out[i] *= 1 - r.Depth*(0.5+0.5*math.Cos(2*math.Pi*t/swell))
		}
	}
	return out, nil
}

// Loopable crossfades the last fade samples into the head so the result
// repeats without a click. The output is fade samples shorter.
func Loopable(samples []float64, fade int) []float64 {
	n := len(samples)
	if fade <= 0 || 2*fade > n {
		return samples
	}
	out := make([]float64, n-fade)
	copy(out, samples[:n-fade])
	for i := 0; i < fade; i++ {
		w := float64(i) / float64(fade)
		out[i] = samples[i]*w + samples[n-fade+i]*(1-w)
	}
	return out
}

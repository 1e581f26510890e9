package audioengine

import "math"

// ApplyGain scales samples in place and clips them to [-1,1].
func ApplyGain(samples []float64, factor float64) {
	for i, v := range samples {
		v *= factor
		if v > 1 {
			v = 1
		} else if v < -1 {
			v = -1
		}
		samples[i] = v
	}
}

// NormalizePeak rescales samples so the loudest one reaches target.
// Silence is left untouched.
func NormalizePeak(samples []float64, target float64) {
	var peak float64
	for _, v := range samples {
		if m := math.Abs(v); m > peak {
			peak = m
		}
	}
	if peak == 0 {
		return
	}
	ApplyGain(samples, target/peak)
}

// ToPCM16 quantizes float samples for a 16-bit encoder.
func ToPCM16(samples []float64) []int {
	out := make([]int, len(samples))
	for i, v := range samples {
		out[i] = int(math.Round(math.Max(-1, math.Min(1, v)) * 32767))
	}
	return out
}

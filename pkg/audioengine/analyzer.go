package audioengine

import (
	"math"
	"math/cmplx"

	"github.com/faiface/beep"
	"github.com/mjibson/go-dsp/fft"
)

// maxWindow caps the FFT size used for the dominant frequency estimate.
const maxWindow = 1 << 16

// Analysis summarizes a mono signal.
type Analysis struct {
	Samples    int
	RMS        float64
	Peak       float64
	DominantHz float64
}

// Analyze measures level and the strongest spectral component of samples.
func Analyze(samples []float64, rate int) Analysis {
	a := Analysis{Samples: len(samples)}
	if len(samples) == 0 {
		return a
	}

	var sum float64
	for _, v := range samples {
		sum += v * v
		if m := math.Abs(v); m > a.Peak {
			a.Peak = m
		}
	}
	a.RMS = math.Sqrt(sum / float64(len(samples)))

	n := 1
	for n*2 <= len(samples) && n*2 <= maxWindow {
		n *= 2
	}
	if n < 2 || rate <= 0 {
		return a
	}

	coeffs := fft.FFTReal(samples[:n])
	best, bin := 0.0, 0
	for i := 1; i < n/2; i++ {
		if m := cmplx.Abs(coeffs[i]); m > best {
			best, bin = m, i
		}
	}
	a.DominantHz = float64(bin) * float64(rate) / float64(n)
	return a
}

// Waveform reduces samples to points RMS levels in [0,255] for display.
func Waveform(samples []float64, points int) []byte {
	if points <= 0 || len(samples) == 0 {
		return nil
	}
	step := len(samples) / points
	if step == 0 {
		step = 1
	}

	out := make([]byte, 0, points)
	for i := 0; i < len(samples) && len(out) < points; i += step {
		var sum float64
		count := 0
		for j := i; j < i+step && j < len(samples); j++ {
			sum += samples[j] * samples[j]
			count++
		}
		rms := math.Sqrt(sum / float64(count))
		out = append(out, uint8(math.Min(rms*255, 255)))
	}
	return out
}

// ReadMono drains up to max frames from s and averages the channels.
// A non-positive max reads until the streamer is exhausted.
func ReadMono(s beep.Streamer, max int) []float64 {
	var out []float64
	buf := make([][2]float64, 4096)
	for max <= 0 || len(out) < max {
		want := len(buf)
		if max > 0 && max-len(out) < want {
			want = max - len(out)
		}
		n, ok := s.Stream(buf[:want])
		for _, f := range buf[:n] {
			out = append(out, (f[0]+f[1])/2)
		}
		if !ok || n == 0 {
			break
		}
	}
	return out
}

package codec

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// Spectrogram renders mono samples as a width x height PNG, time on x and
// linear frequency on y, low frequencies at the bottom.
func Spectrogram(samples []float64, width, height int) ([]byte, error) {
	const fftSize = 1024

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	step := len(samples) / width
	if step < fftSize {
		step = fftSize
	}

	window := make([]float64, fftSize)
	for x := 0; x < width; x++ {
		start := x * step
		if start+fftSize > len(samples) {
			break
		}
		for i := range window {
			hann := 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/fftSize)
			window[i] = samples[start+i] * hann
		}
		coeffs := fft.FFTReal(window)

		for y := 0; y < height; y++ {
			bin := (height - 1 - y) * (fftSize / 2) / height
			db := 20 * math.Log10(cmplx.Abs(coeffs[bin])+1e-9)
			level := uint8(math.Max(0, math.Min(255, (db+40)*4)))
			img.Set(x, y, color.RGBA{R: level / 3, G: level / 2, B: level, A: 255})
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

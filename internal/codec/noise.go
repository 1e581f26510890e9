/*
 * Copyright (c) 2025 Hardiyanto Y -Ebiet.
 * This software is part of the Restara project.
 * This code is provided "as is", without warranty of any kind.
 */

// Package codec synthesizes the ambient loops shipped with the default catalog.
package codec

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/mjibson/go-dsp/fft"
)

// Color selects the spectral slope of generated noise.
type Color string

const (
	White Color = "white"
	Pink  Color = "pink"
	Brown Color = "brown"
)

// Noise returns n samples of colored noise, peak normalized to 1.
// Pink and brown are shaped in the frequency domain (1/sqrt(f) and 1/f).
func Noise(c Color, n int, rng *rand.Rand) ([]float64, error) {
	if n <= 0 {
		return nil, nil
	}
	white := make([]float64, n)
	for i := range white {
		white[i] = rng.Float64()*2 - 1
	}

	var slope float64
	switch c {
	case White:
		return white, nil
	case Pink:
		slope = 0.5
	case Brown:
		slope = 1
	default:
		return nil, fmt.Errorf("unknown noise color %q", c)
	}

	m := 1
	for m < n {
		m <<= 1
	}
	padded := make([]float64, m)
	copy(padded, white)

	spec := fft.FFTReal(padded)
	spec[0] = 0
	for k := 1; k <= m/2; k++ {
		g := complex(1/math.Pow(float64(k), slope), 0)
		spec[k] *= g
		if k != m-k {
			spec[m-k] *= g
		}
	}

	shaped := fft.IFFT(spec)
	out := make([]float64, n)
	var peak float64
	for i := range out {
		out[i] = real(shaped[i])
		peak = math.Max(peak, math.Abs(out[i]))
	}
	if peak > 0 {
		for i := range out {
			out[i] /= peak
		}
	}
	return out, nil
}

// SPDX-License-Identifier: MIT
package dsp

import (
	"fmt"
	"math"
	"math/cmplx"
	"strings"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"

	"github.com/zfurman56/live-spectrum/pkg/bitint"
)

// WindowFunc selects the tapering function applied before the transform.
type WindowFunc int

const (
	Hann WindowFunc = iota
	Hamming
	Blackman
	BlackmanNuttall
	BartlettHann
	Lanczos
	Nuttall
)

// workspace holds pre-allocated buffers for the transform so Analyze runs
// without allocating.
type workspace struct {
	input     []float64    // windowed input samples
	fftOutput []complex128 // complex transform output (N/2 + 1 coefficients)
	window    []float64    // window function coefficients
}

// SpectrumEngine is a deterministic transform from a fixed-length sample
// window to a raw magnitude spectrum of length N/2. It holds no state across
// calls beyond its pre-allocated buffers.
type SpectrumEngine struct {
	size       int
	sampleRate float64
	fftObj     *fourier.FFT
	workspace  workspace
}

// NewSpectrumEngine creates an engine for windows of the given size.
// Preconditions fail loudly here, at configuration time: the size must be a
// power of two and the sample rate positive.
func NewSpectrumEngine(size int, sampleRate float64, windowType WindowFunc) (*SpectrumEngine, error) {
	if !bitint.IsPowerOfTwo(size) {
		return nil, fmt.Errorf("dsp: transform size must be a power of 2, got %d", size)
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("dsp: sample rate must be positive, got %g", sampleRate)
	}

	coeffs := make([]float64, size)
	applyWindow(coeffs, windowType)

	return &SpectrumEngine{
		size:       size,
		sampleRate: sampleRate,
		fftObj:     fourier.NewFFT(size),
		workspace: workspace{
			input:     make([]float64, size),
			fftOutput: make([]complex128, size/2+1),
			window:    coeffs,
		},
	}, nil
}

// Analyze transforms one sample window into its magnitude spectrum.
// samples must have length N and dst length N/2; dst receives the
// Nyquist-limited half of the spectrum, bin i covering frequency
// i*sampleRate/N, scaled by 1/sqrt(N). The spectrum is recomputed in full;
// no partial update. Allocation-free.
func (e *SpectrumEngine) Analyze(samples []float64, dst []float64) error {
	if len(samples) != e.size {
		return fmt.Errorf("dsp: window length %d does not match configured size %d", len(samples), e.size)
	}
	if len(dst) != e.size/2 {
		return fmt.Errorf("dsp: spectrum length %d does not match bin count %d", len(dst), e.size/2)
	}

	for i := range samples {
		e.workspace.input[i] = samples[i] * e.workspace.window[i]
	}

	e.fftObj.Coefficients(e.workspace.fftOutput, e.workspace.input)

	scale := 1 / math.Sqrt(float64(e.size))
	for i := range dst {
		dst[i] = cmplx.Abs(e.workspace.fftOutput[i]) * scale
	}

	return nil
}

// BinCount returns the number of output bins, N/2.
func (e *SpectrumEngine) BinCount() int {
	return e.size / 2
}

// Size returns the transform size N.
func (e *SpectrumEngine) Size() int {
	return e.size
}

// SampleRate returns the configured sample rate in Hz.
func (e *SpectrumEngine) SampleRate() float64 {
	return e.sampleRate
}

// FrequencyForBin returns the center frequency (Hz) of the given bin index,
// or 0 for out-of-range indices.
func (e *SpectrumEngine) FrequencyForBin(binIndex int) float64 {
	if binIndex < 0 || binIndex >= e.size/2 {
		return 0
	}
	return float64(binIndex) * (e.sampleRate / float64(e.size))
}

// ParseWindowFunc converts a name (case-insensitive) to a WindowFunc.
// Returns Hann and an error if the name is unknown.
func ParseWindowFunc(name string) (WindowFunc, error) {
	switch strings.ToLower(name) {
	case "hann", "hanning":
		return Hann, nil
	case "hamming":
		return Hamming, nil
	case "blackman":
		return Blackman, nil
	case "blackmannuttall":
		return BlackmanNuttall, nil
	case "bartletthann":
		return BartlettHann, nil
	case "lanczos":
		return Lanczos, nil
	case "nuttall":
		return Nuttall, nil
	default:
		return Hann, fmt.Errorf("dsp: unknown window function name %q", name)
	}
}

// applyWindow fills coeffs with the selected window function. The slice is
// seeded with ones because the gonum window functions multiply in place.
func applyWindow(coeffs []float64, windowType WindowFunc) {
	for i := range coeffs {
		coeffs[i] = 1.0
	}
	switch windowType {
	case Hamming:
		window.Hamming(coeffs)
	case Blackman:
		window.Blackman(coeffs)
	case BlackmanNuttall:
		window.BlackmanNuttall(coeffs)
	case BartlettHann:
		window.BartlettHann(coeffs)
	case Lanczos:
		window.Lanczos(coeffs)
	case Nuttall:
		window.Nuttall(coeffs)
	default:
		window.Hann(coeffs)
	}
}

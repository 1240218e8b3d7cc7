// SPDX-License-Identifier: MIT
package dsp

import "fmt"

// EnvelopeFilter smooths successive raw spectra into a stable display-ready
// spectrum using a first-order exponential moving average per bin:
//
//	env[i] = alpha*env[i] + (1-alpha)*raw[i]
//
// Larger alpha responds more slowly and smoothly; smaller alpha tracks the
// raw input more closely. State starts at all zeros and is only ever
// blended, never replaced. In peak-hold mode a bin additionally snaps up to
// the raw value whenever the raw value exceeds the blend, so attacks render
// immediately while decays stay smooth.
type EnvelopeFilter struct {
	alpha    float64
	peakHold bool
	env      []float64
}

// NewEnvelopeFilter creates a filter over the given number of bins.
// alpha must lie strictly between 0 and 1.
func NewEnvelopeFilter(bins int, alpha float64, peakHold bool) (*EnvelopeFilter, error) {
	if bins < 1 {
		return nil, fmt.Errorf("dsp: envelope bin count must be positive, got %d", bins)
	}
	if alpha <= 0 || alpha >= 1 {
		return nil, fmt.Errorf("dsp: smoothing constant must be in (0, 1), got %g", alpha)
	}
	return &EnvelopeFilter{
		alpha:    alpha,
		peakHold: peakHold,
		env:      make([]float64, bins),
	}, nil
}

// Update blends one raw spectrum into the envelope, every bin independently.
// raw must match the configured bin count.
func (f *EnvelopeFilter) Update(raw []float64) error {
	if len(raw) != len(f.env) {
		return fmt.Errorf("dsp: raw spectrum length %d does not match envelope bins %d", len(raw), len(f.env))
	}

	for i := range f.env {
		v := f.alpha*f.env[i] + (1-f.alpha)*raw[i]
		if f.peakHold && raw[i] > v {
			v = raw[i]
		}
		f.env[i] = v
	}

	return nil
}

// Envelope returns the filter's internal state. The slice is owned by the
// filter and mutated by Update; callers needing a stable view must copy
// under their own synchronization.
func (f *EnvelopeFilter) Envelope() []float64 {
	return f.env
}

// BinCount returns the number of envelope bins.
func (f *EnvelopeFilter) BinCount() int {
	return len(f.env)
}

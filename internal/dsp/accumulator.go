// SPDX-License-Identifier: MIT
/*
Package dsp implements the analysis stages of the spectrum pipeline:
window accumulation, the magnitude-spectrum transform, and envelope
smoothing. Everything here is driven from the single consumer goroutine;
none of it is called from the capture callback.
*/
package dsp

import (
	"fmt"

	"github.com/zfurman56/live-spectrum/pkg/bitint"
)

// Accumulator assembles fixed-size analysis windows from the variably sized
// chunks the capture layer delivers. Samples are kept in arrival order.
// Consumed samples are discarded on emission; successive windows do not
// overlap.
type Accumulator struct {
	size int
	buf  []float64
}

// NewAccumulator creates an accumulator emitting windows of size samples.
// The size must be a power of two: the transform downstream requires it, and
// a violation here is a configuration error, never a runtime one.
func NewAccumulator(size int) (*Accumulator, error) {
	if !bitint.IsPowerOfTwo(size) {
		return nil, fmt.Errorf("dsp: window size must be a power of 2, got %d", size)
	}
	return &Accumulator{
		size: size,
		buf:  make([]float64, 0, 2*size),
	}, nil
}

// Append adds a captured chunk to the pending buffer. Chunks of any length
// are accepted, including empty ones.
func (a *Accumulator) Append(chunk []float32) {
	for _, s := range chunk {
		a.buf = append(a.buf, float64(s))
	}
}

// Window copies one full window into dst and consumes those samples,
// returning true. If fewer than size samples are pending it copies nothing
// and returns false; pending samples carry forward. dst must have length
// size. Call in a loop to flush a backlog one window at a time.
func (a *Accumulator) Window(dst []float64) bool {
	if len(a.buf) < a.size || len(dst) != a.size {
		return false
	}
	copy(dst, a.buf[:a.size])
	n := copy(a.buf, a.buf[a.size:])
	a.buf = a.buf[:n]
	return true
}

// Pending returns the number of samples accumulated toward the next window.
func (a *Accumulator) Pending() int {
	return len(a.buf)
}

// Size returns the window size N.
func (a *Accumulator) Size() int {
	return a.size
}

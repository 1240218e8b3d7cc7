// SPDX-License-Identifier: MIT
/*
Package pipeline wires the capture queue, window accumulator, spectrum
engine, and envelope filter into the consumer side of the system.

Two execution contexts touch this package: the consumer goroutine calls Step
once per display cycle, and transport publishers read the published spectra
from their own goroutines. The published arrays are the only shared state
and sit behind an RWMutex; everything upstream of them is single-consumer
and lock-free.
*/
package pipeline

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/zfurman56/live-spectrum/internal/audio"
	"github.com/zfurman56/live-spectrum/internal/config"
	"github.com/zfurman56/live-spectrum/internal/dsp"
	applog "github.com/zfurman56/live-spectrum/internal/log"
)

// Pipeline converts queued capture chunks into published raw and envelope
// spectra. It never blocks on the capture side and absorbs runtime errors:
// a malformed window or a stopped device leaves the last published spectra
// in place rather than tearing the loop down.
type Pipeline struct {
	queue  *audio.ChunkQueue
	acc    *dsp.Accumulator
	engine *dsp.SpectrumEngine
	filter *dsp.EnvelopeFilter

	recorder *audio.Recorder // optional, consumer-side WAV tap

	windows atomic.Uint64 // total analysis windows processed

	mu      sync.RWMutex
	scratch []float64 // window assembly buffer, consumer-only
	raw     []float64 // published raw spectrum, len N/2
	env     []float64 // published envelope spectrum, len N/2
}

// New builds a pipeline for the given configuration and capture queue.
// sampleRate is the rate the capture layer actually negotiated.
// Configuration violations (window size, smoothing constant, window
// function name) fail here, before any audio flows.
func New(cfg *config.Config, sampleRate float64, queue *audio.ChunkQueue) (*Pipeline, error) {
	windowFn, err := dsp.ParseWindowFunc(cfg.Analysis.Window)
	if err != nil {
		return nil, err
	}

	acc, err := dsp.NewAccumulator(cfg.Analysis.WindowSize)
	if err != nil {
		return nil, err
	}

	engine, err := dsp.NewSpectrumEngine(cfg.Analysis.WindowSize, sampleRate, windowFn)
	if err != nil {
		return nil, err
	}

	filter, err := dsp.NewEnvelopeFilter(engine.BinCount(), cfg.Analysis.Smoothing, cfg.Analysis.PeakHold)
	if err != nil {
		return nil, err
	}

	return &Pipeline{
		queue:   queue,
		acc:     acc,
		engine:  engine,
		filter:  filter,
		scratch: make([]float64, engine.Size()),
		raw:     make([]float64, engine.BinCount()),
		env:     make([]float64, engine.BinCount()),
	}, nil
}

// AttachRecorder taps the drained sample stream into a WAV recorder.
// Call before the consumer loop starts.
func (p *Pipeline) AttachRecorder(r *audio.Recorder) {
	p.recorder = r
}

// Step runs one processing cycle: drain every queued chunk in arrival
// order, and for each full window apply the transform and blend the
// envelope. Returns the number of windows processed, which is zero when
// fewer than N samples arrived since the last cycle — that is not an
// error, state simply carries forward. Step never blocks and must only be
// called from the single consumer goroutine.
func (p *Pipeline) Step() int {
	p.queue.Drain(func(chunk []float32) {
		if p.recorder != nil {
			p.recorder.Write(chunk)
		}
		p.acc.Append(chunk)
	})

	n := 0
	for p.acc.Window(p.scratch) {
		p.mu.Lock()
		err := p.engine.Analyze(p.scratch, p.raw)
		if err == nil {
			err = p.filter.Update(p.raw)
		}
		if err == nil {
			copy(p.env, p.filter.Envelope())
		}
		p.mu.Unlock()

		if err != nil {
			// Shape violations cannot arise from device data (the
			// accumulator emits fixed-size windows), so log and keep
			// serving the previous spectra.
			applog.Errorf("Pipeline: dropping window: %v", err)
			continue
		}

		n++
		p.windows.Add(1)
	}

	return n
}

// BinCount returns the published spectrum length, N/2.
func (p *Pipeline) BinCount() int {
	return p.engine.BinCount()
}

// SampleRate returns the capture sample rate the spectra were computed at.
// Renderers need it to map bin index to frequency.
func (p *Pipeline) SampleRate() float64 {
	return p.engine.SampleRate()
}

// FrequencyForBin returns the center frequency (Hz) for a spectrum bin.
func (p *Pipeline) FrequencyForBin(binIndex int) float64 {
	return p.engine.FrequencyForBin(binIndex)
}

// RawInto copies the latest raw spectrum into dst without allocating.
// dst must have length BinCount.
func (p *Pipeline) RawInto(dst []float64) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if len(dst) != len(p.raw) {
		return fmt.Errorf("pipeline: destination length %d does not match bin count %d", len(dst), len(p.raw))
	}
	copy(dst, p.raw)
	return nil
}

// EnvelopeInto copies the latest envelope spectrum into dst without
// allocating. dst must have length BinCount.
func (p *Pipeline) EnvelopeInto(dst []float64) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if len(dst) != len(p.env) {
		return fmt.Errorf("pipeline: destination length %d does not match bin count %d", len(dst), len(p.env))
	}
	copy(dst, p.env)
	return nil
}

// Raw returns a copy of the latest raw spectrum.
func (p *Pipeline) Raw() []float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]float64, len(p.raw))
	copy(out, p.raw)
	return out
}

// Envelope returns a copy of the latest envelope spectrum.
func (p *Pipeline) Envelope() []float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]float64, len(p.env))
	copy(out, p.env)
	return out
}

// Windows returns the total number of analysis windows processed.
func (p *Pipeline) Windows() uint64 {
	return p.windows.Load()
}

// Dropped returns the number of capture chunks lost to queue overflow.
func (p *Pipeline) Dropped() uint64 {
	return p.queue.Dropped()
}

// SPDX-License-Identifier: MIT
/*
Package audio implements the capture side of the spectrum pipeline:
- Device selection and lifecycle around PortAudio
- A non-blocking capture callback that forwards sample chunks
- A bounded SPSC chunk queue with a drop-oldest overflow policy
- Optional WAV recording of the drained sample stream

Thread Safety:
- The capture callback only copies into pre-pooled buffers and enqueues
- Stream ownership is exclusive to Capture; Start/Stop/Close from one goroutine
*/
package audio

import (
	"errors"
	"fmt"
	"time"

	"github.com/gordonklaus/portaudio"

	"github.com/zfurman56/live-spectrum/internal/config"
	applog "github.com/zfurman56/live-spectrum/internal/log"
)

// Fatal initialization errors. Anything that goes wrong after Start is a
// runtime condition and is logged, never raised through the pipeline.
var (
	ErrNoInputDevice     = errors.New("audio: no usable input device")
	ErrUnsupportedFormat = errors.New("audio: no mutually supported stream format")
)

// Capture owns the hardware input stream. It selects an input device at
// construction time, negotiates the sample rate, and on Start registers a
// mono float32 callback with PortAudio. The callback's sole responsibility
// is to push each delivered chunk into the queue.
type Capture struct {
	device     *portaudio.DeviceInfo
	stream     *portaudio.Stream
	queue      *ChunkQueue
	sampleRate float64
	frames     int
	latency    time.Duration
}

// NewCapture selects the configured input device and resolves the stream
// parameters. A sample rate of 0 negotiates the device default. Device
// selection failures are fatal and wrap ErrNoInputDevice.
func NewCapture(cfg *config.Config, queue *ChunkQueue) (*Capture, error) {
	device, err := InputDevice(cfg.Audio.InputDevice)
	if err != nil {
		return nil, err
	}

	rate := cfg.Audio.SampleRate
	if rate == 0 {
		rate = device.DefaultSampleRate
	}

	c := &Capture{
		device:     device,
		queue:      queue,
		sampleRate: rate,
		frames:     cfg.Audio.FramesPerBuffer,
	}

	if cfg.Audio.LowLatency {
		c.latency = device.DefaultLowInputLatency
	} else {
		c.latency = device.DefaultHighInputLatency
	}

	applog.Infof("Capture: using device %q (rate %.0f Hz, latency %s)", device.Name, rate, c.latency)

	return c, nil
}

// SampleRate returns the negotiated sample rate in Hz.
// Valid after NewCapture, before the stream is started.
func (c *Capture) SampleRate() float64 {
	return c.sampleRate
}

// Start opens the input stream and begins capture. From the first callback
// on, PortAudio drives processInput at hardware cadence. A format the device
// cannot satisfy surfaces as ErrUnsupportedFormat.
func (c *Capture) Start() error {
	if c.stream != nil {
		return fmt.Errorf("audio: capture already started")
	}

	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Channels: 1,
			Device:   c.device,
			Latency:  c.latency,
		},
		FramesPerBuffer: c.frames,
		SampleRate:      c.sampleRate,
	}

	stream, err := paOpenStreamFunc(params, c.processInput)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}
	c.stream = stream

	if err := c.stream.Start(); err != nil {
		c.stream.Close()
		c.stream = nil
		return fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}

	return nil
}

// processInput is the capture callback.
// Performance critical: runs on the PortAudio thread at hardware cadence.
// No blocking, no locks, no steady-state allocations; it forwards the chunk
// and returns.
func (c *Capture) processInput(in []float32) {
	c.queue.Push(in)
}

// Stop halts and closes the input stream. After Stop the pipeline keeps
// serving its last published spectra; Start may be called again.
func (c *Capture) Stop() error {
	if c.stream == nil {
		return nil
	}

	if err := c.stream.Stop(); err != nil {
		return err
	}
	if err := c.stream.Close(); err != nil {
		return err
	}
	c.stream = nil

	return nil
}

// Close releases the stream. It is safe to call after Stop.
func (c *Capture) Close() error {
	return c.Stop()
}

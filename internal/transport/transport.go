// SPDX-License-Identifier: MIT
/*
Package transport publishes spectrum frames to external consumers.

A single Publisher goroutine snapshots the latest spectra from a
SpectrumSource at a fixed interval and fans each Frame out to the
configured Transport implementations (WebSocket, UDP). The publisher owns
the pacing; transports only serialize and send.
*/
package transport

import (
	"fmt"
	"sync"
	"time"

	applog "github.com/zfurman56/live-spectrum/internal/log"
)

// Frame is one published snapshot of the analysis state.
type Frame struct {
	SampleRate float64   `json:"sampleRate"`
	BinCount   int       `json:"binCount"`
	Raw        []float64 `json:"raw"`
	Envelope   []float64 `json:"envelope"`
}

// Transport sends frames to one kind of consumer. Implementations must be
// safe for calls from the publisher goroutine concurrent with Close from
// the shutdown path.
type Transport interface {
	Send(frame Frame) error
	Close() error
}

// SpectrumSource provides allocation-free snapshots of the latest spectra.
type SpectrumSource interface {
	BinCount() int
	SampleRate() float64
	RawInto(dst []float64) error
	EnvelopeInto(dst []float64) error
}

// Publisher periodically fetches spectra from a SpectrumSource and fans
// them out to the attached transports. It runs in a separate goroutine
// managed by Start and Stop.
type Publisher struct {
	source     SpectrumSource
	transports []Transport
	interval   time.Duration

	ticker   *time.Ticker
	doneChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	mu       sync.Mutex // protects ticker and doneChan during Start/Stop

	// Pre-allocated snapshot buffers so the publish loop does not allocate.
	rawBuffer []float64
	envBuffer []float64
}

// NewPublisher creates a publisher for the given source and transports.
// If the interval is invalid (<= 0) it defaults to 33ms (~30Hz).
func NewPublisher(interval time.Duration, source SpectrumSource, transports ...Transport) (*Publisher, error) {
	if source == nil {
		return nil, fmt.Errorf("publisher: spectrum source cannot be nil")
	}
	if len(transports) == 0 {
		return nil, fmt.Errorf("publisher: at least one transport is required")
	}

	if interval <= 0 {
		interval = 33 * time.Millisecond
		applog.Warnf("Publisher: Invalid interval provided, defaulting to %s", interval)
	}

	bins := source.BinCount()
	applog.Infof("Publisher: Initializing (Interval: %s, Bins: %d, Transports: %d)",
		interval, bins, len(transports))

	return &Publisher{
		source:     source,
		transports: transports,
		interval:   interval,
		rawBuffer:  make([]float64, bins),
		envBuffer:  make([]float64, bins),
	}, nil
}

// Start launches the publisher goroutine. Safe to call multiple times;
// subsequent calls are no-ops while running.
func (p *Publisher) Start() {
	p.mu.Lock()
	if p.ticker != nil {
		p.mu.Unlock()
		applog.Warnf("Publisher: Start called but already running.")
		return
	}

	p.ticker = time.NewTicker(p.interval)
	p.doneChan = make(chan struct{})
	p.stopOnce = sync.Once{}

	// Capture locals so the goroutine never races Start/Stop on the fields.
	ticker := p.ticker
	doneChan := p.doneChan

	p.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		applog.Infof("Publisher: Goroutine started (Interval: %s)", p.interval)
		for {
			select {
			case <-ticker.C:
				p.publishFrame()
			case <-doneChan:
				applog.Infof("Publisher: Goroutine received stop signal.")
				return
			}
		}
	}()
}

// Stop signals the publisher goroutine to terminate and waits for it.
// Safe to call multiple times. Transports are not closed here; the owner
// closes them after Stop returns.
func (p *Publisher) Stop() error {
	p.mu.Lock()
	if p.ticker == nil {
		p.mu.Unlock()
		applog.Debugf("Publisher: Stop called but not running.")
		return nil
	}

	p.stopOnce.Do(func() {
		applog.Infof("Publisher: Initiating stop sequence...")
		close(p.doneChan)
		p.ticker.Stop()
		p.ticker = nil
	})

	p.mu.Unlock()

	p.wg.Wait()
	applog.Infof("Publisher: Goroutine finished.")
	return nil
}

// Close stops the publisher goroutine. Implements io.Closer.
func (p *Publisher) Close() error {
	return p.Stop()
}

// publishFrame snapshots the source and fans the frame out to every
// transport. A failing transport is logged and skipped; the rest still
// receive the frame.
func (p *Publisher) publishFrame() {
	if err := p.source.RawInto(p.rawBuffer); err != nil {
		applog.Errorf("Publisher: Error snapshotting raw spectrum: %v", err)
		return
	}
	if err := p.source.EnvelopeInto(p.envBuffer); err != nil {
		applog.Errorf("Publisher: Error snapshotting envelope spectrum: %v", err)
		return
	}

	frame := Frame{
		SampleRate: p.source.SampleRate(),
		BinCount:   len(p.envBuffer),
		Raw:        p.rawBuffer,
		Envelope:   p.envBuffer,
	}

	for _, t := range p.transports {
		if err := t.Send(frame); err != nil {
			applog.Errorf("Publisher: Transport send failed: %v", err)
		}
	}
}

var _ interface{ Close() error } = (*Publisher)(nil)

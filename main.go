// SPDX-License-Identifier: MIT
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/zfurman56/live-spectrum/cmd"
	"github.com/zfurman56/live-spectrum/internal/audio"
	"github.com/zfurman56/live-spectrum/internal/config"
	applog "github.com/zfurman56/live-spectrum/internal/log"
	"github.com/zfurman56/live-spectrum/internal/pipeline"
	"github.com/zfurman56/live-spectrum/internal/transport"
	"github.com/zfurman56/live-spectrum/internal/transport/udp"
	"github.com/zfurman56/live-spectrum/pkg/build"
)

// main is the entry point for the spectrum analyzer.
// The program flow is divided into three distinct phases:
//
// 1. Startup Phase (Cold Path):
//   - Initialize build information
//   - Load configuration and parse command line arguments
//   - Initialize PortAudio
//   - Execute one-off commands if requested
//
// 2. Concurrent Phase (Hot Path):
//   - Start the capture stream (PortAudio begins invoking the callback)
//   - Run the consumer loop: drain, window, transform, smooth
//   - Publish spectra to the configured transports
//
// 3. Shutdown Phase (Cold Path):
//   - Handle termination signals
//   - Stop capture, publisher, recording
//   - Clean up resources in reverse start order
func main() {
	// ==================== STARTUP PHASE (Cold Path) ====================

	build.Initialize()

	cfg, err := config.Load(os.Getenv("SPECTRUM_CONFIG"))
	if err != nil {
		applog.Fatalf("Loading configuration: %v", err)
	}

	if err := cmd.ParseArgs(cfg); err != nil {
		applog.Fatalf("%v", err)
	}

	if cfg.Debug {
		cfg.LogLevel = "debug"
	}
	if level, ok := applog.ParseLevel(cfg.LogLevel); ok {
		applog.SetLevel(level)
	}

	if err := cfg.Validate(); err != nil {
		applog.Fatalf("Invalid configuration: %v", err)
	}

	if err := audio.Initialize(); err != nil {
		applog.Fatalf("Initializing PortAudio: %v", err)
	}
	defer audio.Terminate()

	// One-off commands run without the pipeline.
	if cfg.Command == "list" {
		if err := audio.ListDevices(); err != nil {
			applog.Fatalf("Listing devices: %v", err)
		}
		return
	}

	if !cfg.Run {
		return
	}

	if err := run(cfg); err != nil {
		applog.Fatalf("%v", err)
	}
}

// run owns the concurrent phase: it wires the capture queue, pipeline,
// recorder, and transports together, then blocks until a termination
// signal arrives.
func run(cfg *config.Config) error {
	queue := audio.NewChunkQueue(cfg.Audio.QueueDepth, cfg.Audio.FramesPerBuffer)

	capture, err := audio.NewCapture(cfg, queue)
	if err != nil {
		return fmt.Errorf("opening capture device: %w", err)
	}
	defer capture.Close()

	pipe, err := pipeline.New(cfg, capture.SampleRate(), queue)
	if err != nil {
		return fmt.Errorf("building pipeline: %w", err)
	}

	var recorder *audio.Recorder
	if cfg.Recording.Enabled {
		recorder = audio.NewRecorder(capture.SampleRate(), cfg.Audio.FramesPerBuffer)
		if err := recorder.Start(cfg.Recording.OutputFile); err != nil {
			return fmt.Errorf("starting recording: %w", err)
		}
		pipe.AttachRecorder(recorder)
	}

	publisher, transports, err := buildPublisher(cfg, pipe)
	if err != nil {
		return err
	}

	// Signal handling for graceful shutdown.
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	// CRITICAL: the first call to Start triggers PortAudio to begin calling
	// the capture callback, marking the start of the hot path.
	if err := capture.Start(); err != nil {
		return fmt.Errorf("starting capture stream: %w", err)
	}

	if publisher != nil {
		publisher.Start()
	}

	applog.Infof("%s %s capturing at %.0f Hz (window %d, %d bins). Ctrl-C to stop.",
		build.GetBuildFlags().Name, build.GetBuildFlags().Version,
		pipe.SampleRate(), cfg.Analysis.WindowSize, pipe.BinCount())

	// Consumer loop: one Step per display cycle.
	ticker := time.NewTicker(time.Second / time.Duration(cfg.Analysis.RefreshRate))
	defer ticker.Stop()

consumerLoop:
	for {
		select {
		case <-ticker.C:
			pipe.Step()
		case <-done:
			break consumerLoop
		}
	}

	// ==================== SHUTDOWN PHASE (Cold Path) ====================

	applog.Infof("Shutting down (windows: %d, dropped chunks: %d, still queued: %d)...",
		pipe.Windows(), pipe.Dropped(), queue.Len())

	if err := capture.Stop(); err != nil {
		applog.Warnf("Stopping capture stream: %v", err)
	}

	// Process whatever the callback queued before the stream stopped.
	pipe.Step()

	if publisher != nil {
		if err := publisher.Stop(); err != nil {
			applog.Warnf("Stopping publisher: %v", err)
		}
	}
	for _, t := range transports {
		if err := t.Close(); err != nil {
			applog.Warnf("Closing transport: %v", err)
		}
	}

	if recorder != nil {
		if err := recorder.Stop(); err != nil {
			applog.Warnf("Stopping recording: %v", err)
		} else {
			fmt.Printf("\nRecording saved to: %s\n", cfg.Recording.OutputFile)
		}
	}

	return nil
}

// buildPublisher assembles the enabled transports and a publisher that
// feeds them. Returns a nil publisher when no transport is enabled.
func buildPublisher(cfg *config.Config, pipe *pipeline.Pipeline) (*transport.Publisher, []transport.Transport, error) {
	var transports []transport.Transport

	if cfg.Transport.WSEnabled {
		transports = append(transports,
			transport.NewWebSocketTransport(cfg.Transport.WSAddr, cfg.Transport.SendInterval))
	}

	if cfg.Transport.UDPEnabled {
		sender, err := udp.NewSender(cfg.Transport.UDPTargetAddress)
		if err != nil {
			return nil, nil, fmt.Errorf("creating UDP sender: %w", err)
		}
		udpTransport, err := udp.NewTransport(sender, pipe.BinCount())
		if err != nil {
			sender.Close()
			return nil, nil, fmt.Errorf("creating UDP transport: %w", err)
		}
		transports = append(transports, udpTransport)
	}

	if len(transports) == 0 {
		return nil, nil, nil
	}

	publisher, err := transport.NewPublisher(cfg.Transport.SendInterval, pipe, transports...)
	if err != nil {
		return nil, nil, fmt.Errorf("creating publisher: %w", err)
	}
	return publisher, transports, nil
}

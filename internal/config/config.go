// SPDX-License-Identifier: MIT
package config

import "time"

// Core configuration constants that define the boundaries and defaults
// for the spectrum pipeline.
const (
	// Default values for the pipeline configuration
	DefaultDeviceID        = MinDeviceID // System default input device
	DefaultSampleRate      = 0           // 0 means use the device default rate
	DefaultFramesPerBuffer = 512         // Balanced latency/performance
	DefaultLowLatency      = false       // Standard latency mode
	DefaultQueueDepth      = 64          // Capture chunk queue capacity
	DefaultWindowSize      = 2048        // Analysis window (power of 2)
	DefaultWindowFunc      = "hann"      // Window applied before the transform
	DefaultSmoothing       = 0.95        // Envelope EMA constant
	DefaultRefreshRate     = 60          // Consumer cycles per second

	// Hardware and processing limits
	MinDeviceID   = -1     // -1 represents system default device
	MinSampleRate = 8000   // Minimum usable sample rate (Hz)
	MaxSampleRate = 192000 // Maximum supported sample rate (Hz)
	MaxWindowSize = 32768  // Maximum analysis window (power of 2)
	MaxRefresh    = 240    // Maximum consumer cycles per second
)

// Config holds all runtime configuration, loaded from YAML with optional
// environment and command-line overrides.
type Config struct {
	Debug    bool   `yaml:"debug"`             // Enable debug mode (verbose logging).
	LogLevel string `yaml:"log_level"`         // Logging level ("debug", "info", "warn", "error").
	Command  string `yaml:"command,omitempty"` // A one-off command to execute instead of running the pipeline (e.g., "list").
	Run      bool   `yaml:"-"`                 // Run the live pipeline (set by the CLI root command).

	Audio     AudioConfig     `yaml:"audio"`     // Capture settings.
	Analysis  AnalysisConfig  `yaml:"analysis"`  // Spectral analysis settings.
	Recording RecordingConfig `yaml:"recording"` // Raw sample recording settings.
	Transport TransportConfig `yaml:"transport"` // Renderer-facing transport settings.
}

// AudioConfig holds settings for the capture side of the pipeline.
type AudioConfig struct {
	InputDevice     int     `yaml:"input_device"`      // PortAudio device index (-1 for system default).
	SampleRate      float64 `yaml:"sample_rate"`       // Sample rate in Hz; 0 negotiates the device default.
	FramesPerBuffer int     `yaml:"frames_per_buffer"` // Frames per hardware callback; 0 lets PortAudio choose.
	LowLatency      bool    `yaml:"low_latency"`       // Request the device's low-latency setting.
	QueueDepth      int     `yaml:"queue_depth"`       // Bounded capacity of the capture chunk queue.
}

// AnalysisConfig holds settings for windowing, transform, and smoothing.
type AnalysisConfig struct {
	WindowSize  int     `yaml:"window_size"`  // Samples per analysis window (power of 2).
	Window      string  `yaml:"window"`       // Window function name (e.g., "hann", "hamming").
	Smoothing   float64 `yaml:"smoothing"`    // Envelope EMA constant, 0 < a < 1.
	PeakHold    bool    `yaml:"peak_hold"`    // Let the envelope jump straight to new peaks.
	RefreshRate int     `yaml:"refresh_rate"` // Consumer processing cycles per second.
}

// RecordingConfig holds settings for recording captured samples to WAV.
type RecordingConfig struct {
	Enabled    bool   `yaml:"enabled"`     // Record drained samples to file.
	OutputFile string `yaml:"output_file"` // Output path; empty generates a timestamped name.
}

// TransportConfig holds settings for publishing spectra to external renderers.
type TransportConfig struct {
	WSEnabled        bool          `yaml:"ws_enabled"`         // Serve spectrum frames over WebSocket.
	WSAddr           string        `yaml:"ws_addr"`            // WebSocket listen address (e.g., ":8080").
	UDPEnabled       bool          `yaml:"udp_enabled"`        // Send binary spectrum packets over UDP.
	UDPTargetAddress string        `yaml:"udp_target_address"` // Target address for UDP packets (e.g., "127.0.0.1:9090").
	SendInterval     time.Duration `yaml:"send_interval"`      // Interval between published frames.
}

// SPDX-License-Identifier: MIT
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/zfurman56/live-spectrum/pkg/bitint"
)

// Load loads configuration from a YAML file specified by path. If path is
// empty, it searches default locations ("config.yaml"). If no file is found,
// it uses built-in defaults. After loading, it applies environment variable
// overrides and validates the final configuration.
func Load(path string) (*Config, error) {
	cfg := New()

	if path == "" {
		candidates := []string{
			"config.yaml",
			"live-spectrum.yaml",
		}
		found := false
		for _, candidate := range candidates {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				found = true
				break
			}
		}
		if !found {
			cfg.applyEnvOverrides()
			if err := cfg.Validate(); err != nil {
				return nil, fmt.Errorf("invalid default configuration: %w", err)
			}
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Environment overrides win over file values.
	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// New returns a Config populated with built-in defaults.
func New() *Config {
	return &Config{
		Debug:    false,
		LogLevel: "info",
		Audio: AudioConfig{
			InputDevice:     DefaultDeviceID,
			SampleRate:      DefaultSampleRate,
			FramesPerBuffer: DefaultFramesPerBuffer,
			LowLatency:      DefaultLowLatency,
			QueueDepth:      DefaultQueueDepth,
		},
		Analysis: AnalysisConfig{
			WindowSize:  DefaultWindowSize,
			Window:      DefaultWindowFunc,
			Smoothing:   DefaultSmoothing,
			PeakHold:    false,
			RefreshRate: DefaultRefreshRate,
		},
		Recording: RecordingConfig{
			Enabled:    false,
			OutputFile: "",
		},
		Transport: TransportConfig{
			WSEnabled:        false,
			WSAddr:           ":8080",
			UDPEnabled:       false,
			UDPTargetAddress: "127.0.0.1:9090",
			SendInterval:     33 * time.Millisecond, // ~30Hz
		},
	}
}

// Validate checks the configuration invariants that must hold before the
// pipeline is constructed. Violations here are fatal at startup.
func (c *Config) Validate() error {
	if !bitint.IsPowerOfTwo(c.Analysis.WindowSize) {
		return fmt.Errorf("analysis.window_size must be a power of 2, got %d (nearest valid size: %d)",
			c.Analysis.WindowSize, bitint.NextPowerOfTwo(c.Analysis.WindowSize))
	}
	if c.Analysis.WindowSize > MaxWindowSize {
		return fmt.Errorf("analysis.window_size %d exceeds maximum %d", c.Analysis.WindowSize, MaxWindowSize)
	}
	if c.Analysis.Smoothing <= 0 || c.Analysis.Smoothing >= 1 {
		return fmt.Errorf("analysis.smoothing must be in (0, 1), got %g", c.Analysis.Smoothing)
	}
	if c.Analysis.RefreshRate < 1 || c.Analysis.RefreshRate > MaxRefresh {
		return fmt.Errorf("analysis.refresh_rate must be in [1, %d], got %d", MaxRefresh, c.Analysis.RefreshRate)
	}
	if c.Audio.SampleRate != 0 && (c.Audio.SampleRate < MinSampleRate || c.Audio.SampleRate > MaxSampleRate) {
		return fmt.Errorf("audio.sample_rate must be 0 (device default) or in [%d, %d], got %g",
			MinSampleRate, MaxSampleRate, c.Audio.SampleRate)
	}
	if c.Audio.QueueDepth < 1 {
		return fmt.Errorf("audio.queue_depth must be positive, got %d", c.Audio.QueueDepth)
	}
	if c.Audio.FramesPerBuffer < 0 {
		return fmt.Errorf("audio.frames_per_buffer must be non-negative, got %d", c.Audio.FramesPerBuffer)
	}
	if c.Transport.SendInterval <= 0 {
		return fmt.Errorf("transport.send_interval must be positive, got %s", c.Transport.SendInterval)
	}
	return nil
}

// applyEnvOverrides applies SPECTRUM_* environment variables on top of the
// loaded configuration.
func (cfg *Config) applyEnvOverrides() {
	if val, ok := os.LookupEnv("SPECTRUM_DEBUG"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			cfg.Debug = bVal
		}
	}
	if val, ok := os.LookupEnv("SPECTRUM_LOG_LEVEL"); ok {
		cfg.LogLevel = val
	}
	if val, ok := os.LookupEnv("SPECTRUM_WS_ADDR"); ok {
		cfg.Transport.WSEnabled = true
		cfg.Transport.WSAddr = val
	}
	if val, ok := os.LookupEnv("SPECTRUM_UDP_TARGET"); ok {
		cfg.Transport.UDPEnabled = true
		cfg.Transport.UDPTargetAddress = val
	}
	if val, ok := os.LookupEnv("SPECTRUM_SEND_INTERVAL"); ok {
		if dur, err := time.ParseDuration(val); err == nil {
			cfg.Transport.SendInterval = dur
		}
	}
}

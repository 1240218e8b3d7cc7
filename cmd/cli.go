// SPDX-License-Identifier: MIT
// Package cmd defines the command-line interface. Flags layer on top of the
// YAML configuration: the loaded values become the flag defaults, so
// anything passed on the command line wins.
package cmd

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/zfurman56/live-spectrum/internal/config"
	"github.com/zfurman56/live-spectrum/pkg/build"
)

// ParseArgs binds CLI flags over the provided configuration and executes
// the command tree. After it returns, options.Run reports whether the live
// pipeline should start and options.Command names any one-off command.
func ParseArgs(options *config.Config) error {
	buildInfo := build.GetBuildFlags()

	rootCmd := &cobra.Command{
		Use:           buildInfo.Name,
		Short:         "Real-time microphone spectrum analyzer",
		Version:       buildInfo.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			options.Run = true
			return nil
		},
	}

	// Display help message
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	// List command
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List available audio input devices",
		Run: func(cmd *cobra.Command, args []string) {
			options.Command = "list"
			options.Run = false
		},
	}
	rootCmd.AddCommand(listCmd)

	// Audio Device Configuration
	rootCmd.PersistentFlags().IntVarP(&options.Audio.InputDevice, "device", "d", options.Audio.InputDevice,
		"Specify input device ID. Use 'list' command to see available devices.")
	rootCmd.PersistentFlags().Float64VarP(&options.Audio.SampleRate, "sample-rate", "s", options.Audio.SampleRate,
		"Sample rate in Hertz (Hz). 0 uses the device default.")
	rootCmd.PersistentFlags().IntVarP(&options.Audio.FramesPerBuffer, "frames-per-buffer", "b", options.Audio.FramesPerBuffer,
		"The number of frames per buffer (affects latency)")
	rootCmd.PersistentFlags().BoolVarP(&options.Audio.LowLatency, "low-latency", "l", options.Audio.LowLatency,
		"Use low latency mode for real-time processing")

	// Analysis Configuration
	rootCmd.PersistentFlags().IntVarP(&options.Analysis.WindowSize, "window-size", "n", options.Analysis.WindowSize,
		"Analysis window size in samples (must be a power of two)")
	rootCmd.PersistentFlags().StringVarP(&options.Analysis.Window, "window", "w", options.Analysis.Window,
		"Window function (hann, hamming, blackman, nuttall, lanczos)")
	rootCmd.PersistentFlags().Float64Var(&options.Analysis.Smoothing, "smoothing", options.Analysis.Smoothing,
		"Envelope smoothing constant, between 0 and 1 exclusive")
	rootCmd.PersistentFlags().BoolVar(&options.Analysis.PeakHold, "peak-hold", options.Analysis.PeakHold,
		"Let the envelope jump straight to new spectral peaks")
	rootCmd.PersistentFlags().IntVar(&options.Analysis.RefreshRate, "refresh", options.Analysis.RefreshRate,
		"Consumer processing cycles per second")

	// Recording Configuration
	rootCmd.PersistentFlags().BoolVarP(&options.Recording.Enabled, "record", "r", options.Recording.Enabled,
		"Record captured audio to a WAV file")
	rootCmd.PersistentFlags().StringVarP(&options.Recording.OutputFile, "output", "o", options.Recording.OutputFile,
		"Output file name. Default is recording-DD-MM-YYYY-HHMMSS.wav")

	// Transport Configuration
	rootCmd.PersistentFlags().BoolVar(&options.Transport.WSEnabled, "ws", options.Transport.WSEnabled,
		"Serve spectrum frames over WebSocket")
	rootCmd.PersistentFlags().StringVar(&options.Transport.WSAddr, "ws-addr", options.Transport.WSAddr,
		"WebSocket listen address")
	rootCmd.PersistentFlags().BoolVar(&options.Transport.UDPEnabled, "udp", options.Transport.UDPEnabled,
		"Send binary spectrum packets over UDP")
	rootCmd.PersistentFlags().StringVar(&options.Transport.UDPTargetAddress, "udp-target", options.Transport.UDPTargetAddress,
		"Target address for UDP spectrum packets")

	// Debug Configuration
	rootCmd.PersistentFlags().BoolVarP(&options.Debug, "verbose", "v", options.Debug,
		"Show verbose output")

	// Execute the CLI
	rootCmd.SetArgs(os.Args[1:])
	if err := rootCmd.Execute(); err != nil {
		return err
	}

	if options.Recording.Enabled && options.Recording.OutputFile == "" {
		options.Recording.OutputFile = "recording-" +
			time.Now().UTC().Format("02-01-2006-150405") + ".wav"
	}

	return nil
}

// SPDX-License-Identifier: MIT
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"audiovis/internal/config"
	"audiovis/pkg/build"
)

// flagValues holds raw CLI flag state before it is layered over the loaded
// configuration. Only flags the user actually set override the file.
type flagValues struct {
	configPath string
	verbose    bool

	sampleRate      float64
	framesPerBuffer int
	channels        int
	wavFile         string

	fftSize int
	window  string

	bands     int
	smoothing float64
	peakDecay float64
	linear    bool
	frameRate int

	wsAddr       string
	udpAddr      string
	logSnapshots bool
}

// ParseArgs parses the command line and returns the resolved configuration:
// built-in defaults, then the YAML file, then environment overrides, then
// explicitly set flags. Returns (nil, nil) when cobra handled the
// invocation itself (--help, --version).
func ParseArgs() (*config.Config, error) {
	info := build.Get()

	var (
		flags flagValues
		cfg   *config.Config
	)

	rootCmd := &cobra.Command{
		Use:           info.Name,
		Short:         "Real-time audio spectrum analyzer",
		Version:       info.String(),
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load(flags.configPath)
			if err != nil {
				return err
			}
			applyFlags(cmd, &flags, loaded)
			if err := loaded.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			cfg = loaded
			return nil
		},
	}

	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	rootCmd.PersistentFlags().StringVar(&flags.configPath, "config", "",
		"Path to a YAML config file (default audiovis.yaml if present)")
	rootCmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false,
		"Show verbose output")

	// Capture
	rootCmd.PersistentFlags().Float64VarP(&flags.sampleRate, "sample-rate", "s", config.DefaultSampleRate,
		"Sample rate, measured in Hertz (Hz)")
	rootCmd.PersistentFlags().IntVarP(&flags.framesPerBuffer, "frames-per-buffer", "b", config.DefaultFramesPerBuffer,
		"The number of frames per buffer (affects latency)")
	rootCmd.PersistentFlags().IntVarP(&flags.channels, "channels", "c", config.DefaultChannels,
		"Number of capture channels (channel 0 feeds the analyzer)")
	rootCmd.PersistentFlags().StringVar(&flags.wavFile, "wav", "",
		"Analyze a WAV file instead of a capture device")

	// Transform
	rootCmd.PersistentFlags().IntVar(&flags.fftSize, "fft-size", config.DefaultFFTSize,
		"FFT size in samples (power of two)")
	rootCmd.PersistentFlags().StringVarP(&flags.window, "window", "w", config.DefaultWindow,
		"Window function: Rectangular, Hann, Hamming, Blackman, FlatTop")

	// Analyzer
	rootCmd.PersistentFlags().IntVarP(&flags.bands, "bands", "n", config.DefaultBands,
		"Number of spectrum bands")
	rootCmd.PersistentFlags().Float64Var(&flags.smoothing, "smoothing", config.DefaultSmoothing,
		"Temporal smoothing factor [0,1); higher is smoother")
	rootCmd.PersistentFlags().Float64Var(&flags.peakDecay, "peak-decay", config.DefaultPeakDecay,
		"Peak hold decay per frame (0,1); higher holds longer")
	rootCmd.PersistentFlags().BoolVar(&flags.linear, "linear", false,
		"Use linear band spacing instead of logarithmic")
	rootCmd.PersistentFlags().IntVar(&flags.frameRate, "frame-rate", config.DefaultFrameRate,
		"Analysis frames per second")

	// Transports
	rootCmd.PersistentFlags().StringVar(&flags.wsAddr, "ws", "",
		"Serve spectrum snapshots over WebSocket on this address (e.g. :8080)")
	rootCmd.PersistentFlags().StringVar(&flags.udpAddr, "udp", "",
		"Send spectrum snapshots as UDP packets to this address")
	rootCmd.PersistentFlags().BoolVar(&flags.logSnapshots, "log-snapshots", false,
		"Log each snapshot at debug level")

	rootCmd.SetArgs(os.Args[1:])
	if err := rootCmd.Execute(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyFlags copies explicitly set flags onto the loaded configuration.
func applyFlags(cmd *cobra.Command, flags *flagValues, cfg *config.Config) {
	set := cmd.Flags().Changed

	if flags.verbose {
		cfg.Debug = true
		cfg.LogLevel = "debug"
	}

	if set("sample-rate") {
		cfg.Audio.SampleRate = flags.sampleRate
	}
	if set("frames-per-buffer") {
		cfg.Audio.FramesPerBuffer = flags.framesPerBuffer
	}
	if set("channels") {
		cfg.Audio.Channels = flags.channels
	}
	if set("wav") {
		cfg.Audio.WAVFile = flags.wavFile
	}

	if set("fft-size") {
		cfg.FFT.Size = flags.fftSize
	}
	if set("window") {
		cfg.FFT.Window = flags.window
	}

	if set("bands") {
		cfg.Analyzer.Bands = flags.bands
	}
	if set("smoothing") {
		cfg.Analyzer.Smoothing = flags.smoothing
	}
	if set("peak-decay") {
		cfg.Analyzer.PeakDecay = flags.peakDecay
	}
	if set("linear") {
		cfg.Analyzer.LogFrequency = !flags.linear
	}
	if set("frame-rate") {
		cfg.Analyzer.FrameRate = flags.frameRate
	}

	if set("ws") {
		cfg.Transport.WebSocketEnabled = true
		cfg.Transport.WebSocketAddr = flags.wsAddr
	}
	if set("udp") {
		cfg.Transport.UDPEnabled = true
		cfg.Transport.UDPTargetAddress = flags.udpAddr
	}
	if set("log-snapshots") {
		cfg.Transport.LogSnapshots = true
	}
}

package config

// Default values and limits for the visualizer pipeline.
const (
	DefaultSampleRate      = 48000 // Hz
	DefaultFramesPerBuffer = 256   // Frames per capture callback
	DefaultChannels        = 1     // Mono capture for visualization
	DefaultRingSeconds     = 0.5   // History held between capture and analysis

	DefaultFFTSize   = 2048
	DefaultWindow    = "Hann"
	DefaultDBFloor   = -80.0
	DefaultDBCeiling = 0.0

	DefaultBands        = 64
	DefaultMinFrequency = 20.0
	DefaultMaxFrequency = 20000.0
	DefaultSmoothing    = 0.7
	DefaultPeakDecay    = 0.95
	DefaultFrameRate    = 60 // Analysis ticks per second

	MinSampleRate = 8000   // Minimum usable sample rate (Hz)
	MaxSampleRate = 192000 // Maximum supported sample rate (Hz)
)

// Config is the full runtime configuration, loaded from YAML and/or CLI flags.
type Config struct {
	Debug    bool   `yaml:"debug"`
	LogLevel string `yaml:"log_level"`

	Audio     AudioConfig     `yaml:"audio"`
	FFT       FFTConfig       `yaml:"fft"`
	Analyzer  AnalyzerConfig  `yaml:"analyzer"`
	Transport TransportConfig `yaml:"transport"`
}

// AudioConfig holds capture-side settings.
type AudioConfig struct {
	SampleRate      float64 `yaml:"sample_rate"`       // Sample rate in Hz
	FramesPerBuffer int     `yaml:"frames_per_buffer"` // Frames per capture callback
	Channels        int     `yaml:"channels"`          // Capture channels (downmixed to mono)
	RingSeconds     float64 `yaml:"ring_seconds"`      // Sample history buffer duration
	WAVFile         string  `yaml:"wav_file"`          // Optional WAV input instead of a device
}

// FFTConfig holds spectral transform settings.
type FFTConfig struct {
	Size      int     `yaml:"size"`       // Power-of-two transform size
	Window    string  `yaml:"window"`     // Window kind name (e.g. "Hann")
	UseDB     bool    `yaml:"use_db"`     // Normalized decibel output
	DBFloor   float64 `yaml:"db_floor"`   // Noise floor in dB
	DBCeiling float64 `yaml:"db_ceiling"` // Full scale in dB
}

// AnalyzerConfig holds band layout and temporal settings.
type AnalyzerConfig struct {
	Bands        int     `yaml:"bands"`
	MinFrequency float64 `yaml:"min_frequency"`
	MaxFrequency float64 `yaml:"max_frequency"`
	Smoothing    float64 `yaml:"smoothing"`  // EMA factor in [0,1)
	PeakDecay    float64 `yaml:"peak_decay"` // Peak falloff per tick in (0,1)
	LogFrequency bool    `yaml:"log_frequency"`
	FrameRate    int     `yaml:"frame_rate"` // Ticks per second
}

// TransportConfig controls where snapshots are published.
type TransportConfig struct {
	WebSocketEnabled bool   `yaml:"websocket_enabled"`
	WebSocketAddr    string `yaml:"websocket_addr"` // e.g. ":8080"
	UDPEnabled       bool   `yaml:"udp_enabled"`
	UDPTargetAddress string `yaml:"udp_target_address"` // e.g. "127.0.0.1:9090"
	LogSnapshots     bool   `yaml:"log_snapshots"`      // Debug transport to the logger
}

// NewConfig returns a Config populated with defaults, used as the base
// before applying a config file, environment overrides, and CLI flags.
func NewConfig() *Config {
	return &Config{
		Debug:    false,
		LogLevel: "info",
		Audio: AudioConfig{
			SampleRate:      DefaultSampleRate,
			FramesPerBuffer: DefaultFramesPerBuffer,
			Channels:        DefaultChannels,
			RingSeconds:     DefaultRingSeconds,
		},
		FFT: FFTConfig{
			Size:      DefaultFFTSize,
			Window:    DefaultWindow,
			UseDB:     true,
			DBFloor:   DefaultDBFloor,
			DBCeiling: DefaultDBCeiling,
		},
		Analyzer: AnalyzerConfig{
			Bands:        DefaultBands,
			MinFrequency: DefaultMinFrequency,
			MaxFrequency: DefaultMaxFrequency,
			Smoothing:    DefaultSmoothing,
			PeakDecay:    DefaultPeakDecay,
			LogFrequency: true,
			FrameRate:    DefaultFrameRate,
		},
		Transport: TransportConfig{
			WebSocketEnabled: false,
			WebSocketAddr:    ":8080",
			UDPEnabled:       false,
			UDPTargetAddress: "127.0.0.1:9090",
			LogSnapshots:     false,
		},
	}
}

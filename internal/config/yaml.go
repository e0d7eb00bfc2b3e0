// SPDX-License-Identifier: MIT
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"audiovis/pkg/bitint"
)

// Load reads configuration from a YAML file. If path is empty it looks for
// "audiovis.yaml" in the working directory and falls back to built-in
// defaults when no file exists. Environment overrides are applied after the
// file, and the result is validated.
func Load(path string) (*Config, error) {
	cfg := NewConfig()

	if path == "" {
		if _, err := os.Stat("audiovis.yaml"); err == nil {
			path = "audiovis.yaml"
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// applyEnvOverrides layers AUDIOVIS_* environment variables over the
// current values. Unparseable values are ignored rather than fatal.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("AUDIOVIS_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("AUDIOVIS_SAMPLE_RATE"); v != "" {
		if rate, err := strconv.ParseFloat(v, 64); err == nil {
			c.Audio.SampleRate = rate
		}
	}
	if v := os.Getenv("AUDIOVIS_WS_ADDR"); v != "" {
		c.Transport.WebSocketAddr = v
		c.Transport.WebSocketEnabled = true
	}
}

// Validate checks ranges that would otherwise fail deep inside the pipeline.
func (c *Config) Validate() error {
	if c.Audio.SampleRate < MinSampleRate || c.Audio.SampleRate > MaxSampleRate {
		return fmt.Errorf("audio.sample_rate %.0f outside [%d, %d]",
			c.Audio.SampleRate, MinSampleRate, MaxSampleRate)
	}
	if c.Audio.FramesPerBuffer < 1 {
		return fmt.Errorf("audio.frames_per_buffer must be positive, got %d", c.Audio.FramesPerBuffer)
	}
	if c.Audio.RingSeconds <= 0 {
		return fmt.Errorf("audio.ring_seconds must be positive, got %f", c.Audio.RingSeconds)
	}
	if c.FFT.Size < 2 || !bitint.IsPowerOfTwo(c.FFT.Size) {
		return fmt.Errorf("fft.size must be a power of 2 >= 2, got %d", c.FFT.Size)
	}
	if c.FFT.UseDB && c.FFT.DBFloor >= c.FFT.DBCeiling {
		return fmt.Errorf("fft.db_floor (%.1f) must be below fft.db_ceiling (%.1f)",
			c.FFT.DBFloor, c.FFT.DBCeiling)
	}
	if c.Analyzer.Bands < 1 {
		return fmt.Errorf("analyzer.bands must be >= 1, got %d", c.Analyzer.Bands)
	}
	if c.Analyzer.MinFrequency <= 0 || c.Analyzer.MinFrequency >= c.Analyzer.MaxFrequency {
		return fmt.Errorf("analyzer frequency range [%.1f, %.1f] is invalid",
			c.Analyzer.MinFrequency, c.Analyzer.MaxFrequency)
	}
	if c.Analyzer.Smoothing < 0 || c.Analyzer.Smoothing >= 1 {
		return fmt.Errorf("analyzer.smoothing must be in [0,1), got %f", c.Analyzer.Smoothing)
	}
	if c.Analyzer.PeakDecay <= 0 || c.Analyzer.PeakDecay >= 1 {
		return fmt.Errorf("analyzer.peak_decay must be in (0,1), got %f", c.Analyzer.PeakDecay)
	}
	if c.Analyzer.FrameRate < 1 {
		return fmt.Errorf("analyzer.frame_rate must be >= 1, got %d", c.Analyzer.FrameRate)
	}
	return nil
}

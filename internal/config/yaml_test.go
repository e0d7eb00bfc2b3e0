// SPDX-License-Identifier: MIT
package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load with defaults: %v", err)
	}
	if cfg.Audio.SampleRate != DefaultSampleRate {
		t.Errorf("SampleRate = %f, expected %d", cfg.Audio.SampleRate, DefaultSampleRate)
	}
	if cfg.FFT.Size != DefaultFFTSize {
		t.Errorf("FFT.Size = %d, expected %d", cfg.FFT.Size, DefaultFFTSize)
	}
	if cfg.Analyzer.Bands != DefaultBands {
		t.Errorf("Bands = %d, expected %d", cfg.Analyzer.Bands, DefaultBands)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.yaml")
	body := `
log_level: debug
audio:
  sample_rate: 44100
fft:
  size: 4096
  window: Blackman
analyzer:
  bands: 32
  log_frequency: false
transport:
  websocket_enabled: true
  websocket_addr: ":9000"
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Audio.SampleRate != 44100 {
		t.Errorf("SampleRate = %f, expected 44100", cfg.Audio.SampleRate)
	}
	if cfg.FFT.Size != 4096 || cfg.FFT.Window != "Blackman" {
		t.Errorf("FFT = %+v, expected size 4096 window Blackman", cfg.FFT)
	}
	if cfg.Analyzer.Bands != 32 || cfg.Analyzer.LogFrequency {
		t.Errorf("Analyzer = %+v, expected 32 linear bands", cfg.Analyzer)
	}
	if !cfg.Transport.WebSocketEnabled || cfg.Transport.WebSocketAddr != ":9000" {
		t.Errorf("Transport = %+v", cfg.Transport)
	}

	// Unset fields keep their defaults.
	if cfg.Analyzer.FrameRate != DefaultFrameRate {
		t.Errorf("FrameRate = %d, expected default %d", cfg.Analyzer.FrameRate, DefaultFrameRate)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad fft size", "fft:\n  size: 1000\n"},
		{"bad sample rate", "audio:\n  sample_rate: 100\n"},
		{"inverted db range", "fft:\n  db_floor: 0\n  db_ceiling: -80\n"},
		{"zero bands", "analyzer:\n  bands: 0\n"},
		{"smoothing out of range", "analyzer:\n  smoothing: 1.5\n"},
		{"not yaml", "{{{{\n"},
	}

	dir := t.TempDir()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, "bad.yaml")
			if err := os.WriteFile(path, []byte(tt.body), 0o644); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}

	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for missing explicit path")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("AUDIOVIS_SAMPLE_RATE", "96000")
	t.Setenv("AUDIOVIS_LOG_LEVEL", "debug")
	t.Setenv("AUDIOVIS_WS_ADDR", ":7777")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Audio.SampleRate != 96000 {
		t.Errorf("SampleRate = %f, expected env override 96000", cfg.Audio.SampleRate)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, expected debug", cfg.LogLevel)
	}
	if !cfg.Transport.WebSocketEnabled || cfg.Transport.WebSocketAddr != ":7777" {
		t.Errorf("Transport = %+v, expected websocket on :7777", cfg.Transport)
	}
}

// SPDX-License-Identifier: MIT
package dsp

import (
	"math"
	"testing"

	"audiovis/pkg/testsig"
)

const (
	testFFTSize    = 1024
	testSampleRate = 48000.0
)

func linearConfig() Config {
	return Config{Size: testFFTSize, Window: Hann, UseDB: false}
}

func newTestProcessor(t *testing.T, cfg Config) *FFTProcessor {
	t.Helper()
	p, err := NewFFTProcessor(cfg, testSampleRate)
	if err != nil {
		t.Fatalf("NewFFTProcessor: %v", err)
	}
	return p
}

func TestInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"size not power of two", Config{Size: 1000, Window: Hann}},
		{"size too small", Config{Size: 1, Window: Hann}},
		{"size zero", Config{Size: 0, Window: Hann}},
		{"db floor above ceiling", Config{Size: 512, Window: Hann, UseDB: true, DBFloor: 0, DBCeiling: -80}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewFFTProcessor(tt.cfg, testSampleRate); err == nil {
				t.Error("expected configuration error, got nil")
			}
		})
	}

	if _, err := NewFFTProcessor(linearConfig(), 0); err == nil {
		t.Error("expected error for zero sample rate")
	}
}

func TestOutputBufferTooSmall(t *testing.T) {
	p := newTestProcessor(t, linearConfig())
	samples := testsig.Sine(testFFTSize, testSampleRate, 1000)

	out := make([]float64, p.BinCount()-1)
	if _, err := p.Compute(samples, out); err == nil {
		t.Error("expected bounds error for short output buffer")
	}
}

// TestSinePeakLocalization checks that a pure 1 kHz tone lands within one bin
// of 1000*1024/48000 ≈ 21.3.
func TestSinePeakLocalization(t *testing.T) {
	p := newTestProcessor(t, linearConfig())
	samples := testsig.Sine(testFFTSize, testSampleRate, 1000)

	out := make([]float64, p.BinCount())
	n, err := p.Compute(samples, out)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if n != p.BinCount() {
		t.Fatalf("Compute wrote %d bins, expected %d", n, p.BinCount())
	}

	expectedBin := p.FrequencyToBin(1000)
	peakBin := testsig.FindPeakBin(out, 0, len(out)-1)
	if diff := peakBin - expectedBin; diff < -1 || diff > 1 {
		t.Errorf("peak at bin %d, expected %d ±1", peakBin, expectedBin)
	}
}

func TestBinFrequencyRoundTrip(t *testing.T) {
	p := newTestProcessor(t, linearConfig())

	binWidth := testSampleRate / float64(testFFTSize)
	for _, freq := range []float64{0, 46.875, 100, 440, 1000, 5000, 12000, testSampleRate / 2} {
		got := p.BinToFrequency(p.FrequencyToBin(freq))
		if math.Abs(got-freq) > binWidth {
			t.Errorf("round trip for %.1f Hz gave %.1f Hz, off by more than one bin (%.2f Hz)",
				freq, got, binWidth)
		}
	}
}

func TestFrequencyToBinClamped(t *testing.T) {
	p := newTestProcessor(t, linearConfig())

	if bin := p.FrequencyToBin(-500); bin != 0 {
		t.Errorf("negative frequency mapped to bin %d, expected 0", bin)
	}
	if bin := p.FrequencyToBin(testSampleRate); bin != p.BinCount()-1 {
		t.Errorf("above-Nyquist frequency mapped to bin %d, expected %d", bin, p.BinCount()-1)
	}
}

func TestDecibelClamping(t *testing.T) {
	cfg := Config{Size: testFFTSize, Window: Hann, UseDB: true, DBFloor: -80, DBCeiling: 0}
	p := newTestProcessor(t, cfg)
	out := make([]float64, p.BinCount())

	// Silence pins every bin to the floor.
	silence := make([]float64, testFFTSize)
	if _, err := p.Compute(silence, out); err != nil {
		t.Fatalf("Compute: %v", err)
	}
	for i, v := range out {
		if v > 0.01 {
			t.Fatalf("silent bin %d = %f, expected ~0", i, v)
		}
	}

	// A full-scale tone pushes its bin well up the normalized range.
	sine := testsig.Sine(testFFTSize, testSampleRate, 1000)
	if _, err := p.Compute(sine, out); err != nil {
		t.Fatalf("Compute: %v", err)
	}
	peak := out[testsig.FindPeakBin(out, 0, len(out)-1)]
	if peak <= 0.8 {
		t.Errorf("full-scale sine peak bin = %f, expected > 0.8", peak)
	}
	for i, v := range out {
		if v < 0 || v > 1 {
			t.Errorf("bin %d = %f outside [0, 1]", i, v)
		}
	}
}

// TestLeakageOrdering verifies that a Hann window leaks less energy outside a
// ±3-bin peak neighborhood than no window at all, for an off-bin-center tone.
func TestLeakageOrdering(t *testing.T) {
	// Frequency deliberately between bin centers.
	freq := 21.5 * testSampleRate / testFFTSize
	samples := testsig.Sine(testFFTSize, testSampleRate, freq)

	leakage := func(window Window) float64 {
		p := newTestProcessor(t, Config{Size: testFFTSize, Window: window})
		out := make([]float64, p.BinCount())
		if _, err := p.Compute(samples, out); err != nil {
			t.Fatalf("Compute: %v", err)
		}
		peak := testsig.FindPeakBin(out, 0, len(out)-1)
		sum := 0.0
		for i, v := range out {
			if i < peak-3 || i > peak+3 {
				sum += v
			}
		}
		return sum
	}

	hann := leakage(Hann)
	rect := leakage(Rectangular)
	if hann >= rect {
		t.Errorf("Hann leakage %f not below Rectangular leakage %f", hann, rect)
	}
}

func TestZeroPaddingLeftAligned(t *testing.T) {
	p := newTestProcessor(t, linearConfig())
	out := make([]float64, p.BinCount())
	short := testsig.Sine(testFFTSize/2, testSampleRate, 1000)

	n, err := p.Compute(short, out)
	if err != nil {
		t.Fatalf("Compute with short input: %v", err)
	}
	if n != p.BinCount() {
		t.Fatalf("Compute wrote %d bins, expected %d", n, p.BinCount())
	}

	// Half the energy is missing but the peak should stay at the tone.
	expectedBin := p.FrequencyToBin(1000)
	peakBin := testsig.FindPeakBin(out, 1, len(out)-1)
	if diff := peakBin - expectedBin; diff < -1 || diff > 1 {
		t.Errorf("peak at bin %d with zero-padded input, expected %d ±1", peakBin, expectedBin)
	}
}

func TestSetConfig(t *testing.T) {
	p := newTestProcessor(t, linearConfig())

	// Window-only change keeps the size and buffers.
	cfg := p.Config()
	cfg.Window = Blackman
	if err := p.SetConfig(cfg); err != nil {
		t.Fatalf("SetConfig window change: %v", err)
	}
	if p.Size() != testFFTSize {
		t.Errorf("Size() = %d after window change, expected %d", p.Size(), testFFTSize)
	}

	// Size change reallocates and updates the bin count.
	cfg.Size = 512
	if err := p.SetConfig(cfg); err != nil {
		t.Fatalf("SetConfig size change: %v", err)
	}
	if p.BinCount() != 257 {
		t.Errorf("BinCount() = %d after resize, expected 257", p.BinCount())
	}
	out := make([]float64, p.BinCount())
	if _, err := p.Compute(testsig.Sine(512, testSampleRate, 1000), out); err != nil {
		t.Errorf("Compute after resize: %v", err)
	}

	// Invalid reconfiguration is rejected and leaves state untouched.
	bad := cfg
	bad.Size = 500
	if err := p.SetConfig(bad); err == nil {
		t.Error("expected error for non-power-of-two resize")
	}
	if p.Size() != 512 {
		t.Errorf("Size() = %d after rejected resize, expected 512", p.Size())
	}
}

func TestComputeHotPath(t *testing.T) {
	p := newTestProcessor(t, linearConfig())
	samples := testsig.Harmonics(testFFTSize, testSampleRate)
	out := make([]float64, p.BinCount())

	// Warm-up call so one-time setup does not count.
	if _, err := p.Compute(samples, out); err != nil {
		t.Fatalf("Compute: %v", err)
	}
	allocs := testing.AllocsPerRun(100, func() {
		_, _ = p.Compute(samples, out)
	})
	if allocs > 0 {
		t.Errorf("Expected zero allocations in Compute hot path, got %.1f", allocs)
	}
}

func BenchmarkCompute(b *testing.B) {
	p, err := NewFFTProcessor(DefaultConfig(), testSampleRate)
	if err != nil {
		b.Fatal(err)
	}
	samples := testsig.Harmonics(p.Size(), testSampleRate)
	out := make([]float64, p.BinCount())

	b.ReportAllocs()
	for b.Loop() {
		_, _ = p.Compute(samples, out)
	}
}

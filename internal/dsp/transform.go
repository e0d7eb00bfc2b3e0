// SPDX-License-Identifier: MIT
/*
Package dsp turns raw sample windows into display-ready frequency data.

The heavy lifting (the forward real FFT) is delegated to gonum's fourier
package; this package owns everything around it: window tables, magnitude
scaling, decibel mapping, and the partition of bins into display bands.
All buffers are pre-allocated so the per-frame Compute path does not
allocate.
*/
package dsp

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/dsp/fourier"

	"audiovis/pkg/bitint"
)

// dbEpsilon keeps 20*log10 finite for silent bins.
const dbEpsilon = 1e-10

// Transform is the capability the analyzer depends on: consume up to Size
// recent samples, produce BinCount magnitudes. Concrete FFT bindings live
// behind it so tests can substitute their own.
type Transform interface {
	// Compute writes exactly BinCount magnitude values into out and returns
	// the count. Inputs shorter than Size are treated as silence on the
	// left; out must have capacity for BinCount values.
	Compute(samples, out []float64) (int, error)

	Size() int
	BinCount() int
	BinToFrequency(bin int) float64
	FrequencyToBin(freq float64) int
}

// Config controls the spectral transform and its post-processing.
type Config struct {
	Size      int     // FFT size N, power of two >= 2
	Window    Window  // Analysis window kind
	UseDB     bool    // Output normalized decibels instead of linear magnitude
	DBFloor   float64 // Clamp floor in dB (maps to 0.0)
	DBCeiling float64 // Clamp ceiling in dB (maps to 1.0)
}

// DefaultConfig returns the transform settings used when nothing is
// configured: 2048-point Hann analysis normalized over an 80 dB range.
func DefaultConfig() Config {
	return Config{
		Size:      2048,
		Window:    Hann,
		UseDB:     true,
		DBFloor:   -80.0,
		DBCeiling: 0.0,
	}
}

func (c Config) validate() error {
	if c.Size < 2 || !bitint.IsPowerOfTwo(c.Size) {
		return fmt.Errorf("fft size must be a power of 2 >= 2, got %d", c.Size)
	}
	if c.UseDB && c.DBFloor >= c.DBCeiling {
		return fmt.Errorf("db floor (%.1f) must be below ceiling (%.1f)", c.DBFloor, c.DBCeiling)
	}
	return nil
}

// FFTProcessor computes magnitude spectra from sample windows. It is not
// safe for concurrent use; the analyzer drives it from a single goroutine.
type FFTProcessor struct {
	cfg        Config
	sampleRate float64

	fft    *fourier.FFT
	window []float64

	input  []float64    // windowed input, length Size
	coeffs []complex128 // FFT output, length BinCount
}

var _ Transform = (*FFTProcessor)(nil)

// NewFFTProcessor creates a processor for the given configuration and sample
// rate. Fails fast on an invalid size; never silently rounds.
func NewFFTProcessor(cfg Config, sampleRate float64) (*FFTProcessor, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %f", sampleRate)
	}

	p := &FFTProcessor{
		cfg:        cfg,
		sampleRate: sampleRate,
	}
	p.allocate()
	return p, nil
}

// allocate sizes the scratch buffers and window table for the current config.
func (p *FFTProcessor) allocate() {
	p.fft = fourier.NewFFT(p.cfg.Size)
	p.input = make([]float64, p.cfg.Size)
	p.coeffs = make([]complex128, p.cfg.Size/2+1)
	p.window = makeWindow(p.cfg.Size, p.cfg.Window)
}

// Size returns the FFT size N.
func (p *FFTProcessor) Size() int { return p.cfg.Size }

// BinCount returns the number of output magnitude bins (N/2 + 1).
func (p *FFTProcessor) BinCount() int { return p.cfg.Size/2 + 1 }

// Config returns the current configuration.
func (p *FFTProcessor) Config() Config { return p.cfg }

// SetConfig applies a new configuration. A size change reallocates the
// scratch buffers and window table; a window-kind change recomputes the
// table alone; output-mode changes take effect on the next Compute.
func (p *FFTProcessor) SetConfig(cfg Config) error {
	if err := cfg.validate(); err != nil {
		return err
	}

	sizeChanged := cfg.Size != p.cfg.Size
	windowChanged := cfg.Window != p.cfg.Window
	p.cfg = cfg

	if sizeChanged {
		p.allocate()
	} else if windowChanged {
		p.window = makeWindow(p.cfg.Size, p.cfg.Window)
	}
	return nil
}

// Compute fills out with the magnitude spectrum of the most recent Size
// samples. Shorter inputs are right-aligned against the window and
// zero-padded on the left, treating the missing history as silence. Inputs
// longer than Size use only the trailing Size samples.
func (p *FFTProcessor) Compute(samples, out []float64) (int, error) {
	numBins := p.BinCount()
	if len(out) < numBins {
		return 0, fmt.Errorf("output buffer too small: %d < %d bins", len(out), numBins)
	}

	n := p.cfg.Size
	copyCount := len(samples)
	if copyCount > n {
		samples = samples[copyCount-n:]
		copyCount = n
	}
	offset := n - copyCount

	for i := range offset {
		p.input[i] = 0
	}
	for i := range copyCount {
		p.input[offset+i] = samples[i] * p.window[offset+i]
	}

	p.fft.Coefficients(p.coeffs, p.input)

	scale := 2.0 / float64(n)
	for i := range numBins {
		re := real(p.coeffs[i])
		im := imag(p.coeffs[i])
		mag := math.Sqrt(re*re+im*im) * scale

		// DC and Nyquist have no mirrored counterpart, so no doubling.
		if i == 0 || i == numBins-1 {
			mag *= 0.5
		}

		if p.cfg.UseDB {
			db := 20 * math.Log10(mag+dbEpsilon)
			if db < p.cfg.DBFloor {
				db = p.cfg.DBFloor
			} else if db > p.cfg.DBCeiling {
				db = p.cfg.DBCeiling
			}
			out[i] = (db - p.cfg.DBFloor) / (p.cfg.DBCeiling - p.cfg.DBFloor)
		} else {
			out[i] = mag
		}
	}

	return numBins, nil
}

// BinToFrequency returns the center frequency (Hz) of a bin index.
func (p *FFTProcessor) BinToFrequency(bin int) float64 {
	return float64(bin) * p.sampleRate / float64(p.cfg.Size)
}

// FrequencyToBin returns the bin index nearest the given frequency, clamped
// into [0, BinCount-1]. Note this rounds, unlike the band partition's
// truncating mapping; band edges depend on keeping the two distinct.
func (p *FFTProcessor) FrequencyToBin(freq float64) int {
	bin := int(math.Round(freq * float64(p.cfg.Size) / p.sampleRate))
	if bin < 0 {
		bin = 0
	}
	if maxBin := p.BinCount() - 1; bin > maxBin {
		bin = maxBin
	}
	return bin
}

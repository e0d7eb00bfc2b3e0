// SPDX-License-Identifier: MIT
/*
Package analyzer drives the per-frame analysis pipeline: drain the capture
ring, run the spectral transform, fold bins into display bands, and apply
temporal smoothing and peak-hold decay.

Tick runs synchronously end to end and must be serialized by the caller's
frame loop; the analyzer itself holds no locks and starts no goroutines.
*/
package analyzer

import (
	"fmt"
	"math"
	"time"

	"audiovis/internal/dsp"
	applog "audiovis/internal/log"
	"audiovis/pkg/ring"
)

// Config controls band layout and temporal behavior.
type Config struct {
	NumBands        int     // Number of display bands
	MinFrequency    float64 // Lowest frequency of interest (Hz)
	MaxFrequency    float64 // Highest frequency of interest (Hz)
	SmoothingFactor float64 // EMA factor k in [0,1): 0 = raw, near 1 = frozen
	PeakDecayRate   float64 // Per-tick multiplicative peak falloff in (0,1)
	LogFrequency    bool    // Log-spaced bands instead of linear bin ranges
}

// DefaultConfig returns the analyzer settings used when nothing is
// configured: 64 log-spaced bands over the audible range.
func DefaultConfig() Config {
	return Config{
		NumBands:        64,
		MinFrequency:    20,
		MaxFrequency:    20000,
		SmoothingFactor: 0.7,
		PeakDecayRate:   0.95,
		LogFrequency:    true,
	}
}

func (c Config) validate() error {
	if c.NumBands < 1 {
		return fmt.Errorf("band count must be >= 1, got %d", c.NumBands)
	}
	if c.MinFrequency <= 0 || c.MinFrequency >= c.MaxFrequency {
		return fmt.Errorf("frequency range [%.1f, %.1f] is invalid", c.MinFrequency, c.MaxFrequency)
	}
	if c.SmoothingFactor < 0 || c.SmoothingFactor >= 1 {
		return fmt.Errorf("smoothing factor must be in [0,1), got %f", c.SmoothingFactor)
	}
	if c.PeakDecayRate <= 0 || c.PeakDecayRate >= 1 {
		return fmt.Errorf("peak decay rate must be in (0,1), got %f", c.PeakDecayRate)
	}
	return nil
}

// Snapshot is one frame of analysis output. It is self-contained: the slices
// are freshly allocated per tick and may be retained by the consumer.
type Snapshot struct {
	Magnitudes []float64 `json:"magnitudes"` // Smoothed per-band values
	Peaks      []float64 `json:"peaks"`      // Peak-hold per-band values
	RMS        float64   `json:"rms"`        // Loudness proxy over the window
	Peak       float64   `json:"peak"`       // Max absolute sample in the window
	Timestamp  time.Time `json:"timestamp"`
}

// Analyzer owns the smoothed and peak-hold state. Only Tick mutates it.
type Analyzer struct {
	cfg        Config
	transform  dsp.Transform
	queue      *ring.Buffer[float32]
	sampleRate float64

	bands    []dsp.Band
	smoothed []float64
	peaks    []float64

	samples    []float32 // peek target
	window     []float64 // float64 view handed to the transform
	magnitudes []float64 // per-bin transform output
}

// New builds an analyzer reading from queue and transforming via transform.
func New(queue *ring.Buffer[float32], transform dsp.Transform, sampleRate float64, cfg Config) (*Analyzer, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if queue == nil || transform == nil {
		return nil, fmt.Errorf("analyzer requires a queue and a transform")
	}

	a := &Analyzer{
		cfg:        cfg,
		transform:  transform,
		queue:      queue,
		sampleRate: sampleRate,
		smoothed:   make([]float64, cfg.NumBands),
		peaks:      make([]float64, cfg.NumBands),
	}
	a.syncTransform()
	return a, nil
}

// Config returns the current analyzer configuration.
func (a *Analyzer) Config() Config { return a.cfg }

// Bands returns the current bin partition. The slice is shared; callers must
// not modify it.
func (a *Analyzer) Bands() []dsp.Band { return a.bands }

// SetConfig applies new settings. Changing the band count, frequency range,
// or spacing mode recomputes the partition immediately and resizes the
// smoothed/peak state, zero-filling any new bands.
func (a *Analyzer) SetConfig(cfg Config) error {
	if err := cfg.validate(); err != nil {
		return err
	}

	layoutChanged := cfg.NumBands != a.cfg.NumBands ||
		cfg.MinFrequency != a.cfg.MinFrequency ||
		cfg.MaxFrequency != a.cfg.MaxFrequency ||
		cfg.LogFrequency != a.cfg.LogFrequency
	a.cfg = cfg

	if layoutChanged {
		a.smoothed = resizeState(a.smoothed, cfg.NumBands)
		a.peaks = resizeState(a.peaks, cfg.NumBands)
		a.recomputeBands()
	}
	return nil
}

// resizeState returns a slice of length n carrying over the old values and
// zero-filling any growth.
func resizeState(old []float64, n int) []float64 {
	if len(old) == n {
		return old
	}
	fresh := make([]float64, n)
	copy(fresh, old)
	return fresh
}

// syncTransform sizes the scratch buffers against the transform and rebuilds
// the partition. Called at construction and whenever the transform has been
// reconfigured underneath us.
func (a *Analyzer) syncTransform() {
	n := a.transform.Size()
	bins := a.transform.BinCount()
	if len(a.samples) != n {
		a.samples = make([]float32, n)
		a.window = make([]float64, n)
	}
	if len(a.magnitudes) != bins {
		a.magnitudes = make([]float64, bins)
	}
	a.recomputeBands()
}

func (a *Analyzer) recomputeBands() {
	bins := a.transform.BinCount()
	if a.cfg.LogFrequency {
		a.bands = dsp.ComputeLogBands(bins, a.cfg.NumBands,
			a.cfg.MinFrequency, a.cfg.MaxFrequency, a.sampleRate, a.transform.Size())
	} else {
		a.bands = dsp.ComputeLinearBands(bins, a.cfg.NumBands)
	}
}

// Tick runs one analysis pass and returns the resulting snapshot.
//
// With fewer than a quarter window of samples queued, the previous smoothed
// state is re-emitted unchanged so startup and underruns do not flicker.
// Otherwise the most recent window is analyzed and exactly the samples read
// are consumed from the queue.
func (a *Analyzer) Tick() Snapshot {
	now := time.Now()

	if len(a.samples) != a.transform.Size() || len(a.magnitudes) != a.transform.BinCount() {
		a.syncTransform()
	}

	n := a.transform.Size()
	occupancy := a.queue.Len()
	if occupancy < n/4 {
		return a.snapshot(now, 0, 0)
	}

	// Keep only the freshest window.
	if occupancy > n {
		a.queue.Discard(occupancy - n)
	}
	read := a.queue.Peek(a.samples)

	sumSquares := 0.0
	peak := 0.0
	for i := range read {
		s := float64(a.samples[i])
		a.window[i] = s
		sumSquares += s * s
		if abs := math.Abs(s); abs > peak {
			peak = abs
		}
	}
	rms := math.Sqrt(sumSquares / float64(read))

	if _, err := a.transform.Compute(a.window[:read], a.magnitudes); err != nil {
		applog.Errorf("Analyzer: transform failed: %v", err)
		a.queue.Discard(read)
		return a.snapshot(now, rms, peak)
	}

	k := a.cfg.SmoothingFactor
	for i, band := range a.bands {
		raw := a.bandAverage(band)
		a.smoothed[i] = (1-k)*raw + k*a.smoothed[i]

		if a.smoothed[i] > a.peaks[i] {
			a.peaks[i] = a.smoothed[i]
		} else {
			a.peaks[i] *= a.cfg.PeakDecayRate
		}
	}

	a.queue.Discard(read)
	return a.snapshot(now, rms, peak)
}

// bandAverage returns the mean magnitude over the band's bin range.
func (a *Analyzer) bandAverage(b dsp.Band) float64 {
	if b.Hi <= b.Lo {
		return 0
	}
	sum := 0.0
	for i := b.Lo; i < b.Hi; i++ {
		sum += a.magnitudes[i]
	}
	return sum / float64(b.Width())
}

// snapshot copies the current state into a self-contained value.
func (a *Analyzer) snapshot(ts time.Time, rms, peak float64) Snapshot {
	mags := make([]float64, len(a.smoothed))
	peaks := make([]float64, len(a.peaks))
	copy(mags, a.smoothed)
	copy(peaks, a.peaks)
	return Snapshot{
		Magnitudes: mags,
		Peaks:      peaks,
		RMS:        rms,
		Peak:       peak,
		Timestamp:  ts,
	}
}

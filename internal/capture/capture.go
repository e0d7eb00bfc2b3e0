// SPDX-License-Identifier: MIT
/*
Package capture feeds raw audio samples into the analysis ring buffer.

Two sources are provided: Device wraps a PortAudio input stream whose
real-time callback pushes into the ring without locks or allocations, and
WAVFile streams a file at its own sample rate for running the pipeline
without hardware.

Overflow is an expected transient in real-time capture, so rejected pushes
are surfaced as counters rather than errors.
*/
package capture

import (
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"github.com/gordonklaus/portaudio"

	applog "audiovis/internal/log"
	"audiovis/pkg/ring"
)

// Initialize sets up the PortAudio subsystem. Must be called once per
// process before opening a device and paired with Terminate.
func Initialize() error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize PortAudio: %w", err)
	}
	return nil
}

// Terminate shuts down the PortAudio subsystem. Defer immediately after a
// successful Initialize.
func Terminate() error {
	if err := portaudio.Terminate(); err != nil {
		return fmt.Errorf("failed to terminate PortAudio: %w", err)
	}
	return nil
}

// Config holds capture stream settings.
type Config struct {
	SampleRate      float64
	FramesPerBuffer int
	Channels        int  // Channels delivered by the device; channel 0 feeds the ring
	LowLatency      bool // Request the device's low-latency setting
}

// Stats is a monotonic view of capture activity. Overruns count samples the
// ring could not take plus device-side input overflows.
type Stats struct {
	FramesCaptured uint64
	Overruns       uint64
	Callbacks      uint64
	PeakAmplitude  float64
}

// Device captures from the default PortAudio input device into a ring
// buffer. The stream callback is the real-time producer side of the ring;
// everything else runs on the caller's goroutine.
type Device struct {
	cfg    Config
	queue  *ring.Buffer[float32]
	stream *portaudio.Stream

	mono    []float32 // channel-0 scratch, sized at open
	running atomic.Bool

	framesCaptured atomic.Uint64
	overruns       atomic.Uint64
	callbacks      atomic.Uint64
	peakBits       atomic.Uint32 // float32 bits; positive floats order as uints
}

// NewDevice opens an input stream on the default device. The stream is not
// started until Start is called.
func NewDevice(cfg Config, queue *ring.Buffer[float32]) (*Device, error) {
	if cfg.Channels < 1 {
		return nil, fmt.Errorf("channel count must be >= 1, got %d", cfg.Channels)
	}

	info, err := portaudio.DefaultInputDevice()
	if err != nil {
		return nil, fmt.Errorf("no default input device: %w", err)
	}

	latency := info.DefaultHighInputLatency
	if cfg.LowLatency {
		latency = info.DefaultLowInputLatency
	}

	d := &Device{
		cfg:   cfg,
		queue: queue,
		mono:  make([]float32, cfg.FramesPerBuffer),
	}

	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   info,
			Channels: cfg.Channels,
			Latency:  latency,
		},
		FramesPerBuffer: cfg.FramesPerBuffer,
		SampleRate:      cfg.SampleRate,
	}

	stream, err := portaudio.OpenStream(params, d.process)
	if err != nil {
		return nil, fmt.Errorf("failed to open input stream: %w", err)
	}
	d.stream = stream

	applog.Infof("Capture: opened %q (%.0f Hz, %d frames/buffer)",
		info.Name, cfg.SampleRate, cfg.FramesPerBuffer)
	return d, nil
}

// process is the PortAudio callback: the real-time hot path. Pre-allocated
// buffers only; overflow becomes a counter, never a block.
func (d *Device) process(in []float32) {
	d.callbacks.Add(1)

	samples := in
	if d.cfg.Channels > 1 {
		frames := len(in) / d.cfg.Channels
		if frames > len(d.mono) {
			frames = len(d.mono)
		}
		for i := range frames {
			d.mono[i] = in[i*d.cfg.Channels]
		}
		samples = d.mono[:frames]
	}

	var peak float32
	for _, s := range samples {
		if s < 0 {
			s = -s
		}
		if s > peak {
			peak = s
		}
	}
	d.updatePeak(peak)

	written := d.queue.TryPushBatch(samples)
	if written < len(samples) {
		d.overruns.Add(uint64(len(samples) - written))
	}
	d.framesCaptured.Add(uint64(len(samples)))
}

// updatePeak raises the running peak with a CAS loop, never lowering it.
func (d *Device) updatePeak(peak float32) {
	bits := math.Float32bits(peak)
	for {
		current := d.peakBits.Load()
		if bits <= current || d.peakBits.CompareAndSwap(current, bits) {
			return
		}
	}
}

// Start begins capture. Calling Start on a running device is a no-op.
func (d *Device) Start() error {
	if d.running.Load() {
		return nil
	}
	if err := d.stream.Start(); err != nil {
		return fmt.Errorf("failed to start input stream: %w", err)
	}
	d.running.Store(true)
	return nil
}

// Stop halts capture without releasing the stream.
func (d *Device) Stop() error {
	if !d.running.Load() {
		return nil
	}
	d.running.Store(false)
	if err := d.stream.Stop(); err != nil {
		return fmt.Errorf("failed to stop input stream: %w", err)
	}
	return nil
}

// Running reports whether the stream is capturing.
func (d *Device) Running() bool { return d.running.Load() }

// Close stops the stream and releases its resources.
func (d *Device) Close() error {
	if err := d.Stop(); err != nil {
		return err
	}
	if d.stream != nil {
		if err := d.stream.Close(); err != nil {
			return fmt.Errorf("failed to close input stream: %w", err)
		}
		d.stream = nil
	}
	return nil
}

// Stats returns a snapshot of the capture counters.
func (d *Device) Stats() Stats {
	return Stats{
		FramesCaptured: d.framesCaptured.Load(),
		Overruns:       d.overruns.Load(),
		Callbacks:      d.callbacks.Load(),
		PeakAmplitude:  float64(math.Float32frombits(d.peakBits.Load())),
	}
}

// RingCapacity returns the ring size needed to hold seconds of history at
// the given sample rate.
func RingCapacity(sampleRate, seconds float64) int {
	return int(sampleRate * seconds)
}

// pace returns the wall-clock duration of n frames at rate Hz.
func pace(n int, rate float64) time.Duration {
	return time.Duration(float64(n) / rate * float64(time.Second))
}
